package main

import (
	"fmt"

	"github.com/potencialpi/sentiment-cx/internal/migration"

	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the survey database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			runner := migration.NewRunner(a.logger)
			applied, err := runner.Run(cmd.Context(), db)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(writeOut(cmd), "schema at version %d (%d applied)\n", runner.Version(), applied)
			return err
		},
	}
}
