package main

import (
	"fmt"

	"github.com/potencialpi/sentiment-cx/domain/core"
	"github.com/potencialpi/sentiment-cx/internal/analysis/clustering"
	"github.com/potencialpi/sentiment-cx/internal/analysis/variables"
	apperrors "github.com/potencialpi/sentiment-cx/internal/errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSweepCmd(a *app) *cobra.Command {
	var surveyID string

	cmd := &cobra.Command{
		Use:   "sweep [file]",
		Short: "Run only the k-means sweep and compare cluster counts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			records, _, err := a.loadRecords(cmd.Context(), path, surveyID)
			if err != nil {
				return err
			}

			extractor := variables.NewExtractor(variables.Config{
				NumericThreshold: a.cfg.Analysis.NumericThreshold,
				IncludeSentiment: true,
			}, a.logger)
			matrix, err := variables.BuildMatrix(extractor.Extract(records), a.cfg.Analysis.ClusterVariables)
			if err != nil {
				return apperrors.WithCode(apperrors.CodeInvalidInput, err, "cannot build cluster matrix")
			}

			seed := a.cfg.Analysis.Seed
			if seed == 0 {
				seed = core.SeedFromClock()
			}
			partitions, err := clustering.Sweep(matrix.Rows, seed, clustering.SweepOptions{
				KMin:    a.cfg.Analysis.KMin,
				KMax:    a.cfg.Analysis.KMax,
				KMeans:  clustering.Options{Restarts: a.cfg.Analysis.Restarts, Logger: a.logger},
				Streams: clustering.SeededStreams{},
				Logger:  a.logger,
			})
			if err != nil {
				return apperrors.Wrap(err, "cluster sweep failed")
			}
			a.logger.Info("sweep complete",
				zap.Int64("seed", seed),
				zap.Int("rows", matrix.Len()),
				zap.Int("partitions", len(partitions)))

			out := writeOut(cmd)
			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("K-means sweep over %d rows (seed %d)", matrix.Len(), seed)))
			_, err = fmt.Fprintln(out, renderPartitions(partitions, matrix.Columns, a.labels))
			return err
		},
	}

	cmd.Flags().StringVar(&surveyID, "survey", "", "Sweep a stored survey instead of a file")
	return cmd
}
