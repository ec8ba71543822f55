package main

import (
	"encoding/json"
	"os"

	"github.com/potencialpi/sentiment-cx/adapters/postgres"
	"github.com/potencialpi/sentiment-cx/domain/core"
	apperrors "github.com/potencialpi/sentiment-cx/internal/errors"
	"github.com/potencialpi/sentiment-cx/internal/migration"
	"github.com/potencialpi/sentiment-cx/internal/testkit"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		count    int
		skipRate float64
		out      string
		surveyID string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic survey with latent customer segments",
		Long: `Generate a synthetic survey. The output goes to stdout, to --out, or into the
database when --survey is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := testkit.DefaultSurveyConfig()
			cfg.RespondentCount = count
			cfg.SkipRate = skipRate
			if a.cfg.Analysis.Seed != 0 {
				cfg.Seed = a.cfg.Analysis.Seed
			}
			if count <= 0 {
				return apperrors.InvalidInput("--count must be positive")
			}
			records := testkit.NewSurveyGenerator(cfg).Generate()

			if surveyID != "" {
				id, err := core.ParseSurveyID(surveyID)
				if err != nil {
					return apperrors.WithCode(apperrors.CodeInvalidInput, err, "invalid survey id")
				}
				db, err := a.openDB(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()
				if _, err := migration.NewRunner(a.logger).Run(cmd.Context(), db); err != nil {
					return err
				}
				repo := postgres.NewResponseRepository(db)
				if err := repo.Save(cmd.Context(), id, records); err != nil {
					return err
				}
				a.logger.Info("survey stored", zap.String("survey_id", surveyID), zap.Int("records", len(records)))
				return nil
			}

			data, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return apperrors.Wrap(err, "failed to encode survey")
			}
			if out == "" {
				_, err = writeOut(cmd).Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return apperrors.Wrapf(err, "failed to write %s", out)
			}
			a.logger.Info("survey written", zap.String("path", out), zap.Int("records", len(records)))
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 200, "Number of respondents")
	cmd.Flags().Float64Var(&skipRate, "skip-rate", 0.05, "Probability that a respondent skips a question")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the survey to this file instead of stdout")
	cmd.Flags().StringVar(&surveyID, "survey", "", "Store the survey in the database under this id")
	return cmd
}
