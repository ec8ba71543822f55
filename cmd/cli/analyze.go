package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/potencialpi/sentiment-cx/domain/survey"
	apperrors "github.com/potencialpi/sentiment-cx/internal/errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var format string
	var surveyID string

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Run the full analysis over one survey",
		Long: `Run descriptive statistics, correlation, ANOVA and the k-means sweep over one survey.

Records are read from a .json, .xlsx or .csv file, or from the database with --survey.

Example: scx analyze responses.xlsx --seed 42 --vars nps,effort --labels labels.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			records, source, err := a.loadRecords(cmd.Context(), path, surveyID)
			if err != nil {
				return err
			}

			report, err := a.engine.Analyze(cmd.Context(), records, a.request())
			if err != nil {
				return apperrors.WithCode(apperrors.CodeInvalidInput, err, "analysis failed")
			}
			a.logger.Debug("report ready", zap.String("source", source))

			return writeReport(writeOut(cmd), report, format, a)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|json")
	cmd.Flags().StringVar(&surveyID, "survey", "", "Analyse a stored survey instead of a file")
	return cmd
}

func writeReport(w io.Writer, report *survey.Report, format string, a *app) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "text":
		_, err := io.WriteString(w, renderReport(report, a.labels))
		return err
	default:
		return apperrors.InvalidInput(fmt.Sprintf("unknown format %q", format))
	}
}
