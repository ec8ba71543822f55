package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/potencialpi/sentiment-cx/internal/errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// batchJob is one survey to analyse: a file path or a stored survey id
type batchJob struct {
	path     string
	surveyID string
}

func (j batchJob) name() string {
	if j.surveyID != "" {
		return j.surveyID
	}
	return strings.TrimSuffix(filepath.Base(j.path), filepath.Ext(j.path))
}

func newBatchCmd(a *app) *cobra.Command {
	var (
		outDir      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch [files...]",
		Short: "Analyse many surveys concurrently, one JSON report per survey",
		Long: `Analyse every file given, or every stored survey when no files are given.
Reports are written to --out-dir as <name>.report.json.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("concurrency") {
				a.cfg.Output.BatchConcurrency = concurrency
			}
			if a.cfg.Output.BatchConcurrency < 1 {
				return apperrors.InvalidInput("--concurrency must be at least 1")
			}

			jobs, err := a.batchJobs(cmd.Context(), args)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				return apperrors.InvalidInput("nothing to analyse")
			}
			if err := checkReportNames(jobs); err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return apperrors.Wrapf(err, "failed to create %s", outDir)
			}

			written, err := a.runBatch(cmd.Context(), jobs, outDir)
			if err != nil {
				return err
			}
			out := writeOut(cmd)
			for _, path := range written {
				fmt.Fprintln(out, path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out-dir", "reports", "Directory for the JSON reports")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Surveys analysed in parallel")
	return cmd
}

func (a *app) batchJobs(ctx context.Context, args []string) ([]batchJob, error) {
	if len(args) > 0 {
		jobs := make([]batchJob, len(args))
		for i, path := range args {
			jobs[i] = batchJob{path: path}
		}
		return jobs, nil
	}

	repo, closeDB, err := a.openRepository(ctx)
	if err != nil {
		return nil, err
	}
	defer closeDB()
	surveys, err := repo.ListSurveys(ctx)
	if err != nil {
		return nil, err
	}
	jobs := make([]batchJob, len(surveys))
	for i, s := range surveys {
		jobs[i] = batchJob{surveyID: s.SurveyID.String()}
	}
	return jobs, nil
}

// checkReportNames rejects jobs that would write the same report file
func checkReportNames(jobs []batchJob) error {
	seen := make(map[string]batchJob, len(jobs))
	for _, job := range jobs {
		name := job.name()
		if prev, ok := seen[name]; ok {
			return apperrors.InvalidInput(fmt.Sprintf("%s and %s both write %s.report.json",
				prev.path, job.path, name))
		}
		seen[name] = job
	}
	return nil
}

// runBatch analyses the jobs with bounded concurrency. The first failure cancels the rest.
// Written paths come back in job order.
func (a *app) runBatch(ctx context.Context, jobs []batchJob, outDir string) ([]string, error) {
	written := make([]string, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Output.BatchConcurrency)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records, source, err := a.loadRecords(gctx, job.path, job.surveyID)
			if err != nil {
				return err
			}
			report, err := a.engine.Analyze(gctx, records, a.request())
			if err != nil {
				return apperrors.WithCode(apperrors.CodeInvalidInput, err, "analysis of "+source+" failed")
			}

			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return apperrors.Wrap(err, "failed to encode report")
			}
			path := filepath.Join(outDir, job.name()+".report.json")
			if err := os.WriteFile(path, data, 0644); err != nil {
				return apperrors.Wrapf(err, "failed to write %s", path)
			}

			written[i] = path
			a.logger.Info("report written",
				zap.String("source", source),
				zap.String("analysis_id", report.AnalysisID.String()),
				zap.String("path", path))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return written, nil
}
