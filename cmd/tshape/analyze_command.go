package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tshape/internal/batch"
	"tshape/internal/config"
	"tshape/internal/curvature"
	"tshape/internal/loader"
	"tshape/internal/logging"
	"tshape/internal/report"
	"tshape/internal/resultstore"
)

type analyzeOptions struct {
	input     string
	output    string
	resultsDB string
	workers   int
	strict    bool
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze every shape table in the input directory",
		Long: "Analyze reads <subject>_<symbol> tables from the input directory, computes\n" +
			"the curvature index, Procrustes distance to the subject's rest shape, and\n" +
			"the leading tangent-angle harmonics of every repetition, and writes one\n" +
			"output row per repetition.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			effective, err := applyAnalyzeOverrides(*cfg, cmd, opts)
			if err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), &effective)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Directory of shape tables (overrides paths.input_dir)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output table path (overrides paths.output_file)")
	cmd.Flags().StringVar(&opts.resultsDB, "results-db", "", "SQLite archive path (overrides paths.results_db)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Subjects analyzed concurrently (overrides analysis.workers)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Abort the run on the first malformed input file")
	return cmd
}

// applyAnalyzeOverrides layers command-line flags over the loaded config. An
// output file that sat in the configured input directory follows an
// overridden input directory.
func applyAnalyzeOverrides(cfg config.Config, cmd *cobra.Command, opts analyzeOptions) (config.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		dir, err := config.ExpandPath(strings.TrimSpace(opts.input))
		if err != nil {
			return cfg, fmt.Errorf("resolve --input: %w", err)
		}
		if filepath.Dir(cfg.Paths.OutputFile) == cfg.Paths.InputDir {
			cfg.Paths.OutputFile = filepath.Join(dir, filepath.Base(cfg.Paths.OutputFile))
		}
		cfg.Paths.InputDir = dir
	}
	if flags.Changed("output") {
		out, err := config.ExpandPath(strings.TrimSpace(opts.output))
		if err != nil {
			return cfg, fmt.Errorf("resolve --output: %w", err)
		}
		cfg.Paths.OutputFile = out
	}
	if flags.Changed("results-db") {
		db, err := config.ExpandPath(strings.TrimSpace(opts.resultsDB))
		if err != nil {
			return cfg, fmt.Errorf("resolve --results-db: %w", err)
		}
		cfg.Paths.ResultsDB = db
	}
	if flags.Changed("workers") {
		cfg.Analysis.Workers = opts.workers
	}
	if flags.Changed("strict") {
		cfg.Analysis.Strict = opts.strict
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runAnalyze(ctx context.Context, out io.Writer, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)

	base, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logger := logging.WithContext(ctx, base)

	analyzer, err := curvature.New(cfg.Analysis.FilterOrder, cfg.Analysis.FilterCutoff)
	if err != nil {
		return err
	}

	started := time.Now()
	logger.Info("analysis started",
		logging.String("input_dir", cfg.Paths.InputDir),
		logging.String("output_file", cfg.Paths.OutputFile),
		logging.Int("workers", cfg.Analysis.Workers),
	)

	processor := &batch.Processor{
		Loader: loader.NewDirectory(loader.Options{
			Dir:         cfg.Paths.InputDir,
			Pattern:     cfg.Input.Pattern,
			Delimiter:   cfg.DelimiterRune(),
			HeaderLines: cfg.Input.HeaderLines,
			Exclude:     []string{cfg.Paths.OutputFile},
		}, logger),
		Logger:     base,
		Curvature:  analyzer,
		RestSymbol: cfg.Input.RestSymbol,
		Workers:    cfg.Analysis.Workers,
		Strict:     cfg.Analysis.Strict,
	}
	res, err := processor.Run(ctx)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", cfg.Paths.InputDir, err)
	}

	if err := report.WriteFile(cfg.Paths.OutputFile, res.Rows); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	finished := time.Now()
	logger.Info("analysis finished",
		logging.Int("rows", len(res.Rows)),
		logging.Int("skipped", res.Skipped),
		logging.Int("failed_subjects", len(res.Failures)),
		logging.Duration("elapsed", finished.Sub(started)),
	)

	if cfg.ResultsEnabled() {
		if err := archiveRun(ctx, cfg, res, &resultstore.Run{
			ID:         runID,
			StartedAt:  started,
			FinishedAt: finished,
			InputDir:   cfg.Paths.InputDir,
			OutputFile: cfg.Paths.OutputFile,
		}); err != nil {
			return err
		}
	}

	printAnalyzeSummary(out, cfg, runID, res)
	return nil
}

func archiveRun(ctx context.Context, cfg *config.Config, res *batch.Result, run *resultstore.Run) error {
	store, err := resultstore.Open(ctx, cfg.Paths.ResultsDB)
	if err != nil {
		return fmt.Errorf("open results archive: %w", err)
	}
	defer store.Close()
	if err := store.Save(ctx, run, res); err != nil {
		return fmt.Errorf("archive run: %w", err)
	}
	return nil
}

type subjectSummary struct {
	rows    int
	noRest  bool
	failure error
}

func printAnalyzeSummary(out io.Writer, cfg *config.Config, runID string, res *batch.Result) {
	summaries := make(map[string]*subjectSummary)
	get := func(subject string) *subjectSummary {
		s, ok := summaries[subject]
		if !ok {
			s = &subjectSummary{}
			summaries[subject] = s
		}
		return s
	}
	for _, row := range res.Rows {
		get(row.Subject).rows++
	}
	for _, subject := range res.NoRest {
		get(subject).noRest = true
	}
	for _, f := range res.Failures {
		get(f.Subject).failure = f.Err
	}

	subjects := make([]string, 0, len(summaries))
	for subject := range summaries {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	rows := make([][]string, 0, len(subjects))
	for _, subject := range subjects {
		s := summaries[subject]
		if s.failure != nil {
			rows = append(rows, []string{subject, "0", "-", "failed"})
			continue
		}
		rows = append(rows, []string{subject, strconv.Itoa(s.rows), yesNo(!s.noRest), "ok"})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"Subject", "Rows", "Rest", "Status"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
		))
	}

	status := newStatusPrinter(out)
	status.section("Run " + runID)
	status.line("Subjects", statusInfo, strconv.Itoa(res.Subjects))
	status.line("Rows written", statusOK, fmt.Sprintf("%d to %s", len(res.Rows), cfg.Paths.OutputFile))
	if res.Skipped > 0 {
		status.line("Repetitions skipped", statusWarn, fmt.Sprintf("%d with non-finite values", res.Skipped))
	}
	if len(res.NoRest) > 0 {
		status.line("Without rest shape", statusWarn, strings.Join(res.NoRest, ", "))
	}
	for _, f := range res.Failures {
		status.line("Subject "+f.Subject, statusError, f.Err.Error())
	}
	if cfg.ResultsEnabled() {
		status.line("Archived", statusOK, cfg.Paths.ResultsDB)
	}
}
