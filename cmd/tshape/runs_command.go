package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"tshape/internal/resultstore"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect archived analysis runs",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	return runsCmd
}

func (c *commandContext) withStore(cmd *cobra.Command, fn func(*resultstore.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.ResultsEnabled() {
		return errors.New("results archive disabled; set paths.results_db in the config")
	}
	store, err := resultstore.Open(cmd.Context(), cfg.Paths.ResultsDB)
	if err != nil {
		return fmt.Errorf("open results archive: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(store *resultstore.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No archived runs")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.ID,
						run.StartedAt.Local().Format(time.DateTime),
						strconv.Itoa(run.Subjects),
						strconv.Itoa(run.Rows),
						strconv.Itoa(run.Skipped),
						strconv.Itoa(run.Failed),
						run.InputDir,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Started", "Subjects", "Rows", "Skipped", "Failed", "Input"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the rows and failures of an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(store *resultstore.Store) error {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				rows, err := store.Rows(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				failures, err := store.Failures(cmd.Context(), run.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				status := newStatusPrinter(out)
				status.section("Run " + run.ID)
				status.line("Input", statusInfo, run.InputDir)
				status.line("Output", statusInfo, run.OutputFile)
				status.line("Duration", statusInfo, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String())

				if len(rows) > 0 {
					table := make([][]string, 0, len(rows))
					for _, row := range rows {
						procrustes := "-"
						if row.HasRest {
							procrustes = formatMetric(row.Procrustes)
						}
						table = append(table, []string{
							row.Subject,
							row.Symbol,
							strconv.Itoa(row.Repetition),
							formatMetric(row.MCI),
							procrustes,
							formatMetric(row.Harmonics[0].Mod),
						})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"Subject", "Symbol", "Rep", "MCI", "Procrustes", "Mod 1"},
						table,
						[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
					))
				}
				for _, f := range failures {
					status.line("Subject "+f.Subject, statusError, fmt.Sprintf("%s: %s", f.Kind, f.Message))
				}
				return nil
			})
		},
	}
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
