package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"zbench/internal/config"
	"zbench/internal/db"
	"zbench/internal/report"
	"zbench/internal/ui"
)

// NewHistoryCmd groups the commands that read stored runs.
func NewHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect previously recorded benchmark runs",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withHistory(cmd, func(cfg *config.Config, store db.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "ID\tCREATED\tVARIANTS\tBENCHMARKS\t")
				for _, r := range runs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t\n",
						r.ID, r.CreatedAt.Local().Format(time.DateTime), strings.Join(r.Variants, ", "), r.Benchmarks)
				}
				return w.Flush()
			})
		},
	}
	listCmd.Flags().Int("limit", 20, "Maximum number of runs to list")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Render a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, func(cfg *config.Config, store db.Store) error {
				format, err := report.ParseFormat(cfg.OutputFormat)
				if err != nil {
					return err
				}
				renderer, err := report.New(format, report.Options{
					Baseline: cfg.Baseline,
					Color:    report.ColorMode(cfg.Color),
					Terminal: ui.IsTerminal(cmd.OutOrStdout()),
				})
				if err != nil {
					return err
				}

				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				rep, err := run.Report()
				if err != nil {
					return err
				}
				return renderer.Render(cmd.OutOrStdout(), rep)
			})
		},
	}

	historyCmd.AddCommand(listCmd, showCmd)
	return historyCmd
}

func withHistory(cmd *cobra.Command, fn func(*config.Config, db.Store) error) error {
	cfg, closeLog, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := db.NewStore(db.StoreConfig{Type: cfg.HistoryType, DSN: cfg.HistoryDB})
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}
