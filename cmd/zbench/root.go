package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"zbench/internal/config"
	"zbench/internal/driver"
	"zbench/internal/metrics"
	"zbench/internal/report"
	"zbench/internal/telemetry"
	"zbench/internal/ui"
)

var exit = os.Exit

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
}

// NewRootCmd builds the zbench command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "zbench",
		Short: "Compare the speed and compression ratio of zlib builds",
		Long: `zbench checks out and builds several interchangeable zlib variants, runs
each one repeatedly over a corpus of files at the chosen compression levels,
and reports the compression ratio and CPU time of every variant relative to
the baseline.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runBenchmark,
	}

	formats := make([]string, 0, len(report.Formats()))
	for _, f := range report.Formats() {
		formats = append(formats, string(f))
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default is ./zbench.yaml)")
	pf.BoolP("quiet", "q", false, "Only log warnings and errors")
	pf.BoolP("verbose", "v", false, "Enable verbose/debug logging")
	pf.String("log-file", "", "Also write debug logs to this file")
	pf.String("history-db", "", "History database: SQLite path or Postgres DSN")
	pf.String("history-type", "sqlite", "History backend (sqlite, postgres)")
	pf.StringP("output-format", "f", "pretty", "Output format ("+strings.Join(formats, ", ")+")")
	pf.String("color", "auto", "Color the pretty output (auto, always, never)")
	pf.String("baseline", "baseline", "Variant the others are compared against")
	pf.String("work-dir", "work", "Directory for checkouts, builds and prepared inputs")

	f := root.Flags()
	f.IntSlice("levels", []int{1, 6, 9}, "Compression levels to benchmark")
	f.Int("compress-iterations", 5, "Invocations per timed compression measurement")
	f.Int("decompress-iterations", 20, "Invocations per timed decompression measurement")
	f.Int("runs", 5, "Measurements per benchmark and variant")
	f.Int("decompress-level", 6, "Level the baseline uses to prepare decompression inputs")
	f.Int("jobs", 0, "Parallel make jobs when building (0 lets make decide)")
	f.StringP("output", "o", "", "Write the report to this file instead of stdout")
	f.String("load", "", "Render a previously saved JSON report instead of benchmarking (- reads stdin)")
	f.Bool("force-recompile", false, "Rebuild every variant even if its tool exists")
	f.String("corpus", "corpus", "Directory holding the input files")
	f.String("pattern", "*", "Glob selecting corpus files")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	f.String("metrics-textfile", "", "Write Prometheus metrics to this file after the run")

	root.AddCommand(NewVariantsCmd(), NewHistoryCmd(), NewVersionCmd())
	return root
}

// loadConfig resolves the configuration for cmd and installs the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, func() error, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	closeLog := telemetry.InitLogger(telemetry.Level(cfg.Quiet, cfg.Verbose), cfg.LogFile)
	return cfg, closeLog, nil
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	cfg, closeLog, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	m := metrics.NewMetrics()
	if cfg.MetricsAddr != "" {
		srv, err := telemetry.StartMetricsServer(cfg.MetricsAddr, m.Handler())
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				slog.Warn("metrics server shutdown", "error", err)
			}
		}()
	}

	d, err := driver.NewFromConfig(cfg, m, ui.NewProgress(cmd.ErrOrStderr(), cfg.Quiet))
	if err != nil {
		return err
	}
	defer d.Close()
	d.SetInput(cmd.InOrStdin())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return d.Run(ctx, cmd.OutOrStdout())
}
