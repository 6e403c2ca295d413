// Package driver runs one zbench invocation end to end.
package driver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"zbench/internal/benchmark"
	"zbench/internal/build"
	"zbench/internal/config"
	"zbench/internal/corpus"
	"zbench/internal/db"
	"zbench/internal/git"
	"zbench/internal/metrics"
	"zbench/internal/provision"
	"zbench/internal/registry"
	"zbench/internal/report"
	"zbench/internal/runner"
	"zbench/internal/ui"
)

// PreparedDirName is the directory under the work dir that holds
// decompression inputs.
const PreparedDirName = "prepared"

// Provisioner makes variants ready to run.
type Provisioner interface {
	EnsureAll(ctx context.Context, variants []registry.Variant) ([]registry.Variant, error)
}

// Suite measures ready variants.
type Suite interface {
	Run(ctx context.Context, variants []registry.Variant, inputs []corpus.File) (*benchmark.Report, error)
}

// Driver sequences provisioning, measurement, persistence and rendering.
type Driver struct {
	cfg     *config.Config
	prov    Provisioner
	suite   Suite
	history db.Store
	metrics *metrics.Metrics
	stdin   io.Reader
	now     func() time.Time
}

// StdinPath as the load path reads the report from standard input.
const StdinPath = "-"


// New returns a driver. history and m may be nil.
func New(cfg *config.Config, prov Provisioner, suite Suite, history db.Store, m *metrics.Metrics) *Driver {
	return &Driver{cfg: cfg, prov: prov, suite: suite, history: history, metrics: m, stdin: os.Stdin, now: time.Now}
}

// NewFromConfig wires the production components for cfg.
func NewFromConfig(cfg *config.Config, m *metrics.Metrics, progress benchmark.Progress) (*Driver, error) {
	var history db.Store
	if cfg.HistoryDB != "" {
		store, err := db.NewStore(db.StoreConfig{Type: cfg.HistoryType, DSN: cfg.HistoryDB})
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		history = store
	}

	prov := provision.New(git.NewClient(), build.NewToolchain(cfg.Jobs), m, cfg.WorkDir, cfg.ForceRecompile)
	suite := benchmark.NewSuite(benchmark.SuiteConfig{
		Levels:               cfg.Levels,
		CompressIterations:   cfg.CompressIterations,
		DecompressIterations: cfg.DecompressIterations,
		Runs:                 cfg.Runs,
		DecompressLevel:      cfg.DecompressLevel,
		Baseline:             cfg.Baseline,
		PreparedDir:          filepath.Join(cfg.WorkDir, PreparedDirName),
	}, runner.New(m), progress)

	return New(cfg, prov, suite, history, m), nil
}

// SetInput replaces the reader a StdinPath load reads from.
func (d *Driver) SetInput(r io.Reader) {
	d.stdin = r
}

// Close releases the history store.
func (d *Driver) Close() error {
	if d.history == nil {
		return nil
	}
	return d.history.Close()
}

// Run produces the report and writes it to the configured output, or to
// stdout when none is configured. Nothing is written if any step fails.
func (d *Driver) Run(ctx context.Context, stdout io.Writer) error {
	format, err := report.ParseFormat(d.cfg.OutputFormat)
	if err != nil {
		return err
	}
	renderer, err := report.New(format, report.Options{
		Baseline: d.cfg.Baseline,
		Color:    report.ColorMode(d.cfg.Color),
		Terminal: d.cfg.Output == "" && ui.IsTerminal(stdout),
	})
	if err != nil {
		return err
	}

	var rep *benchmark.Report
	if d.cfg.Load != "" {
		rep, err = d.load()
		if err != nil {
			return fmt.Errorf("failed to load report: %w", err)
		}
		slog.Info("loaded report", "path", d.cfg.Load, "benchmarks", len(rep.Benchmarks))
	} else {
		rep, err = d.measure(ctx)
		if err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, rep); err != nil {
		return fmt.Errorf("failed to render %s report: %w", format, err)
	}
	if err := d.write(stdout, buf.Bytes()); err != nil {
		return err
	}

	if d.cfg.MetricsTextfile != "" && d.metrics != nil {
		if err := d.metrics.WriteTextfile(d.cfg.MetricsTextfile); err != nil {
			return fmt.Errorf("failed to write metrics textfile: %w", err)
		}
	}
	return nil
}

func (d *Driver) load() (*benchmark.Report, error) {
	if d.cfg.Load == StdinPath {
		return benchmark.Decode(d.stdin)
	}
	return benchmark.NewFileStore(d.cfg.Load).Load()
}

func (d *Driver) measure(ctx context.Context) (*benchmark.Report, error) {
	start := d.now()

	variants, err := d.prov.EnsureAll(ctx, d.cfg.Variants)
	if err != nil {
		return nil, err
	}

	inputs := corpus.Discover(d.cfg.Corpus, d.cfg.Pattern)
	if len(inputs) == 0 {
		slog.Warn("no corpus files matched", "dir", d.cfg.Corpus, "pattern", d.cfg.Pattern)
	}
	slog.Info("starting sweep",
		"variants", len(variants),
		"files", len(inputs),
		"levels", d.cfg.Levels,
		"runs", d.cfg.Runs)

	rep, err := d.suite.Run(ctx, variants, inputs)
	if err != nil {
		return nil, err
	}
	elapsed := d.now().Sub(start)
	d.metrics.SetRunDuration(elapsed)
	slog.Info("sweep finished", "benchmarks", len(rep.Benchmarks), "elapsed", elapsed)

	if d.history != nil {
		run, err := db.NewRun(rep, d.now())
		if err != nil {
			return nil, err
		}
		if err := d.history.SaveRun(ctx, run); err != nil {
			return nil, err
		}
		slog.Info("saved run to history", "id", run.ID)
	}
	return rep, nil
}

func (d *Driver) write(stdout io.Writer, data []byte) error {
	if d.cfg.Output == "" {
		_, err := stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(d.cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(d.cfg.Output, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
