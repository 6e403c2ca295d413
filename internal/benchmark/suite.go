package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"zbench/internal/corpus"
	"zbench/internal/registry"
	"zbench/internal/stats"
)

// Executor runs a built tool against an input. It is implemented by runner.Runner.
type Executor interface {
	Warm(ctx context.Context, exe string, mode Mode, input string) error
	Run(ctx context.Context, variant, exe string, mode Mode, input string, iterations int) (Measurement, error)
	CompressFile(ctx context.Context, exe string, level int, input, dst string) error
}

// Progress receives one call per finished measurement.
type Progress interface {
	Step(done, total int, id, variant string)
	Done()
}

// SuiteConfig holds the sweep parameters.
type SuiteConfig struct {
	Levels               []int
	CompressIterations   int
	DecompressIterations int
	Runs                 int
	// DecompressLevel is the level the baseline uses to prepare decompression inputs.
	DecompressLevel int
	Baseline        string
	// PreparedDir receives the compressed copies of the corpus.
	PreparedDir string
}

// Suite drives every variant through every benchmark and aggregates the results.
type Suite struct {
	cfg      SuiteConfig
	exec     Executor
	progress Progress
}

func NewSuite(cfg SuiteConfig, exec Executor, progress Progress) *Suite {
	return &Suite{cfg: cfg, exec: exec, progress: progress}
}

type job struct {
	id         string
	mode       Mode
	input      string
	iterations int
	level      *int
	inputSize  int64
}

type series struct {
	size []float64
	time []float64
}

// Run measures variants against inputs and returns the aggregated report.
// Variants must already be built and resolved.
func (s *Suite) Run(ctx context.Context, variants []registry.Variant, inputs []corpus.File) (*Report, error) {
	if s.cfg.Runs < 1 {
		return nil, fmt.Errorf("runs must be at least 1, got %d", s.cfg.Runs)
	}
	base, ok := registry.Lookup(variants, s.cfg.Baseline)
	if !ok {
		return nil, fmt.Errorf("baseline variant %q is not in the variant list", s.cfg.Baseline)
	}

	jobs, err := s.plan(ctx, base, inputs)
	if err != nil {
		return nil, err
	}

	samples := make(map[string]map[string]*series, len(jobs))
	for _, j := range jobs {
		byVariant := make(map[string]*series, len(variants))
		for _, v := range variants {
			byVariant[v.Name] = &series{}
		}
		samples[j.id] = byVariant
	}

	total := s.cfg.Runs * len(jobs) * len(variants)
	done := 0
	for run := 0; run < s.cfg.Runs; run++ {
		for _, j := range jobs {
			for _, v := range variants {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				m, err := s.measure(ctx, v, j)
				if err != nil {
					return nil, err
				}
				sr := samples[j.id][v.Name]
				sr.time = append(sr.time, m.CPUTime.Seconds())
				if m.OutputSize != nil {
					sr.size = append(sr.size, float64(*m.OutputSize))
				}

				done++
				slog.Debug("measured", "benchmark", j.id, "variant", v.Name, "run", run+1, "cpu", m.CPUTime)
				if s.progress != nil {
					s.progress.Step(done, total, j.id, v.Name)
				}
			}
		}
	}
	if s.progress != nil {
		s.progress.Done()
	}

	report := NewReport(Describe(variants))
	for _, j := range jobs {
		res, err := aggregate(j, samples[j.id])
		if err != nil {
			return nil, fmt.Errorf("aggregate %s: %w", j.id, err)
		}
		report.Benchmarks[j.id] = res
	}
	return report, nil
}

func (s *Suite) measure(ctx context.Context, v registry.Variant, j job) (Measurement, error) {
	exe := v.ExecutablePath()
	if err := s.exec.Warm(ctx, exe, j.mode, j.input); err != nil {
		return Measurement{}, fmt.Errorf("%s warm-up for %s: %w", v.Name, j.id, err)
	}
	m, err := s.exec.Run(ctx, v.Name, exe, j.mode, j.input, j.iterations)
	if err != nil {
		return Measurement{}, fmt.Errorf("%s run for %s: %w", v.Name, j.id, err)
	}
	return m, nil
}

// plan lists the benchmarks in sweep order, preparing decompression inputs with
// the baseline build as it goes.
func (s *Suite) plan(ctx context.Context, base registry.Variant, inputs []corpus.File) ([]job, error) {
	var jobs []job
	for _, level := range s.cfg.Levels {
		lvl := level
		for _, in := range inputs {
			jobs = append(jobs, job{
				id:         CompressID(in.Name, lvl),
				mode:       Compress(lvl),
				input:      in.Path,
				iterations: s.cfg.CompressIterations,
				level:      &lvl,
				inputSize:  in.Size,
			})
		}
	}

	if len(inputs) > 0 {
		if err := os.MkdirAll(s.cfg.PreparedDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", s.cfg.PreparedDir, err)
		}
	}
	for _, in := range inputs {
		dst := filepath.Join(s.cfg.PreparedDir, in.Name+".z")
		if err := s.exec.CompressFile(ctx, base.ExecutablePath(), s.cfg.DecompressLevel, in.Path, dst); err != nil {
			return nil, fmt.Errorf("prepare %s with %s: %w", in.Name, base.Name, err)
		}
		jobs = append(jobs, job{
			id:         DecompressID(in.Name),
			mode:       Decompress(),
			input:      dst,
			iterations: s.cfg.DecompressIterations,
		})
	}
	return jobs, nil
}

func aggregate(j job, byVariant map[string]*series) (Result, error) {
	res := Result{
		Level:     j.level,
		InputSize: j.inputSize,
		Time:      make(map[string]Stat, len(byVariant)),
	}
	if !j.mode.IsDecompress() {
		res.Size = make(map[string]Stat, len(byVariant))
	}
	for name, sr := range byVariant {
		mean, se, err := stats.MeanStdErr(sr.time)
		if err != nil {
			return Result{}, err
		}
		res.Time[name] = Stat{Mean: mean, StdErr: se}

		if res.Size != nil {
			mean, se, err := stats.MeanStdErr(sr.size)
			if err != nil {
				return Result{}, err
			}
			res.Size[name] = Stat{Mean: mean, StdErr: se}
		}
	}
	return res, nil
}

// Describe converts resolved variants to report descriptors.
func Describe(variants []registry.Variant) []VariantInfo {
	infos := make([]VariantInfo, 0, len(variants))
	for _, v := range variants {
		infos = append(infos, VariantInfo{
			Name:     v.Name,
			URL:      v.URL,
			Revision: v.Revision,
			Hash:     v.Resolved,
			Flags:    v.Flags,
		})
	}
	return infos
}
