package benchmark

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zbench/internal/corpus"
	"zbench/internal/registry"
)

type call struct {
	kind    string
	variant string
	exe     string
	mode  Mode
	input string
	n     int
}

// fakeExecutor returns scripted CPU times per executable and mode, in call order.
type fakeExecutor struct {
	calls    []call
	prepared map[string]string
	times    map[string][]time.Duration
	sizes    map[string]int64
	failOn   string
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		prepared: make(map[string]string),
		times:    make(map[string][]time.Duration),
		sizes:    make(map[string]int64),
	}
}

func key(exe string, m Mode) string {
	return fmt.Sprintf("%s %s", filepath.Base(filepath.Dir(exe)), m.String())
}

func (f *fakeExecutor) Warm(ctx context.Context, exe string, mode Mode, input string) error {
	f.calls = append(f.calls, call{kind: "warm", exe: exe, mode: mode, input: input})
	return nil
}

func (f *fakeExecutor) Run(ctx context.Context, variant, exe string, mode Mode, input string, iterations int) (Measurement, error) {
	f.calls = append(f.calls, call{kind: "run", variant: variant, exe: exe, mode: mode, input: input, n: iterations})
	k := key(exe, mode)
	if k == f.failOn {
		return Measurement{}, errors.New("tool crashed")
	}
	var m Measurement
	if q := f.times[k]; len(q) > 0 {
		m.CPUTime = q[0]
		f.times[k] = q[1:]
	}
	if !mode.IsDecompress() {
		size := f.sizes[k]
		m.OutputSize = &size
	}
	return m, nil
}

func (f *fakeExecutor) CompressFile(ctx context.Context, exe string, level int, input, dst string) error {
	f.calls = append(f.calls, call{kind: "prepare", exe: exe, mode: Compress(level), input: input})
	f.prepared[input] = dst
	return nil
}

type recordingProgress struct {
	steps []string
	total int
	done  bool
}

func (p *recordingProgress) Step(done, total int, id, variant string) {
	p.steps = append(p.steps, fmt.Sprintf("%d %s %s", done, id, variant))
	p.total = total
}

func (p *recordingProgress) Done() { p.done = true }

func testVariants() []registry.Variant {
	return []registry.Variant{
		{Name: "baseline", Revision: "v1", Dir: "/work/baseline", Resolved: "aaaa"},
		{Name: "other", Revision: "v2", Dir: "/work/other", Resolved: "bbbb", Flags: []string{"--x"}},
	}
}

func TestSuite_Run(t *testing.T) {
	prepared := t.TempDir()
	fx := newFakeExecutor()
	ms := time.Millisecond
	fx.times["baseline compress"] = []time.Duration{100 * ms, 300 * ms}
	fx.times["other compress"] = []time.Duration{150 * ms, 150 * ms}
	fx.times["baseline decompress"] = []time.Duration{40 * ms, 40 * ms}
	fx.times["other decompress"] = []time.Duration{50 * ms, 50 * ms}
	fx.sizes["baseline compress"] = 360
	fx.sizes["other compress"] = 350

	progress := &recordingProgress{}
	s := NewSuite(SuiteConfig{
		Levels:               []int{5},
		CompressIterations:   3,
		DecompressIterations: 7,
		Runs:                 2,
		DecompressLevel:      6,
		Baseline:             "baseline",
		PreparedDir:          prepared,
	}, fx, progress)

	inputs := []corpus.File{{Name: "data.bin", Path: "/corpus/data.bin", Size: 1000}}
	r, err := s.Run(context.Background(), testVariants(), inputs)
	require.NoError(t, err)

	assert.Equal(t, []VariantInfo{
		{Name: "baseline", Revision: "v1", Hash: "aaaa"},
		{Name: "other", Revision: "v2", Hash: "bbbb", Flags: []string{"--x"}},
	}, r.Variants)
	require.Len(t, r.Benchmarks, 2)

	comp := r.Benchmarks["data.bin/compress/5"]
	require.NotNil(t, comp.Level)
	assert.Equal(t, 5, *comp.Level)
	assert.Equal(t, int64(1000), comp.InputSize)
	assert.InDelta(t, 0.2, comp.Time["baseline"].Mean, 1e-9)
	assert.InDelta(t, 0.1, comp.Time["baseline"].StdErr, 1e-9)
	assert.InDelta(t, 0.15, comp.Time["other"].Mean, 1e-9)
	assert.InDelta(t, 0, comp.Time["other"].StdErr, 1e-9)
	assert.Equal(t, Stat{Mean: 360}, comp.Size["baseline"])
	assert.Equal(t, Stat{Mean: 350}, comp.Size["other"])

	dec := r.Benchmarks["data.bin/decompress"]
	assert.Nil(t, dec.Level)
	assert.Zero(t, dec.InputSize)
	assert.Nil(t, dec.Size)
	assert.InDelta(t, 0.04, dec.Time["baseline"].Mean, 1e-9)
	assert.InDelta(t, 0.05, dec.Time["other"].Mean, 1e-9)

	// The baseline prepares every decompression input once, before any measurement.
	require.Equal(t, "prepare", fx.calls[0].kind)
	assert.Equal(t, "/work/baseline/minigzip", fx.calls[0].exe)
	assert.Equal(t, 6, fx.calls[0].mode.Level)
	dst := filepath.Join(prepared, "data.bin.z")
	assert.Equal(t, dst, fx.prepared["/corpus/data.bin"])

	// Every timed run is preceded by a warm-up with the same arguments, and the
	// loop order is run, then benchmark, then variant.
	var order []string
	for i, c := range fx.calls[1:] {
		if c.kind == "warm" {
			next := fx.calls[i+2]
			assert.Equal(t, "run", next.kind)
			assert.Equal(t, c.exe, next.exe)
			assert.Equal(t, filepath.Join("/work", next.variant, "minigzip"), next.exe)
			assert.Equal(t, c.mode, next.mode)
			continue
		}
		order = append(order, key(c.exe, c.mode))
		if c.mode.IsDecompress() {
			assert.Equal(t, dst, c.input, "all variants decompress the baseline stream")
			assert.Equal(t, 7, c.n)
		} else {
			assert.Equal(t, "/corpus/data.bin", c.input)
			assert.Equal(t, 3, c.n)
		}
	}
	assert.Equal(t, []string{
		"baseline compress", "other compress", "baseline decompress", "other decompress",
		"baseline compress", "other compress", "baseline decompress", "other decompress",
	}, order)

	assert.Equal(t, 8, progress.total)
	assert.Len(t, progress.steps, 8)
	assert.Equal(t, "1 data.bin/compress/5 baseline", progress.steps[0])
	assert.True(t, progress.done)
}

func TestSuite_MultipleLevels(t *testing.T) {
	fx := newFakeExecutor()
	s := NewSuite(SuiteConfig{
		Levels: []int{1, 9}, CompressIterations: 1, DecompressIterations: 1,
		Runs: 1, DecompressLevel: 6, Baseline: "baseline", PreparedDir: t.TempDir(),
	}, fx, nil)

	inputs := []corpus.File{
		{Name: "a", Path: "/c/a", Size: 10},
		{Name: "b", Path: "/c/b", Size: 20},
	}
	r, err := s.Run(context.Background(), testVariants(), inputs)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"a/compress/1", "b/compress/1",
		"a/compress/9", "b/compress/9",
		"a/decompress", "b/decompress",
	}, SortedIDs(r))
	assert.Equal(t, int64(20), r.Benchmarks["b/compress/9"].InputSize)
}

func TestSuite_Errors(t *testing.T) {
	inputs := []corpus.File{{Name: "a", Path: "/c/a", Size: 1}}
	cfg := SuiteConfig{Levels: []int{1}, CompressIterations: 1, DecompressIterations: 1, Runs: 1, Baseline: "baseline"}

	t.Run("no runs", func(t *testing.T) {
		c := cfg
		c.Runs = 0
		c.PreparedDir = t.TempDir()
		_, err := NewSuite(c, newFakeExecutor(), nil).Run(context.Background(), testVariants(), inputs)
		assert.ErrorContains(t, err, "runs must be at least 1")
	})

	t.Run("missing baseline", func(t *testing.T) {
		c := cfg
		c.Baseline = "nope"
		c.PreparedDir = t.TempDir()
		_, err := NewSuite(c, newFakeExecutor(), nil).Run(context.Background(), testVariants(), inputs)
		assert.ErrorContains(t, err, `baseline variant "nope"`)
	})

	t.Run("tool failure", func(t *testing.T) {
		c := cfg
		c.PreparedDir = t.TempDir()
		fx := newFakeExecutor()
		fx.failOn = "other decompress"
		_, err := NewSuite(c, fx, nil).Run(context.Background(), testVariants(), inputs)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "other run for a/decompress")
		assert.Contains(t, err.Error(), "tool crashed")
	})

	t.Run("cancelled", func(t *testing.T) {
		c := cfg
		c.PreparedDir = t.TempDir()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewSuite(c, newFakeExecutor(), nil).Run(ctx, testVariants(), inputs)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSuite_EmptyCorpus(t *testing.T) {
	s := NewSuite(SuiteConfig{Levels: []int{1}, Runs: 1, Baseline: "baseline"}, newFakeExecutor(), nil)
	r, err := s.Run(context.Background(), testVariants(), nil)
	require.NoError(t, err)
	assert.Empty(t, r.Benchmarks)
	assert.Len(t, r.Variants, 2)
}
