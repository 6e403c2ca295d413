// Package runner invokes a built compressor against one input and measures it.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"zbench/internal/benchmark"
	"zbench/internal/metrics"
)

// CPUClock reports the total user+system CPU time consumed by reaped child processes.
type CPUClock func() (time.Duration, error)

// Runner executes tools synchronously, one process at a time.
type Runner struct {
	metrics *metrics.Metrics
	clock   CPUClock
}

// New returns a Runner measuring with the process's child resource usage.
func New(m *metrics.Metrics) *Runner {
	return &Runner{metrics: m, clock: ChildrenCPUTime}
}

// WithClock replaces the CPU clock.
func (r *Runner) WithClock(clock CPUClock) *Runner {
	r.clock = clock
	return r
}

// Run invokes exe on input iterations times in a row and returns the CPU time
// spent by all of them. For compression the output size is that of the last
// iteration. Metrics are labelled with variant.
func (r *Runner) Run(ctx context.Context, variant, exe string, mode benchmark.Mode, input string, iterations int) (benchmark.Measurement, error) {
	if iterations < 1 {
		return benchmark.Measurement{}, fmt.Errorf("iterations must be at least 1, got %d", iterations)
	}

	before, err := r.clock()
	if err != nil {
		return benchmark.Measurement{}, err
	}
	var size int64
	for i := 0; i < iterations; i++ {
		if size, err = r.invoke(ctx, exe, mode, input); err != nil {
			return benchmark.Measurement{}, err
		}
	}
	after, err := r.clock()
	if err != nil {
		return benchmark.Measurement{}, err
	}

	m := benchmark.Measurement{CPUTime: after - before}
	if !mode.IsDecompress() {
		m.OutputSize = &size
		r.metrics.SetOutputBytes(variant, strconv.Itoa(mode.Level), size)
	}
	r.metrics.ObserveInvocation(variant, mode.String(), m.CPUTime)
	return m, nil
}

// Warm performs a single untimed invocation so that first-use costs are not
// attributed to the following measurement.
func (r *Runner) Warm(ctx context.Context, exe string, mode benchmark.Mode, input string) error {
	_, err := r.invoke(ctx, exe, mode, input)
	return err
}

// CompressFile writes input compressed at level to dst.
func (r *Runner) CompressFile(ctx context.Context, exe string, level int, input, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := r.exec(ctx, exe, benchmark.Compress(level), input, out); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

func (r *Runner) invoke(ctx context.Context, exe string, mode benchmark.Mode, input string) (int64, error) {
	if mode.IsDecompress() {
		sink, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			return 0, err
		}
		defer sink.Close()
		return r.exec(ctx, exe, mode, input, sink)
	}
	cw := &countingWriter{}
	return r.exec(ctx, exe, mode, input, cw)
}

func (r *Runner) exec(ctx context.Context, exe string, mode benchmark.Mode, input string, stdout io.Writer) (int64, error) {
	in, err := os.Open(input)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	args := mode.Args()
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stdin = in
	cmd.Stdout = stdout
	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("%s %s < %s failed: %w\nStderr: %s", exe, strings.Join(args, " "), input, err, errBuf.String())
	}
	if cw, ok := stdout.(*countingWriter); ok {
		return cw.n, nil
	}
	return 0, nil
}

// countingWriter discards what it is given and remembers how much.
type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}
