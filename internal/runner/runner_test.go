package runner

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zbench/internal/benchmark"
	"zbench/internal/metrics"
)

// fakeTool truncates its input to 100 bytes when compressing and echoes it when
// decompressing. Every invocation appends a line to $ZBENCH_TEST_COUNT.
const fakeTool = `#!/bin/sh
echo "$@" >> "$ZBENCH_TEST_COUNT"
if [ "$1" = "-d" ]; then
	cat
	exit 0
fi
head -c 100
`

func writeTool(t *testing.T, variant, script string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := filepath.Join(t.TempDir(), variant)
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "minigzip")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func writeInput(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("a", size)), 0644))
	return path
}

func countFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "count")
	t.Setenv("ZBENCH_TEST_COUNT", path)
	return path
}

func invocations(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// stepClock advances by step each time it is read.
func stepClock(step time.Duration) CPUClock {
	var now time.Duration
	return func() (time.Duration, error) {
		now += step
		return now, nil
	}
}

func TestRun_Compress(t *testing.T) {
	counter := countFile(t)
	exe := writeTool(t, "baseline", fakeTool)
	input := writeInput(t, 1000)
	m := metrics.NewMetrics()
	r := New(m).WithClock(stepClock(250 * time.Millisecond))

	got, err := r.Run(context.Background(), "baseline", exe, benchmark.Compress(5), input, 3)
	require.NoError(t, err)

	require.NotNil(t, got.OutputSize)
	assert.Equal(t, int64(100), *got.OutputSize)
	assert.Equal(t, 250*time.Millisecond, got.CPUTime)
	assert.Equal(t, []string{"-5", "-5", "-5"}, invocations(t, counter))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invocations.WithLabelValues("baseline", "compress")))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.OutputBytes.WithLabelValues("baseline", "5")))
}

func TestRun_LabelsWithVariantName(t *testing.T) {
	countFile(t)
	dir := filepath.Join(t.TempDir(), "ng-checkout", "build")
	require.NoError(t, os.MkdirAll(dir, 0755))
	exe := filepath.Join(dir, "minigzip")
	require.NoError(t, os.WriteFile(exe, []byte(fakeTool), 0755))
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	input := writeInput(t, 1000)
	m := metrics.NewMetrics()

	_, err := New(m).WithClock(stepClock(time.Millisecond)).Run(context.Background(), "ng", exe, benchmark.Compress(1), input, 1)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invocations.WithLabelValues("ng", "compress")))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.OutputBytes.WithLabelValues("ng", "1")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Invocations.WithLabelValues("build", "compress")))
}

func TestRun_Decompress(t *testing.T) {
	counter := countFile(t)
	exe := writeTool(t, "other", fakeTool)
	input := writeInput(t, 500)
	r := New(nil).WithClock(stepClock(time.Second))

	got, err := r.Run(context.Background(), "other", exe, benchmark.Decompress(), input, 2)
	require.NoError(t, err)

	assert.Nil(t, got.OutputSize)
	assert.Equal(t, time.Second, got.CPUTime)
	assert.Equal(t, []string{"-d", "-d"}, invocations(t, counter))
}

func TestRun_InvalidIterations(t *testing.T) {
	r := New(nil)
	_, err := r.Run(context.Background(), "baseline", "/nonexistent", benchmark.Compress(1), "/nonexistent", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iterations must be at least 1")
}

func TestRun_ToolFailure(t *testing.T) {
	exe := writeTool(t, "broken", "#!/bin/sh\necho boom >&2\nexit 3\n")
	input := writeInput(t, 10)

	_, err := New(nil).Run(context.Background(), "broken", exe, benchmark.Compress(9), input, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "-9")
}

func TestRun_MissingInput(t *testing.T) {
	exe := writeTool(t, "baseline", fakeTool)
	_, err := New(nil).Run(context.Background(), "baseline", exe, benchmark.Compress(1), filepath.Join(t.TempDir(), "missing"), 1)
	assert.Error(t, err)
}

func TestWarm(t *testing.T) {
	counter := countFile(t)
	exe := writeTool(t, "baseline", fakeTool)
	input := writeInput(t, 1000)
	m := metrics.NewMetrics()

	require.NoError(t, New(m).Warm(context.Background(), exe, benchmark.Compress(6), input))

	assert.Equal(t, []string{"-6"}, invocations(t, counter))
	assert.Equal(t, 0, testutil.CollectAndCount(m.Invocations), "warm-up must not be recorded")
}

func TestCompressFile(t *testing.T) {
	countFile(t)
	exe := writeTool(t, "baseline", fakeTool)
	input := writeInput(t, 1000)
	dst := filepath.Join(t.TempDir(), "input.txt.z")

	require.NoError(t, New(nil).CompressFile(context.Background(), exe, 6, input, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, int64(100), info.Size())
}

func TestCompressFile_FailureRemovesOutput(t *testing.T) {
	exe := writeTool(t, "broken", "#!/bin/sh\nexit 1\n")
	input := writeInput(t, 10)
	dst := filepath.Join(t.TempDir(), "out.z")

	require.Error(t, New(nil).CompressFile(context.Background(), exe, 6, input, dst))
	_, err := os.Stat(dst)
	assert.True(t, os.IsNotExist(err))
}

func TestChildrenCPUTime(t *testing.T) {
	before, err := ChildrenCPUTime()
	if err != nil {
		t.Skipf("child CPU accounting unavailable: %v", err)
	}
	exe := writeTool(t, "baseline", "#!/bin/sh\ni=0\nwhile [ $i -lt 2000 ]; do i=$((i+1)); done\n")
	require.NoError(t, exec.Command(exe).Run())

	after, err := ChildrenCPUTime()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, after, before)
}
