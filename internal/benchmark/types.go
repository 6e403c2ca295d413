package benchmark

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Measurement is what a single timed Runner invocation produces.
type Measurement struct {
	// OutputSize is nil for decompression.
	OutputSize *int64
	CPUTime    time.Duration
}

// Stat is the reduction of repeated measurements of one field.
type Stat struct {
	Mean   float64 `json:"mean"`
	StdErr float64 `json:"stderr"`
}

// Result holds the aggregated measurements of one benchmark id across all variants.
type Result struct {
	Level     *int            `json:"level,omitempty"`
	InputSize int64           `json:"input_size,omitempty"`
	Size      map[string]Stat `json:"size,omitempty"`
	Time      map[string]Stat `json:"time"`
}

// VariantInfo describes a measured build, pinned to the exact commit that was built.
type VariantInfo struct {
	Name     string   `json:"name"`
	URL      string   `json:"url,omitempty"`
	Revision string   `json:"revision,omitempty"`
	Hash     string   `json:"hash"`
	Flags    []string `json:"flags,omitempty"`
}

// Report is the persisted artifact. It carries everything the renderers need.
type Report struct {
	Variants   []VariantInfo     `json:"versions"`
	Benchmarks map[string]Result `json:"benchmarks"`
}

// NewReport returns an empty report for the given variants.
func NewReport(variants []VariantInfo) *Report {
	return &Report{
		Variants:   variants,
		Benchmarks: make(map[string]Result),
	}
}

// VariantNames returns the variant names in report order.
func (r *Report) VariantNames() []string {
	names := make([]string, 0, len(r.Variants))
	for _, v := range r.Variants {
		names = append(names, v.Name)
	}
	return names
}

const (
	opCompress   = "compress"
	opDecompress = "decompress"
)

// CompressID returns the benchmark id for compressing file at level.
func CompressID(file string, level int) string {
	return fmt.Sprintf("%s/%s/%d", file, opCompress, level)
}

// DecompressID returns the benchmark id for decompressing file.
func DecompressID(file string) string {
	return file + "/" + opDecompress
}

// ParseID splits a benchmark id into its file, operation and optional level.
func ParseID(id string) (file, op string, level *int, err error) {
	if base, ok := strings.CutSuffix(id, "/"+opDecompress); ok && base != "" {
		return base, opDecompress, nil, nil
	}
	i := strings.LastIndex(id, "/"+opCompress+"/")
	if i <= 0 {
		return "", "", nil, fmt.Errorf("malformed benchmark id %q", id)
	}
	n, err := strconv.Atoi(id[i+len(opCompress)+2:])
	if err != nil {
		return "", "", nil, fmt.Errorf("malformed level in benchmark id %q: %w", id, err)
	}
	return id[:i], opCompress, &n, nil
}
