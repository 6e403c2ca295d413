package benchmark

import (
	"fmt"
	"sort"

	"zbench/internal/stats"
)

// Comparison is one variant's standing on one benchmark, relative to the baseline.
type Comparison struct {
	Variant string
	// Ratio is mean output size over input size; HasRatio is false when the
	// benchmark carries no input size.
	Ratio    float64
	HasRatio bool
	Time     Stat
	// Percent is the variant's mean time as a percentage of the baseline's,
	// rounded to two decimals. HasPercent is false when the baseline was not
	// measured or took no time.
	Percent    float64
	HasPercent bool
}

// Compare returns, in variant order, each variant's comparison against baseline
// for the given benchmark. Variants without a time stat are skipped.
func Compare(res Result, variants []string, baseline string) []Comparison {
	base, haveBase := res.Time[baseline]

	var comparisons []Comparison
	for _, name := range variants {
		t, ok := res.Time[name]
		if !ok {
			continue
		}
		c := Comparison{Variant: name, Time: t}

		if s, ok := res.Size[name]; ok && res.InputSize > 0 {
			c.Ratio = stats.Ratio(s.Mean, float64(res.InputSize))
			c.HasRatio = true
		}
		if haveBase && base.Mean > 0 {
			c.Percent = stats.RelativePercent(t.Mean, base.Mean)
			c.HasPercent = true
		}
		comparisons = append(comparisons, c)
	}
	return comparisons
}

// SortedIDs orders benchmark ids by level tag, then by name. Ids without a
// level form the last group.
func SortedIDs(r *Report) []string {
	ids := make([]string, 0, len(r.Benchmarks))
	for id := range r.Benchmarks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		li, lj := r.Benchmarks[ids[i]].Level, r.Benchmarks[ids[j]].Level
		switch {
		case li == nil && lj != nil:
			return false
		case li != nil && lj == nil:
			return true
		case li != nil && lj != nil && *li != *lj:
			return *li < *lj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Group is a run of benchmark ids sharing one level tag.
type Group struct {
	Level *int
	IDs   []string
}

// Label names the group for display.
func (g Group) Label() string {
	if g.Level == nil {
		return "No level"
	}
	return fmt.Sprintf("Level %d", *g.Level)
}

// Groups partitions SortedIDs into contiguous level groups.
func Groups(r *Report) []Group {
	var groups []Group
	for _, id := range SortedIDs(r) {
		lvl := r.Benchmarks[id].Level
		if n := len(groups); n > 0 && sameLevel(groups[n-1].Level, lvl) {
			groups[n-1].IDs = append(groups[n-1].IDs, id)
			continue
		}
		groups = append(groups, Group{Level: lvl, IDs: []string{id}})
	}
	return groups
}

func sameLevel(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
