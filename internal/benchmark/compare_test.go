package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDs(t *testing.T) {
	tests := []struct {
		id    string
		file  string
		op    string
		level int
	}{
		{id: CompressID("alice29.txt", 9), file: "alice29.txt", op: "compress", level: 9},
		{id: CompressID("dir/compress/x", 1), file: "dir/compress/x", op: "compress", level: 1},
		{id: DecompressID("kennedy.xls"), file: "kennedy.xls", op: "decompress", level: -1},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			file, op, level, err := ParseID(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.file, file)
			assert.Equal(t, tt.op, op)
			if tt.level < 0 {
				assert.Nil(t, level)
			} else {
				require.NotNil(t, level)
				assert.Equal(t, tt.level, *level)
			}
		})
	}

	assert.Equal(t, "a/compress/5", CompressID("a", 5))
	assert.Equal(t, "a/decompress", DecompressID("a"))

	for _, bad := range []string{"", "a", "/decompress", "a/compress/x", "compress/5"} {
		_, _, _, err := ParseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestMode(t *testing.T) {
	c := Compress(7)
	assert.False(t, c.IsDecompress())
	assert.Equal(t, []string{"-7"}, c.Args())
	assert.Equal(t, "compress", c.String())

	d := Decompress()
	assert.True(t, d.IsDecompress())
	assert.Equal(t, []string{"-d"}, d.Args())
	assert.Equal(t, "decompress", d.String())
}

func TestCompare(t *testing.T) {
	res := Result{
		InputSize: 1000,
		Size:      map[string]Stat{"baseline": {Mean: 400}, "fast": {Mean: 500}},
		Time: map[string]Stat{
			"baseline": {Mean: 0.3, StdErr: 0.01},
			"fast":     {Mean: 0.1, StdErr: 0.002},
			"slow":     {Mean: 0.4},
		},
	}

	got := Compare(res, []string{"baseline", "fast", "slow", "absent"}, "baseline")
	require.Len(t, got, 3)

	assert.Equal(t, "baseline", got[0].Variant)
	assert.True(t, got[0].HasRatio)
	assert.InDelta(t, 0.4, got[0].Ratio, 1e-12)
	assert.True(t, got[0].HasPercent)
	assert.Equal(t, 100.0, got[0].Percent)

	assert.InDelta(t, 0.5, got[1].Ratio, 1e-12)
	assert.Equal(t, 33.33, got[1].Percent)
	assert.Equal(t, 0.002, got[1].Time.StdErr)

	assert.False(t, got[2].HasRatio, "no size recorded")
	assert.Equal(t, 133.33, got[2].Percent)

	none := Compare(res, []string{"fast"}, "missing")
	require.Len(t, none, 1)
	assert.False(t, none[0].HasPercent)

	zero := Compare(Result{Time: map[string]Stat{"baseline": {}, "x": {Mean: 1}}}, []string{"baseline", "x"}, "baseline")
	require.Len(t, zero, 2)
	assert.False(t, zero[1].HasPercent)
	assert.False(t, zero[1].HasRatio)
}

func TestGroups(t *testing.T) {
	one, six := 1, 6
	r := NewReport(nil)
	r.Benchmarks[DecompressID("b")] = Result{}
	r.Benchmarks[DecompressID("a")] = Result{}
	r.Benchmarks[CompressID("b", 6)] = Result{Level: &six}
	r.Benchmarks[CompressID("a", 6)] = Result{Level: &six}
	r.Benchmarks[CompressID("z", 1)] = Result{Level: &one}

	assert.Equal(t, []string{
		"z/compress/1",
		"a/compress/6", "b/compress/6",
		"a/decompress", "b/decompress",
	}, SortedIDs(r))

	groups := Groups(r)
	require.Len(t, groups, 3)
	assert.Equal(t, "Level 1", groups[0].Label())
	assert.Equal(t, "Level 6", groups[1].Label())
	assert.Equal(t, []string{"a/compress/6", "b/compress/6"}, groups[1].IDs)
	assert.Equal(t, "No level", groups[2].Label())
	assert.Equal(t, []string{"a/decompress", "b/decompress"}, groups[2].IDs)

	assert.Empty(t, Groups(NewReport(nil)))
}
