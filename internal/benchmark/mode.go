package benchmark

import "strconv"

// Mode selects what a Runner invocation does with its input.
type Mode struct {
	Level      int
	decompress bool
}

// Compress returns the mode for compressing at level.
func Compress(level int) Mode {
	return Mode{Level: level}
}

// Decompress returns the mode for decompressing.
func Decompress() Mode {
	return Mode{decompress: true}
}

// IsDecompress reports whether m decompresses.
func (m Mode) IsDecompress() bool {
	return m.decompress
}

// Args returns the command-line arguments a zlib-style tool takes for m.
func (m Mode) Args() []string {
	if m.decompress {
		return []string{"-d"}
	}
	return []string{"-" + strconv.Itoa(m.Level)}
}

func (m Mode) String() string {
	if m.decompress {
		return opDecompress
	}
	return opCompress
}
