// Package corpus discovers the input files a benchmark sweep runs over.
package corpus

import (
	"os"
	"path/filepath"
	"sort"
)

// DefaultPattern matches every file in the corpus directory.
const DefaultPattern = "*"

// File is one corpus input.
type File struct {
	Name string
	Path string
	Size int64
}

// Discover globs dir with pattern and returns the matching regular files
// sorted by name. A malformed pattern, and entries that cannot be stat'ed,
// produce no files.
func Discover(dir, pattern string) []File {
	if pattern == "" {
		pattern = DefaultPattern
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil
	}

	var files []File
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, File{
			Name: filepath.Base(path),
			Path: path,
			Size: info.Size(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}
