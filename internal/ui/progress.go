// Package ui reports sweep progress on the terminal.
package ui

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/mattn/go-isatty"
)

const barWidth = 40

// Progress draws a bar on an interactive terminal and falls back to debug
// log lines elsewhere. It implements benchmark.Progress.
type Progress struct {
	w     io.Writer
	bar   progress.Model
	tty   bool
	quiet bool
	drawn bool
}

// NewProgress returns a progress sink writing to w. Quiet disables all output.
func NewProgress(w io.Writer, quiet bool) *Progress {
	return newProgress(w, IsTerminal(w), quiet)
}

func newProgress(w io.Writer, tty, quiet bool) *Progress {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = barWidth
	return &Progress{w: w, bar: bar, tty: tty, quiet: quiet}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Progress) Step(done, total int, id, variant string) {
	if p.quiet {
		return
	}
	if !p.tty {
		slog.Debug("progress", "done", done, "total", total, "benchmark", id, "variant", variant)
		return
	}

	var pct float64
	if total > 0 {
		pct = float64(done) / float64(total)
	}
	// \r and erase-line keep the bar on one row.
	fmt.Fprintf(p.w, "\r\x1b[K%s %d/%d %s %s", p.bar.ViewAs(pct), done, total, id, variant)
	p.drawn = true
}

// Done ends the bar line.
func (p *Progress) Done() {
	if p.drawn {
		fmt.Fprintln(p.w)
		p.drawn = false
	}
}
