// Package report renders a benchmark report for people or machines.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"zbench/internal/benchmark"
)

// ErrUnknownFormat is returned for an output format that has no renderer.
var ErrUnknownFormat = errors.New("unknown output format")

// Format identifies one renderer.
type Format string

const (
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
	FormatHTML   Format = "html"
)

// Formats lists the accepted output formats.
func Formats() []Format {
	return []Format{FormatPretty, FormatJSON, FormatHTML}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w %q (want one of pretty, json, html)", ErrUnknownFormat, s)
}

// Renderer writes a report to a sink. Rendering never modifies the report.
type Renderer interface {
	Render(w io.Writer, r *benchmark.Report) error
}

// Options tune the renderers that use them.
type Options struct {
	// Baseline is the variant relative percentages are computed against.
	Baseline string
	Color    ColorMode
	// Terminal tells ColorAuto that the final destination is a terminal.
	Terminal bool
}

// New returns the renderer for f.
func New(f Format, o Options) (Renderer, error) {
	switch f {
	case FormatPretty:
		return &Text{Baseline: o.Baseline, Color: o.Color, Terminal: o.Terminal}, nil
	case FormatJSON:
		return JSON{}, nil
	case FormatHTML:
		return &HTML{Baseline: o.Baseline}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, f)
	}
}

// JSON renders the report as its persisted document.
type JSON struct{}

func (JSON) Render(w io.Writer, r *benchmark.Report) error {
	data, err := benchmark.Marshal(r)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// shortHash trims a commit hash for display.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
