package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"zbench/internal/benchmark"
)

// ColorMode controls styling of the text renderer.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Text renders grouped tables, one row of compression ratio and one row of
// execution time per benchmark.
type Text struct {
	Baseline string
	Color    ColorMode
	// Terminal is whether the rendered text ends up on a terminal. The writer
	// passed to Render may be an intermediate buffer.
	Terminal bool
}

func (t *Text) profile() termenv.Profile {
	switch t.Color {
	case ColorAlways:
		return termenv.ANSI
	case ColorNever:
		return termenv.Ascii
	default:
		if !t.Terminal {
			return termenv.Ascii
		}
		return termenv.EnvColorProfile()
	}
}

func (t *Text) renderer(w io.Writer) *lipgloss.Renderer {
	lr := lipgloss.NewRenderer(w)
	lr.SetColorProfile(t.profile())
	return lr
}

func (t *Text) Render(w io.Writer, r *benchmark.Report) error {
	lr := t.renderer(w)
	heading := lr.NewStyle().Bold(true).Underline(true)
	dim := lr.NewStyle().Faint(true)

	var b strings.Builder
	b.WriteString(heading.Render("Variants") + "\n")
	tw := tabwriter.NewWriter(&b, 0, 0, 3, ' ', 0)
	for _, v := range r.Variants {
		marker := ""
		if v.Name == t.Baseline {
			marker = "(baseline)"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", v.Name, v.Revision, shortHash(v.Hash), marker)
	}
	tw.Flush()

	names := r.VariantNames()
	for _, g := range benchmark.Groups(r) {
		b.WriteString("\n" + heading.Render(g.Label()) + "\n")

		tw := tabwriter.NewWriter(&b, 0, 0, 3, ' ', 0)
		fmt.Fprintf(tw, "BENCHMARK\tMETRIC\t%s\n", strings.Join(names, "\t"))
		for _, id := range g.IDs {
			res := r.Benchmarks[id]
			byName := make(map[string]benchmark.Comparison, len(names))
			for _, c := range benchmark.Compare(res, names, t.Baseline) {
				byName[c.Variant] = c
			}

			label := id
			if res.InputSize > 0 && len(res.Size) > 0 {
				cells := make([]string, len(names))
				for i, n := range names {
					cells[i] = "-"
					if c, ok := byName[n]; ok && c.HasRatio {
						cells[i] = fmt.Sprintf("%.4f", c.Ratio)
					}
				}
				fmt.Fprintf(tw, "%s\tratio\t%s\n", label, strings.Join(cells, "\t"))
				label = ""
			}

			cells := make([]string, len(names))
			for i, n := range names {
				c, ok := byName[n]
				if !ok {
					cells[i] = "-"
					continue
				}
				cells[i] = fmt.Sprintf("%.4f ± %.4f", c.Time.Mean, c.Time.StdErr)
				if c.HasPercent {
					cells[i] += fmt.Sprintf(" (%.2f%%)", c.Percent)
				}
			}
			fmt.Fprintf(tw, "%s\ttime\t%s\n", label, strings.Join(cells, "\t"))
		}
		tw.Flush()
	}

	if len(r.Benchmarks) == 0 {
		b.WriteString("\n" + dim.Render("No benchmarks recorded.") + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
