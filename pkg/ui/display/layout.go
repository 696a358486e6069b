package display

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Painter decorates text with a named style
type Painter func(style, text string) string

// Plain is the identity Painter
func Plain(_ string, text string) string { return text }

// Write lays out r on w, painting every styled fragment with paint.
func Write(w io.Writer, r *Report, paint Painter) error {
	var b strings.Builder

	header := r.Command
	if r.Source != "" {
		header += " " + r.Source
	}
	if r.Target != "" {
		header += " " + paint("Arrow", "->") + " " + r.Target
	}
	b.WriteString(paint("Header", strings.TrimSpace(header)) + "\n")
	if r.DryRun {
		b.WriteString(paint("DryRunBanner", "dry run: nothing was changed") + "\n")
	}
	if r.Message != "" {
		b.WriteString(r.Message + "\n")
	}

	if len(r.Projects) > 0 {
		b.WriteString("\n" + paint("Section", "Projects") + "\n")
		for _, p := range r.Projects {
			name := p.Name
			if name == "" {
				name = filepath.Base(p.Source)
			}
			fmt.Fprintf(&b, "%s%s %s %s %s\n",
				strings.Repeat("  ", p.Depth+1),
				paint("Project", name),
				paint("FilePath", p.Source),
				paint("Arrow", "->"),
				paint("FilePath", p.Target))
		}
	}

	if r.Plan != nil {
		b.WriteString("\n" + paint("Section", "Scripts") + "\n")
		phases := Phases(r.Plan)
		if len(phases) == 0 {
			b.WriteString("  " + paint("NoContent", "none") + "\n")
		}
		for _, phase := range phases {
			b.WriteString("  " + paint("Phase", phase.Name) + "\n")
			for _, set := range phase.Sets {
				for _, s := range set.Scripts {
					fmt.Fprintf(&b, "    %s %s\n", paint("Script", s), paint("Muted", "("+set.Directory+")"))
				}
			}
		}

		b.WriteString("\n" + paint("Section", "Overlay") + "\n")
		if len(r.Plan.Maps) == 0 {
			b.WriteString("  " + paint("NoContent", "none") + "\n")
		}
		for i, m := range r.Plan.Maps {
			fmt.Fprintf(&b, "  %d. %s %s %s\n", i+1,
				paint("FilePath", m.Source), paint("Arrow", "->"), paint("FilePath", m.Target))
			if len(m.Excludes) > 0 {
				fmt.Fprintf(&b, "     %s\n", paint("Muted", "excluding "+strings.Join(m.Excludes, ", ")))
			}
		}
	}

	if r.Record != "" {
		b.WriteString("\n" + paint("Muted", "record: "+r.Record) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
