// Package terminal provides rich terminal output with colors and styling
package terminal

import (
	"fmt"
	"io"

	"github.com/arthur-debert/mum/pkg/ui/display"
	"github.com/arthur-debert/mum/pkg/ui/styles"
)

// Renderer styles output with the registered lipgloss styles
type Renderer struct {
	output io.Writer
}

// New creates a new terminal renderer
func New(w io.Writer) (*Renderer, error) {
	return &Renderer{output: w}, nil
}

// RenderReport renders a report with styling
func (r *Renderer) RenderReport(report *display.Report) error {
	return display.Write(r.output, report, styles.Render)
}

// RenderError renders an error with styling
func (r *Renderer) RenderError(err error) error {
	_, writeErr := fmt.Fprintln(r.output, styles.Render("Error", "Error:")+" "+err.Error())
	return writeErr
}

// RenderMessage renders a simple message
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, msg)
	return err
}
