// Package ui renders command reports in terminal, text, JSON or YAML form.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/arthur-debert/mum/pkg/ui/display"
	"github.com/arthur-debert/mum/pkg/ui/json"
	"github.com/arthur-debert/mum/pkg/ui/terminal"
	"github.com/arthur-debert/mum/pkg/ui/text"
	"github.com/arthur-debert/mum/pkg/ui/yaml"
)

// Renderer is the common interface for all output renderers.
type Renderer interface {
	// RenderReport renders the outcome of a command
	RenderReport(report *display.Report) error

	// RenderError renders an error with appropriate formatting
	RenderError(err error) error

	// RenderMessage renders a simple message
	RenderMessage(msg string) error
}

// NewRenderer creates a new renderer based on the specified format.
// It detects terminal capabilities when format is Auto.
func NewRenderer(format Format, output io.Writer) (Renderer, error) {
	switch format {
	case FormatAuto:
		if file, ok := output.(*os.File); ok {
			return NewRenderer(DetectFormat(file), output)
		}
		return NewRenderer(FormatText, output)
	case FormatTerminal:
		return terminal.New(output)
	case FormatText:
		return text.New(output)
	case FormatJSON:
		return json.New(output)
	case FormatYAML:
		return yaml.New(output)
	default:
		return nil, fmt.Errorf("unknown format: %v", format)
	}
}
