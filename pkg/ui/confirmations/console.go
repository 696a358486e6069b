// Package confirmations provides console confirmation dialogs.
package confirmations

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ConsoleDialog asks yes/no questions on a console
type ConsoleDialog struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsoleDialog creates a dialog on stdin and stderr
func NewConsoleDialog() *ConsoleDialog {
	return NewDialog(os.Stdin, os.Stderr)
}

// NewDialog creates a dialog reading answers from in and prompting on out
func NewDialog(in io.Reader, out io.Writer) *ConsoleDialog {
	return &ConsoleDialog{in: bufio.NewReader(in), out: out}
}

// Confirm prints prompt and reads one answer line. Only "y" and "yes"
// approve; end of input declines.
func (d *ConsoleDialog) Confirm(prompt string) (bool, error) {
	if _, err := fmt.Fprintf(d.out, "%s [y/N]: ", prompt); err != nil {
		return false, err
	}

	line, err := d.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read user input: %w", err)
	}

	response := strings.ToLower(strings.TrimSpace(line))
	approved := response == "y" || response == "yes"
	if !approved {
		_, _ = fmt.Fprintln(d.out, "Cancelling installation.")
	}
	return approved, nil
}
