package ui

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"os"
	"testing"

	mumerrors "github.com/arthur-debert/mum/pkg/errors"
	"github.com/arthur-debert/mum/pkg/plan"
	"github.com/arthur-debert/mum/pkg/ui/display"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func report() *display.Report {
	return &display.Report{
		Command: "plan",
		Source:  "/p/top",
		Target:  "/srv/site",
		Plan: &plan.Plan{
			AfterInstall: []plan.ScriptSet{{Directory: "/p/top", Target: "/srv/site", Scripts: []string{"done.sh"}}},
			Maps:         []plan.Mapping{{Source: "/p/top", Target: "/srv/site"}},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatAuto},
		{"auto", FormatAuto},
		{"term", FormatTerminal},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"yml", FormatYAML},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
	assert.Equal(t, "yaml", FormatYAML.String())
}

func TestDetectFormatNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, FormatText, DetectFormat(os.Stdout))
}

func TestAutoOnBufferIsText(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRenderer(FormatAuto, &buf)
	require.NoError(t, err)

	require.NoError(t, r.RenderReport(report()))
	assert.Contains(t, buf.String(), "done.sh (/p/top)")
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRenderer(FormatJSON, &buf)
	require.NoError(t, err)
	require.NoError(t, r.RenderReport(report()))

	var decoded map[string]interface{}
	require.NoError(t, stdjson.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "plan", decoded["command"])
	p := decoded["plan"].(map[string]interface{})
	assert.Len(t, p["maps"], 1)

	buf.Reset()
	require.NoError(t, r.RenderError(mumerrors.New(mumerrors.ErrUnsafeTarget, "nope")))
	assert.Contains(t, buf.String(), `"code": "UNSAFE_TARGET"`)
}

func TestYAMLRenderer(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRenderer(FormatYAML, &buf)
	require.NoError(t, err)
	require.NoError(t, r.RenderReport(report()))

	var decoded struct {
		Command string `yaml:"command"`
		Plan    struct {
			AfterInstall []struct {
				Scripts []string `yaml:"scripts"`
			} `yaml:"afterInstall"`
		} `yaml:"plan"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "plan", decoded.Command)
	assert.Equal(t, []string{"done.sh"}, decoded.Plan.AfterInstall[0].Scripts)

	buf.Reset()
	require.NoError(t, r.RenderError(errors.New("boom")))
	assert.Contains(t, buf.String(), "code: UNKNOWN")
}

func TestTextAndTerminalErrors(t *testing.T) {
	for _, format := range []Format{FormatText, FormatTerminal} {
		var buf bytes.Buffer
		r, err := NewRenderer(format, &buf)
		require.NoError(t, err)

		require.NoError(t, r.RenderError(errors.New("boom")))
		assert.Contains(t, buf.String(), "boom")
		require.NoError(t, r.RenderMessage("hello"))
		assert.Contains(t, buf.String(), "hello\n")
	}
}

func TestUnknownFormat(t *testing.T) {
	_, err := NewRenderer(Format(99), &bytes.Buffer{})
	assert.Error(t, err)
}
