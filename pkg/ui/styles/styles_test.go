package styles_test

import (
	"testing"

	"github.com/arthur-debert/mum/pkg/ui/styles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedStylesDefineEveryName(t *testing.T) {
	for _, name := range styles.Names {
		t.Run(name, func(t *testing.T) {
			_, ok := styles.StyleRegistry[name]
			assert.True(t, ok)
		})
	}
}

func TestStyleAttributes(t *testing.T) {
	assert.True(t, styles.Get("Header").GetBold())
	assert.True(t, styles.Get("NoContent").GetItalic())
	assert.Equal(t, 2, styles.Get("Script").GetPaddingLeft())
}

func TestLoadStylesFromData(t *testing.T) {
	t.Cleanup(func() { require.NoError(t, styles.LoadDefault()) })

	require.NoError(t, styles.LoadStylesFromData([]byte(`
colors:
  accent:
    light: "#000000"
    dark: "#ffffff"
styles:
  Custom:
    underline: true
    foreground: accent
`)))
	assert.True(t, styles.Get("Custom").GetUnderline())
	_, ok := styles.StyleRegistry["Header"]
	assert.True(t, ok, "missing names fall back to plain styles")

	assert.Error(t, styles.LoadStylesFromData([]byte("styles: [")))
}

func TestUnknownStyleIsPlain(t *testing.T) {
	assert.Equal(t, "text", styles.Render("DoesNotExist", "text"))
}
