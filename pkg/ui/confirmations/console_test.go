package confirmations

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			got, err := NewDialog(strings.NewReader(tt.input), &out).Confirm("Install?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, strings.HasPrefix(out.String(), "Install? [y/N]: "))
			if !tt.want {
				assert.Contains(t, out.String(), "Cancelling installation.")
			}
		})
	}
}

func TestConfirmReadsLineByLine(t *testing.T) {
	d := NewDialog(strings.NewReader("y\nn\n"), &bytes.Buffer{})

	first, err := d.Confirm("one")
	require.NoError(t, err)
	second, err := d.Confirm("two")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}
