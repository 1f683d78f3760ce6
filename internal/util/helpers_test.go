package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter than limit", "hola", 10, "hola"},
		{"exact limit", "hola", 4, "hola"},
		{"multibyte runes", "¿cuántas jeringas?", 7, "¿cuánta"},
		{"zero limit", "hola", 0, ""},
		{"negative limit", "hola", -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateRunes(tt.in, tt.n))
		})
	}
}
