package workflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreview(t *testing.T) {
	assert.Equal(t, "short...", preview("short"))
	long := strings.Repeat("x", 150)
	assert.Equal(t, strings.Repeat("x", 100)+"...", preview(long))
	// Counted in runes, never splitting a character.
	assert.Equal(t, strings.Repeat("あ", 100)+"...", preview(strings.Repeat("あ", 101)))
}

func TestLineDelta(t *testing.T) {
	tests := []struct {
		name           string
		from, to       string
		added, removed int
	}{
		{name: "identical", from: "a\nb\n", to: "a\nb\n"},
		{name: "replace one with two", from: "a\nb\n", to: "a\nc\nd\n", added: 2, removed: 1},
		{name: "pure insert", from: "a\n", to: "a\nb\n", added: 1},
		{name: "pure delete", from: "a\nb\nc\n", to: "a\nc\n", removed: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			added, removed := lineDelta(tt.from, tt.to)
			assert.Equal(t, tt.added, added)
			assert.Equal(t, tt.removed, removed)
		})
	}
}

func TestGenerationDetails(t *testing.T) {
	assert.Equal(t, "Generated code: x...", generationDetails("x", nil))
	prev := "x\n"
	assert.Equal(t, "Generated code: y\n...\n+1/-1 lines vs previous attempt", generationDetails("y\n", &prev))
}
