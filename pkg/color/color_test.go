package color

import (
	"testing"

	fcolor "github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func withColor(t *testing.T, enabled bool) {
	t.Helper()
	prev := fcolor.NoColor
	fcolor.NoColor = !enabled
	t.Cleanup(func() { fcolor.NoColor = prev })
}

func TestStatus(t *testing.T) {
	withColor(t, false)
	assert.Equal(t, "Completed", Status("Completed"))
	assert.Equal(t, "UNKNOWN", Status("UNKNOWN"))

	withColor(t, true)
	assert.Contains(t, Status("Completed"), "\x1b[")
	assert.Contains(t, Status("Completed"), "Completed")
	assert.Equal(t, "UNKNOWN", Status("UNKNOWN"))
}

func TestAgent(t *testing.T) {
	withColor(t, false)
	assert.Equal(t, "[planner]", Agent("01ABC", "planner"))
	assert.Equal(t, "[01ABC]", Agent("01ABC", ""))

	withColor(t, true)
	assert.Equal(t, Agent("01ABC", "planner"), Agent("01ABC", "planner"))
	assert.Same(t, agentColor("01ABC"), agentColor("01ABC"))
}
