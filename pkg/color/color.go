// Package color renders CLI output. fatih/color decides whether the terminal
// supports color and honors NO_COLOR.
package color

import (
	"fmt"
	"hash/fnv"

	fcolor "github.com/fatih/color"
)

var agentColors = []*fcolor.Color{
	fcolor.New(fcolor.FgHiRed),
	fcolor.New(fcolor.FgHiGreen),
	fcolor.New(fcolor.FgHiYellow),
	fcolor.New(fcolor.FgHiBlue),
	fcolor.New(fcolor.FgHiMagenta),
	fcolor.New(fcolor.FgHiCyan),
	fcolor.New(fcolor.FgRed),
	fcolor.New(fcolor.FgGreen),
	fcolor.New(fcolor.FgYellow),
	fcolor.New(fcolor.FgBlue),
	fcolor.New(fcolor.FgMagenta),
	fcolor.New(fcolor.FgCyan),
}

var statusColors = map[string]*fcolor.Color{
	"Todo":            fcolor.New(fcolor.FgWhite),
	"Ready to Code":   fcolor.New(fcolor.FgCyan),
	"Code Generation": fcolor.New(fcolor.FgYellow),
	"Code Review":     fcolor.New(fcolor.FgMagenta),
	"Completed":       fcolor.New(fcolor.FgGreen, fcolor.Bold),
}

var (
	errorColor = fcolor.New(fcolor.FgRed, fcolor.Bold)
	dimColor   = fcolor.New(fcolor.Faint)
)

// Status colors a task status. Unknown statuses are returned as is.
func Status(s string) string {
	if c, ok := statusColors[s]; ok {
		return c.Sprint(s)
	}
	return s
}

// agentColor returns a stable color for agentID.
func agentColor(agentID string) *fcolor.Color {
	h := fnv.New32a()
	h.Write([]byte(agentID))
	return agentColors[h.Sum32()%uint32(len(agentColors))]
}

// Agent formats "[name]" in the color assigned to agentID.
func Agent(agentID, name string) string {
	if name == "" {
		name = agentID
	}
	return agentColor(agentID).Sprintf("[%s]", name)
}

func Error(format string, args ...any) string {
	return errorColor.Sprint(fmt.Sprintf(format, args...))
}

func Dim(s string) string {
	return dimColor.Sprint(s)
}
