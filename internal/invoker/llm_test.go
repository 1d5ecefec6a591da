package invoker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskforge/internal/agent"
)

type scriptedCompleter struct {
	reply  string
	err    error
	panics bool
	got    []Prompt
}

func (s *scriptedCompleter) Complete(_ context.Context, p Prompt) (string, error) {
	s.got = append(s.got, p)
	if s.panics {
		panic("backend crashed")
	}
	return s.reply, s.err
}

func profile(values map[string]string) Profile {
	return Profile{AgentID: "a1", Name: "agent-one", Config: agent.Configuration{SchemaVersion: 1, Values: values}}
}

func TestLLM_Plan(t *testing.T) {
	c := &scriptedCompleter{reply: "1. a\n2. b\n3. c"}
	l := NewLLM(c)

	plan, err := l.Plan(context.Background(), PlanRequest{
		Title: "Login", Complexity: "High",
		Agent: profile(map[string]string{agent.ConfigModel: "llama3", agent.ConfigTemperature: "0.3"}),
	})
	require.NoError(t, err)
	assert.Len(t, plan.Steps, 3)

	require.Len(t, c.got, 1)
	assert.Equal(t, "llama3", c.got[0].Model)
	require.NotNil(t, c.got[0].Temperature)
	assert.Equal(t, 0.3, *c.got[0].Temperature)
	assert.Contains(t, c.got[0].User, "Complexity: High")
	assert.Contains(t, c.got[0].System, "agent-one")
}

func TestLLM_GenerateIncludesReview(t *testing.T) {
	c := &scriptedCompleter{reply: "```go\npackage login\n```"}
	prev := "package old"
	code, err := NewLLM(c).Generate(context.Background(), GenerateRequest{
		Title: "Login", Plan: "1. a", ReviewSummary: "add tests", PreviousCode: &prev,
		Agent: profile(map[string]string{agent.ConfigLanguage: "go"}),
	})
	require.NoError(t, err)
	assert.Equal(t, "package login", code.Text)
	assert.Contains(t, c.got[0].User, "add tests")
	assert.Contains(t, c.got[0].User, "package old")
	assert.Contains(t, c.got[0].User, "Write the code in go.")
}

func TestLLM_Failures(t *testing.T) {
	ctx := context.Background()

	_, err := NewLLM(&scriptedCompleter{err: errors.New("connection refused")}).Review(ctx, ReviewRequest{Code: "x", Agent: profile(nil)})
	assert.ErrorContains(t, err, "connection refused")

	_, err = NewLLM(&scriptedCompleter{panics: true}).Plan(ctx, PlanRequest{Agent: profile(nil)})
	assert.ErrorContains(t, err, "backend crashed")

	_, err = NewLLM(&scriptedCompleter{reply: "   "}).Generate(ctx, GenerateRequest{Agent: profile(nil)})
	assert.ErrorIs(t, err, ErrMalformedOutput)
}
