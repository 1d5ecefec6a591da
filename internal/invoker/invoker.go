// Package invoker is the boundary to the external agents that plan, write
// and review code. The workflow engine sees only the Invoker interface.
package invoker

import (
	"context"
	"errors"

	"github.com/kazz187/taskforge/internal/agent"
)

// ErrMalformedOutput reports an agent reply that does not have the
// expected structure.
var ErrMalformedOutput = errors.New("malformed agent output")

// Profile describes the agent an invocation runs as.
type Profile struct {
	AgentID        string
	Name           string
	Specialization string
	Config         agent.Configuration
}

func ProfileOf(a *agent.Agent) Profile {
	return Profile{
		AgentID:        a.ID,
		Name:           a.Name,
		Specialization: a.Specialization,
		Config:         a.Configuration,
	}
}

type PlanRequest struct {
	Title       string
	Description string
	Complexity  string
	Tags        []string
	Agent       Profile
}

type Plan struct {
	Text  string
	Steps []string
}

type GenerateRequest struct {
	Title string
	Plan  string
	// ReviewSummary is set when the task comes back from review.
	ReviewSummary string
	PreviousCode  *string
	Agent         Profile
}

type Code struct {
	Text string
}

type ReviewRequest struct {
	Title       string
	Description string
	Code        string
	Agent       Profile
}

type Review struct {
	RequiresChanges bool
	Summary         string
}

type Invoker interface {
	Plan(ctx context.Context, req PlanRequest) (*Plan, error)
	Generate(ctx context.Context, req GenerateRequest) (*Code, error)
	Review(ctx context.Context, req ReviewRequest) (*Review, error)
}

// Prompt is one single-shot completion request.
type Prompt struct {
	System      string
	User        string
	Model       string
	MaxTurns    int
	Temperature *float64
}

// Completer runs a prompt against a language model backend.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}
