package invoker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kazz187/taskforge/internal/agent"
	"github.com/kazz187/taskforge/pkg/panicerr"
)

// LLM implements Invoker on top of a Completer.
type LLM struct {
	completer Completer
}

var _ Invoker = (*LLM)(nil)

func NewLLM(c Completer) *LLM {
	return &LLM{completer: c}
}

func (l *LLM) complete(ctx context.Context, phase string, p Prompt, profile Profile) (string, error) {
	p = withAgentSettings(p, profile.Config)
	out, err := panicerr.Call(func() (string, error) {
		return l.completer.Complete(ctx, p)
	})
	if err != nil {
		return "", fmt.Errorf("%s by agent %s: %w", phase, profile.Name, err)
	}
	slog.DebugContext(ctx, "agent replied", "phase", phase, "agent_id", profile.AgentID, "bytes", len(out))
	return out, nil
}

func (l *LLM) Plan(ctx context.Context, req PlanRequest) (*Plan, error) {
	out, err := l.complete(ctx, "planning", planPrompt(req), req.Agent)
	if err != nil {
		return nil, err
	}
	return ParsePlan(out, req.Agent.Config.Int(agent.ConfigMaxSteps, MaxPlanSteps))
}

func (l *LLM) Generate(ctx context.Context, req GenerateRequest) (*Code, error) {
	out, err := l.complete(ctx, "generation", generatePrompt(req), req.Agent)
	if err != nil {
		return nil, err
	}
	code := StripCodeFences(out)
	if code == "" {
		return nil, fmt.Errorf("%w: empty code", ErrMalformedOutput)
	}
	return &Code{Text: code}, nil
}

func (l *LLM) Review(ctx context.Context, req ReviewRequest) (*Review, error) {
	out, err := l.complete(ctx, "review", reviewPrompt(req), req.Agent)
	if err != nil {
		return nil, err
	}
	return ParseReview(out)
}
