package invoker

import (
	"fmt"
	"strings"

	"github.com/kazz187/taskforge/internal/agent"
)

func persona(role string, p Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a %s.", p.Name, role)
	if p.Specialization != "" {
		fmt.Fprintf(&b, " Your specialization is %s.", p.Specialization)
	}
	return b.String()
}

func planPrompt(req PlanRequest) Prompt {
	maxSteps := req.Agent.Config.Int(agent.ConfigMaxSteps, MaxPlanSteps)
	var u strings.Builder
	fmt.Fprintf(&u, "Task: %s\n", req.Title)
	if req.Description != "" {
		fmt.Fprintf(&u, "Description: %s\n", req.Description)
	}
	fmt.Fprintf(&u, "Complexity: %s\n", req.Complexity)
	if len(req.Tags) > 0 {
		fmt.Fprintf(&u, "Tags: %s\n", strings.Join(req.Tags, ", "))
	}
	fmt.Fprintf(&u, "\nWrite an implementation plan as a numbered list of %d to %d steps, "+
		"one step per line in the form \"1. ...\". Do not write any code.", MinPlanSteps, maxSteps)
	return Prompt{
		System: persona("software architect who writes implementation plans", req.Agent),
		User:   u.String(),
	}
}

func generatePrompt(req GenerateRequest) Prompt {
	var u strings.Builder
	fmt.Fprintf(&u, "Task: %s\n\nImplementation plan:\n%s\n", req.Title, req.Plan)
	if lang := req.Agent.Config.String(agent.ConfigLanguage); lang != "" {
		fmt.Fprintf(&u, "\nWrite the code in %s.\n", lang)
	}
	if req.ReviewSummary != "" {
		fmt.Fprintf(&u, "\nThe previous attempt was sent back with this review:\n%s\n", req.ReviewSummary)
		if req.PreviousCode != nil {
			fmt.Fprintf(&u, "\nPrevious code:\n```\n%s\n```\n", *req.PreviousCode)
		}
	}
	u.WriteString("\nReply with the complete code in a single fenced code block.")
	return Prompt{
		System: persona("software engineer who implements plans", req.Agent),
		User:   u.String(),
	}
}

func reviewPrompt(req ReviewRequest) Prompt {
	strictness := req.Agent.Config.String(agent.ConfigStrictness)
	if strictness == "" {
		strictness = "medium"
	}
	var u strings.Builder
	fmt.Fprintf(&u, "Task: %s\n", req.Title)
	if req.Description != "" {
		fmt.Fprintf(&u, "Description: %s\n", req.Description)
	}
	fmt.Fprintf(&u, "\nCode under review:\n```\n%s\n```\n", req.Code)
	fmt.Fprintf(&u, "\nReview with %s strictness. Reply with only a JSON object "+
		`{"requires_changes": <bool>, "summary": "<one paragraph>"}.`, strictness)
	return Prompt{
		System: persona("code reviewer", req.Agent),
		User:   u.String(),
	}
}

func withAgentSettings(p Prompt, cfg agent.Configuration) Prompt {
	p.Model = cfg.String(agent.ConfigModel)
	p.MaxTurns = cfg.Int(agent.ConfigMaxTurns, 0)
	if t, ok := cfg.Float(agent.ConfigTemperature); ok {
		p.Temperature = &t
	}
	return p
}
