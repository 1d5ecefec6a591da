package invoker

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const (
	MinPlanSteps = 3
	MaxPlanSteps = 10
)

var stepPattern = regexp.MustCompile(`^\s*(\d+)[.)]\s+(.+)$`)

// ParsePlan extracts the numbered steps of a plan. A plan with fewer than
// MinPlanSteps or more than maxSteps steps is malformed.
func ParsePlan(text string, maxSteps int) (*Plan, error) {
	if maxSteps <= 0 || maxSteps > MaxPlanSteps {
		maxSteps = MaxPlanSteps
	}
	var steps []string
	for _, line := range strings.Split(text, "\n") {
		m := stepPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		steps = append(steps, strings.TrimSpace(m[2]))
	}
	if len(steps) < MinPlanSteps || len(steps) > maxSteps {
		return nil, fmt.Errorf("%w: plan has %d steps, want %d to %d", ErrMalformedOutput, len(steps), MinPlanSteps, maxSteps)
	}
	return &Plan{Text: strings.TrimSpace(text), Steps: steps}, nil
}

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\\s*\\n(.*?)```")

// StripCodeFences returns the contents of the fenced code blocks in text,
// or the trimmed text when it has none.
func StripCodeFences(text string) string {
	blocks := fencePattern.FindAllStringSubmatch(text, -1)
	if len(blocks) == 0 {
		return strings.TrimSpace(text)
	}
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, strings.TrimRight(b[1], "\n"))
	}
	return strings.Join(parts, "\n\n")
}

type reviewReply struct {
	RequiresChanges *bool  `json:"requires_changes"`
	Summary         string `json:"summary"`
}

// ParseReview decodes the first JSON object in text.
func ParseReview(text string) (*Review, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: review has no JSON object", ErrMalformedOutput)
	}
	var reply reviewReply
	if err := json.Unmarshal([]byte(text[start:end+1]), &reply); err != nil {
		return nil, fmt.Errorf("%w: review JSON: %v", ErrMalformedOutput, err)
	}
	if reply.RequiresChanges == nil {
		return nil, fmt.Errorf("%w: review lacks requires_changes", ErrMalformedOutput)
	}
	summary := strings.TrimSpace(reply.Summary)
	if summary == "" {
		return nil, fmt.Errorf("%w: review lacks summary", ErrMalformedOutput)
	}
	return &Review{RequiresChanges: *reply.RequiresChanges, Summary: summary}, nil
}
