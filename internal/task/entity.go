package task

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kazz187/taskforge/pkg/cerr"
)

type Status string

const (
	StatusTodo           Status = "Todo"
	StatusReadyToCode    Status = "Ready to Code"
	StatusCodeGeneration Status = "Code Generation"
	StatusCodeReview     Status = "Code Review"
	StatusCompleted      Status = "Completed"
)

var statuses = []Status{StatusTodo, StatusReadyToCode, StatusCodeGeneration, StatusCodeReview, StatusCompleted}

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, slices.Contains(statuses, st)
}

type Complexity string

const (
	ComplexityLow    Complexity = "Low"
	ComplexityMedium Complexity = "Medium"
	ComplexityHigh   Complexity = "High"
)

func ParseComplexity(s string) (Complexity, bool) {
	switch c := Complexity(s); c {
	case "":
		return ComplexityMedium, true
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
		return c, true
	default:
		return "", false
	}
}

// Who sent a task back to Code Generation.
const (
	ReworkByReviewer = "reviewer"
	ReworkByHuman    = "human"
)

const (
	MaxPlanningAttempts   = 3
	MaxGenerationAttempts = 3
)

type ReviewFeedback struct {
	RequiresChanges bool   `yaml:"requires_changes"`
	Summary         string `yaml:"summary"`
}

type HistoryEntry struct {
	Action    string    `yaml:"action"`
	AgentID   string    `yaml:"agent_id,omitempty"`
	ActorID   string    `yaml:"actor_id,omitempty"`
	Timestamp time.Time `yaml:"timestamp"`
	Details   string    `yaml:"details"`
}

type Task struct {
	ID                 string          `yaml:"id"`
	Title              string          `yaml:"title"`
	Description        string          `yaml:"description"`
	Status             Status          `yaml:"status"`
	Complexity         Complexity      `yaml:"complexity"`
	Tags               []string        `yaml:"tags"`
	PlanningAttempts   int             `yaml:"planning_attempts"`
	GenerationAttempts int             `yaml:"generation_attempts"`
	ImplementationPlan *string         `yaml:"implementation_plan"`
	GeneratedCode      *string         `yaml:"generated_code"`
	CodeReviewFeedback *ReviewFeedback `yaml:"code_review_feedback"`
	ReworkRequestedBy  string          `yaml:"rework_requested_by,omitempty"`
	AssignedAgents     []string        `yaml:"assigned_agents"`
	History            []HistoryEntry  `yaml:"history"`
	CreatorID          string          `yaml:"creator_id"`
	Version            int64           `yaml:"version"`
	CreatedAt          time.Time       `yaml:"created_at"`
	UpdatedAt          time.Time       `yaml:"updated_at"`
}

// Clone returns a deep copy, so a snapshot handed to subscribers never
// aliases a task that is about to be mutated.
func (t *Task) Clone() *Task {
	c := *t
	c.Tags = slices.Clone(t.Tags)
	c.AssignedAgents = slices.Clone(t.AssignedAgents)
	c.History = slices.Clone(t.History)
	if t.ImplementationPlan != nil {
		p := *t.ImplementationPlan
		c.ImplementationPlan = &p
	}
	if t.GeneratedCode != nil {
		g := *t.GeneratedCode
		c.GeneratedCode = &g
	}
	if t.CodeReviewFeedback != nil {
		f := *t.CodeReviewFeedback
		c.CodeReviewFeedback = &f
	}
	return &c
}

// IsOpen reports whether the task still counts toward an agent's load.
func (t *Task) IsOpen() bool {
	return t.Status != StatusCompleted
}

func (t *Task) AssignedTo(agentID string) bool {
	return slices.Contains(t.AssignedAgents, agentID)
}

func (t *Task) AppendHistory(e HistoryEntry) {
	t.History = append(t.History, e)
}

const (
	minTitleLen       = 3
	maxTitleLen       = 100
	maxDescriptionLen = 500
)

// NormalizeTags trims tags and drops empty ones.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// ValidateNew checks the fields a caller supplies at creation.
func ValidateNew(title, description string) error {
	title = strings.TrimSpace(title)
	var violations [][2]string
	if n := utf8.RuneCountInString(title); n < minTitleLen || n > maxTitleLen {
		violations = append(violations, [2]string{"title", "title must be between 3 and 100 characters"})
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		violations = append(violations, [2]string{"description", "description must be at most 500 characters"})
	}
	if len(violations) == 0 {
		return nil
	}
	err := cerr.NewError(cerr.InvalidArgument, violations[0][1], nil)
	for _, v := range violations {
		_ = err.AddFieldViolation(v[0], v[1])
	}
	return err
}
