package agent

import (
	"maps"
	"slices"
	"time"
)

type Type string

const (
	TypePlanner   Type = "CodePlanner"
	TypeGenerator Type = "CodeGenerator"
	TypeReviewer  Type = "CodeReviewer"
)

var types = []Type{TypePlanner, TypeGenerator, TypeReviewer}

func ParseType(s string) (Type, bool) {
	t := Type(s)
	return t, slices.Contains(types, t)
}

type PerformanceMetrics struct {
	SuccessRate float64 `yaml:"success_rate"`
	// AverageCompletionTime is in milliseconds; nil until the first task.
	AverageCompletionTime *float64 `yaml:"average_completion_time"`
	TotalTasksProcessed   int      `yaml:"total_tasks_processed"`
}

type Agent struct {
	ID                  string             `yaml:"id"`
	Name                string             `yaml:"name"`
	Type                Type               `yaml:"type"`
	Specialization      string             `yaml:"specialization"`
	IsActive            bool               `yaml:"is_active"`
	Metrics             PerformanceMetrics `yaml:"performance_metrics"`
	Configuration       Configuration      `yaml:"configuration"`
	LastActiveTimestamp time.Time          `yaml:"last_active_timestamp"`
	Version             int64              `yaml:"version"`
	CreatedAt           time.Time          `yaml:"created_at"`
	UpdatedAt           time.Time          `yaml:"updated_at"`
}

func (a *Agent) Clone() *Agent {
	c := *a
	c.Configuration.Values = maps.Clone(a.Configuration.Values)
	if a.Metrics.AverageCompletionTime != nil {
		v := *a.Metrics.AverageCompletionTime
		c.Metrics.AverageCompletionTime = &v
	}
	return &c
}
