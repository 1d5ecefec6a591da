package task

import (
	taskforgev1 "github.com/kazz187/taskforge/api/taskforge/v1"
)

func ToAPI(t *Task) *taskforgev1.Task {
	if t == nil {
		return nil
	}
	c := t.Clone()
	out := &taskforgev1.Task{
		ID:                 c.ID,
		Title:              c.Title,
		Description:        c.Description,
		Status:             string(c.Status),
		Complexity:         string(c.Complexity),
		Tags:               c.Tags,
		PlanningAttempts:   c.PlanningAttempts,
		GenerationAttempts: c.GenerationAttempts,
		ImplementationPlan: c.ImplementationPlan,
		GeneratedCode:      c.GeneratedCode,
		ReworkRequestedBy:  c.ReworkRequestedBy,
		AssignedAgents:     c.AssignedAgents,
		CreatorID:          c.CreatorID,
		Version:            c.Version,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.AssignedAgents == nil {
		out.AssignedAgents = []string{}
	}
	if c.CodeReviewFeedback != nil {
		out.CodeReviewFeedback = &taskforgev1.ReviewFeedback{
			RequiresChanges: c.CodeReviewFeedback.RequiresChanges,
			Summary:         c.CodeReviewFeedback.Summary,
		}
	}
	out.History = make([]taskforgev1.HistoryEntry, len(c.History))
	for i, h := range c.History {
		out.History[i] = taskforgev1.HistoryEntry{
			Action:    h.Action,
			AgentID:   h.AgentID,
			ActorID:   h.ActorID,
			Timestamp: h.Timestamp,
			Details:   h.Details,
		}
	}
	return out
}
