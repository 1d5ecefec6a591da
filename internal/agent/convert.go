package agent

import (
	taskforgev1 "github.com/kazz187/taskforge/api/taskforge/v1"
)

func ToAPI(a *Agent) *taskforgev1.Agent {
	if a == nil {
		return nil
	}
	c := a.Clone()
	return &taskforgev1.Agent{
		ID:                  c.ID,
		Name:                c.Name,
		Type:                string(c.Type),
		Specialization:      c.Specialization,
		IsActive:            c.IsActive,
		PerformanceMetrics:  metricsToAPI(c.Metrics),
		Configuration:       configToAPI(c.Configuration),
		LastActiveTimestamp: c.LastActiveTimestamp,
		Version:             c.Version,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

func metricsToAPI(m PerformanceMetrics) taskforgev1.PerformanceMetrics {
	return taskforgev1.PerformanceMetrics{
		SuccessRate:           m.SuccessRate,
		AverageCompletionTime: m.AverageCompletionTime,
		TotalTasksProcessed:   m.TotalTasksProcessed,
	}
}

func configToAPI(c Configuration) taskforgev1.AgentConfiguration {
	c = c.Normalize()
	return taskforgev1.AgentConfiguration{SchemaVersion: c.SchemaVersion, Values: c.Values}
}

func configFromAPI(c taskforgev1.AgentConfiguration) Configuration {
	return Configuration{SchemaVersion: c.SchemaVersion, Values: c.Values}.Normalize()
}
