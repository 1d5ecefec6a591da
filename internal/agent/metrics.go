package agent

// Record folds one processed task into the running metrics. SuccessRate is
// a percentage in [0, 100]. A missing average counts as zero.
func (m PerformanceMetrics) Record(success bool, completionTimeMs float64) PerformanceMetrics {
	n := float64(m.TotalTasksProcessed)
	s := 0.0
	if success {
		s = 100
	}
	avg := 0.0
	if m.AverageCompletionTime != nil {
		avg = *m.AverageCompletionTime
	}
	nextAvg := (avg*n + completionTimeMs) / (n + 1)
	return PerformanceMetrics{
		SuccessRate:           (m.SuccessRate*n + s) / (n + 1),
		AverageCompletionTime: &nextAvg,
		TotalTasksProcessed:   m.TotalTasksProcessed + 1,
	}
}
