package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	taskforgev1 "github.com/kazz187/taskforge/api/taskforge/v1"
	"github.com/kazz187/taskforge/pkg/color"
)

type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) tasks(tasks []*taskforgev1.Task, total int) {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tPLAN\tGEN\tUPDATED")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			t.ID, color.Status(t.Status), t.Title, t.PlanningAttempts, t.GenerationAttempts,
			t.UpdatedAt.Local().Format(time.DateTime))
	}
	tw.Flush()
	fmt.Fprintln(p.w, color.Dim(fmt.Sprintf("%d of %d tasks", len(tasks), total)))
}

func (p *printer) task(t *taskforgev1.Task, agents []taskforgev1.AgentSummary) {
	fmt.Fprintf(p.w, "%s  %s\n", t.ID, color.Status(t.Status))
	fmt.Fprintf(p.w, "Title:       %s\n", t.Title)
	fmt.Fprintf(p.w, "Complexity:  %s\n", t.Complexity)
	if len(t.Tags) > 0 {
		fmt.Fprintf(p.w, "Tags:        %s\n", strings.Join(t.Tags, ", "))
	}
	fmt.Fprintf(p.w, "Attempts:    planning %d/3, generation %d/3\n", t.PlanningAttempts, t.GenerationAttempts)
	if len(agents) > 0 {
		names := make([]string, 0, len(agents))
		for _, a := range agents {
			names = append(names, color.Agent(a.ID, a.Name)+" "+a.Type)
		}
		fmt.Fprintf(p.w, "Agents:      %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(p.w, "\n%s\n", t.Description)
	if t.ImplementationPlan != nil {
		fmt.Fprintf(p.w, "\n--- Plan ---\n%s\n", *t.ImplementationPlan)
	}
	if t.GeneratedCode != nil {
		fmt.Fprintf(p.w, "\n--- Code ---\n%s\n", *t.GeneratedCode)
	}
	if fb := t.CodeReviewFeedback; fb != nil {
		verdict := "approved"
		if fb.RequiresChanges {
			verdict = "changes requested"
		}
		fmt.Fprintf(p.w, "\n--- Review (%s) ---\n%s\n", verdict, fb.Summary)
	}
	if len(t.History) > 0 {
		fmt.Fprintln(p.w, "\n--- History ---")
		for _, h := range t.History {
			who := h.ActorID
			if h.AgentID != "" {
				who = color.Agent(h.AgentID, "")
			}
			fmt.Fprintf(p.w, "%s %-22s %s %s\n",
				color.Dim(h.Timestamp.Local().Format(time.DateTime)), h.Action, who, h.Details)
		}
	}
}

func (p *printer) agents(agents []*taskforgev1.Agent) {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tACTIVE\tSUCCESS\tPROCESSED")
	for _, a := range agents {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%.1f%%\t%d\n",
			a.ID, color.Agent(a.ID, a.Name), a.Type, a.IsActive,
			a.PerformanceMetrics.SuccessRate, a.PerformanceMetrics.TotalTasksProcessed)
	}
	tw.Flush()
}

func (p *printer) agent(a *taskforgev1.Agent) {
	fmt.Fprintf(p.w, "%s %s\n", color.Agent(a.ID, a.Name), a.ID)
	fmt.Fprintf(p.w, "Type:            %s\n", a.Type)
	fmt.Fprintf(p.w, "Specialization:  %s\n", a.Specialization)
	fmt.Fprintf(p.w, "Active:          %t\n", a.IsActive)
	for _, k := range slices.Sorted(maps.Keys(a.Configuration.Values)) {
		fmt.Fprintf(p.w, "Config:          %s=%s\n", k, a.Configuration.Values[k])
	}
}

func (p *printer) performance(perf *taskforgev1.GetAgentPerformanceResponse) {
	m := perf.Metrics
	avg := "n/a"
	if m.AverageCompletionTime != nil {
		avg = (time.Duration(*m.AverageCompletionTime) * time.Millisecond).String()
	}
	fmt.Fprintf(p.w, "Success rate:    %.1f%% of %d\n", m.SuccessRate, m.TotalTasksProcessed)
	fmt.Fprintf(p.w, "Avg completion:  %s\n", avg)
	fmt.Fprintf(p.w, "Tasks:           %d completed, %d total\n", perf.CompletedTasks, perf.TotalTasks)
}
