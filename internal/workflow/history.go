package workflow

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	actionPlanning   = "Task Planning"
	actionGeneration = "Code Generation"
	actionReview     = "Code Review"
	actionApproval   = "Task Approval"
	actionRejection  = "Task Rejection"

	detailsApproval  = "Task marked as completed by human reviewer"
	detailsRejection = "Task requires further refinement"

	previewLen = 100
)

// preview returns the first previewLen runes of s followed by "...".
func preview(s string) string {
	r := []rune(s)
	if len(r) > previewLen {
		r = r[:previewLen]
	}
	return string(r) + "..."
}

func planningDetails(plan string) string {
	return "Generated implementation plan: " + preview(plan)
}

func generationDetails(code string, previous *string) string {
	details := "Generated code: " + preview(code)
	if previous != nil {
		added, removed := lineDelta(*previous, code)
		details += fmt.Sprintf("\n+%d/-%d lines vs previous attempt", added, removed)
	}
	return details
}

func reviewDetails(summary string) string {
	return "Review result: " + summary
}

// lineDelta counts inserted and deleted lines between two texts.
func lineDelta(from, to string) (added, removed int) {
	m := difflib.NewMatcher(difflib.SplitLines(from), difflib.SplitLines(to))
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'r':
			removed += op.I2 - op.I1
			added += op.J2 - op.J1
		case 'd':
			removed += op.I2 - op.I1
		case 'i':
			added += op.J2 - op.J1
		}
	}
	return added, removed
}
