package invoker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlan(t *testing.T) {
	text := `Here is the plan:
1. Define the data model
2) Add the repository
3. Expose the endpoint
Notes: keep it small.`
	plan, err := ParsePlan(text, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Define the data model", "Add the repository", "Expose the endpoint"}, plan.Steps)
	assert.Contains(t, plan.Text, "Notes: keep it small.")

	_, err = ParsePlan("1. only\n2. two", 0)
	assert.ErrorIs(t, err, ErrMalformedOutput)

	_, err = ParsePlan("1. a\n2. b\n3. c\n4. d", 3)
	assert.ErrorIs(t, err, ErrMalformedOutput)

	_, err = ParsePlan("no steps at all", 0)
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, "package main", StripCodeFences("  package main \n"))
	assert.Equal(t, "func a() {}", StripCodeFences("Here:\n```go\nfunc a() {}\n```\nDone."))
	assert.Equal(t, "a\n\nb", StripCodeFences("```\na\n```\ntext\n```js\nb\n```"))
}

func TestParseReview(t *testing.T) {
	r, err := ParseReview("Sure!\n{\"requires_changes\": true, \"summary\": \"Missing error handling\"}")
	require.NoError(t, err)
	assert.True(t, r.RequiresChanges)
	assert.Equal(t, "Missing error handling", r.Summary)

	r, err = ParseReview(`{"requires_changes": false, "summary": "LGTM"}`)
	require.NoError(t, err)
	assert.False(t, r.RequiresChanges)

	for _, bad := range []string{
		"looks fine",
		`{"summary": "no verdict"}`,
		`{"requires_changes": true}`,
		`{"requires_changes": "yes", "summary": "x"}`,
	} {
		_, err := ParseReview(bad)
		assert.ErrorIs(t, err, ErrMalformedOutput, bad)
	}
}
