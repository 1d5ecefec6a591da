package workflow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	taskforgev1 "github.com/kazz187/taskforge/api/taskforge/v1"
	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/pkg/cerr"
)

func newTestClient(t *testing.T, f *fixture, actor string) *taskforgev1.Client {
	t.Helper()
	mux := http.NewServeMux()
	path, handler := taskforgev1.NewTaskServiceHandler(NewServer(f.engine, f.agents),
		connect.WithInterceptors(cerr.NewConvertConnectErrorInterceptor()))
	mux.Handle(path, handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return taskforgev1.NewClient(srv.Client(), srv.URL, "", actor)
}

func TestServer_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addAllAgents(t)
	f.invoker.review = reviews(true)
	client := newTestClient(t, f, "alice")

	created, err := client.CreateTask(ctx, &taskforgev1.CreateTaskRequest{
		Title:       "Add a CSV exporter",
		Description: "Export the report table as CSV.",
		Tags:        []string{"export"},
	})
	require.NoError(t, err)
	assert.Equal(t, string(task.StatusTodo), created.Task.Status)
	assert.Equal(t, string(task.ComplexityMedium), created.Task.Complexity)
	assert.Equal(t, "alice", created.Task.CreatorID)
	id := created.Task.ID

	for _, advance := range []func(context.Context, *taskforgev1.AdvanceTaskRequest) (*taskforgev1.AdvanceTaskResponse, error){
		client.AdvancePlanning, client.AdvanceGeneration, client.AdvanceReview,
	} {
		_, err := advance(ctx, &taskforgev1.AdvanceTaskRequest{ID: id})
		require.NoError(t, err)
	}

	got, err := client.GetTask(ctx, &taskforgev1.GetTaskRequest{ID: id})
	require.NoError(t, err)
	assert.Equal(t, string(task.StatusCodeGeneration), got.Task.Status)
	assert.Equal(t, []taskforgev1.AgentSummary{
		{ID: plannerID, Name: plannerID, Type: "CodePlanner"},
		{ID: generatorID, Name: generatorID, Type: "CodeGenerator"},
	}, got.Agents)

	approved, err := client.ApproveTask(ctx, &taskforgev1.ApproveTaskRequest{ID: id, Approved: true})
	require.NoError(t, err)
	assert.Equal(t, string(task.StatusCompleted), approved.Task.Status)
	last := approved.Task.History[len(approved.Task.History)-1]
	assert.Equal(t, "Task Approval", last.Action)
	assert.Equal(t, "alice", last.ActorID)

	list, err := client.ListTasks(ctx, &taskforgev1.ListTasksRequest{Status: string(task.StatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
}

func TestServer_ErrorKindsOverTheWire(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	client := newTestClient(t, f, "alice")

	_, err := client.AdvancePlanning(ctx, &taskforgev1.AdvanceTaskRequest{ID: "missing"})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	assert.Equal(t, KindNotFound, cerr.KindOf(err))

	created, err := client.CreateTask(ctx, &taskforgev1.CreateTaskRequest{Title: "Add a CSV exporter"})
	require.NoError(t, err)

	_, err = client.AdvancePlanning(ctx, &taskforgev1.AdvanceTaskRequest{ID: created.Task.ID})
	assert.Equal(t, connect.CodeUnavailable, connect.CodeOf(err))
	assert.Equal(t, KindNoEligibleAgent, cerr.KindOf(err))

	_, err = client.AdvanceReview(ctx, &taskforgev1.AdvanceTaskRequest{ID: created.Task.ID})
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
	assert.Equal(t, KindInvalidTransition, cerr.KindOf(err))

	_, err = client.ListTasks(ctx, &taskforgev1.ListTasksRequest{Status: "Nope"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	assert.Equal(t, "status", cerr.KindOf(err))
}
