package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	taskforgev1 "github.com/kazz187/taskforge/api/taskforge/v1"
	"github.com/kazz187/taskforge/internal/agent"
	agentrepo "github.com/kazz187/taskforge/internal/agent/repositoryimpl"
	"github.com/kazz187/taskforge/internal/config"
	"github.com/kazz187/taskforge/internal/dashboard"
	"github.com/kazz187/taskforge/internal/eventbus"
	"github.com/kazz187/taskforge/internal/invoker"
	"github.com/kazz187/taskforge/internal/pushnotification"
	pushsubrepo "github.com/kazz187/taskforge/internal/pushsubscription/repositoryimpl"
	taskrepo "github.com/kazz187/taskforge/internal/task/repositoryimpl"
	"github.com/kazz187/taskforge/internal/workflow"
	"github.com/kazz187/taskforge/pkg/storage"
)

const testAPIKey = "secret"

type stubInvoker struct{}

func (stubInvoker) Plan(context.Context, invoker.PlanRequest) (*invoker.Plan, error) {
	return &invoker.Plan{Text: "1. write it", Steps: []string{"write it"}}, nil
}

func (stubInvoker) Generate(context.Context, invoker.GenerateRequest) (*invoker.Code, error) {
	return &invoker.Code{Text: "package main\n"}, nil
}

func (stubInvoker) Review(context.Context, invoker.ReviewRequest) (*invoker.Review, error) {
	return &invoker.Review{Summary: "looks good"}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	env := &config.Env{BaseEnv: config.BaseEnv{APIKey: testAPIKey}}
	bus := eventbus.New()
	tasks := taskrepo.NewYAMLRepository(store)
	agents := agentrepo.NewYAMLRepository(store)
	pushSubs := pushsubrepo.NewYAMLRepository(store)
	registry := agent.NewRegistry(agents, tasks, agent.DefaultMaxLoad)
	engine := workflow.NewEngine(tasks, agents, registry, stubInvoker{}, bus, workflow.Config{})

	hub := dashboard.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.Run(ctx, bus) }()

	s := NewServer(env,
		workflow.NewServer(engine, agents),
		agent.NewServer(agents, registry, tasks),
		pushnotification.NewServer(&env.VAPIDEnv, pushSubs),
		hub,
	)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string, header http.Header) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func TestServer_APIKey(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := get(t, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, srv.URL+"/api/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = get(t, srv.URL+"/api/tasks", http.Header{"Authorization": {"Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = get(t, srv.URL+"/api/tasks", http.Header{"Authorization": {"Bearer " + testAPIKey}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, srv.URL+"/api/tasks?api_key="+testAPIKey, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err := http.Post(srv.URL+healthCheckProcedure, "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+taskforgev1.TaskServiceListTasksProcedure, "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	client := taskforgev1.NewClient(srv.Client(), srv.URL, "wrong", "alice")
	_, err = client.ListTasks(context.Background(), &taskforgev1.ListTasksRequest{})
	assert.Error(t, err)
}

func TestServer_RESTReads(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	client := taskforgev1.NewClient(srv.Client(), srv.URL, testAPIKey, "alice")
	auth := http.Header{"X-Api-Key": {testAPIKey}}

	created, err := client.CreateTask(ctx, &taskforgev1.CreateTaskRequest{
		Title:       "Add pagination",
		Description: "Page the task list.",
	})
	require.NoError(t, err)

	resp, body := get(t, srv.URL+"/api/tasks?status=Todo&limit=5", auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["total"])

	resp, body = get(t, srv.URL+"/api/tasks/"+created.Task.ID, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.Task.ID, body["task"].(map[string]any)["id"])

	resp, body = get(t, srv.URL+"/api/tasks/missing", auth)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NotFound", body["code"])
	assert.Equal(t, "NOT_FOUND", body["kind"])

	resp, body = get(t, srv.URL+"/api/tasks?limit=abc", auth)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "limit", body["kind"])

	resp, body = get(t, srv.URL+"/api/tasks?status=Done", auth)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "status", body["kind"])

	resp, _ = get(t, srv.URL+"/api/nothing", auth)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_DashboardWebSocket(t *testing.T) {
	srv := newTestServer(t)
	client := taskforgev1.NewClient(srv.Client(), srv.URL, testAPIKey, "alice")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws?api_key=" + testAPIKey
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)
	defer conn.Close()

	var raw string
	require.NoError(t, websocket.Message.Receive(conn, &raw))
	var msg taskforgev1.DashboardMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	assert.Equal(t, taskforgev1.MessageTypeConnected, msg.Type)

	created, err := client.CreateTask(context.Background(), &taskforgev1.CreateTaskRequest{
		Title:       "Stream updates",
		Description: "Push task changes to dashboards.",
	})
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, websocket.Message.Receive(conn, &raw))
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	assert.Equal(t, taskforgev1.MessageTypeTaskUpdate, msg.Type)
	require.NotNil(t, msg.Task)
	assert.Equal(t, created.Task.ID, msg.Task.ID)
}
