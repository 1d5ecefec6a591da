package pushnotification

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	taskforgev1 "github.com/kazz187/taskforge/api/taskforge/v1"
	"github.com/kazz187/taskforge/internal/config"
	"github.com/kazz187/taskforge/internal/eventbus"
	"github.com/kazz187/taskforge/internal/pushsubscription"
	"github.com/kazz187/taskforge/internal/pushsubscription/repositoryimpl"
	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/pkg/cerr"
	"github.com/kazz187/taskforge/pkg/storage"
)

// Browser-generated subscription keys.
const (
	testP256dh = "BNNL5ZaTfK81qhXOx23-wewhigUeFb632jN6LvRWCFH1ubQr77FE_9qV1FuojuRmHP42zmf34rXgW80OvUVDgTk"
	testAuth   = "zqbxT6JKstKSY9JKibZLSQ"
)

type statusClient struct {
	mu       sync.Mutex
	statuses map[string]int
	sent     []string
}

func (c *statusClient) Do(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	endpoint := req.URL.String()
	c.sent = append(c.sent, endpoint)
	status, ok := c.statuses[endpoint]
	if !ok {
		status = http.StatusCreated
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(""))}, nil
}

func newRepo(t *testing.T) *repositoryimpl.YAMLRepository {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return repositoryimpl.NewYAMLRepository(s)
}

func vapid(t *testing.T) *config.VAPIDEnv {
	t.Helper()
	private, public, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	return &config.VAPIDEnv{VAPIDPublicKey: public, VAPIDPrivateKey: private, VAPIDContact: "mailto:ops@example.com"}
}

func subscribe(t *testing.T, repo pushsubscription.Repository, id, endpoint string) {
	t.Helper()
	_, err := repo.Save(context.Background(), &pushsubscription.Subscription{
		ID: id, Endpoint: endpoint, P256dhKey: testP256dh, AuthKey: testAuth,
	})
	require.NoError(t, err)
}

func TestSender_RemovesExpiredSubscriptions(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	subscribe(t, repo, "live", "https://push.example/live")
	subscribe(t, repo, "gone", "https://push.example/gone")

	client := &statusClient{statuses: map[string]int{"https://push.example/gone": http.StatusGone}}
	sender := NewSender(vapid(t), repo)
	sender.httpClient = client

	sender.SendToAll(ctx, &NotificationPayload{Title: "Task completed", Body: "CSV exporter"})

	assert.ElementsMatch(t, []string{"https://push.example/live", "https://push.example/gone"}, client.sent)
	subs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "live", subs[0].ID)
}

func TestSender_SkipsWithoutVAPIDKeys(t *testing.T) {
	repo := newRepo(t)
	subscribe(t, repo, "live", "https://push.example/live")
	client := &statusClient{}
	sender := NewSender(&config.VAPIDEnv{}, repo)
	sender.httpClient = client

	sender.SendToAll(context.Background(), &NotificationPayload{Title: "x"})
	assert.Empty(t, client.sent)
}

func TestPayloadFor(t *testing.T) {
	tests := []struct {
		name  string
		task  *task.Task
		title string
	}{
		{name: "completed", task: &task.Task{ID: "t1", Title: "CSV", Status: task.StatusCompleted}, title: "Task completed"},
		{name: "reviewer rework", task: &task.Task{ID: "t1", Title: "CSV", Status: task.StatusCodeGeneration, ReworkRequestedBy: task.ReworkByReviewer}, title: "Changes requested by reviewer"},
		{name: "human rework", task: &task.Task{ID: "t1", Title: "CSV", Status: task.StatusCodeGeneration, ReworkRequestedBy: task.ReworkByHuman}, title: "Changes requested"},
		{name: "planned", task: &task.Task{ID: "t1", Title: "CSV", Status: task.StatusReadyToCode}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := payloadFor(tt.task)
			if tt.title == "" {
				assert.Nil(t, p)
				return
			}
			require.NotNil(t, p)
			assert.Equal(t, tt.title, p.Title)
			assert.Equal(t, "CSV", p.Body)
			assert.Equal(t, "/tasks/t1", p.URL)
			assert.Equal(t, "t1", p.Tag)
		})
	}
}

type recordingNotifier struct {
	ch chan *NotificationPayload
}

func (n *recordingNotifier) SendToAll(_ context.Context, p *NotificationPayload) {
	n.ch <- p
}

func TestDispatcher_SendsForCompletedTasks(t *testing.T) {
	bus := eventbus.New()
	n := &recordingNotifier{ch: make(chan *NotificationPayload, 256)}
	d := NewDispatcher(bus, n)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	completed := &task.Task{ID: "t1", Title: "CSV", Status: task.StatusCompleted}
	var p *NotificationPayload
	require.Eventually(t, func() bool {
		bus.PublishTask(eventbus.TaskCreated, completed)
		bus.PublishTask(eventbus.TaskUpdated, completed)
		select {
		case p = <-n.ch:
			return true
		case <-time.After(10 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, "Task completed", p.Title)

	cancel()
	require.NoError(t, <-done)
}

func TestServer_SubscribeAndUnsubscribe(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	srv := NewServer(vapid(t), repo)

	_, err := srv.Subscribe(ctx, connect.NewRequest(&taskforgev1.SubscribePushRequest{Endpoint: "https://push.example/a"}))
	assert.Equal(t, "p256dh", cerr.KindOf(err))

	res, err := srv.Subscribe(ctx, connect.NewRequest(&taskforgev1.SubscribePushRequest{
		Endpoint: "https://push.example/a", P256dh: testP256dh, Auth: testAuth,
	}))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Msg.ID)

	key, err := srv.GetVAPIDPublicKey(ctx, connect.NewRequest(&taskforgev1.GetVAPIDPublicKeyRequest{}))
	require.NoError(t, err)
	assert.NotEmpty(t, key.Msg.PublicKey)

	_, err = srv.Unsubscribe(ctx, connect.NewRequest(&taskforgev1.UnsubscribePushRequest{Endpoint: "https://push.example/a"}))
	require.NoError(t, err)
	subs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)

	_, err = NewServer(&config.VAPIDEnv{}, repo).GetVAPIDPublicKey(ctx, connect.NewRequest(&taskforgev1.GetVAPIDPublicKeyRequest{}))
	assert.True(t, cerr.IsCode(err, cerr.FailedPrecondition))
}
