// Package dashboard pushes TASK_UPDATE messages to connected dashboard
// sessions over WebSocket or Server-Sent Events.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/oklog/ulid/v2"
	"golang.org/x/net/websocket"

	taskforgev1 "github.com/kazz187/taskforge/api/taskforge/v1"
	"github.com/kazz187/taskforge/internal/eventbus"
	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/pkg/panicerr"
)

const (
	sessionBufferSize = 64
	busBufferSize     = 256
)

type session struct {
	id string
	ch chan []byte
}

// Hub keeps the set of open dashboard sessions. A session whose buffer is
// full misses messages; the broadcaster never waits on it.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*session)}
}

func (h *Hub) register() *session {
	s := &session{id: ulid.Make().String(), ch: make(chan []byte, sessionBufferSize)}
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
	slog.Debug("dashboard session opened", "session_id", s.id)
	return s
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	if _, ok := h.sessions[s.id]; ok {
		delete(h.sessions, s.id)
		close(s.ch)
	}
	h.mu.Unlock()
	slog.Debug("dashboard session closed", "session_id", s.id)
}

// Sessions returns the number of open sessions.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Broadcast sends msg to every open session.
func (h *Hub) Broadcast(msg *taskforgev1.DashboardMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal dashboard message", "error", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		select {
		case s.ch <- data:
		default:
			slog.Warn("dashboard session buffer full, dropping message", "session_id", s.id)
		}
	}
}

// BroadcastTask sends a TASK_UPDATE carrying t.
func (h *Hub) BroadcastTask(t *task.Task) {
	h.Broadcast(&taskforgev1.DashboardMessage{
		Type: taskforgev1.MessageTypeTaskUpdate,
		Task: task.ToAPI(t),
	})
}

// Run forwards task events from bus until ctx is done.
func (h *Hub) Run(ctx context.Context, bus *eventbus.Bus) error {
	subID, ch := bus.Subscribe(busBufferSize)
	defer bus.Unsubscribe(subID)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := panicerr.Safe(func() error {
				h.BroadcastTask(ev.Task)
				return nil
			})(); err != nil {
				slog.ErrorContext(ctx, "dashboard broadcast panicked", "error", err, "event_id", ev.ID)
			}
		}
	}
}

func connectedMessage() []byte {
	data, _ := json.Marshal(&taskforgev1.DashboardMessage{Type: taskforgev1.MessageTypeConnected})
	return data
}

// WebSocketHandler serves the dashboard stream over WebSocket. Origins are
// not checked; access control is the API key middleware's job.
func (h *Hub) WebSocketHandler() http.Handler {
	return websocket.Server{
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler:   h.serveWebSocket,
	}
}

func (h *Hub) serveWebSocket(conn *websocket.Conn) {
	defer conn.Close()
	s := h.register()
	defer h.unregister(s)

	ctx, cancel := context.WithCancel(conn.Request().Context())
	defer cancel()

	// Reads only detect the peer going away; inbound frames are ignored.
	go func() {
		defer cancel()
		var discard string
		for {
			if err := websocket.Message.Receive(conn, &discard); err != nil {
				return
			}
		}
	}()

	if err := websocket.Message.Send(conn, string(connectedMessage())); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-s.ch:
			if !ok {
				return
			}
			if err := websocket.Message.Send(conn, string(data)); err != nil {
				slog.Debug("dashboard websocket send failed", "session_id", s.id, "error", err)
				return
			}
		}
	}
}

// ServeSSE serves the dashboard stream as Server-Sent Events.
func (h *Hub) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	s := h.register()
	defer h.unregister(s)

	fmt.Fprintf(w, "data: %s\n\n", connectedMessage())
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case data, ok := <-s.ch:
			if !ok {
				return
			}
			// json.Marshal output has no raw newlines, so one data line suffices.
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
