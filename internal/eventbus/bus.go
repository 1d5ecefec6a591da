// Package eventbus fans committed task snapshots out to in-process
// subscribers such as the dashboard hub and the push dispatcher.
package eventbus

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kazz187/taskforge/internal/task"
)

type EventType string

const (
	TaskCreated EventType = "TASK_CREATED"
	TaskUpdated EventType = "TASK_UPDATED"
)

type Event struct {
	ID   string
	Type EventType
	// Task is a private snapshot; subscribers may read it freely.
	Task      *task.Task
	CreatedAt time.Time
}

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *Event
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan *Event),
	}
}

func (b *Bus) Subscribe(bufSize int) (string, <-chan *Event) {
	id := ulid.Make().String()
	ch := make(chan *Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Publish never blocks; a subscriber with a full buffer misses the event.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// PublishTask publishes a snapshot of t.
func (b *Bus) PublishTask(eventType EventType, t *task.Task) {
	b.Publish(&Event{
		ID:        ulid.Make().String(),
		Type:      eventType,
		Task:      t.Clone(),
		CreatedAt: time.Now(),
	})
}
