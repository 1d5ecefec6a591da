package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskforge/internal/task"
)

func TestBus_PublishTaskSnapshots(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(4)
	defer bus.Unsubscribe(id)

	tk := &task.Task{ID: "t1", Status: task.StatusTodo}
	bus.PublishTask(TaskCreated, tk)
	tk.Status = task.StatusReadyToCode

	ev := <-ch
	assert.Equal(t, TaskCreated, ev.Type)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, task.StatusTodo, ev.Task.Status, "snapshot must not follow later mutation")
}

func TestBus_FullSubscriberDoesNotBlock(t *testing.T) {
	bus := New()
	_, slow := bus.Subscribe(1)
	fastID, fast := bus.Subscribe(8)

	for range 3 {
		bus.PublishTask(TaskUpdated, &task.Task{ID: "t1"})
	}

	assert.Len(t, slow, 1)
	assert.Len(t, fast, 3)

	bus.Unsubscribe(fastID)
	_, ok := <-drain(fast)
	require.False(t, ok)
}

func drain(ch <-chan *Event) <-chan *Event {
	for len(ch) > 0 {
		<-ch
	}
	return ch
}
