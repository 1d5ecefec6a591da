package pushnotification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kazz187/taskforge/internal/eventbus"
	"github.com/kazz187/taskforge/internal/task"
)

// Notifier delivers one notification to all subscribers.
type Notifier interface {
	SendToAll(ctx context.Context, payload *NotificationPayload)
}

type Dispatcher struct {
	eventBus *eventbus.Bus
	notifier Notifier
}

func NewDispatcher(eventBus *eventbus.Bus, notifier Notifier) *Dispatcher {
	return &Dispatcher{
		eventBus: eventBus,
		notifier: notifier,
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	subID, ch := d.eventBus.Subscribe(256)
	defer d.eventBus.Unsubscribe(subID)

	slog.InfoContext(ctx, "push notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("push notification dispatcher stopped")
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			if event.Type != eventbus.TaskUpdated {
				continue
			}
			if payload := payloadFor(event.Task); payload != nil {
				d.notifier.SendToAll(ctx, payload)
			}
		}
	}
}

// payloadFor returns the notification for a committed snapshot, or nil when
// the change is not worth interrupting anyone for.
func payloadFor(t *task.Task) *NotificationPayload {
	var title string
	switch t.Status {
	case task.StatusCompleted:
		title = "Task completed"
	case task.StatusCodeGeneration:
		switch t.ReworkRequestedBy {
		case task.ReworkByReviewer:
			title = "Changes requested by reviewer"
		case task.ReworkByHuman:
			title = "Changes requested"
		default:
			return nil
		}
	default:
		return nil
	}
	return &NotificationPayload{
		Title: title,
		Body:  t.Title,
		URL:   fmt.Sprintf("/tasks/%s", t.ID),
		Tag:   t.ID,
	}
}
