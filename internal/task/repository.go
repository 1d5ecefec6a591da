package task

import "context"

type Filter struct {
	Status  Status
	AgentID string
	SortAsc bool
}

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Task, int, error)
	// Update replaces the stored task if its version still equals
	// expectedVersion, then sets t.Version to the new version. A mismatch is
	// reported as cerr.Aborted.
	Update(ctx context.Context, t *Task, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
	// CountOpenByAgent counts non-completed tasks that list agentID.
	CountOpenByAgent(ctx context.Context, agentID string) (int, error)
}
