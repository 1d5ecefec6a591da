package agent

import "context"

type Filter struct {
	Type       Type
	ActiveOnly bool
}

type Repository interface {
	// Create fails with cerr.AlreadyExists when the name is taken.
	Create(ctx context.Context, a *Agent) error
	Get(ctx context.Context, id string) (*Agent, error)
	// List returns agents ordered by name, then id.
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Agent, int, error)
	FindByName(ctx context.Context, name string) (*Agent, error)
	// Update is a compare-and-swap on Version, reported as cerr.Aborted on mismatch.
	Update(ctx context.Context, a *Agent, expectedVersion int64) error
}
