package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kazz187/taskforge/pkg/cerr"
)

var (
	ErrNoEligibleAgent = errors.New("no eligible agent")
	ErrHasActiveWork   = errors.New("agent has active work")
)

const DefaultMaxLoad = 5

// WorkCounter counts the non-completed tasks assigned to an agent.
type WorkCounter interface {
	CountOpenByAgent(ctx context.Context, agentID string) (int, error)
}

// Registry answers which agents may take work. Besides persisted
// assignments it tracks in-flight invocations, which count as open work
// until released.
type Registry struct {
	repo    Repository
	work    WorkCounter
	maxLoad int

	mu       sync.Mutex
	inflight map[string]int
	locks    map[string]*sync.Mutex
}

func NewRegistry(repo Repository, work WorkCounter, maxLoad int) *Registry {
	if maxLoad <= 0 {
		maxLoad = DefaultMaxLoad
	}
	return &Registry{
		repo:     repo,
		work:     work,
		maxLoad:  maxLoad,
		inflight: make(map[string]int),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (r *Registry) MaxLoad() int {
	return r.maxLoad
}

// FindEligible returns the first active agent of type t in name order.
func (r *Registry) FindEligible(ctx context.Context, t Type) (*Agent, error) {
	agents, _, err := r.repo.List(ctx, Filter{Type: t, ActiveOnly: true}, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(agents) == 0 {
		return nil, cerr.NewKindError(cerr.Unavailable, "NO_ELIGIBLE_AGENT",
			fmt.Sprintf("no active %s agent available", t), fmt.Errorf("%s: %w", t, ErrNoEligibleAgent))
	}
	return agents[0], nil
}

// FindAvailable returns active agents of type t whose open work is below
// maxLoad. A non-positive maxLoad means the registry default.
func (r *Registry) FindAvailable(ctx context.Context, t Type, maxLoad int) ([]*Agent, error) {
	if maxLoad <= 0 {
		maxLoad = r.maxLoad
	}
	agents, _, err := r.repo.List(ctx, Filter{Type: t, ActiveOnly: true}, 0, 0)
	if err != nil {
		return nil, err
	}
	available := make([]*Agent, 0, len(agents))
	for _, a := range agents {
		load, err := r.Load(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		if load < maxLoad {
			available = append(available, a)
		}
	}
	return available, nil
}

// Load is the number of open assignments plus in-flight invocations.
func (r *Registry) Load(ctx context.Context, agentID string) (int, error) {
	open, err := r.work.CountOpenByAgent(ctx, agentID)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return open + r.inflight[agentID], nil
}

// Reserve marks one invocation in flight for agentID. The returned func
// releases it and is safe to call more than once.
func (r *Registry) Reserve(agentID string) (release func()) {
	r.mu.Lock()
	r.inflight[agentID]++
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.inflight[agentID]--; r.inflight[agentID] <= 0 {
				delete(r.inflight, agentID)
			}
		})
	}
}

// Lock serializes commits touching agentID's record.
func (r *Registry) Lock(agentID string) (unlock func()) {
	r.mu.Lock()
	l, ok := r.locks[agentID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[agentID] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Deactivate marks the agent inactive unless it still has open or in-flight work.
func (r *Registry) Deactivate(ctx context.Context, agentID string) (*Agent, error) {
	unlock := r.Lock(agentID)
	defer unlock()

	a, err := r.repo.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !a.IsActive {
		return a, nil
	}
	load, err := r.Load(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if load > 0 {
		return nil, cerr.NewKindError(cerr.FailedPrecondition, "HAS_ACTIVE_WORK",
			fmt.Sprintf("agent %s has %d task(s) in progress", a.Name, load),
			fmt.Errorf("agent %s: %w", agentID, ErrHasActiveWork))
	}
	a.IsActive = false
	a.UpdatedAt = time.Now()
	if err := r.repo.Update(ctx, a, a.Version); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "agent deactivated", "agent_id", a.ID, "name", a.Name)
	return a, nil
}

// Activate marks the agent active again.
func (r *Registry) Activate(ctx context.Context, agentID string) (*Agent, error) {
	unlock := r.Lock(agentID)
	defer unlock()

	a, err := r.repo.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if a.IsActive {
		return a, nil
	}
	a.IsActive = true
	a.UpdatedAt = time.Now()
	if err := r.repo.Update(ctx, a, a.Version); err != nil {
		return nil, err
	}
	return a, nil
}
