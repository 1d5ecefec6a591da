package repositoryimpl

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/taskforge/internal/agent"
	"github.com/kazz187/taskforge/pkg/cerr"
	"github.com/kazz187/taskforge/pkg/storage"
)

const agentsPrefix = "agents"

type YAMLRepository struct {
	storage storage.Storage
	mu      sync.Mutex
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", agentsPrefix, id)
}

func (r *YAMLRepository) write(ctx context.Context, a *agent.Agent) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal agent: %w", err))
	}
	if err := r.storage.Write(ctx, path(a.ID), data); err != nil {
		return cerr.WrapStorageWriteError("agent", err)
	}
	return nil
}

func (r *YAMLRepository) Create(ctx context.Context, a *agent.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.findByName(ctx, a.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return cerr.NewKindError(cerr.AlreadyExists, "name", fmt.Sprintf("agent %q already exists", a.Name), nil)
	}
	a.Version = 1
	return r.write(ctx, a)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*agent.Agent, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("agent", err)
	}
	var a agent.Agent
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal agent %s: %w", id, err))
	}
	return &a, nil
}

func (r *YAMLRepository) all(ctx context.Context) ([]*agent.Agent, error) {
	paths, err := r.storage.List(ctx, agentsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageListError("agents", err)
	}
	agents := make([]*agent.Agent, 0, len(paths))
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var a agent.Agent
		if err := yaml.Unmarshal(data, &a); err != nil {
			continue
		}
		agents = append(agents, &a)
	}
	sort.Slice(agents, func(i, j int) bool {
		if agents[i].Name != agents[j].Name {
			return agents[i].Name < agents[j].Name
		}
		return agents[i].ID < agents[j].ID
	})
	return agents, nil
}

func (r *YAMLRepository) List(ctx context.Context, filter agent.Filter, limit, offset int) ([]*agent.Agent, int, error) {
	agents, err := r.all(ctx)
	if err != nil {
		return nil, 0, err
	}
	matched := agents[:0]
	for _, a := range agents {
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.ActiveOnly && !a.IsActive {
			continue
		}
		matched = append(matched, a)
	}

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (r *YAMLRepository) findByName(ctx context.Context, name string) (*agent.Agent, error) {
	agents, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range agents {
		if a.Name == name {
			return a, nil
		}
	}
	return nil, nil
}

func (r *YAMLRepository) FindByName(ctx context.Context, name string) (*agent.Agent, error) {
	a, err := r.findByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, cerr.NewKindError(cerr.NotFound, "NOT_FOUND", fmt.Sprintf("agent %q not found", name), nil)
	}
	return a, nil
}

func (r *YAMLRepository) Update(ctx context.Context, a *agent.Agent, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.Get(ctx, a.ID)
	if err != nil {
		return err
	}
	if current.Version != expectedVersion {
		return cerr.NewError(cerr.Aborted, "agent was modified concurrently",
			fmt.Errorf("agent %s: expected version %d, found %d", a.ID, expectedVersion, current.Version))
	}
	next := *a
	next.Version = expectedVersion + 1
	if err := r.write(ctx, &next); err != nil {
		return err
	}
	a.Version = next.Version
	return nil
}
