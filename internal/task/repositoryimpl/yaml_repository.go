package repositoryimpl

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/pkg/cerr"
	"github.com/kazz187/taskforge/pkg/storage"
)

const tasksPrefix = "tasks"

// YAMLRepository stores one YAML document per task. Writes are serialized
// by mu so version checks and writes are atomic within the process.
type YAMLRepository struct {
	storage storage.Storage
	mu      sync.Mutex
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", tasksPrefix, id)
}

func (r *YAMLRepository) write(ctx context.Context, t *task.Task) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal task: %w", err))
	}
	if err := r.storage.Write(ctx, path(t.ID), data); err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	return nil
}

func (r *YAMLRepository) Create(ctx context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	exists, err := r.storage.Exists(ctx, path(t.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "task already exists", nil)
	}
	t.Version = 1
	return r.write(ctx, t)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*task.Task, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("task", err)
	}
	var t task.Task
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal task %s: %w", id, err))
	}
	return &t, nil
}

// all loads every task. Unreadable documents are skipped when lenient is
// set and fail the whole call otherwise.
func (r *YAMLRepository) all(ctx context.Context, lenient bool) ([]*task.Task, error) {
	paths, err := r.storage.List(ctx, tasksPrefix)
	if err != nil {
		return nil, cerr.WrapStorageListError("tasks", err)
	}
	tasks := make([]*task.Task, 0, len(paths))
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			if lenient {
				continue
			}
			return nil, cerr.WrapStorageReadError("task", err)
		}
		var t task.Task
		if err := yaml.Unmarshal(data, &t); err != nil {
			if lenient {
				continue
			}
			return nil, cerr.WrapStorageReadError("task", fmt.Errorf("failed to unmarshal %s: %w", p, err))
		}
		tasks = append(tasks, &t)
	}
	return tasks, nil
}

func (r *YAMLRepository) List(ctx context.Context, filter task.Filter, limit, offset int) ([]*task.Task, int, error) {
	tasks, err := r.all(ctx, true)
	if err != nil {
		return nil, 0, err
	}

	matched := tasks[:0]
	for _, t := range tasks {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.AgentID != "" && !t.AssignedTo(filter.AgentID) {
			continue
		}
		matched = append(matched, t)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if filter.SortAsc {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if filter.SortAsc {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})

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

func (r *YAMLRepository) Update(ctx context.Context, t *task.Task, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.Get(ctx, t.ID)
	if err != nil {
		return err
	}
	if current.Version != expectedVersion {
		return cerr.NewError(cerr.Aborted, "task was modified concurrently",
			fmt.Errorf("task %s: expected version %d, found %d", t.ID, expectedVersion, current.Version))
	}
	next := *t
	next.Version = expectedVersion + 1
	if err := r.write(ctx, &next); err != nil {
		return err
	}
	t.Version = next.Version
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("task", err)
	}
	return nil
}

func (r *YAMLRepository) CountOpenByAgent(ctx context.Context, agentID string) (int, error) {
	tasks, err := r.all(ctx, false)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, t := range tasks {
		if t.IsOpen() && t.AssignedTo(agentID) {
			n++
		}
	}
	return n, nil
}
