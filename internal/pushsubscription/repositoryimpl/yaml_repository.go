package repositoryimpl

import (
	"context"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/taskforge/internal/pushsubscription"
	"github.com/kazz187/taskforge/pkg/cerr"
	"github.com/kazz187/taskforge/pkg/storage"
)

const pushSubscriptionsPrefix = "push_subscriptions"

type YAMLRepository struct {
	storage storage.Storage
	mu      sync.Mutex
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", pushSubscriptionsPrefix, id)
}

func (r *YAMLRepository) Save(ctx context.Context, s *pushsubscription.Subscription) (*pushsubscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.findByEndpoint(ctx, s.Endpoint)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.P256dhKey = s.P256dhKey
		existing.AuthKey = s.AuthKey
		existing.UpdatedAt = s.UpdatedAt
		s = existing
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal push subscription: %w", err))
	}
	if err := r.storage.Write(ctx, path(s.ID), data); err != nil {
		return nil, cerr.WrapStorageWriteError("push subscription", err)
	}
	return s, nil
}

func (r *YAMLRepository) List(ctx context.Context) ([]*pushsubscription.Subscription, error) {
	paths, err := r.storage.List(ctx, pushSubscriptionsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageListError("push subscriptions", err)
	}
	all := make([]*pushsubscription.Subscription, 0, len(paths))
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var s pushsubscription.Subscription
		if err := yaml.Unmarshal(data, &s); err != nil {
			continue
		}
		all = append(all, &s)
	}
	return all, nil
}

func (r *YAMLRepository) findByEndpoint(ctx context.Context, endpoint string) (*pushsubscription.Subscription, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range all {
		if s.Endpoint == endpoint {
			return s, nil
		}
	}
	return nil, nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("push subscription", err)
	}
	return nil
}

func (r *YAMLRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.findByEndpoint(ctx, endpoint)
	if err != nil {
		return err
	}
	if s == nil {
		return cerr.NewKindError(cerr.NotFound, "NOT_FOUND", "push subscription not found", nil)
	}
	if err := r.storage.Delete(ctx, path(s.ID)); err != nil {
		return cerr.WrapStorageDeleteError("push subscription", err)
	}
	return nil
}
