package pushsubscription

import "context"

type Repository interface {
	// Save stores s, replacing the keys of an existing subscription with the
	// same endpoint. It returns the stored subscription.
	Save(ctx context.Context, s *Subscription) (*Subscription, error)
	List(ctx context.Context) ([]*Subscription, error)
	Delete(ctx context.Context, id string) error
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}
