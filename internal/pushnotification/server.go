package pushnotification

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/oklog/ulid/v2"

	taskforgev1 "github.com/kazz187/taskforge/api/taskforge/v1"
	"github.com/kazz187/taskforge/internal/config"
	"github.com/kazz187/taskforge/internal/pushsubscription"
	"github.com/kazz187/taskforge/pkg/cerr"
)

var _ taskforgev1.PushNotificationServiceHandler = (*Server)(nil)

type Server struct {
	vapidEnv *config.VAPIDEnv
	repo     pushsubscription.Repository
}

func NewServer(vapidEnv *config.VAPIDEnv, repo pushsubscription.Repository) *Server {
	return &Server{
		vapidEnv: vapidEnv,
		repo:     repo,
	}
}

func (s *Server) GetVAPIDPublicKey(_ context.Context, _ *connect.Request[taskforgev1.GetVAPIDPublicKeyRequest]) (*connect.Response[taskforgev1.GetVAPIDPublicKeyResponse], error) {
	if !s.vapidEnv.Configured() {
		return nil, cerr.NewError(cerr.FailedPrecondition, "VAPID keys not configured", nil)
	}
	return connect.NewResponse(&taskforgev1.GetVAPIDPublicKeyResponse{
		PublicKey: s.vapidEnv.VAPIDPublicKey,
	}), nil
}

func (s *Server) Subscribe(ctx context.Context, req *connect.Request[taskforgev1.SubscribePushRequest]) (*connect.Response[taskforgev1.SubscribePushResponse], error) {
	switch {
	case req.Msg.Endpoint == "":
		return nil, cerr.NewKindError(cerr.InvalidArgument, "endpoint", "endpoint is required", nil)
	case req.Msg.P256dh == "":
		return nil, cerr.NewKindError(cerr.InvalidArgument, "p256dh", "p256dh is required", nil)
	case req.Msg.Auth == "":
		return nil, cerr.NewKindError(cerr.InvalidArgument, "auth", "auth is required", nil)
	}

	now := time.Now()
	sub, err := s.repo.Save(ctx, &pushsubscription.Subscription{
		ID:        ulid.Make().String(),
		Endpoint:  req.Msg.Endpoint,
		P256dhKey: req.Msg.P256dh,
		AuthKey:   req.Msg.Auth,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&taskforgev1.SubscribePushResponse{ID: sub.ID}), nil
}

func (s *Server) Unsubscribe(ctx context.Context, req *connect.Request[taskforgev1.UnsubscribePushRequest]) (*connect.Response[taskforgev1.UnsubscribePushResponse], error) {
	if req.Msg.Endpoint == "" {
		return nil, cerr.NewKindError(cerr.InvalidArgument, "endpoint", "endpoint is required", nil)
	}
	if err := s.repo.DeleteByEndpoint(ctx, req.Msg.Endpoint); err != nil {
		return nil, err
	}
	return connect.NewResponse(&taskforgev1.UnsubscribePushResponse{}), nil
}
