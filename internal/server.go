package internal

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	taskforgev1 "github.com/kazz187/taskforge/api/taskforge/v1"
	"github.com/kazz187/taskforge/internal/agent"
	"github.com/kazz187/taskforge/internal/config"
	"github.com/kazz187/taskforge/internal/dashboard"
	"github.com/kazz187/taskforge/internal/pushnotification"
	"github.com/kazz187/taskforge/internal/workflow"
	"github.com/kazz187/taskforge/pkg/cerr"
	"github.com/kazz187/taskforge/pkg/clog"
)

const healthCheckProcedure = "/" + grpchealth.HealthV1ServiceName + "/Check"

type Server struct {
	server                 *http.Server
	env                    *config.Env
	workflowServer         *workflow.Server
	agentServer            *agent.Server
	pushNotificationServer *pushnotification.Server
	hub                    *dashboard.Hub
}

func NewServer(
	env *config.Env,
	workflowServer *workflow.Server,
	agentServer *agent.Server,
	pushNotificationServer *pushnotification.Server,
	hub *dashboard.Hub,
) *Server {
	return &Server{
		env:                    env,
		workflowServer:         workflowServer,
		agentServer:            agentServer,
		pushNotificationServer: pushNotificationServer,
		hub:                    hub,
	}
}

// Handler builds the full handler stack: API key check, CORS and h2c around
// the connect services, the dashboard stream and the JSON read endpoints.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(clog.SlogChiMiddleware())

		// Streams write their own responses.
		r.Handle("/ws", s.hub.WebSocketHandler())
		r.Get("/events", s.hub.ServeSSE)

		r.Group(func(r chi.Router) {
			r.Use(cerr.NewConvertConnectErrorChiMiddleware())
			r.Get("/tasks", s.listTasks)
			r.Get("/tasks/{id}", s.getTask)
			r.Get("/agents/{id}/performance", s.agentPerformance)
			r.NotFound(func(w http.ResponseWriter, r *http.Request) {
				cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
			})
		})
	})

	mux := http.NewServeMux()

	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)
	mux.Handle(grpchealth.NewHandler(grpchealth.NewStaticChecker(
		taskforgev1.TaskServiceName,
		taskforgev1.AgentServiceName,
		taskforgev1.PushNotificationServiceName,
	)))

	handlerOpts := connect.WithInterceptors(s.interceptors()...)

	mux.Handle(taskforgev1.NewTaskServiceHandler(s.workflowServer, handlerOpts))
	mux.Handle(taskforgev1.NewAgentServiceHandler(s.agentServer, handlerOpts))
	mux.Handle(taskforgev1.NewPushNotificationServiceHandler(s.pushNotificationServer, handlerOpts))

	return h2c.NewHandler(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(s.apiKeyMiddleware(mux)), &http2.Server{})
}

// ListenAndServe starts the HTTP server. ctx becomes the base context of
// every request, so cancelling it also ends open dashboard streams.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.env.Addr()
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) interceptors() []connect.Interceptor {
	return []connect.Interceptor{
		clog.NewSlogConnectInterceptor(clog.WithConnectFilter(clog.DefaultConnectHealthCheckUnaryFilter)),
		cerr.NewConvertConnectErrorInterceptor(),
	}
}

func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == healthCheckProcedure {
			next.ServeHTTP(w, r)
			return
		}
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		// Browsers cannot set headers on WebSocket or EventSource requests.
		if apiKey == "" && strings.HasPrefix(r.URL.Path, "/api/") {
			apiKey = r.URL.Query().Get("api_key")
		}
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(s.env.APIKey)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	msg := &taskforgev1.ListTasksRequest{
		Status:  q.Get("status"),
		AgentID: q.Get("agent_id"),
		SortAsc: q.Get("sort") == "asc",
	}
	var err error
	if msg.Pagination.Limit, err = intParam(q.Get("limit")); err != nil {
		cerr.SetJSONError(ctx, cerr.NewKindError(cerr.InvalidArgument, "limit", "limit must be a number", err))
		return
	}
	if msg.Pagination.Offset, err = intParam(q.Get("offset")); err != nil {
		cerr.SetJSONError(ctx, cerr.NewKindError(cerr.InvalidArgument, "offset", "offset must be a number", err))
		return
	}
	res, err := s.workflowServer.List(ctx, msg)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, res)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	res, err := s.workflowServer.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponse(r.Context(), res)
}

func (s *Server) agentPerformance(w http.ResponseWriter, r *http.Request) {
	res, err := s.agentServer.Performance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponse(r.Context(), res)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
