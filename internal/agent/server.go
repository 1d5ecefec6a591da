package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/oklog/ulid/v2"

	taskforgev1 "github.com/kazz187/taskforge/api/taskforge/v1"
	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/pkg/cerr"
)

var _ taskforgev1.AgentServiceHandler = (*Server)(nil)

const (
	defaultListLimit   = 10
	maxListLimit       = 100
	performanceTaskCap = 20
)

type Server struct {
	repo     Repository
	registry *Registry
	tasks    task.Repository
}

func NewServer(repo Repository, registry *Registry, tasks task.Repository) *Server {
	return &Server{repo: repo, registry: registry, tasks: tasks}
}

func parseType(s string) (Type, error) {
	t, ok := ParseType(s)
	if !ok {
		return "", cerr.NewKindError(cerr.InvalidArgument, "type",
			fmt.Sprintf("agent type must be one of %s, %s, %s", TypePlanner, TypeGenerator, TypeReviewer), nil)
	}
	return t, nil
}

func pagination(p taskforgev1.Pagination) (limit, offset int, err error) {
	limit = p.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit < 1 || limit > maxListLimit || p.Offset < 0 {
		return 0, 0, cerr.NewKindError(cerr.InvalidArgument, "pagination", "limit must be between 1 and 100 and offset non-negative", nil)
	}
	return limit, p.Offset, nil
}

func (s *Server) CreateAgent(ctx context.Context, req *connect.Request[taskforgev1.CreateAgentRequest]) (*connect.Response[taskforgev1.CreateAgentResponse], error) {
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, cerr.NewKindError(cerr.InvalidArgument, "name", "agent name is required", nil)
	}
	t, err := parseType(req.Msg.Type)
	if err != nil {
		return nil, err
	}
	cfg := configFromAPI(req.Msg.Configuration)
	if err := cfg.Validate(t); err != nil {
		return nil, err
	}

	now := time.Now()
	a := &Agent{
		ID:             ulid.Make().String(),
		Name:           name,
		Type:           t,
		Specialization: strings.TrimSpace(req.Msg.Specialization),
		IsActive:       true,
		Configuration:  cfg,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return connect.NewResponse(&taskforgev1.CreateAgentResponse{Agent: ToAPI(a)}), nil
}

func (s *Server) GetAgent(ctx context.Context, req *connect.Request[taskforgev1.GetAgentRequest]) (*connect.Response[taskforgev1.GetAgentResponse], error) {
	a, err := s.repo.Get(ctx, req.Msg.ID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&taskforgev1.GetAgentResponse{Agent: ToAPI(a)}), nil
}

func (s *Server) ListAgents(ctx context.Context, req *connect.Request[taskforgev1.ListAgentsRequest]) (*connect.Response[taskforgev1.ListAgentsResponse], error) {
	var filter Filter
	if req.Msg.Type != "" {
		t, err := parseType(req.Msg.Type)
		if err != nil {
			return nil, err
		}
		filter.Type = t
	}
	filter.ActiveOnly = req.Msg.ActiveOnly
	limit, offset, err := pagination(req.Msg.Pagination)
	if err != nil {
		return nil, err
	}
	agents, total, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*taskforgev1.Agent, len(agents))
	for i, a := range agents {
		out[i] = ToAPI(a)
	}
	return connect.NewResponse(&taskforgev1.ListAgentsResponse{Agents: out, Total: total}), nil
}

// UpdateAgent edits the descriptive fields and the active flag. Turning an
// agent off goes through Registry.Deactivate and its active-work check.
func (s *Server) UpdateAgent(ctx context.Context, req *connect.Request[taskforgev1.UpdateAgentRequest]) (*connect.Response[taskforgev1.UpdateAgentResponse], error) {
	if req.Msg.Specialization != nil || req.Msg.Configuration != nil {
		unlock := s.registry.Lock(req.Msg.ID)
		err := s.updateFields(ctx, req.Msg)
		unlock()
		if err != nil {
			return nil, err
		}
	}

	var (
		a   *Agent
		err error
	)
	switch {
	case req.Msg.IsActive == nil:
		a, err = s.repo.Get(ctx, req.Msg.ID)
	case *req.Msg.IsActive:
		a, err = s.registry.Activate(ctx, req.Msg.ID)
	default:
		a, err = s.registry.Deactivate(ctx, req.Msg.ID)
	}
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&taskforgev1.UpdateAgentResponse{Agent: ToAPI(a)}), nil
}

func (s *Server) updateFields(ctx context.Context, msg *taskforgev1.UpdateAgentRequest) error {
	a, err := s.repo.Get(ctx, msg.ID)
	if err != nil {
		return err
	}
	if msg.Specialization != nil {
		a.Specialization = strings.TrimSpace(*msg.Specialization)
	}
	if msg.Configuration != nil {
		cfg := configFromAPI(*msg.Configuration)
		if err := cfg.Validate(a.Type); err != nil {
			return err
		}
		a.Configuration = cfg
	}
	a.UpdatedAt = time.Now()
	return s.repo.Update(ctx, a, a.Version)
}

func (s *Server) DeactivateAgent(ctx context.Context, req *connect.Request[taskforgev1.DeactivateAgentRequest]) (*connect.Response[taskforgev1.DeactivateAgentResponse], error) {
	a, err := s.registry.Deactivate(ctx, req.Msg.ID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&taskforgev1.DeactivateAgentResponse{Agent: ToAPI(a)}), nil
}

func (s *Server) FindAvailableAgents(ctx context.Context, req *connect.Request[taskforgev1.FindAvailableAgentsRequest]) (*connect.Response[taskforgev1.FindAvailableAgentsResponse], error) {
	t, err := parseType(req.Msg.Type)
	if err != nil {
		return nil, err
	}
	if req.Msg.MaxLoad < 0 {
		return nil, cerr.NewKindError(cerr.InvalidArgument, "maxLoad", "maxLoad must not be negative", nil)
	}
	agents, err := s.registry.FindAvailable(ctx, t, req.Msg.MaxLoad)
	if err != nil {
		return nil, err
	}
	out := make([]*taskforgev1.Agent, len(agents))
	for i, a := range agents {
		out[i] = ToAPI(a)
	}
	return connect.NewResponse(&taskforgev1.FindAvailableAgentsResponse{Agents: out}), nil
}

func (s *Server) GetAgentPerformance(ctx context.Context, req *connect.Request[taskforgev1.GetAgentPerformanceRequest]) (*connect.Response[taskforgev1.GetAgentPerformanceResponse], error) {
	resp, err := s.Performance(ctx, req.Msg.ID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(resp), nil
}

// Performance reports the agent's metrics with a breakdown over its most
// recent tasks.
func (s *Server) Performance(ctx context.Context, agentID string) (*taskforgev1.GetAgentPerformanceResponse, error) {
	a, err := s.repo.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}
	recent, _, err := s.tasks.List(ctx, task.Filter{AgentID: agentID}, performanceTaskCap, 0)
	if err != nil {
		return nil, err
	}
	resp := &taskforgev1.GetAgentPerformanceResponse{
		Metrics:     metricsToAPI(a.Metrics),
		RecentTasks: make([]*taskforgev1.Task, len(recent)),
		TotalTasks:  len(recent),
	}
	for i, t := range recent {
		resp.RecentTasks[i] = task.ToAPI(t)
		if t.Status == task.StatusCompleted {
			resp.CompletedTasks++
		}
	}
	return resp, nil
}
