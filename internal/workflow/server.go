package workflow

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	taskforgev1 "github.com/kazz187/taskforge/api/taskforge/v1"
	"github.com/kazz187/taskforge/internal/agent"
	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/pkg/cerr"
	"github.com/kazz187/taskforge/pkg/clog"
)

var _ taskforgev1.TaskServiceHandler = (*Server)(nil)

type Server struct {
	engine *Engine
	agents agent.Repository
}

func NewServer(engine *Engine, agents agent.Repository) *Server {
	return &Server{engine: engine, agents: agents}
}

func actorOf(h http.Header) string {
	return h.Get(taskforgev1.ActorHeader)
}

func (s *Server) CreateTask(ctx context.Context, req *connect.Request[taskforgev1.CreateTaskRequest]) (*connect.Response[taskforgev1.CreateTaskResponse], error) {
	t, err := s.engine.CreateTask(ctx, NewTask{
		Title:       req.Msg.Title,
		Description: req.Msg.Description,
		Complexity:  req.Msg.Complexity,
		Tags:        req.Msg.Tags,
		Creator:     actorOf(req.Header()),
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&taskforgev1.CreateTaskResponse{Task: task.ToAPI(t)}), nil
}

func (s *Server) GetTask(ctx context.Context, req *connect.Request[taskforgev1.GetTaskRequest]) (*connect.Response[taskforgev1.GetTaskResponse], error) {
	res, err := s.Detail(ctx, req.Msg.ID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(res), nil
}

// Detail returns the task together with the agents that worked on it.
func (s *Server) Detail(ctx context.Context, id string) (*taskforgev1.GetTaskResponse, error) {
	t, err := s.engine.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	agents, err := s.assignedAgents(ctx, t)
	if err != nil {
		return nil, err
	}
	return &taskforgev1.GetTaskResponse{Task: task.ToAPI(t), Agents: agents}, nil
}

// assignedAgents resolves each distinct assigned agent once, in first
// assignment order. Agents that no longer resolve are left out.
func (s *Server) assignedAgents(ctx context.Context, t *task.Task) ([]taskforgev1.AgentSummary, error) {
	seen := make(map[string]struct{}, len(t.AssignedAgents))
	out := make([]taskforgev1.AgentSummary, 0, len(t.AssignedAgents))
	for _, id := range t.AssignedAgents {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		a, err := s.agents.Get(ctx, id)
		if err != nil {
			if cerr.IsCode(err, cerr.NotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, taskforgev1.AgentSummary{ID: a.ID, Name: a.Name, Type: string(a.Type)})
	}
	return out, nil
}

func (s *Server) ListTasks(ctx context.Context, req *connect.Request[taskforgev1.ListTasksRequest]) (*connect.Response[taskforgev1.ListTasksResponse], error) {
	res, err := s.List(ctx, req.Msg)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(res), nil
}

func (s *Server) List(ctx context.Context, msg *taskforgev1.ListTasksRequest) (*taskforgev1.ListTasksResponse, error) {
	filter := task.Filter{AgentID: msg.AgentID, SortAsc: msg.SortAsc}
	if msg.Status != "" {
		st, ok := task.ParseStatus(msg.Status)
		if !ok {
			return nil, cerr.NewKindError(cerr.InvalidArgument, "status", "unknown task status", nil)
		}
		filter.Status = st
	}
	tasks, total, err := s.engine.ListTasks(ctx, ListParams{
		Filter: filter,
		Limit:  msg.Pagination.Limit,
		Offset: msg.Pagination.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := make([]*taskforgev1.Task, len(tasks))
	for i, t := range tasks {
		out[i] = task.ToAPI(t)
	}
	return &taskforgev1.ListTasksResponse{Tasks: out, Total: total}, nil
}

func (s *Server) advance(ctx context.Context, id string, fn func(context.Context, string) (*task.Task, error)) (*connect.Response[taskforgev1.AdvanceTaskResponse], error) {
	clog.AddAttribute(ctx, "task_id", id)
	t, err := fn(ctx, id)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&taskforgev1.AdvanceTaskResponse{Task: task.ToAPI(t)}), nil
}

func (s *Server) AdvancePlanning(ctx context.Context, req *connect.Request[taskforgev1.AdvanceTaskRequest]) (*connect.Response[taskforgev1.AdvanceTaskResponse], error) {
	return s.advance(ctx, req.Msg.ID, s.engine.AdvancePlanning)
}

func (s *Server) AdvanceGeneration(ctx context.Context, req *connect.Request[taskforgev1.AdvanceTaskRequest]) (*connect.Response[taskforgev1.AdvanceTaskResponse], error) {
	return s.advance(ctx, req.Msg.ID, s.engine.AdvanceGeneration)
}

func (s *Server) AdvanceReview(ctx context.Context, req *connect.Request[taskforgev1.AdvanceTaskRequest]) (*connect.Response[taskforgev1.AdvanceTaskResponse], error) {
	return s.advance(ctx, req.Msg.ID, s.engine.AdvanceReview)
}

func (s *Server) ApproveTask(ctx context.Context, req *connect.Request[taskforgev1.ApproveTaskRequest]) (*connect.Response[taskforgev1.ApproveTaskResponse], error) {
	clog.AddAttribute(ctx, "task_id", req.Msg.ID)
	t, err := s.engine.Approve(ctx, req.Msg.ID, req.Msg.Approved, actorOf(req.Header()))
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&taskforgev1.ApproveTaskResponse{Task: task.ToAPI(t)}), nil
}
