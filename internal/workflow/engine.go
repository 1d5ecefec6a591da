// Package workflow moves tasks through planning, code generation, review and
// human approval. It selects agents from the registry, calls them through
// the invoker and commits the outcome to the task and the agent together.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kazz187/taskforge/internal/agent"
	"github.com/kazz187/taskforge/internal/eventbus"
	"github.com/kazz187/taskforge/internal/invoker"
	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/pkg/cerr"
)

const (
	DefaultInvocationTimeout = 5 * time.Minute

	defaultListLimit = 10
	maxListLimit     = 100
)

// Notifier receives every committed task snapshot.
type Notifier interface {
	PublishTask(eventType eventbus.EventType, t *task.Task)
}

type Config struct {
	// InvocationTimeout bounds one agent call. An agent's timeout_seconds
	// setting overrides it. Zero means no timeout.
	InvocationTimeout time.Duration
}

type Engine struct {
	tasks    task.Repository
	agents   agent.Repository
	registry *agent.Registry
	invoker  invoker.Invoker
	notifier Notifier
	cfg      Config
	now      func() time.Time
}

func NewEngine(
	tasks task.Repository,
	agents agent.Repository,
	registry *agent.Registry,
	inv invoker.Invoker,
	notifier Notifier,
	cfg Config,
) *Engine {
	return &Engine{
		tasks:    tasks,
		agents:   agents,
		registry: registry,
		invoker:  inv,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

type NewTask struct {
	Title       string
	Description string
	Complexity  string
	Tags        []string
	Creator     string
}

func (e *Engine) CreateTask(ctx context.Context, in NewTask) (*task.Task, error) {
	if err := task.ValidateNew(in.Title, in.Description); err != nil {
		return nil, err
	}
	complexity, ok := task.ParseComplexity(in.Complexity)
	if !ok {
		return nil, cerr.NewKindError(cerr.InvalidArgument, "complexity", "complexity must be one of Low, Medium, High", nil)
	}

	now := e.now()
	t := &task.Task{
		ID:             ulid.Make().String(),
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Status:         task.StatusTodo,
		Complexity:     complexity,
		Tags:           task.NormalizeTags(in.Tags),
		AssignedAgents: []string{},
		History:        []task.HistoryEntry{},
		CreatorID:      in.Creator,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.tasks.Create(ctx, t); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "task created", "task_id", t.ID, "creator", in.Creator)
	e.notifier.PublishTask(eventbus.TaskCreated, t)
	return t, nil
}

func (e *Engine) GetTask(ctx context.Context, id string) (*task.Task, error) {
	return e.tasks.Get(ctx, id)
}

type ListParams struct {
	Filter task.Filter
	Limit  int
	Offset int
}

func (e *Engine) ListTasks(ctx context.Context, p ListParams) ([]*task.Task, int, error) {
	limit := p.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit < 1 || limit > maxListLimit {
		return nil, 0, cerr.NewKindError(cerr.InvalidArgument, "limit", "limit must be between 1 and 100", nil)
	}
	if p.Offset < 0 {
		return nil, 0, cerr.NewKindError(cerr.InvalidArgument, "offset", "offset must not be negative", nil)
	}
	return e.tasks.List(ctx, p.Filter, limit, p.Offset)
}

func (e *Engine) DeactivateAgent(ctx context.Context, agentID string) (*agent.Agent, error) {
	return e.registry.Deactivate(ctx, agentID)
}

// result is what a successful agent call contributes to the commit.
type result struct {
	// success feeds the agent's success rate.
	success bool
	apply   func(t *task.Task, agentID string, now time.Time)
}

type phase struct {
	name      string
	agentType agent.Type
	check     func(t *task.Task) error
	invoke    func(ctx context.Context, inv invoker.Invoker, t *task.Task, p invoker.Profile) (*result, error)
}

var planning = &phase{
	name:      "planning",
	agentType: agent.TypePlanner,
	check: func(t *task.Task) error {
		if t.Status != task.StatusTodo && t.Status != task.StatusReadyToCode {
			return invalidTransition(fmt.Sprintf("task in %q cannot be planned", t.Status))
		}
		if t.PlanningAttempts >= task.MaxPlanningAttempts {
			return attemptCeilingExceeded("maximum planning attempts reached")
		}
		return nil
	},
	invoke: func(ctx context.Context, inv invoker.Invoker, t *task.Task, p invoker.Profile) (*result, error) {
		plan, err := inv.Plan(ctx, invoker.PlanRequest{
			Title:       t.Title,
			Description: t.Description,
			Complexity:  string(t.Complexity),
			Tags:        t.Tags,
			Agent:       p,
		})
		if err != nil {
			return nil, err
		}
		return &result{
			success: true,
			apply: func(t *task.Task, agentID string, now time.Time) {
				t.ImplementationPlan = &plan.Text
				t.Status = task.StatusReadyToCode
				t.PlanningAttempts++
				t.AssignedAgents = append(t.AssignedAgents, agentID)
				t.AppendHistory(task.HistoryEntry{
					Action:    actionPlanning,
					AgentID:   agentID,
					Timestamp: now,
					Details:   planningDetails(plan.Text),
				})
			},
		}, nil
	},
}

var generation = &phase{
	name:      "generation",
	agentType: agent.TypeGenerator,
	check: func(t *task.Task) error {
		if t.Status != task.StatusReadyToCode && t.Status != task.StatusCodeGeneration {
			return invalidTransition(fmt.Sprintf("task in %q cannot enter code generation", t.Status))
		}
		if t.ImplementationPlan == nil {
			return invalidTransition("no implementation plan available")
		}
		if t.GenerationAttempts >= task.MaxGenerationAttempts {
			return attemptCeilingExceeded("maximum code generation attempts reached")
		}
		return nil
	},
	invoke: func(ctx context.Context, inv invoker.Invoker, t *task.Task, p invoker.Profile) (*result, error) {
		req := invoker.GenerateRequest{
			Title:        t.Title,
			Plan:         *t.ImplementationPlan,
			PreviousCode: t.GeneratedCode,
			Agent:        p,
		}
		if t.Status == task.StatusCodeGeneration && t.CodeReviewFeedback != nil && t.CodeReviewFeedback.RequiresChanges {
			req.ReviewSummary = t.CodeReviewFeedback.Summary
		}
		code, err := inv.Generate(ctx, req)
		if err != nil {
			return nil, err
		}
		return &result{
			success: true,
			apply: func(t *task.Task, agentID string, now time.Time) {
				details := generationDetails(code.Text, t.GeneratedCode)
				t.GeneratedCode = &code.Text
				t.Status = task.StatusCodeReview
				t.ReworkRequestedBy = ""
				t.GenerationAttempts++
				t.AssignedAgents = append(t.AssignedAgents, agentID)
				t.AppendHistory(task.HistoryEntry{
					Action:    actionGeneration,
					AgentID:   agentID,
					Timestamp: now,
					Details:   details,
				})
			},
		}, nil
	},
}

var review = &phase{
	name:      "review",
	agentType: agent.TypeReviewer,
	check: func(t *task.Task) error {
		if t.Status != task.StatusCodeReview {
			return invalidTransition(fmt.Sprintf("task in %q is not awaiting review", t.Status))
		}
		if t.GeneratedCode == nil {
			return invalidTransition("no code available for review")
		}
		return nil
	},
	invoke: func(ctx context.Context, inv invoker.Invoker, t *task.Task, p invoker.Profile) (*result, error) {
		rv, err := inv.Review(ctx, invoker.ReviewRequest{
			Title:       t.Title,
			Description: t.Description,
			Code:        *t.GeneratedCode,
			Agent:       p,
		})
		if err != nil {
			return nil, err
		}
		return &result{
			success: !rv.RequiresChanges,
			apply: func(t *task.Task, agentID string, now time.Time) {
				t.CodeReviewFeedback = &task.ReviewFeedback{
					RequiresChanges: rv.RequiresChanges,
					Summary:         rv.Summary,
				}
				if rv.RequiresChanges {
					t.Status = task.StatusCodeGeneration
					t.ReworkRequestedBy = task.ReworkByReviewer
				} else {
					t.Status = task.StatusCompleted
				}
				t.AppendHistory(task.HistoryEntry{
					Action:    actionReview,
					AgentID:   agentID,
					Timestamp: now,
					Details:   reviewDetails(rv.Summary),
				})
			},
		}, nil
	},
}

// AdvancePlanning asks a planner for an implementation plan and moves the
// task to Ready to Code.
func (e *Engine) AdvancePlanning(ctx context.Context, taskID string) (*task.Task, error) {
	return e.advance(ctx, taskID, planning)
}

// AdvanceGeneration asks a generator for code and moves the task to Code Review.
func (e *Engine) AdvanceGeneration(ctx context.Context, taskID string) (*task.Task, error) {
	return e.advance(ctx, taskID, generation)
}

// AdvanceReview asks a reviewer to judge the generated code. The task is
// completed, or sent back to Code Generation when changes are required.
func (e *Engine) AdvanceReview(ctx context.Context, taskID string) (*task.Task, error) {
	return e.advance(ctx, taskID, review)
}

func (e *Engine) advance(ctx context.Context, taskID string, ph *phase) (*task.Task, error) {
	t, err := e.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := ph.check(t); err != nil {
		slog.DebugContext(ctx, "transition rejected", "task_id", t.ID, "phase", ph.name, "status", t.Status, "error", err)
		return nil, err
	}
	a, err := e.registry.FindEligible(ctx, ph.agentType)
	if err != nil {
		return nil, err
	}

	release := e.registry.Reserve(a.ID)
	defer release()

	res, err := e.invoke(ctx, ph, t, a)
	if err != nil {
		return nil, err
	}
	next, err := e.commit(ctx, ph, t, a.ID, res)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "task advanced",
		"task_id", next.ID, "phase", ph.name, "from", t.Status, "to", next.Status, "agent_id", a.ID)
	e.notifier.PublishTask(eventbus.TaskUpdated, next)
	return next, nil
}

func (e *Engine) timeoutFor(a *agent.Agent) time.Duration {
	if s := a.Configuration.Int(agent.ConfigTimeoutSeconds, 0); s > 0 {
		return time.Duration(s) * time.Second
	}
	return e.cfg.InvocationTimeout
}

// invoke calls the agent without holding any lock. The invoker gets a copy
// of the task so nothing it does can leak into the commit.
func (e *Engine) invoke(ctx context.Context, ph *phase, t *task.Task, a *agent.Agent) (*result, error) {
	if timeout := e.timeoutFor(a); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	res, err := ph.invoke(ctx, e.invoker, t.Clone(), invoker.ProfileOf(a))
	if err == nil {
		return res, nil
	}
	code := cerr.Unavailable
	if errors.Is(err, context.DeadlineExceeded) {
		code = cerr.DeadlineExceeded
	}
	slog.WarnContext(ctx, "agent invocation failed", "task_id", t.ID, "phase", ph.name, "agent_id", a.ID, "error", err)
	return nil, cerr.NewKindError(code, KindExternalInvocationFailed,
		fmt.Sprintf("%s agent call failed", ph.name),
		fmt.Errorf("%w: %w", ErrExternalInvocationFailed, err))
}

// commit applies res to the task and records the outcome on the agent.
// Both records are re-read under the agent's commit lock: the task must
// still be at the version that authorized the call and the agent must
// still be active.
func (e *Engine) commit(ctx context.Context, ph *phase, authorized *task.Task, agentID string, res *result) (*task.Task, error) {
	unlock := e.registry.Lock(agentID)
	defer unlock()

	current, err := e.tasks.Get(ctx, authorized.ID)
	if err != nil {
		return nil, err
	}
	if current.Version != authorized.Version {
		return nil, conflict(fmt.Sprintf("task was modified during %s", ph.name),
			fmt.Errorf("task %s: version %d, authorized at %d", current.ID, current.Version, authorized.Version))
	}
	performer, err := e.agents.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !performer.IsActive {
		return nil, conflict(fmt.Sprintf("agent was deactivated during %s", ph.name),
			fmt.Errorf("agent %s inactive at commit", agentID))
	}

	now := e.now()
	next := current.Clone()
	res.apply(next, agentID, now)
	next.UpdatedAt = now
	if err := e.tasks.Update(ctx, next, current.Version); err != nil {
		return nil, asConflict(err, fmt.Sprintf("task was modified during %s", ph.name))
	}

	elapsed := float64(now.Sub(current.CreatedAt).Milliseconds())
	performer.Metrics = performer.Metrics.Record(res.success, elapsed)
	performer.LastActiveTimestamp = now
	performer.UpdatedAt = now
	if err := e.agents.Update(ctx, performer, performer.Version); err != nil {
		e.restore(ctx, current, next.Version)
		return nil, asConflict(err, "agent was modified during commit")
	}
	return next, nil
}

// restore puts back the task as it was before a commit whose agent write failed.
func (e *Engine) restore(ctx context.Context, before *task.Task, committedVersion int64) {
	prev := before.Clone()
	if err := e.tasks.Update(ctx, prev, committedVersion); err != nil {
		slog.ErrorContext(ctx, "failed to restore task after agent write failure",
			"task_id", before.ID, "error", err)
	}
}

// Approve records a human decision on a task in Code Generation: approved
// tasks complete, rejected ones stay in Code Generation for another attempt.
func (e *Engine) Approve(ctx context.Context, taskID string, approved bool, actor string) (*task.Task, error) {
	current, err := e.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if current.Status != task.StatusCodeGeneration {
		return nil, invalidTransition(fmt.Sprintf("task in %q is not awaiting approval", current.Status))
	}

	now := e.now()
	next := current.Clone()
	entry := task.HistoryEntry{ActorID: actor, Timestamp: now}
	if approved {
		next.Status = task.StatusCompleted
		next.ReworkRequestedBy = ""
		entry.Action, entry.Details = actionApproval, detailsApproval
	} else {
		next.Status = task.StatusCodeGeneration
		next.ReworkRequestedBy = task.ReworkByHuman
		entry.Action, entry.Details = actionRejection, detailsRejection
	}
	next.AppendHistory(entry)
	next.UpdatedAt = now
	if err := e.tasks.Update(ctx, next, current.Version); err != nil {
		return nil, asConflict(err, "task was modified during approval")
	}
	slog.InfoContext(ctx, "task approval recorded",
		"task_id", next.ID, "approved", approved, "actor", actor, "to", next.Status)
	e.notifier.PublishTask(eventbus.TaskUpdated, next)
	return next, nil
}
