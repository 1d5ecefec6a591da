package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	taskforgev1 "github.com/kazz187/taskforge/api/taskforge/v1"
	"github.com/kazz187/taskforge/pkg/cerr"
)

type ListTasksInput struct {
	Status  string `json:"status,omitempty" jsonschema:"filter by status: Todo, Ready to Code, Code Generation, Code Review or Completed"`
	AgentID string `json:"agentId,omitempty" jsonschema:"only tasks assigned to this agent"`
	Limit   int    `json:"limit,omitempty" jsonschema:"page size between 1 and 100, default 10"`
	Offset  int    `json:"offset,omitempty" jsonschema:"number of tasks to skip"`
}

type GetTaskInput struct {
	ID string `json:"id" jsonschema:"task ID"`
}

type CreateTaskInput struct {
	Title       string   `json:"title" jsonschema:"task title, at most 200 characters"`
	Description string   `json:"description" jsonschema:"what needs to be built"`
	Complexity  string   `json:"complexity,omitempty" jsonschema:"Low, Medium or High"`
	Tags        []string `json:"tags,omitempty" jsonschema:"free-form tags"`
}

type AdvanceTaskInput struct {
	ID    string `json:"id" jsonschema:"task ID"`
	Phase string `json:"phase" jsonschema:"planning, generation or review"`
}

type ApproveTaskInput struct {
	ID       string `json:"id" jsonschema:"task ID"`
	Approved bool   `json:"approved" jsonschema:"true completes the task, false sends it back for rework"`
}

type ListAgentsInput struct {
	Type       string `json:"type,omitempty" jsonschema:"CodePlanner, CodeGenerator or CodeReviewer"`
	ActiveOnly bool   `json:"activeOnly,omitempty" jsonschema:"only active agents"`
}

// Tools adapts the taskforge API to MCP tool handlers. Results are returned
// as indented JSON text.
type Tools struct {
	client *taskforgev1.Client
}

func NewTools(client *taskforgev1.Client) *Tools {
	return &Tools{client: client}
}

func (t *Tools) ListTasks(ctx context.Context, _ *mcp.CallToolRequest, in ListTasksInput) (*mcp.CallToolResult, any, error) {
	return reply(t.client.ListTasks(ctx, &taskforgev1.ListTasksRequest{
		Status:     in.Status,
		AgentID:    in.AgentID,
		Pagination: taskforgev1.Pagination{Limit: in.Limit, Offset: in.Offset},
	}))
}

func (t *Tools) GetTask(ctx context.Context, _ *mcp.CallToolRequest, in GetTaskInput) (*mcp.CallToolResult, any, error) {
	return reply(t.client.GetTask(ctx, &taskforgev1.GetTaskRequest{ID: in.ID}))
}

func (t *Tools) CreateTask(ctx context.Context, _ *mcp.CallToolRequest, in CreateTaskInput) (*mcp.CallToolResult, any, error) {
	return reply(t.client.CreateTask(ctx, &taskforgev1.CreateTaskRequest{
		Title:       in.Title,
		Description: in.Description,
		Complexity:  in.Complexity,
		Tags:        in.Tags,
	}))
}

func (t *Tools) AdvanceTask(ctx context.Context, _ *mcp.CallToolRequest, in AdvanceTaskInput) (*mcp.CallToolResult, any, error) {
	req := &taskforgev1.AdvanceTaskRequest{ID: in.ID}
	switch in.Phase {
	case "planning":
		return reply(t.client.AdvancePlanning(ctx, req))
	case "generation":
		return reply(t.client.AdvanceGeneration(ctx, req))
	case "review":
		return reply(t.client.AdvanceReview(ctx, req))
	default:
		return nil, nil, fmt.Errorf("unknown phase %q: want planning, generation or review", in.Phase)
	}
}

func (t *Tools) ApproveTask(ctx context.Context, _ *mcp.CallToolRequest, in ApproveTaskInput) (*mcp.CallToolResult, any, error) {
	return reply(t.client.ApproveTask(ctx, &taskforgev1.ApproveTaskRequest{ID: in.ID, Approved: in.Approved}))
}

func (t *Tools) ListAgents(ctx context.Context, _ *mcp.CallToolRequest, in ListAgentsInput) (*mcp.CallToolResult, any, error) {
	return reply(t.client.ListAgents(ctx, &taskforgev1.ListAgentsRequest{
		Type:       in.Type,
		ActiveOnly: in.ActiveOnly,
		Pagination: taskforgev1.Pagination{Limit: 100},
	}))
}

// reply renders a response as text content. Errors become tool errors
// carrying the error kind, so the model can react to e.g. CONFLICT.
func reply[T any](res *T, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		if kind := cerr.KindOf(err); kind != "" {
			return nil, nil, fmt.Errorf("%s: %w", kind, err)
		}
		return nil, nil, err
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
