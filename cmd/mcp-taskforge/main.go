package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	taskforgev1 "github.com/kazz187/taskforge/api/taskforge/v1"
)

const instructions = "MCP server for taskforge. Tasks move Todo -> Ready to Code -> Code Review -> Completed, " +
	"with Code Generation entered when a review or a human asks for rework. " +
	"Use taskforge_create_task to add work, taskforge_advance_task to run planning, generation or review, " +
	"and taskforge_approve_task to accept or reject generated code."

func main() {
	// stdout carries the MCP protocol.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := NewConfig()
	if err != nil {
		logger.ErrorContext(ctx, "failed to create config", "error", err)
		os.Exit(1)
	}

	tools := NewTools(taskforgev1.NewClient(nil, cfg.TaskForgeAddr, cfg.APIKey, cfg.Actor))
	server := newServer(tools)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.ErrorContext(ctx, "mcp server stopped", "error", err)
		os.Exit(1)
	}
}

func newServer(tools *Tools) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "mcp-taskforge",
			Title:   "taskforge MCP Server",
			Version: "v1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: instructions,
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "taskforge_list_tasks",
		Title:       "taskforge: List Tasks",
		Description: "List tasks, newest first, optionally filtered by status or assigned agent.",
	}, tools.ListTasks)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "taskforge_get_task",
		Title:       "taskforge: Get Task",
		Description: "Get a task with its plan, code, review feedback, history and assigned agents.",
	}, tools.GetTask)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "taskforge_create_task",
		Title:       "taskforge: Create Task",
		Description: "Create a task in Todo.",
	}, tools.CreateTask)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "taskforge_advance_task",
		Title:       "taskforge: Advance Task",
		Description: "Run one workflow phase (planning, generation or review) on a task using an eligible agent.",
	}, tools.AdvanceTask)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "taskforge_approve_task",
		Title:       "taskforge: Approve Task",
		Description: "Approve generated code (task completes) or reject it (task returns for rework).",
	}, tools.ApproveTask)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "taskforge_list_agents",
		Title:       "taskforge: List Agents",
		Description: "List registered agents with their performance metrics.",
	}, tools.ListAgents)

	return server
}
