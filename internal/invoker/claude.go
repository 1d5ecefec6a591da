package invoker

import (
	"context"
	"errors"
	"fmt"

	claudeagent "github.com/kazz187/claude-agent-sdk-go"
)

const defaultClaudeMaxTurns = 1

// ClaudeCompleter runs prompts through the Claude agent SDK. Tools are not
// needed for single-shot replies, so permissions are bypassed in workDir.
type ClaudeCompleter struct {
	workDir  string
	maxTurns int
}

func NewClaudeCompleter(workDir string, maxTurns int) *ClaudeCompleter {
	if maxTurns <= 0 {
		maxTurns = defaultClaudeMaxTurns
	}
	return &ClaudeCompleter{workDir: workDir, maxTurns: maxTurns}
}

func (c *ClaudeCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	maxTurns := c.maxTurns
	if p.MaxTurns > 0 {
		maxTurns = p.MaxTurns
	}
	opts := &claudeagent.ClaudeAgentOptions{
		SystemPrompt:   p.System,
		Cwd:            c.workDir,
		PermissionMode: claudeagent.PermissionModeBypassPermissions,
		MaxTurns:       &maxTurns,
	}
	result, err := claudeagent.RunQuerySync(ctx, p.User, opts)
	if err != nil {
		return "", fmt.Errorf("claude query: %w", err)
	}
	if result.Result == nil {
		return "", errors.New("claude query returned no result")
	}
	if result.Result.IsError {
		msg := result.Result.Result
		if msg == "" {
			msg = "Claude returned an error"
		}
		return "", errors.New(msg)
	}
	return result.Result.Result, nil
}
