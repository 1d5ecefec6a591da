package invoker

import (
	"context"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaCompleter runs prompts against an Ollama server's chat endpoint.
type OllamaCompleter struct {
	client       *api.Client
	defaultModel string
}

// NewOllamaCompleter connects using OLLAMA_HOST (or the local default).
func NewOllamaCompleter(defaultModel string) (*OllamaCompleter, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("ollama client: %w", err)
	}
	return &OllamaCompleter{client: client, defaultModel: defaultModel}, nil
}

func (o *OllamaCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	model := p.Model
	if model == "" {
		model = o.defaultModel
	}
	stream := false
	req := &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Stream: &stream,
	}
	if p.Temperature != nil {
		req.Options = map[string]any{"temperature": *p.Temperature}
	}

	var b strings.Builder
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		b.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat (%s): %w", model, err)
	}
	return b.String(), nil
}
