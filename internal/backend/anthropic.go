package backend

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicBackend wraps the Claude API as a remote backend candidate.
type AnthropicBackend struct {
	client *anthropic.Client
	model  string
	apiKey string
}

// AnthropicConfig configures an AnthropicBackend.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// NewAnthropicBackend builds a backend bound to the given model; it is
// available only when an API key is configured.
func NewAnthropicBackend(cfg AnthropicConfig) *AnthropicBackend {
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &AnthropicBackend{client: &client, model: cfg.Model, apiKey: cfg.APIKey}
}

func (b *AnthropicBackend) Info() Info {
	return Info{
		BackendType:       "anthropic",
		ModelName:         b.model,
		SupportsStreaming: false,
		MaxTokens:         512,
		TypicalLatencyMS:  3000,
		MemoryUsageMB:     0,
		Version:           "messages-api",
	}
}

func (b *AnthropicBackend) IsAvailable(ctx context.Context) bool {
	return b.apiKey != ""
}

func (b *AnthropicBackend) Generate(ctx context.Context, req Request) (Result, error) {
	message, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(b.model),
		MaxTokens: anthropic.F(int64(512)),
		System: anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(req.SystemPrompt),
		}),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		}),
	})
	if err != nil {
		return Result{}, err
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			text.WriteString(block.Text)
		}
	}

	return Result{Command: strings.TrimSpace(text.String())}, nil
}

func (b *AnthropicBackend) Shutdown(ctx context.Context) error { return nil }
