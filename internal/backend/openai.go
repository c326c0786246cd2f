package backend

import (
	"context"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAICompatBackend wraps any OpenAI-compatible chat completions endpoint:
// OpenAI itself, or a local server (Ollama, vLLM, Exo) pointed at via
// BaseURL. The wire contract is identical; only the endpoint and whether an
// API key is required differ, matching §6's "no assumption beyond the
// backend module" note.
type OpenAICompatBackend struct {
	client      *openai.Client
	backendType string
	model       string
	apiKey      string
	requiresKey bool
	baseURL     string
}

// OpenAICompatConfig configures an OpenAICompatBackend.
type OpenAICompatConfig struct {
	// BackendType names this candidate in Info()/chain diagnostics, e.g.
	// "openai", "ollama", "vllm", "exo".
	BackendType string
	Model       string
	APIKey      string
	// BaseURL overrides the default OpenAI endpoint; set for local servers
	// (e.g. http://localhost:11434/v1 for Ollama).
	BaseURL string
	// RequiresKey is false for local servers that accept any bearer token.
	RequiresKey bool
}

// NewOpenAICompatBackend builds a backend bound to cfg.
func NewOpenAICompatBackend(cfg OpenAICompatConfig) *OpenAICompatBackend {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAICompatBackend{
		client:      openai.NewClientWithConfig(clientConfig),
		backendType: cfg.BackendType,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		requiresKey: cfg.RequiresKey,
		baseURL:     cfg.BaseURL,
	}
}

func (b *OpenAICompatBackend) Info() Info {
	return Info{
		BackendType:       b.backendType,
		ModelName:         b.model,
		SupportsStreaming: true,
		MaxTokens:         512,
		TypicalLatencyMS:  1500,
		MemoryUsageMB:     0,
		Version:           "chat-completions",
	}
}

// IsAvailable performs the short probe required by §4.3: if a key is
// required and missing, fail fast without a network call; otherwise issue a
// bounded GET request to the endpoint's models listing.
func (b *OpenAICompatBackend) IsAvailable(ctx context.Context) bool {
	if b.requiresKey && b.apiKey == "" {
		return false
	}
	if b.baseURL == "" {
		// Hosted OpenAI: presence of a key is treated as available; an
		// actual network probe would violate the "non-blocking beyond a
		// short check" rule under degraded connectivity.
		return b.apiKey != ""
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, strings.TrimSuffix(b.baseURL, "/")+"/models", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

func (b *OpenAICompatBackend) Generate(ctx context.Context, req Request) (Result, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: 0.1,
		MaxTokens:   512,
	})
	if err != nil {
		return Result{}, err
	}
	if len(resp.Choices) == 0 {
		return Result{}, nil
	}

	var alternatives []string
	for _, choice := range resp.Choices[1:] {
		alternatives = append(alternatives, strings.TrimSpace(choice.Message.Content))
	}

	return Result{
		Command:      strings.TrimSpace(resp.Choices[0].Message.Content),
		Alternatives: alternatives,
	}, nil
}

func (b *OpenAICompatBackend) Shutdown(ctx context.Context) error { return nil }

// NewOllamaBackend is a convenience constructor for a local Ollama server,
// grounded on §9's informational default port.
func NewOllamaBackend(model, baseURL string) *OpenAICompatBackend {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	return NewOpenAICompatBackend(OpenAICompatConfig{
		BackendType: "ollama", Model: model, BaseURL: baseURL, RequiresKey: false,
	})
}

// NewVLLMBackend is a convenience constructor for a local vLLM server.
func NewVLLMBackend(model, baseURL string) *OpenAICompatBackend {
	if baseURL == "" {
		baseURL = "http://localhost:8000/v1"
	}
	return NewOpenAICompatBackend(OpenAICompatConfig{
		BackendType: "vllm", Model: model, BaseURL: baseURL, RequiresKey: false,
	})
}

// NewExoBackend is a convenience constructor for a local Exo cluster.
func NewExoBackend(model, baseURL string) *OpenAICompatBackend {
	if baseURL == "" {
		baseURL = "http://localhost:52415/v1"
	}
	return NewOpenAICompatBackend(OpenAICompatConfig{
		BackendType: "exo", Model: model, BaseURL: baseURL, RequiresKey: false,
	})
}
