// Package backend abstracts over the LLM providers that turn a natural
// language request into a generated shell command: an embedded/local model,
// one or more remote providers, and a mock used in tests and debug builds.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/cmdai/cmdai/internal/cmdaierr"
)

// Request is everything a backend needs to produce a command.
type Request struct {
	// Prompt is the natural language instruction from the user.
	Prompt string
	// Shell is the target shell dialect the generated command must use.
	Shell string
	// SystemPrompt carries instructions plus the serialised execution/context
	// snapshot, built by the caller via internal/context's to_llm_context.
	SystemPrompt string
}

// Result is a backend's generated command plus optional alternatives.
type Result struct {
	Command         string
	Alternatives    []string
	ConfidenceScore float64
}

// Info describes a backend's static capabilities, per §4.3.
type Info struct {
	BackendType       string
	ModelName         string
	SupportsStreaming bool
	MaxTokens         int
	TypicalLatencyMS  int
	MemoryUsageMB     int
	Version           string
}

// Backend is the contract every LLM provider implements.
type Backend interface {
	// Generate produces a single shell command for the request's prompt.
	// It returns within Info().TypicalLatencyMS under nominal conditions;
	// any caller-side timeout policy wraps this call with a context deadline.
	Generate(ctx context.Context, req Request) (Result, error)
	// IsAvailable performs a short, non-blocking probe (a capability check
	// or a single health-check request) and never blocks on generation work.
	IsAvailable(ctx context.Context) bool
	// Info returns this backend's static capability description.
	Info() Info
	// Shutdown releases any resources (connections, background workers).
	Shutdown(ctx context.Context) error
}

// Chain is a preference-ordered list of candidate backends.
type Chain struct {
	backends []Backend
}

// NewChain builds a chain in preference order: embedded first, then remote
// providers, then mock (if configured to include it at all).
func NewChain(backends ...Backend) *Chain {
	return &Chain{backends: backends}
}

// Select implements §4.3's selection protocol: probe each candidate in
// order and return the first that reports available. If none are
// available, it fails with a ConfigurationError naming the full chain.
func (c *Chain) Select(ctx context.Context) (Backend, error) {
	names := make([]string, 0, len(c.backends))
	for _, b := range c.backends {
		names = append(names, b.Info().BackendType)
		if b.IsAvailable(ctx) {
			return b, nil
		}
	}
	return nil, cmdaierr.New(cmdaierr.KindConfiguration,
		fmt.Sprintf("no backend available in chain %v", names)).
		WithSuggestion("check API keys and that a local model server is reachable")
}

// Backends returns the chain's candidates in preference order.
func (c *Chain) Backends() []Backend {
	out := make([]Backend, len(c.backends))
	copy(out, c.backends)
	return out
}

// probeTimeout bounds how long an IsAvailable health check may take before
// it is treated as unavailable, keeping selection non-blocking per §4.3.
const probeTimeout = 2 * time.Second
