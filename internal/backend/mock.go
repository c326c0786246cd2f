package backend

import "context"

// MockBackend is a deterministic, always-available backend used in tests
// and wired into the chain only under the cmdai_debug build tag (see
// cmd/cmdai/debug_mock.go). It never calls out to a network.
type MockBackend struct {
	// Command is returned verbatim from Generate, unless Responses has an
	// entry keyed by the exact prompt.
	Command   string
	Responses map[string]string
}

// NewMockBackend builds a mock that always returns command for any prompt.
func NewMockBackend(command string) *MockBackend {
	return &MockBackend{Command: command}
}

func (b *MockBackend) Info() Info {
	return Info{
		BackendType:       "mock",
		ModelName:         "mock-1",
		SupportsStreaming: false,
		MaxTokens:         4096,
		TypicalLatencyMS:  1,
		MemoryUsageMB:     0,
		Version:           "debug",
	}
}

func (b *MockBackend) IsAvailable(ctx context.Context) bool { return true }

func (b *MockBackend) Generate(ctx context.Context, req Request) (Result, error) {
	if cmd, ok := b.Responses[req.Prompt]; ok {
		return Result{Command: cmd}, nil
	}
	return Result{Command: b.Command}, nil
}

func (b *MockBackend) Shutdown(ctx context.Context) error { return nil }
