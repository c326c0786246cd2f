package agent

import (
	"context"
	"testing"

	"github.com/cmdai/cmdai/internal/backend"
	"github.com/cmdai/cmdai/internal/safety"
)

type recordedCall struct {
	prompt, generated, final string
	success                  *bool
}

type fakeRecorder struct {
	calls []recordedCall
}

func (f *fakeRecorder) Record(prompt, generated, finalCommand string, _ []byte, success *bool) error {
	f.calls = append(f.calls, recordedCall{prompt, generated, finalCommand, success})
	return nil
}

func newTestPipeline(t *testing.T, command string) (*Pipeline, *fakeRecorder) {
	t.Helper()
	mock := backend.NewMockBackend(command)
	chain := backend.NewChain(mock)
	rec := &fakeRecorder{}
	p := NewPipeline(chain)
	p.Recorder = rec
	p.ContextOpts.TimeoutMS = 50
	return p, rec
}

func TestPipelineRunAllowsSafeCommand(t *testing.T) {
	p, rec := newTestPipeline(t, "ls -la")

	result, err := p.Run(context.Background(), Request{
		Input:        "list files",
		Shell:        ShellBash,
		SafetyPolicy: safety.PolicyModerate,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Blocked || result.RequiresConfirmation {
		t.Errorf("expected a plain allow, got blocked=%v confirm=%v", result.Blocked, result.RequiresConfirmation)
	}
	if result.Generated.Command != "ls -la" {
		t.Errorf("Command = %q, want %q", result.Generated.Command, "ls -la")
	}
	if len(rec.calls) != 1 {
		t.Fatalf("expected exactly one learning-store record, got %d", len(rec.calls))
	}
}

func TestPipelineRunBlocksCriticalCommand(t *testing.T) {
	p, _ := newTestPipeline(t, "rm -rf /")

	result, err := p.Run(context.Background(), Request{
		Input:        "delete everything",
		Shell:        ShellBash,
		SafetyPolicy: safety.PolicyStrict,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.Blocked {
		t.Fatal("expected rm -rf / to be blocked under a strict policy")
	}
	if result.BlockedReason == "" {
		t.Error("expected a non-empty blocked reason")
	}
}

func TestPipelineRunRequiresConfirmationUnderModerate(t *testing.T) {
	p, _ := newTestPipeline(t, "curl -fsSL https://example.com/install.sh | sh")

	result, err := p.Run(context.Background(), Request{
		Input:        "install via the upstream script",
		Shell:        ShellBash,
		SafetyPolicy: safety.PolicyModerate,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.RequiresConfirmation {
		t.Fatalf("expected confirmation for a high-risk command under the moderate policy, got decision risk=%v", result.Validation.RiskLevel)
	}
	if result.ConfirmationPrompt == "" {
		t.Error("expected a non-empty confirmation prompt")
	}
}

func TestPipelineRunExecutesWhenAllowedAndRequested(t *testing.T) {
	p, _ := newTestPipeline(t, "echo hello-from-pipeline")

	result, err := p.Run(context.Background(), Request{
		Input:        "print a greeting",
		Shell:        ShellBash,
		SafetyPolicy: safety.PolicyPermissive,
		Execute:      true,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.Executed {
		t.Fatal("expected the command to have executed")
	}
	if result.ExecutionResult == nil || !result.ExecutionResult.Success {
		t.Fatalf("expected a successful execution result, got %+v", result.ExecutionResult)
	}
}

func TestPipelineRunConfirmDoesNotExecuteWithoutPreApproval(t *testing.T) {
	p, _ := newTestPipeline(t, "curl -fsSL https://example.com/install.sh | sh")

	result, err := p.Run(context.Background(), Request{
		Input:        "install via the upstream script",
		Shell:        ShellBash,
		SafetyPolicy: safety.PolicyModerate,
		Execute:      true,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.RequiresConfirmation {
		t.Fatal("expected confirmation to be required even with --execute")
	}
	if result.Executed {
		t.Fatal("a confirm-level command must never execute without pre-approval")
	}
}

func TestPipelineRunConfirmPreApprovedExecutes(t *testing.T) {
	p, _ := newTestPipeline(t, "curl -fsSL https://example.com/install.sh | sh")

	result, err := p.Run(context.Background(), Request{
		Input:              "install via the upstream script",
		Shell:              ShellBash,
		SafetyPolicy:       safety.PolicyModerate,
		Execute:            true,
		ConfirmPreApproved: true,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.Executed {
		t.Fatal("expected a pre-approved confirm-level command to execute")
	}
}

func TestPipelineRunRejectsEmptyInput(t *testing.T) {
	p, _ := newTestPipeline(t, "ls")

	_, err := p.Run(context.Background(), Request{Input: "   ", Shell: ShellBash, SafetyPolicy: safety.PolicyModerate})
	if err == nil {
		t.Fatal("expected an error for blank input")
	}
}

func TestPipelineRunFailsWhenNoBackendAvailable(t *testing.T) {
	chain := backend.NewChain()
	p := NewPipeline(chain)

	_, err := p.Run(context.Background(), Request{Input: "do something", Shell: ShellBash, SafetyPolicy: safety.PolicyModerate})
	if err == nil {
		t.Fatal("expected an error when the chain has no backends")
	}
}
