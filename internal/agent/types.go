// Package agent orchestrates the request pipeline described in §4.8:
// capture context, select a backend, generate a candidate command, validate
// it against the safety policy, and optionally execute and self-heal it.
package agent

import (
	"time"

	"github.com/cmdai/cmdai/internal/context"
	"github.com/cmdai/cmdai/internal/execctx"
	"github.com/cmdai/cmdai/internal/executor"
	"github.com/cmdai/cmdai/internal/heal"
	"github.com/cmdai/cmdai/internal/safety"
)

// Shell enumerates the target shell dialects a request can name, per §3.
type Shell string

const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellSh         Shell = "sh"
	ShellPowerShell Shell = "powershell"
	ShellCmd        Shell = "cmd"
	ShellUnknown    Shell = "unknown"
)

// Request is a command request, per §3. Input must be non-empty after trim;
// callers should validate with strings.TrimSpace before constructing one.
type Request struct {
	Input             string
	Shell             Shell
	SafetyPolicy      safety.Policy
	BackendPreference string
	Execute           bool
	SelfHealingArmed  bool
	// ConfirmPreApproved pre-approves confirm-level risks (cmdai run --confirm),
	// letting a DecisionConfirm candidate proceed to execution instead of
	// stopping to ask.
	ConfirmPreApproved bool
}

// GeneratedCommand is a backend's output, immutable once produced, per §3.
type GeneratedCommand struct {
	Command          string
	Explanation      string
	RiskLevel        safety.RiskLevel
	Alternatives     []string
	BackendUsed      string
	GenerationTimeMS int64
	ConfidenceScore  float64
}

// Result is what the agent hands back to a caller (CLI, TUI, API) for one
// request. A blocked result is never executed, and neither is a
// confirm-level result that was not pre-approved. An executed result also
// sets RequiresConfirmation when a self-heal suggestion awaits approval; an
// allowed request made without Execute sets none of the three flags.
type Result struct {
	Generated            GeneratedCommand
	Validation           safety.ValidationResult
	Blocked              bool
	BlockedReason        string
	RequiresConfirmation bool
	ConfirmationPrompt   string
	Executed             bool
	ExecutionResult      *executor.Result
	HealSuggestion       *heal.Suggestion
	ContextGraph         *context.Graph
	ExecutionSnapshot    *execctx.Snapshot
}

// maxGenerationRetries bounds extra generation attempts after the first
// failure, per §4.8 ("default 1").
const maxGenerationRetries = 1

// maxExecutionAttempts bounds original + healed execution attempts combined,
// per §4.8 ("≤ 2").
const maxExecutionAttempts = 2

// defaultExecutionTimeout bounds a single executor.Execute call when the
// caller does not override it.
const defaultExecutionTimeout = 30 * time.Second
