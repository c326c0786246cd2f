package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cmdai/cmdai/internal/backend"
	"github.com/cmdai/cmdai/internal/cmdaierr"
	cmdcontext "github.com/cmdai/cmdai/internal/context"
	"github.com/cmdai/cmdai/internal/execctx"
	"github.com/cmdai/cmdai/internal/executor"
	"github.com/cmdai/cmdai/internal/heal"
	"github.com/cmdai/cmdai/internal/safety"
)

// Recorder is the learning store's write-side contract, kept narrow so the
// pipeline can be exercised without a real store. A production Pipeline is
// built with internal/learning.Store, which satisfies this interface.
type Recorder interface {
	Record(prompt, generated, finalCommand string, contextSnapshot []byte, executionSuccess *bool) error
}

// noopRecorder discards every record; used when the caller configures no
// learning store (§4.8 step 8 is fire-and-forget regardless).
type noopRecorder struct{}

func (noopRecorder) Record(string, string, string, []byte, *bool) error { return nil }

// Pipeline runs the state machine from §4.8: Idle -> Generating -> Validating
// -> Deciding -> (Executing -> PossiblyHealing -> Done) | Done.
type Pipeline struct {
	Chain        *backend.Chain
	SafetyEngine *safety.Engine
	Recorder     Recorder
	ContextOpts  cmdcontext.Options
	Logger       *log.Logger
}

// NewPipeline builds a Pipeline wired to a backend chain. SafetyEngine
// defaults to safety.DefaultEngine(), Recorder to a no-op, and ContextOpts
// to cmdcontext.DefaultOptions() when left zero-valued.
func NewPipeline(chain *backend.Chain) *Pipeline {
	return &Pipeline{
		Chain:        chain,
		SafetyEngine: safety.DefaultEngine(),
		Recorder:     noopRecorder{},
		ContextOpts:  cmdcontext.DefaultOptions(),
		Logger:       log.Default(),
	}
}

// Run executes one request through the full pipeline. ctx bounds the whole
// request: context build, backend selection, generation, and (if requested)
// execution all observe its deadline.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	input := strings.TrimSpace(req.Input)
	if input == "" {
		return nil, cmdaierr.New(cmdaierr.KindInvalidArgument, "request input must be non-empty")
	}

	// Idle -> Generating: capture context.
	snapshot, err := execctx.Capture()
	if err != nil {
		return nil, cmdaierr.Wrap(cmdaierr.KindInvalidArgument, "capturing execution context", err)
	}
	graph, err := cmdcontext.Build(ctx, snapshot.Cwd, p.effectiveContextOpts())
	if err != nil {
		p.logger().Warn("context graph build degraded", "error", err)
		graph = &cmdcontext.Graph{Environment: snapshot}
	}

	engine := p.SafetyEngine
	if engine == nil {
		engine = safety.DefaultEngine()
	}

	selected, err := p.Chain.Select(ctx)
	if err != nil {
		return nil, err
	}

	generated, err := p.generateWithRetry(ctx, selected, req, input, graph)
	if err != nil {
		return nil, err
	}

	// Validating -> Deciding.
	validation := engine.Validate(generated.Command, string(req.Shell))
	generated.RiskLevel = validation.RiskLevel

	result := &Result{
		Generated:         generated,
		Validation:        validation,
		ContextGraph:      graph,
		ExecutionSnapshot: snapshot,
	}

	decision := safety.Decide(req.SafetyPolicy, validation.RiskLevel)
	switch decision {
	case safety.DecisionBlock:
		result.Blocked = true
		result.BlockedReason = blockReason(validation)
		p.recordOutcome(req.Input, generated.Command, "", nil)
		return result, nil
	case safety.DecisionConfirm:
		if !req.ConfirmPreApproved {
			result.RequiresConfirmation = true
			result.ConfirmationPrompt = confirmationPrompt(generated, validation)
			p.recordOutcome(req.Input, generated.Command, "", nil)
			return result, nil
		}
	}

	if !req.Execute {
		p.recordOutcome(req.Input, generated.Command, "", nil)
		return result, nil
	}

	// Executing -> PossiblyHealing -> Done.
	execResult, execErr := executor.Execute(ctx, string(req.Shell), generated.Command, defaultExecutionTimeout)
	result.ExecutionResult = execResult
	result.Executed = execErr == nil && execResult != nil

	success := execResult != nil && execResult.Success
	if execResult != nil && req.SelfHealingArmed && heal.IsPermissionFailure(execResult) {
		result.HealSuggestion = heal.Suggest(execResult, generated.Command)
		if result.HealSuggestion != nil {
			result.RequiresConfirmation = true
			result.ConfirmationPrompt = fmt.Sprintf("%s: re-run as %q?",
				result.HealSuggestion.Explanation, result.HealSuggestion.Command)
		}
	}

	p.recordOutcome(req.Input, generated.Command, "", &success)
	return result, nil
}

// effectiveContextOpts returns p.ContextOpts, falling back to defaults for a
// zero-valued Pipeline (e.g. constructed with &Pipeline{Chain: c}).
func (p *Pipeline) effectiveContextOpts() cmdcontext.Options {
	if p.ContextOpts == (cmdcontext.Options{}) {
		return cmdcontext.DefaultOptions()
	}
	return p.ContextOpts
}

func (p *Pipeline) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.Default()
}

// generateWithRetry implements §4.8 step 3: on GenerationFailed, retry up to
// maxGenerationRetries times with an augmented prompt noting the prior
// failure. Exceeding the budget propagates the last failure.
func (p *Pipeline) generateWithRetry(ctx context.Context, b backend.Backend, req Request, input string, graph *cmdcontext.Graph) (GeneratedCommand, error) {
	systemPrompt := graph.ToLLMContext()
	attempt := 0
	var lastErr error

	for attempt <= maxGenerationRetries {
		prompt := input
		if attempt > 0 {
			prompt = fmt.Sprintf("%s\n\n(prior attempt failed: %v; try a different approach)", input, lastErr)
		}

		start := time.Now()
		res, err := b.Generate(ctx, backend.Request{
			Prompt:       prompt,
			Shell:        string(req.Shell),
			SystemPrompt: systemPrompt,
		})
		elapsed := time.Since(start)
		if err == nil {
			return GeneratedCommand{
				Command:          res.Command,
				Alternatives:     res.Alternatives,
				BackendUsed:      b.Info().BackendType,
				GenerationTimeMS: elapsed.Milliseconds(),
				ConfidenceScore:  res.ConfidenceScore,
			}, nil
		}

		lastErr = err
		attempt++
	}

	return GeneratedCommand{}, cmdaierr.Wrap(cmdaierr.KindGenerationFailed,
		fmt.Sprintf("generation failed after %d attempt(s)", maxGenerationRetries+1), lastErr)
}

func (p *Pipeline) recordOutcome(prompt, generated, finalCommand string, success *bool) {
	if p.Recorder == nil {
		return
	}
	if err := p.Recorder.Record(prompt, generated, finalCommand, nil, success); err != nil {
		p.logger().Debug("learning store record failed, continuing", "error", err)
	}
}

func blockReason(v safety.ValidationResult) string {
	if len(v.Warnings) > 0 {
		return strings.Join(v.Warnings, "; ")
	}
	return fmt.Sprintf("risk level %s exceeds the active policy's allowance", v.RiskLevel)
}

func confirmationPrompt(g GeneratedCommand, v safety.ValidationResult) string {
	if len(v.Warnings) == 0 {
		return fmt.Sprintf("run %q?", g.Command)
	}
	return fmt.Sprintf("run %q? (%s)", g.Command, strings.Join(v.Warnings, "; "))
}
