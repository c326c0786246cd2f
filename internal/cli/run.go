package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cmdai/cmdai/internal/agent"
	"github.com/cmdai/cmdai/internal/backend"
	"github.com/cmdai/cmdai/internal/config"
	"github.com/cmdai/cmdai/internal/learning"
	"github.com/cmdai/cmdai/internal/output"
	"github.com/cmdai/cmdai/internal/safety"
	"github.com/cmdai/cmdai/internal/utils"
)

var (
	runExecute    bool
	runSelfHeal   bool
	runBackendPin string
	runConfirm    bool
)

var runCmd = &cobra.Command{
	Use:   "run <instruction>",
	Short: "Turn a natural-language instruction into a shell command",
	Long: `run sends an instruction to the configured backend chain, validates
the candidate command against the safety policy, and either blocks it,
asks for confirmation, or executes it, depending on the safety policy's
decision for the command's risk level.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRunE,
}

func init() {
	runCmd.Flags().BoolVarP(&runExecute, "execute", "x", false, "execute the command if the safety policy allows it")
	runCmd.Flags().BoolVar(&runSelfHeal, "self-heal", false, "arm self-healing for permission failures")
	runCmd.Flags().StringVar(&runBackendPin, "backend", "", "pin generation to a single backend (anthropic, openai, ollama, vllm, exo)")
	runCmd.Flags().BoolVar(&runConfirm, "confirm", false, "pre-approve confirm-level risks, letting them execute without stopping to ask")
}

func runRunE(cmd *cobra.Command, args []string) error {
	input := strings.Join(args, " ")

	cfg, err := GetConfig(nil)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	policy := safety.Policy(cfg.General.SafetyPolicy)
	if flagPolicy != "" {
		policy, err = safety.ParsePolicy(flagPolicy)
		if err != nil {
			return err
		}
	}

	shell := agent.Shell(cfg.General.DefaultShell)
	if flagShell != "" {
		shell = agent.Shell(flagShell)
	}

	chain, err := buildChain(cfg, runBackendPin)
	if err != nil {
		return err
	}

	pipeline := agent.NewPipeline(chain)
	if cfg.Learning.Enabled {
		store, err := learning.Open(utils.ExpandHome(cfg.Learning.DatabasePath))
		if err != nil {
			utils.Warn("opening learning store, recording disabled", "error", err)
		} else {
			defer store.Close()
			pipeline.Recorder = store
		}
	}

	req := agent.Request{
		Input:              input,
		Shell:              shell,
		SafetyPolicy:       policy,
		BackendPreference:  runBackendPin,
		Execute:            runExecute,
		SelfHealingArmed:   runSelfHeal,
		ConfirmPreApproved: runConfirm,
	}

	result, err := pipeline.Run(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("running request: %w", err)
	}

	return writeRunResult(result)
}

// debugBackends lets a cmdai_debug build register extra backend candidates
// (see cmd/cmdai/debug_mock.go), addressable through --backend like any
// other entry in the chain.
var debugBackends = map[string]backend.Backend{}

// RegisterDebugBackend adds a backend candidate under name. Called only
// from cmd/cmdai/debug_mock.go, which is gated behind the cmdai_debug
// build tag, so the mock backend is unreachable in a release build.
func RegisterDebugBackend(name string, b backend.Backend) {
	debugBackends[name] = b
}

// buildChain assembles the backend chain from cfg.Backend, honoring an
// optional single-backend pin (--backend). Without a pin the chain follows
// cfg.Backend.Preference (anthropic, openai, ollama when empty), skipping
// names it does not recognise. Candidates with no credentials configured are still added; their
// IsAvailable() reports false and Chain.Select skips them.
func buildChain(cfg *config.Config, pin string) (*backend.Chain, error) {
	candidates := map[string]backend.Backend{
		"anthropic": backend.NewAnthropicBackend(backend.AnthropicConfig{
			APIKey: cfg.Backend.AnthropicAPIKey,
			Model:  cfg.Backend.AnthropicModel,
		}),
		"openai": backend.NewOpenAICompatBackend(backend.OpenAICompatConfig{
			BackendType: "openai",
			Model:       cfg.Backend.OpenAIModel,
			APIKey:      cfg.Backend.OpenAIAPIKey,
			RequiresKey: true,
		}),
		"ollama": backend.NewOllamaBackend(cfg.Backend.OllamaModel, cfg.Backend.OllamaBaseURL),
		"vllm":   backend.NewVLLMBackend(cfg.Backend.VLLMModel, cfg.Backend.VLLMBaseURL),
		"exo":    backend.NewExoBackend(cfg.Backend.ExoModel, cfg.Backend.ExoBaseURL),
	}
	for name, b := range debugBackends {
		candidates[name] = b
	}

	if pin != "" {
		b, ok := candidates[pin]
		if !ok {
			return nil, fmt.Errorf("unknown backend %q", pin)
		}
		return backend.NewChain(b), nil
	}

	order := cfg.Backend.Preference
	if len(order) == 0 {
		order = []string{"anthropic", "openai", "ollama"}
	}
	ordered := make([]backend.Backend, 0, len(order))
	for _, name := range order {
		if b, ok := candidates[name]; ok {
			ordered = append(ordered, b)
		}
	}
	if len(ordered) == 0 {
		return nil, fmt.Errorf("no backend in backend.preference is recognised")
	}
	return backend.NewChain(ordered...), nil
}

func writeRunResult(result *agent.Result) error {
	switch GetOutput() {
	case "json", "yaml":
		out := output.New(output.Format(GetOutput()), output.WithStats(GetStats()))
		return out.Write(runResultPayload(result))
	default:
		printRunResultText(result)
		return nil
	}
}

func runResultPayload(result *agent.Result) map[string]any {
	payload := map[string]any{
		"command":               result.Generated.Command,
		"risk_level":            result.Generated.RiskLevel.String(),
		"backend_used":          result.Generated.BackendUsed,
		"blocked":               result.Blocked,
		"requires_confirmation": result.RequiresConfirmation,
		"executed":              result.Executed,
	}
	if result.BlockedReason != "" {
		payload["blocked_reason"] = result.BlockedReason
	}
	if result.ConfirmationPrompt != "" {
		payload["confirmation_prompt"] = result.ConfirmationPrompt
	}
	if result.ExecutionResult != nil {
		payload["exit_code"] = result.ExecutionResult.ExitCode
		payload["success"] = result.ExecutionResult.Success
	}
	if result.HealSuggestion != nil {
		payload["heal_suggestion"] = result.HealSuggestion.Command
	}
	return payload
}

func printRunResultText(result *agent.Result) {
	fmt.Printf("$ %s\n", result.Generated.Command)
	fmt.Printf("risk: %s  backend: %s\n", result.Generated.RiskLevel, result.Generated.BackendUsed)

	switch {
	case result.Blocked:
		fmt.Printf("blocked: %s\n", result.BlockedReason)
	case result.RequiresConfirmation:
		fmt.Printf("confirmation required: %s\n", result.ConfirmationPrompt)
	case result.Executed && result.ExecutionResult != nil:
		fmt.Printf("executed: exit %d\n", result.ExecutionResult.ExitCode)
		if result.ExecutionResult.Stdout != "" {
			fmt.Print(result.ExecutionResult.Stdout)
		}
	}

	if result.HealSuggestion != nil {
		fmt.Printf("self-heal suggestion: %s\n", result.HealSuggestion.Command)
	}
}
