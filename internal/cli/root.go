// Package cli implements the Cobra command-line interface for cmdai.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/cmdai/cmdai/internal/config"
	"github.com/cmdai/cmdai/internal/output"
	"github.com/cmdai/cmdai/internal/utils"
)

// Version information set by goreleaser.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flag values.
var (
	flagConfig  string
	flagOutput  string
	flagJSON    bool
	flagStats   bool
	flagVerbose bool
	flagShell   string
	flagPolicy  string
	flagProject string
)

var rootCmd = &cobra.Command{
	Use:   "cmdai",
	Short: "Turn natural language into a vetted shell command",
	Long: `cmdai turns a natural-language instruction into a shell command,
validates it against a safety policy before anything runs, and learns from
the edits you make to its suggestions.

Risk levels, from least to most dangerous:
  SAFE      - read-only, side-effect-free
  MODERATE  - reversible local changes
  HIGH      - hard-to-reverse changes (requires confirmation under most policies)
  CRITICAL  - destructive or irreversible (blocked under most policies)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagProject == "" {
			return nil
		}
		if err := os.Chdir(flagProject); err != nil {
			return fmt.Errorf("changing directory to %s: %w", flagProject, err)
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		showQuickReference()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		goVersion := runtime.Version()
		userPath, projectPath := config.ConfigPaths(mustProjectDir(), flagConfig)
		dbPath := GetLearningDBPath()

		payload := map[string]any{
			"version":       version,
			"commit":        commit,
			"build_date":    date,
			"go_version":    goVersion,
			"user_config":   userPath,
			"project_config": projectPath,
			"learning_db":   dbPath,
		}

		switch GetOutput() {
		case "json", "yaml":
			out := output.New(output.Format(GetOutput()), output.WithStats(GetStats()))
			return out.Write(payload)
		case "text":
			fmt.Printf("cmdai %s\n", version)
			fmt.Printf("  commit:         %s\n", commit)
			fmt.Printf("  built:          %s\n", date)
			fmt.Printf("  go:             %s\n", goVersion)
			fmt.Printf("  user config:    %s\n", userPath)
			fmt.Printf("  project config: %s\n", projectPath)
			fmt.Printf("  learning db:    %s\n", dbPath)
			return nil
		default:
			return fmt.Errorf("unsupported format: %s", GetOutput())
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetOutput returns the configured output format.
// Precedence: CLI flags > CMDAI_OUTPUT_FORMAT env > default.
func GetOutput() string {
	if flagJSON {
		return "json"
	}
	if flagOutput != "text" {
		return flagOutput
	}
	if envFormat := os.Getenv("CMDAI_OUTPUT_FORMAT"); envFormat != "" {
		switch envFormat {
		case "json", "yaml", "text":
			return envFormat
		}
	}
	return flagOutput
}

// GetStats returns whether to show payload size statistics.
func GetStats() bool {
	return flagStats
}

// mustProjectDir returns the effective project directory, falling back to
// the current working directory.
func mustProjectDir() string {
	if flagProject != "" {
		return flagProject
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// GetConfig loads the effective configuration for the current invocation,
// layering defaults, user/project config files, environment, and any flag
// overrides gathered by the calling subcommand.
func GetConfig(flagOverrides map[string]any) (*config.Config, error) {
	return config.Load(config.LoadOptions{
		ProjectDir:        mustProjectDir(),
		ProjectConfigPath: "",
		FlagOverrides:     flagOverrides,
	})
}

// GetLearningDBPath resolves the learning store's database path from config,
// expanding a leading "~".
func GetLearningDBPath() string {
	cfg, err := GetConfig(nil)
	if err != nil {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "cmdai", "learning.db")
	}
	return utils.ExpandHome(cfg.Learning.DatabasePath)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "project config file path override")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "text", "output format: text, json, yaml (env: CMDAI_OUTPUT_FORMAT)")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "shorthand for --output=json")
	rootCmd.PersistentFlags().BoolVar(&flagStats, "stats", false, "show payload size statistics")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagShell, "shell", "", "target shell (bash, zsh, fish, sh, powershell, cmd)")
	rootCmd.PersistentFlags().StringVar(&flagPolicy, "safety-policy", "", "override the configured safety policy for this invocation")
	rootCmd.PersistentFlags().StringVarP(&flagProject, "project", "C", "", "project directory")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(completionCmd)
}
