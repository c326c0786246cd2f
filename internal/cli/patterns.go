package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmdai/cmdai/internal/learning"
	"github.com/cmdai/cmdai/internal/output"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Inspect the learning store's recorded and mined patterns",
}

var patternsLimit int

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded (prompt, command) history, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLearningStore()
		if err != nil {
			return err
		}
		defer store.Close()

		patterns, err := store.All()
		if err != nil {
			return fmt.Errorf("listing patterns: %w", err)
		}
		if patternsLimit > 0 && len(patterns) > patternsLimit {
			patterns = patterns[:patternsLimit]
		}

		switch GetOutput() {
		case "json", "yaml":
			out := output.New(output.Format(GetOutput()), output.WithStats(GetStats()))
			return out.Write(patterns)
		default:
			printPatternsText(patterns)
			return nil
		}
	},
}

var patternsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export mined improvement patterns as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLearningStore()
		if err != nil {
			return err
		}
		defer store.Close()

		improvements, err := store.MineImprovements()
		if err != nil {
			return fmt.Errorf("mining improvements: %w", err)
		}

		out := output.New(output.FormatJSON, output.WithStats(GetStats()))
		return out.Write(improvements)
	},
}

func init() {
	patternsListCmd.Flags().IntVar(&patternsLimit, "limit", 0, "limit the number of patterns shown (0 = unlimited)")
	patternsCmd.AddCommand(patternsListCmd, patternsExportCmd)
}

func openLearningStore() (*learning.Store, error) {
	cfg, err := GetConfig(nil)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	store, err := learning.Open(GetLearningDBPath())
	if err != nil {
		return nil, fmt.Errorf("opening learning store at %s: %w", cfg.Learning.DatabasePath, err)
	}
	return store, nil
}

func printPatternsText(patterns []learning.Pattern) {
	if len(patterns) == 0 {
		fmt.Println("no patterns recorded")
		return
	}
	for _, p := range patterns {
		final := p.GeneratedCommand
		if p.FinalCommand != nil {
			final = *p.FinalCommand
		}
		fmt.Printf("%s  %q -> %s\n", p.Timestamp.Format("2006-01-02T15:04:05"), p.Prompt, final)
	}
}
