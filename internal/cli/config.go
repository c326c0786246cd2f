package cli

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/cmdai/cmdai/internal/config"
	"github.com/cmdai/cmdai/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read, write, or edit cmdai's configuration",
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Read a configuration key (e.g. general.safety_policy)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig(nil)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		value, ok := config.GetValue(*cfg, args[0])
		if !ok {
			return fmt.Errorf("unknown configuration key %q", args[0])
		}

		switch GetOutput() {
		case "json", "yaml":
			out := output.New(output.Format(GetOutput()), output.WithStats(GetStats()))
			return out.Write(map[string]any{args[0]: value})
		default:
			fmt.Printf("%v\n", value)
			return nil
		}
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a configuration key to the project config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, raw := args[0], args[1]
		parsed, err := config.ParseValue(key, raw)
		if err != nil {
			return err
		}

		_, projectPath := config.ConfigPaths(mustProjectDir(), flagConfig)
		if err := config.WriteValue(projectPath, key, parsed); err != nil {
			return fmt.Errorf("writing %s: %w", projectPath, err)
		}

		switch GetOutput() {
		case "json", "yaml":
			out := output.New(output.Format(GetOutput()), output.WithStats(GetStats()))
			return out.Write(map[string]any{"key": key, "value": parsed, "path": projectPath})
		default:
			fmt.Printf("%s = %v (%s)\n", key, parsed, projectPath)
			return nil
		}
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the project config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, projectPath := config.ConfigPaths(mustProjectDir(), flagConfig)

		if _, err := os.Stat(projectPath); os.IsNotExist(err) {
			if err := config.WriteValue(projectPath, "general.safety_policy", config.DefaultConfig().General.SafetyPolicy); err != nil {
				return fmt.Errorf("seeding %s: %w", projectPath, err)
			}
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}

		editCmd := exec.CommandContext(cmd.Context(), editor, projectPath)
		editCmd.Stdin = os.Stdin
		editCmd.Stdout = os.Stdout
		editCmd.Stderr = os.Stderr
		return editCmd.Run()
	},
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd, configEditCmd)
}
