package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// executeCommand runs a cobra command with the given args and returns stdout,
// stderr, and any error.
func executeCommand(root *cobra.Command, args ...string) (stdout string, stderr string, err error) {
	stdoutBuf := new(strings.Builder)
	stderrBuf := new(strings.Builder)

	root.SetOut(stdoutBuf)
	root.SetErr(stderrBuf)
	root.SetArgs(args)

	err = root.Execute()

	return stdoutBuf.String(), stderrBuf.String(), err
}

// newTestRootCmd builds a fresh root command for testing, avoiding state
// pollution on the package-level rootCmd and avoiding versionCmd's direct
// fmt.Printf/os.Stdout writes, which executeCommand cannot capture.
func newTestRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cmdai",
		Short:         "Turn natural language into a vetted shell command",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "project config file path override")
	cmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "text", "output format: text, json, yaml")
	cmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "shorthand for --output=json")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&flagShell, "shell", "", "target shell")
	cmd.PersistentFlags().StringVar(&flagPolicy, "safety-policy", "", "override safety policy")
	cmd.PersistentFlags().StringVarP(&flagProject, "project", "C", "", "project directory")

	versionCmdTest := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if flagJSON || flagOutput == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]string{
					"version": version,
					"commit":  commit,
				})
			}
			_, err := out.Write([]byte("cmdai " + version + "\n"))
			return err
		},
	}
	cmd.AddCommand(versionCmdTest)

	return cmd
}

func TestRootCommand_ShowsHelp(t *testing.T) {
	cmd := newTestRootCmd()
	stdout, _, err := executeCommand(cmd, "--help")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !strings.Contains(stdout, "Turn natural language into a vetted shell command") {
		t.Error("expected help to describe cmdai")
	}
	if !strings.Contains(stdout, "Available Commands") {
		t.Error("expected help to list available commands")
	}
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	cmd := newTestRootCmd()

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"help flag short", []string{"-h"}, false},
		{"help flag long", []string{"--help"}, false},
		{"config flag", []string{"--config", "/tmp/test.toml", "--help"}, false},
		{"output flag json", []string{"--output", "json", "--help"}, false},
		{"output flag yaml", []string{"--output", "yaml", "--help"}, false},
		{"output flag text", []string{"--output", "text", "--help"}, false},
		{"json shorthand", []string{"-j", "--help"}, false},
		{"verbose flag", []string{"-v", "--help"}, false},
		{"shell flag", []string{"--shell", "zsh", "--help"}, false},
		{"safety-policy flag", []string{"--safety-policy", "strict", "--help"}, false},
		{"project flag", []string{"-C", "/tmp/project", "--help"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flagConfig = ""
			flagOutput = "text"
			flagJSON = false
			flagVerbose = false
			flagShell = ""
			flagPolicy = ""
			flagProject = ""

			_, _, err := executeCommand(cmd, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Errorf("executeCommand() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVersionCommand_TextOutput(t *testing.T) {
	flagJSON = false
	flagOutput = "text"

	cmd := newTestRootCmd()
	stdout, _, err := executeCommand(cmd, "version")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !strings.Contains(stdout, "cmdai") {
		t.Errorf("expected version output to contain 'cmdai', got %q", stdout)
	}
}

func TestVersionCommand_JSONOutput(t *testing.T) {
	flagJSON = false
	flagOutput = "text"

	cmd := newTestRootCmd()
	stdout, _, err := executeCommand(cmd, "version", "-j")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var result map[string]string
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}

	if _, ok := result["version"]; !ok {
		t.Error("expected JSON output to contain 'version' key")
	}

	flagJSON = false
}

func TestGetOutput(t *testing.T) {
	tests := []struct {
		name       string
		flagJSON   bool
		flagOutput string
		want       string
	}{
		{"json flag overrides", true, "text", "json"},
		{"output flag text", false, "text", "text"},
		{"output flag json", false, "json", "json"},
		{"output flag yaml", false, "yaml", "yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flagJSON = tt.flagJSON
			flagOutput = tt.flagOutput
			if got := GetOutput(); got != tt.want {
				t.Errorf("GetOutput() = %v, want %v", got, tt.want)
			}
		})
	}

	flagJSON = false
	flagOutput = "text"
}

func TestGetOutput_EnvOverride(t *testing.T) {
	flagJSON = false
	flagOutput = "text"
	t.Setenv("CMDAI_OUTPUT_FORMAT", "yaml")

	if got := GetOutput(); got != "yaml" {
		t.Errorf("GetOutput() = %v, want yaml", got)
	}
}

func TestMustProjectDir_FallsBackToCWD(t *testing.T) {
	origProject := flagProject
	defer func() { flagProject = origProject }()

	flagProject = ""
	if got := mustProjectDir(); got == "" {
		t.Error("expected a non-empty project directory")
	}

	flagProject = "/tmp/explicit-project"
	if got := mustProjectDir(); got != "/tmp/explicit-project" {
		t.Errorf("mustProjectDir() = %q, want explicit flag value", got)
	}
}

// captureStdout runs fn and captures whatever it writes to the real
// os.Stdout, for RunE functions that write via fmt.Printf/output.New rather
// than cmd.OutOrStdout() (which executeCommand's SetOut cannot intercept).
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

// executeCommandCapture runs a command and captures actual os.Stdout output.
func executeCommandCapture(t *testing.T, root *cobra.Command, args ...string) (stdout string, err error) {
	t.Helper()

	// Drop any writers an earlier executeCommand left on root, so cobra's
	// own output (help, usage) also reaches the captured os.Stdout.
	root.SetOut(nil)
	root.SetErr(nil)
	root.SetArgs(args)
	stdout = captureStdout(t, func() {
		err = root.Execute()
	})
	return stdout, err
}
