package cli

import (
	"path/filepath"
	"strings"
	"testing"
)

func resetPatternsTestFlags(t *testing.T, dbPath string) {
	t.Helper()
	t.Setenv("CMDAI_LEARNING_DATABASE_PATH", dbPath)
	t.Setenv("CMDAI_LEARNING_ENABLED", "true")
	flagOutput = "text"
	flagJSON = false
	flagProject = ""
	flagConfig = ""
	patternsLimit = 0
}

func TestPatternsListCommand_EmptyStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "learning.db")
	resetPatternsTestFlags(t, dbPath)

	stdout, err := executeCommandCapture(t, rootCmd, "patterns", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "no patterns recorded") {
		t.Errorf("expected an empty store to report no patterns, got %q", stdout)
	}
}

func TestPatternsListCommand_RecordsAppear(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "learning.db")
	resetPatternsTestFlags(t, dbPath)

	store, err := openLearningStore()
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	if err := store.Record("list big files", "find . -size +1G", "", nil, nil); err != nil {
		t.Fatalf("recording pattern: %v", err)
	}
	store.Close()

	stdout, err := executeCommandCapture(t, rootCmd, "patterns", "list", "-j")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "find . -size +1G") {
		t.Errorf("expected recorded command in listing, got %q", stdout)
	}
}

func TestPatternsListCommand_RespectsLimit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "learning.db")
	resetPatternsTestFlags(t, dbPath)

	store, err := openLearningStore()
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := store.Record("prompt", "cmd", "", nil, nil); err != nil {
			t.Fatalf("recording pattern: %v", err)
		}
	}
	store.Close()

	stdout, err := executeCommandCapture(t, rootCmd, "patterns", "list", "--limit", "1", "-j")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(stdout, `"prompt"`) != 1 {
		t.Errorf("expected exactly one pattern with --limit=1, got %q", stdout)
	}
}

func TestPatternsExportCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "learning.db")
	resetPatternsTestFlags(t, dbPath)

	stdout, err := executeCommandCapture(t, rootCmd, "patterns", "export")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(stdout), "[") && strings.TrimSpace(stdout) != "null" {
		t.Errorf("expected export to be a JSON array, got %q", stdout)
	}
}

func TestPatternsCommand_Help(t *testing.T) {
	stdout, err := executeCommandCapture(t, rootCmd, "patterns", "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"list", "export"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected help to mention %q", want)
		}
	}
}
