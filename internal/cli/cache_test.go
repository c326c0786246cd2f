package cli

import (
	"path/filepath"
	"strings"
	"testing"
)

func resetCacheTestFlags(t *testing.T, cacheDir string) {
	t.Helper()
	t.Setenv("CMDAI_CACHE_DIR", cacheDir)
	flagOutput = "text"
	flagJSON = false
	flagProject = ""
	flagConfig = ""
}

func TestCacheStatsCommand_EmptyCache(t *testing.T) {
	dir := t.TempDir()
	resetCacheTestFlags(t, filepath.Join(dir, "models"))

	stdout, err := executeCommandCapture(t, rootCmd, "cache", "stats")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "models: 0") {
		t.Errorf("expected an empty cache to report zero models, got %q", stdout)
	}
}

func TestCacheStatsCommand_JSONOutput(t *testing.T) {
	dir := t.TempDir()
	resetCacheTestFlags(t, filepath.Join(dir, "models"))

	stdout, err := executeCommandCapture(t, rootCmd, "cache", "stats", "-j")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, `"count"`) {
		t.Errorf("expected JSON cache stats output, got %q", stdout)
	}
}

func TestCacheClearCommand(t *testing.T) {
	dir := t.TempDir()
	resetCacheTestFlags(t, filepath.Join(dir, "models"))

	stdout, err := executeCommandCapture(t, rootCmd, "cache", "clear")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "cache cleared") {
		t.Errorf("expected confirmation of cache clear, got %q", stdout)
	}
}

func TestCacheVerifyCommand_EmptyCache(t *testing.T) {
	dir := t.TempDir()
	resetCacheTestFlags(t, filepath.Join(dir, "models"))

	stdout, err := executeCommandCapture(t, rootCmd, "cache", "verify")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "valid: 0") {
		t.Errorf("expected an empty cache to report zero valid entries, got %q", stdout)
	}
}

func TestCacheCommand_Help(t *testing.T) {
	stdout, err := executeCommandCapture(t, rootCmd, "cache", "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"stats", "clear", "verify"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected help to mention %q", want)
		}
	}
}
