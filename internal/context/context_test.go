package context

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestAnalyzeProjectDetectsGoModule(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example\n"), 0o644); err != nil {
		t.Fatalf("write go.mod: %v", err)
	}

	info, warn := analyzeProject(dir)
	if warn != "" {
		t.Fatalf("unexpected warning: %q", warn)
	}
	if info.PrimaryType != "Go" {
		t.Errorf("PrimaryType = %q, want %q", info.PrimaryType, "Go")
	}
}

func TestAnalyzeProjectDetectsMultipleMarkersInOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Cargo.toml", "go.mod"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(""), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	info, _ := analyzeProject(dir)
	if info.PrimaryType != "Rust" {
		t.Errorf("PrimaryType = %q, want %q (Rust precedes Go in marker order)", info.PrimaryType, "Rust")
	}
	if len(info.AdditionalTypes) != 1 || info.AdditionalTypes[0] != "Go" {
		t.Errorf("AdditionalTypes = %v, want [Go]", info.AdditionalTypes)
	}
}

func TestAnalyzeProjectNextJsSubtype(t *testing.T) {
	dir := t.TempDir()
	pkg := `{"dependencies": {"next": "^14.0.0"}}`
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(pkg), 0o644); err != nil {
		t.Fatalf("write package.json: %v", err)
	}

	info, _ := analyzeProject(dir)
	if info.PrimaryType != "Node.js" {
		t.Fatalf("PrimaryType = %q, want %q", info.PrimaryType, "Node.js")
	}
	if len(info.AdditionalTypes) != 1 || info.AdditionalTypes[0] != "Next.js" {
		t.Errorf("AdditionalTypes = %v, want [Next.js]", info.AdditionalTypes)
	}
}

func TestAnalyzeProjectNoMarkersIsEmpty(t *testing.T) {
	dir := t.TempDir()
	info, warn := analyzeProject(dir)
	if warn != "" {
		t.Errorf("unexpected warning: %q", warn)
	}
	if info.PrimaryType != "" {
		t.Errorf("expected empty PrimaryType, got %q", info.PrimaryType)
	}
}

func TestParsePorcelainStatus(t *testing.T) {
	output := " M modified.txt\nA  staged_add.txt\n?? untracked.txt\nMM both.txt"
	staged, unstaged, untracked := parsePorcelainStatus(output)
	if staged != 2 {
		t.Errorf("staged = %d, want 2", staged)
	}
	if unstaged != 2 {
		t.Errorf("unstaged = %d, want 2", unstaged)
	}
	if !untracked {
		t.Error("expected untracked=true")
	}
}

func TestParseAheadBehind(t *testing.T) {
	ahead, behind := parseAheadBehind("3\t2")
	if ahead != 3 || behind != 2 {
		t.Errorf("parseAheadBehind = (%d, %d), want (3, 2)", ahead, behind)
	}
	ahead, behind = parseAheadBehind("garbage")
	if ahead != 0 || behind != 0 {
		t.Errorf("expected zero values for unparseable input, got (%d, %d)", ahead, behind)
	}
}

func TestAnalyzeGitNonRepo(t *testing.T) {
	dir := t.TempDir()
	info, warn := analyzeGit(dir)
	if warn != "" {
		t.Errorf("unexpected warning for non-repo: %q", warn)
	}
	if info.IsRepo {
		t.Error("expected IsRepo=false for a plain temp dir")
	}
}

func TestBuildHistoryInfoFiltersSensitiveTokens(t *testing.T) {
	commands := []string{
		"git status",
		"git commit -m wip",
		"export API_KEY=abc123",
		"curl -H 'Authorization: secret'",
		"docker ps",
		"ls --color=auto",
	}

	info := buildHistoryInfo(commands)

	for _, cmd := range info.TopCommands {
		if cmd == "export" || cmd == "curl" {
			t.Errorf("expected sensitive command filtered out, found %q in %v", cmd, info.TopCommands)
		}
	}

	foundGit := false
	for _, p := range info.Patterns {
		if p == "frequent git user" {
			foundGit = true
		}
	}
	if !foundGit {
		t.Errorf("expected 'frequent git user' pattern, got %v", info.Patterns)
	}
}

func TestExtractCommandsZshFormat(t *testing.T) {
	lines := []string{": 1700000000:0;git status", "plain command here"}
	commands := extractCommands(lines)
	if len(commands) != 2 {
		t.Fatalf("expected 2 commands, got %d: %v", len(commands), commands)
	}
	if commands[0] != "git status" {
		t.Errorf("commands[0] = %q, want %q", commands[0], "git status")
	}
}

func TestBuildProducesGraphWithinTimeout(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()

	graph, err := Build(context.Background(), dir, opts)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if graph.Environment == nil {
		t.Fatal("expected Environment snapshot to be populated")
	}
}

func TestToLLMContextIsStable(t *testing.T) {
	dir := t.TempDir()
	graph, err := Build(context.Background(), dir, DefaultOptions())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	a := graph.ToLLMContext()
	b := graph.ToLLMContext()
	if a != b {
		t.Error("ToLLMContext is not stable across repeated calls on the same graph")
	}
	if a == "" {
		t.Error("expected a non-empty prompt block")
	}
}
