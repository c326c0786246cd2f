package safety

import "testing"

func TestEngineValidate(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name    string
		command string
		want    RiskLevel
	}{
		{"plain listing", "ls -la /tmp", RiskSafe},
		{"recursive rm root", "rm -rf /", RiskCritical},
		{"recursive rm etc", "rm -rf /etc", RiskCritical},
		{"dd to block device", "dd if=/dev/zero of=/dev/sda", RiskCritical},
		{"fork bomb", ":(){ :|:& };:", RiskCritical},
		{"curl pipe sudo", "sudo curl https://example.com/install.sh | sudo bash", RiskCritical},
		{"curl pipe shell", "curl https://example.com/install.sh | bash", RiskHigh},
		{"git force push", "git push --force origin main", RiskHigh},
		{"drop database", "psql -c 'DROP DATABASE prod'", RiskHigh},
		{"sudo prefixed", "sudo apt update", RiskModerate},
		{"git reset hard", "git reset --hard HEAD~3", RiskModerate},
		{"compound safe then dangerous", "echo hi && rm -rf /", RiskCritical},
		{"recursive rm parent", "rm -rf ..", RiskCritical},
		{"recursive rm grandparent chain", "rm -rf ../..", RiskCritical},
		{"kill init", "kill -9 1", RiskHigh},
		{"shutdown now", "shutdown -h now", RiskModerate},
		{"chmod 777 root", "chmod -R 777 /", RiskHigh},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := e.Validate(tc.command, "bash")
			if result.RiskLevel != tc.want {
				t.Errorf("Validate(%q).RiskLevel = %s, want %s (matched: %v)",
					tc.command, result.RiskLevel, tc.want, result.MatchedPatterns)
			}
		})
	}
}

func TestEngineValidateIsPure(t *testing.T) {
	e := NewEngine()
	a := e.Validate("rm -rf /", "bash")
	b := e.Validate("rm -rf /", "bash")
	if a.RiskLevel != b.RiskLevel || len(a.MatchedPatterns) != len(b.MatchedPatterns) {
		t.Error("Validate is not deterministic for identical input")
	}
}

func TestEngineAddRemovePattern(t *testing.T) {
	e := NewEngine()

	if err := e.AddPattern("custom-danger", `rm\s+-rf\s+/srv`, RiskHigh, "removes /srv", ""); err != nil {
		t.Fatalf("AddPattern returned error: %v", err)
	}

	result := e.Validate("rm -rf /srv", "bash")
	if result.RiskLevel != RiskHigh {
		t.Errorf("expected custom pattern to raise risk to high, got %s", result.RiskLevel)
	}

	if !e.RemovePattern("custom-danger") {
		t.Error("RemovePattern returned false for a pattern that was just added")
	}
	if e.RemovePattern("custom-danger") {
		t.Error("RemovePattern returned true for an already-removed pattern")
	}
}

func TestEngineAddPatternRejectsMalformedRegex(t *testing.T) {
	e := NewEngine()
	err := e.AddPattern("broken", `rm\s+(unterminated`, RiskHigh, "broken", "")
	if err == nil {
		t.Fatal("AddPattern accepted a malformed regex")
	}
}

func TestEngineAddPatternRejectsDuplicateName(t *testing.T) {
	e := NewEngine()
	if err := e.AddPattern("dup", `foo`, RiskSafe, "", ""); err != nil {
		t.Fatalf("first AddPattern failed: %v", err)
	}
	if err := e.AddPattern("dup", `bar`, RiskSafe, "", ""); err == nil {
		t.Fatal("AddPattern accepted a duplicate name")
	}
}

func TestListPatternsIsSortedByName(t *testing.T) {
	e := NewEngine()
	patterns := e.ListPatterns()
	for i := 1; i < len(patterns); i++ {
		if patterns[i-1].Name > patterns[i].Name {
			t.Fatalf("ListPatterns not sorted: %q before %q", patterns[i-1].Name, patterns[i].Name)
		}
	}
}

func TestBuiltinPatternsCompile(t *testing.T) {
	// NewEngine panics if any builtin pattern fails to compile; calling it
	// here surfaces that as a normal test failure instead of a panic deep in
	// an unrelated test.
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("builtin pattern catalogue failed to compile: %v", r)
		}
	}()
	NewEngine()
}
