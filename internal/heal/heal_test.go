package heal

import (
	"runtime"
	"testing"

	"github.com/cmdai/cmdai/internal/executor"
)

func TestIsPermissionFailure(t *testing.T) {
	tests := []struct {
		name   string
		result *executor.Result
		want   bool
	}{
		{"nil result", nil, false},
		{"exit 1 permission denied", &executor.Result{ExitCode: 1, Stderr: "bash: /etc/shadow: Permission denied"}, true},
		{"exit 126 access denied mixed case", &executor.Result{ExitCode: 126, Stderr: "Access Denied"}, true},
		{"exit 1 eacces", &executor.Result{ExitCode: 1, Stderr: "Error: EACCES: permission denied, open '/etc/x'"}, true},
		{"exit 1 unrelated stderr", &executor.Result{ExitCode: 1, Stderr: "file not found"}, false},
		{"exit 0 with matching text", &executor.Result{ExitCode: 0, Stderr: "permission denied"}, false},
		{"exit 2 not covered", &executor.Result{ExitCode: 2, Stderr: "permission denied"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsPermissionFailure(tc.result); got != tc.want {
				t.Errorf("IsPermissionFailure(%+v) = %v, want %v", tc.result, got, tc.want)
			}
		})
	}
}

func TestSuggest(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sudo escalation is never suggested on windows")
	}

	failure := &executor.Result{ExitCode: 1, Stderr: "permission denied"}

	s := Suggest(failure, "systemctl restart nginx")
	if s == nil {
		t.Fatal("expected a suggestion for a permission failure")
	}
	if s.Command != "sudo systemctl restart nginx" {
		t.Errorf("Command = %q, want %q", s.Command, "sudo systemctl restart nginx")
	}

	if Suggest(failure, "  sudo systemctl restart nginx") != nil {
		t.Error("expected no suggestion when the command already begins with sudo")
	}

	success := &executor.Result{ExitCode: 0}
	if Suggest(success, "ls") != nil {
		t.Error("expected no suggestion for a successful result")
	}
}

func TestSuggestNoneOnWindows(t *testing.T) {
	if runtime.GOOS != "windows" {
		t.Skip("only meaningful on windows")
	}
	failure := &executor.Result{ExitCode: 1, Stderr: "access denied"}
	if Suggest(failure, "whoami") != nil {
		t.Error("expected no sudo suggestion on windows")
	}
}
