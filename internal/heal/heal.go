// Package heal implements the self-healing permission-failure detector and
// sudo-escalation suggestion described in §4.7. It never retries a command
// itself; it only classifies a failed execution result and proposes a fix
// for the caller to accept or reject.
package heal

import (
	"runtime"
	"strings"

	"github.com/cmdai/cmdai/internal/executor"
)

// permissionStderrMarkers are matched as substrings against the lowercased
// stderr; any one of them qualifies, per §4.7.
var permissionStderrMarkers = []string{
	"permission denied",
	"operation not permitted",
	"access denied",
	"eacces",
}

// IsPermissionFailure reports whether result looks like a failure caused by
// insufficient privileges: exit code 1 or 126 AND a recognised stderr marker.
func IsPermissionFailure(result *executor.Result) bool {
	if result == nil {
		return false
	}
	if result.ExitCode != 1 && result.ExitCode != 126 {
		return false
	}
	lower := strings.ToLower(result.Stderr)
	for _, marker := range permissionStderrMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Suggestion is a proposed fix for a failed command, never applied
// automatically.
type Suggestion struct {
	Command     string
	Explanation string
}

// alreadySudo reports whether command already begins with a sudo invocation,
// ignoring leading whitespace.
func alreadySudo(command string) bool {
	trimmed := strings.TrimLeft(command, " \t")
	return strings.HasPrefix(trimmed, "sudo ") || strings.HasPrefix(trimmed, "sudo\t")
}

// Suggest proposes an escalated retry for a permission failure. It returns
// nil when no suggestion applies: the failure wasn't permission-related, the
// command already ran under sudo, or the platform is Windows (elevation
// there requires a different mechanism entirely).
func Suggest(result *executor.Result, originalCommand string) *Suggestion {
	if !IsPermissionFailure(result) {
		return nil
	}
	if runtime.GOOS == "windows" {
		return nil
	}
	if alreadySudo(originalCommand) {
		return nil
	}
	return &Suggestion{
		Command:     "sudo " + originalCommand,
		Explanation: "the command failed with a permission error; re-running it with sudo may succeed",
	}
}
