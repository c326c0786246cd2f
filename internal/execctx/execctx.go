// Package execctx captures a synchronous snapshot of the environment a
// generated command would run in: working directory, shell, platform,
// identity, and a filtered view of the process environment safe to embed in
// an LLM prompt or a learning-store record.
package execctx

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
)

// Platform is the normalised operating system family.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformMacOS   Platform = "macos"
	PlatformWindows Platform = "windows"
	PlatformOther   Platform = "other"
)

func currentPlatform() Platform {
	switch runtime.GOOS {
	case "linux":
		return PlatformLinux
	case "darwin":
		return PlatformMacOS
	case "windows":
		return PlatformWindows
	default:
		return PlatformOther
	}
}

// sensitiveSubstrings disqualifies an env var regardless of the allow-list,
// matched case-insensitively against the variable name.
var sensitiveSubstrings = []string{
	"KEY", "SECRET", "TOKEN", "PASSWORD", "CREDENTIAL", "PRIVATE", "AWS_", "API_",
}

// allowedPrefixes is the only set of env var name prefixes that may appear
// in a Snapshot, after the sensitive-substring check passes.
var allowedPrefixes = []string{
	"PATH", "HOME", "USER", "SHELL", "TERM", "LANG", "LC_", "NODE_", "CARGO_",
	"GOPATH", "PYTHONPATH", "VIRTUAL_ENV", "EDITOR", "VISUAL", "PAGER",
}

const maxEnvValueLen = 100

// Snapshot is a point-in-time capture of the execution environment.
type Snapshot struct {
	Cwd         string
	Shell       string
	Platform    Platform
	Username    string
	Hostname    string
	Environment map[string]string
	CapturedAt  time.Time
}

// Capture builds a Snapshot from the current process state. Failure to
// determine the working directory is fatal and returned as an error;
// failure to determine username or hostname degrades to the literal
// "unknown" rather than failing the whole capture, per §4.5.
func Capture() (*Snapshot, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("execctx: determine working directory: %w", err)
	}

	return &Snapshot{
		Cwd:         cwd,
		Shell:       detectShell(),
		Platform:    currentPlatform(),
		Username:    detectUsername(),
		Hostname:    detectHostname(),
		Environment: filteredEnvironment(os.Environ()),
		CapturedAt:  time.Now(),
	}, nil
}

func detectShell() string {
	if runtime.GOOS == "windows" {
		if _, ok := os.LookupEnv("PSModulePath"); ok {
			return "powershell"
		}
		return "cmd"
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		parts := strings.Split(shell, "/")
		return parts[len(parts)-1]
	}
	return "sh"
}

func detectUsername() string {
	for _, key := range []string{"USER", "USERNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "unknown"
}

func detectHostname() string {
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	for _, key := range []string{"HOSTNAME", "COMPUTERNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "unknown"
}

// filteredEnvironment applies the sensitive-substring exclusion and
// allow-list-prefix rules of §3 to a raw os.Environ()-style slice.
func filteredEnvironment(raw []string) map[string]string {
	out := make(map[string]string)
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if isSensitive(name) || !hasAllowedPrefix(name) {
			continue
		}
		if len(value) > maxEnvValueLen {
			value = value[:maxEnvValueLen]
		}
		out[name] = value
	}
	return out
}

func isSensitive(name string) bool {
	upper := strings.ToUpper(name)
	for _, substr := range sensitiveSubstrings {
		if strings.Contains(upper, substr) {
			return true
		}
	}
	return false
}

func hasAllowedPrefix(name string) bool {
	upper := strings.ToUpper(name)
	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}
