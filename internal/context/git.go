package context

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// GitInfo is the git analyzer's result, per §4.4.
type GitInfo struct {
	IsRepo            bool
	Branch            string
	StagedCount       int
	UnstagedCount     int
	Ahead             int
	Behind            int
	LastCommitSubject string
	HasUntracked      bool
}

// runGit invokes git in repoPath and returns trimmed stdout, grounded on the
// teacher's internal/git runGit plumbing (single subprocess, stderr folded
// into the returned error).
func runGit(repoPath string, args ...string) (string, error) {
	if repoPath == "" {
		return "", fmt.Errorf("context: empty repo path")
	}
	cmd := exec.Command("git", args...)
	cmd.Dir = repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// analyzeGit reports the git state of cwd. If git is not on PATH or cwd is
// not a repository, it returns a not-a-repo result with no error: that is a
// normal, non-degraded outcome per §4.4, not an analyzer failure.
func analyzeGit(cwd string) (GitInfo, string) {
	if _, err := exec.LookPath("git"); err != nil {
		return GitInfo{}, ""
	}
	if _, err := runGit(cwd, "rev-parse", "--is-inside-work-tree"); err != nil {
		return GitInfo{}, ""
	}

	info := GitInfo{IsRepo: true}

	if branch, err := runGit(cwd, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		info.Branch = branch
	}

	if subject, err := runGit(cwd, "log", "-1", "--pretty=%s"); err == nil {
		info.LastCommitSubject = subject
	}

	if status, err := runGit(cwd, "status", "--porcelain"); err == nil {
		staged, unstaged, untracked := parsePorcelainStatus(status)
		info.StagedCount = staged
		info.UnstagedCount = unstaged
		info.HasUntracked = untracked
	}

	if counts, err := runGit(cwd, "rev-list", "--left-right", "--count", "HEAD...@{upstream}"); err == nil {
		ahead, behind := parseAheadBehind(counts)
		info.Ahead = ahead
		info.Behind = behind
	}

	return info, ""
}

// parsePorcelainStatus counts staged, unstaged, and untracked entries from
// `git status --porcelain` output. Each line's first two columns are the
// index and worktree status; '?' in both marks an untracked file.
func parsePorcelainStatus(output string) (staged, unstaged int, untracked bool) {
	for _, line := range strings.Split(output, "\n") {
		if len(line) < 2 {
			continue
		}
		indexStatus, worktreeStatus := line[0], line[1]
		switch {
		case indexStatus == '?' && worktreeStatus == '?':
			untracked = true
		default:
			if indexStatus != ' ' {
				staged++
			}
			if worktreeStatus != ' ' {
				unstaged++
			}
		}
	}
	return staged, unstaged, untracked
}

// parseAheadBehind parses `git rev-list --left-right --count` output of the
// form "<ahead>\t<behind>".
func parseAheadBehind(output string) (ahead, behind int) {
	fields := strings.Fields(output)
	if len(fields) != 2 {
		return 0, 0
	}
	ahead, _ = strconv.Atoi(fields[0])
	behind, _ = strconv.Atoi(fields[1])
	return ahead, behind
}
