package context

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// HistoryInfo is the history analyzer's result, per §4.4.
type HistoryInfo struct {
	TopCommands []string
	Patterns    []string
}

const historyTopN = 10

// historyFiles are checked in priority order; the first that exists is
// used, per §4.4.
var historyFiles = []string{
	".bash_history",
	".zsh_history",
	filepath.Join(".local", "share", "fish", "fish_history"),
}

// sensitiveTokenSubstrings filters out any history token that could leak a
// credential, per §4.4.
var sensitiveTokenSubstrings = []string{
	"password", "passwd", "secret", "token", "key", "api_key", "credential",
}

// fishHistoryCmdLine matches fish_history's "- cmd: <command>" entries.
var fishHistoryCmdLine = regexp.MustCompile(`^- cmd:\s*(.+)$`)

// analyzeHistory reads the first available shell history file and computes
// base-command frequency plus behavioral pattern flags.
func analyzeHistory() (HistoryInfo, string) {
	home, err := os.UserHomeDir()
	if err != nil {
		return HistoryInfo{}, "history analyzer: " + err.Error()
	}

	var lines []string
	for _, rel := range historyFiles {
		path := filepath.Join(home, rel)
		data, err := readLines(path)
		if err != nil {
			continue
		}
		lines = data
		break
	}
	if lines == nil {
		return HistoryInfo{}, ""
	}

	commands := extractCommands(lines)
	return buildHistoryInfo(commands), ""
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// extractCommands normalises raw history lines from any of the three
// supported formats into plain command strings.
func extractCommands(lines []string) []string {
	var commands []string
	for _, line := range lines {
		if m := fishHistoryCmdLine.FindStringSubmatch(line); m != nil {
			commands = append(commands, m[1])
			continue
		}
		// zsh extended history: ": <ts>:<dur>;<command>"
		if strings.HasPrefix(line, ": ") {
			if idx := strings.Index(line, ";"); idx != -1 {
				commands = append(commands, line[idx+1:])
				continue
			}
		}
		if strings.TrimSpace(line) != "" {
			commands = append(commands, line)
		}
	}
	return commands
}

func buildHistoryInfo(commands []string) HistoryInfo {
	freq := make(map[string]int)
	var usesGit, usesVerbose, usesColor, usesDocker bool

	for _, cmd := range commands {
		base := firstToken(cmd)
		if base == "" || containsSensitiveToken(cmd) {
			continue
		}
		freq[base]++

		switch base {
		case "git":
			usesGit = true
		case "docker":
			usesDocker = true
		}
		if strings.Contains(cmd, "--verbose") || strings.Contains(cmd, " -v") {
			usesVerbose = true
		}
		if strings.Contains(cmd, "--color") {
			usesColor = true
		}
	}

	type count struct {
		name string
		n    int
	}
	var counts []count
	for name, n := range freq {
		counts = append(counts, count{name, n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].n != counts[j].n {
			return counts[i].n > counts[j].n
		}
		return counts[i].name < counts[j].name
	})

	var top []string
	for i := 0; i < len(counts) && i < historyTopN; i++ {
		top = append(top, counts[i].name)
	}

	var patterns []string
	if usesGit {
		patterns = append(patterns, "frequent git user")
	}
	if usesVerbose {
		patterns = append(patterns, "uses verbose output")
	}
	if usesColor {
		patterns = append(patterns, "uses color")
	}
	if usesDocker {
		patterns = append(patterns, "uses docker")
	}

	return HistoryInfo{TopCommands: top, Patterns: patterns}
}

func firstToken(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func containsSensitiveToken(cmd string) bool {
	lower := strings.ToLower(cmd)
	for _, substr := range sensitiveTokenSubstrings {
		if strings.Contains(lower, substr) {
			return true
		}
	}
	return false
}
