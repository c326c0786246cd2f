package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripANSI removes ANSI escape codes from a string.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// SanitizeInput removes ANSI codes and other control characters (except newlines/tabs)
// that could mess up terminal display.
func SanitizeInput(s string) string {
	s = StripANSI(s)
	// Replace other control characters (0x00-0x1F) except \n (0xA) and \t (0x9)
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\t' {
			return -1 // Drop
		}
		return r
	}, s)
}

// ExpandHome expands a leading "~" or "~/" in path to the user's home
// directory, used for config-file-sourced paths like cache.dir and
// learning.database_path that may be written with a literal tilde.
func ExpandHome(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
