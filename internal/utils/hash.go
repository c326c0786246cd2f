package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// CommandHash returns a deterministic hex SHA-256 digest of a generated
// command's identifying inputs: the raw text, cwd, shell and argv, joined
// with zero-byte separators.
func CommandHash(raw, cwd, shell string, argv []string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	h.Write([]byte{0})
	h.Write([]byte(cwd))
	h.Write([]byte{0})
	h.Write([]byte(shell))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(argv, "\x00")))
	return hex.EncodeToString(h.Sum(nil))
}
