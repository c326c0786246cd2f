package learning

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImprovementKind classifies how a user's edit differs from the generated
// command, per §4.9.
type ImprovementKind string

const (
	ImprovementFlagAddition        ImprovementKind = "flag_addition"
	ImprovementPipeAddition        ImprovementKind = "pipe_addition"
	ImprovementRedirectionAddition ImprovementKind = "redirection_addition"
	ImprovementCommandAlternative  ImprovementKind = "command_alternative"
	ImprovementNone                ImprovementKind = ""
)

// knownAlternatives maps a generated command's first token to the modern
// tool a user edit is recognised as substituting in, per §4.9's examples.
var knownAlternatives = map[string]string{
	"find": "fd",
	"grep": "rg",
	"ls":   "exa",
	"cat":  "bat",
}

// ImprovementPattern is a classified (original, edited) pair with a running
// frequency counter, as mined across the learning log.
type ImprovementPattern struct {
	Kind      ImprovementKind
	Original  string
	Edited    string
	Frequency int
}

// ClassifyEdit implements §4.9's improvement-mining rule set. It returns
// ImprovementNone if original and edited are identical or the edit matches
// none of the recognised shapes.
func ClassifyEdit(original, edited string) ImprovementKind {
	original = strings.TrimSpace(original)
	edited = strings.TrimSpace(edited)
	if original == "" || edited == "" || original == edited {
		return ImprovementNone
	}

	originalFirstToken := firstField(original)
	editedFirstToken := firstField(edited)
	if editedFirstToken != "" && originalFirstToken != "" && editedFirstToken != originalFirstToken {
		if alt, ok := knownAlternatives[originalFirstToken]; ok && alt == editedFirstToken {
			return ImprovementCommandAlternative
		}
	}

	if strings.Contains(edited, "|") && !strings.Contains(original, "|") {
		return ImprovementPipeAddition
	}
	if (strings.Contains(edited, ">>") || strings.Contains(edited, ">")) &&
		!strings.Contains(original, ">>") && !strings.Contains(original, ">") {
		return ImprovementRedirectionAddition
	}
	if hasNewFlags(original, edited) {
		return ImprovementFlagAddition
	}
	return ImprovementNone
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// hasNewFlags reports whether edited's first command (the text before any
// pipe) introduces a flag token (starting with "-") not present in
// original's first command.
func hasNewFlags(original, edited string) bool {
	originalFlags := flagSet(firstCommand(original))
	for _, field := range strings.Fields(firstCommand(edited)) {
		if strings.HasPrefix(field, "-") && !originalFlags[field] {
			return true
		}
	}
	return false
}

func firstCommand(s string) string {
	if idx := strings.Index(s, "|"); idx != -1 {
		return s[:idx]
	}
	return s
}

func flagSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, field := range strings.Fields(s) {
		if strings.HasPrefix(field, "-") {
			set[field] = true
		}
	}
	return set
}

// MineImprovements scans every edited pattern in the store (final_command
// set and different from generated_command), counts each classified
// (original, edited) pair, and upserts the counts into improvement_patterns
// (§6's learning-store schema). Every call recounts from the full log and
// overwrites the stored frequency with that count. Kind is
// not a stored column — it is re-derived from (original_template,
// improvement_template) via ClassifyEdit, since it is a pure function of
// that pair and storing it would be redundant with the schema spec.
func (s *Store) MineImprovements() ([]ImprovementPattern, error) {
	patterns, err := s.allPrompts()
	if err != nil {
		return nil, err
	}

	type key struct {
		original string
		edited   string
	}
	counts := make(map[key]int)

	for _, p := range patterns {
		if p.FinalCommand == nil {
			continue
		}
		kind := ClassifyEdit(p.GeneratedCommand, *p.FinalCommand)
		if kind == ImprovementNone {
			continue
		}
		counts[key{p.GeneratedCommand, *p.FinalCommand}]++
	}

	out := make([]ImprovementPattern, 0, len(counts))
	for k, n := range counts {
		kind := ClassifyEdit(k.original, k.edited)
		if err := s.upsertImprovement(k.original, k.edited, n); err != nil {
			return nil, err
		}
		out = append(out, ImprovementPattern{Kind: kind, Original: k.original, Edited: k.edited, Frequency: n})
	}
	return out, nil
}

// upsertImprovement records or refreshes one mined improvement's frequency
// in improvement_patterns, keyed on the (original_template,
// improvement_template) pair.
func (s *Store) upsertImprovement(original, edited string, frequency int) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO improvement_patterns (id, original_template, improvement_template, frequency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(original_template, improvement_template)
		DO UPDATE SET frequency = excluded.frequency, updated_at = excluded.updated_at
	`, uuid.New().String(), original, edited, frequency, now, now)
	if err != nil {
		return fmt.Errorf("learning: upsert improvement pattern: %w", err)
	}
	return nil
}

// PersistedImprovements returns every improvement pattern previously written
// by MineImprovements, most recently updated first.
func (s *Store) PersistedImprovements() ([]ImprovementPattern, error) {
	rows, err := s.db.Query(`
		SELECT original_template, improvement_template, frequency
		FROM improvement_patterns ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("learning: query improvement patterns: %w", err)
	}
	defer rows.Close()

	var out []ImprovementPattern
	for rows.Next() {
		var original, edited string
		var frequency int
		if err := rows.Scan(&original, &edited, &frequency); err != nil {
			return nil, fmt.Errorf("learning: scan improvement pattern: %w", err)
		}
		out = append(out, ImprovementPattern{
			Kind:      ClassifyEdit(original, edited),
			Original:  original,
			Edited:    edited,
			Frequency: frequency,
		})
	}
	return out, rows.Err()
}
