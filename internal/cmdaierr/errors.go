// Package cmdaierr defines the error taxonomy shared across cmdai's core
// subsystems so callers can branch on error kind instead of parsing messages.
package cmdaierr

import (
	"errors"
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"
)

// Kind classifies an error into one of the taxonomy buckets from the spec.
type Kind string

const (
	KindInvalidArgument   Kind = "invalid_argument"
	KindConfiguration     Kind = "configuration_error"
	KindGenerationFailed  Kind = "generation_failed"
	KindBlocked           Kind = "blocked"
	KindExecutionFailed   Kind = "execution_failed"
	KindPermissionDenied  Kind = "permission_denied"
	KindTimeout           Kind = "timeout"
	KindChecksumMismatch  Kind = "checksum_mismatch"
	KindDownloadFailed    Kind = "download_failed"
	KindNotFound          Kind = "not_found"
)

// Error is a taxonomised, user-facing error: one line message plus an
// actionable suggestion.
type Error struct {
	Kind       Kind
	Message    string
	Suggestion string
	Err        error
}

func (e *Error) Error() string {
	if e.Suggestion == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Suggestion)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, cmdaierr.ErrBlocked) style matching against a
// sentinel kind marker, by comparing the Kind field on both sides.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds a taxonomised error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a taxonomised error wrapping a lower-level cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithSuggestion attaches an actionable suggestion and returns the receiver
// for chaining.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// Sentinel marker used only for errors.Is comparisons against a bare kind.
func sentinel(k Kind) *Error { return &Error{Kind: k} }

var (
	// ErrInvalidArgument is the comparable sentinel for KindInvalidArgument.
	ErrInvalidArgument = sentinel(KindInvalidArgument)
	ErrConfiguration   = sentinel(KindConfiguration)
	ErrGenerationFailed = sentinel(KindGenerationFailed)
	ErrBlocked         = sentinel(KindBlocked)
	ErrExecutionFailed = sentinel(KindExecutionFailed)
	ErrPermissionDenied = sentinel(KindPermissionDenied)
	ErrTimeout         = sentinel(KindTimeout)
	ErrChecksumMismatch = sentinel(KindChecksumMismatch)
	ErrDownloadFailed  = sentinel(KindDownloadFailed)
	ErrNotFound        = sentinel(KindNotFound)
)

// NearestSuggestion returns the candidate from valid that is within
// maxDistance Levenshtein edits of value, or "" if none qualifies. Used to
// turn an invalid enum string (e.g. a bad --safety-policy value) into an
// actionable suggestion per spec.md §7.
func NearestSuggestion(value string, valid []string, maxDistance int) string {
	best := ""
	bestDist := maxDistance + 1
	sorted := append([]string(nil), valid...)
	sort.Strings(sorted)
	for _, candidate := range sorted {
		d := levenshtein.ComputeDistance(value, candidate)
		if d < bestDist {
			bestDist = d
			best = candidate
		}
	}
	if bestDist > maxDistance {
		return ""
	}
	return best
}

// InvalidEnum builds a KindInvalidArgument error for a bad enum value,
// including a nearest-neighbour suggestion when one exists within distance 2.
func InvalidEnum(field, value string, valid []string) *Error {
	msg := fmt.Sprintf("invalid %s %q: must be one of %v", field, value, valid)
	e := New(KindInvalidArgument, msg)
	if s := NearestSuggestion(value, valid, 2); s != "" {
		e.WithSuggestion(fmt.Sprintf("did you mean %q?", s))
	} else {
		e.WithSuggestion(fmt.Sprintf("valid values: %v", valid))
	}
	return e
}
