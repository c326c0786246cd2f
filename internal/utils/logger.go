package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// LoggerOptions configures InitLogger.
type LoggerOptions struct {
	Level           string
	Output          io.Writer
	Prefix          string
	ReportTimestamp bool
}

// InitLogger builds a charmbracelet/log logger from opts, defaulting to
// stderr and the info level.
func InitLogger(opts LoggerOptions) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	logger := log.NewWithOptions(out, log.Options{
		Level:           parseLevel(opts.Level),
		Prefix:          opts.Prefix,
		ReportTimestamp: opts.ReportTimestamp,
	})
	return logger
}

// parseLevel maps a case-insensitive level name to a log.Level, defaulting
// to InfoLevel for anything unrecognised.
func parseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// InitDefaultLogger builds the logger used for the lifetime of a single
// cmdai invocation, honoring CMDAI_LOG_LEVEL.
func InitDefaultLogger() *log.Logger {
	return InitLogger(LoggerOptions{
		Level:           os.Getenv("CMDAI_LOG_LEVEL"),
		ReportTimestamp: true,
	})
}

// InitRunLogger opens (creating if needed) a persistent debug log under the
// user's state directory, for diagnosing generation/self-healing behavior
// across invocations without a daemon process to hold the file open.
func InitRunLogger() (*log.Logger, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("utils: determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".local", "state", "cmdai")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("utils: create state directory: %w", err)
	}
	path := filepath.Join(dir, "run.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("utils: open run log: %w", err)
	}
	return InitLogger(LoggerOptions{
		Level:           os.Getenv("CMDAI_LOG_LEVEL"),
		Output:          f,
		ReportTimestamp: true,
	}), nil
}

// InitSessionLogger opens a per-invocation log file under
// "<projectDir>/.cmdai/logs/<timestamp>-<sessionID>.log", used when a caller wants a
// durable trace of one run's generation/validation/execution steps.
func InitSessionLogger(projectDir, sessionID string) (*log.Logger, error) {
	dir := filepath.Join(projectDir, ".cmdai", "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("utils: create log directory: %w", err)
	}
	name := fmt.Sprintf("%s-%s.log", time.Now().UTC().Format("20060102T150405Z"), sessionID)
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("utils: open session log: %w", err)
	}
	return InitLogger(LoggerOptions{
		Level:           os.Getenv("CMDAI_LOG_LEVEL"),
		Output:          f,
		Prefix:          sessionID,
		ReportTimestamp: true,
	}), nil
}

// defaultLogger is the package-level logger used by the Debug/Info/Warn/Error
// convenience wrappers.
var defaultLogger = InitDefaultLogger()

// GetDefaultLogger returns the current package-level default logger.
func GetDefaultLogger() *log.Logger { return defaultLogger }

// SetDefaultLogger replaces the package-level default logger, used by tests
// to capture output.
func SetDefaultLogger(l *log.Logger) { defaultLogger = l }

func Debug(msg string, kv ...any) { defaultLogger.Debug(msg, kv...) }
func Info(msg string, kv ...any)  { defaultLogger.Info(msg, kv...) }
func Warn(msg string, kv ...any)  { defaultLogger.Warn(msg, kv...) }
func Error(msg string, kv ...any) { defaultLogger.Error(msg, kv...) }

// With returns a derived logger with the given key/value pairs attached.
func With(kv ...any) *log.Logger { return defaultLogger.With(kv...) }

// WithPrefix returns a derived logger with prefix appended/set.
func WithPrefix(prefix string) *log.Logger { return defaultLogger.WithPrefix(prefix) }
