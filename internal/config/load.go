package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// LoadOptions controls where Load looks for configuration beyond the
// built-in defaults and the environment.
type LoadOptions struct {
	// ProjectDir is the project root to check for a project config file.
	// Empty means the current working directory.
	ProjectDir string
	// ProjectConfigPath, if set, overrides the computed project config path.
	ProjectConfigPath string
	// FlagOverrides are CLI-flag-sourced values, applied last and so taking
	// precedence over everything else. Keys use the same dotted form as
	// GetValue/WriteValue (e.g. "general.safety_policy").
	FlagOverrides map[string]any
}

const envPrefix = "CMDAI"

// ConfigPaths returns the user and project config file paths for a given
// project directory and optional project-path override.
func ConfigPaths(projectDir, projectConfigOverride string) (userPath, projectPath string) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	userPath = filepath.Join(home, ".cmdai", "config.toml")
	projectPath = projectConfigPath(projectDir, projectConfigOverride)
	return userPath, projectPath
}

// projectConfigPath resolves the project config file path: the override if
// given, else "<projectDir>/.cmdai/config.toml" (relative if projectDir is
// empty, so callers resolve it against the real cwd themselves).
func projectConfigPath(projectDir, override string) string {
	if override != "" {
		return override
	}
	return filepath.Join(projectDir, ".cmdai", "config.toml")
}

// Load builds the effective Config by layering, in increasing precedence:
// built-in defaults, the user config file, the project config file,
// CMDAI_-prefixed environment variables, and opts.FlagOverrides.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	projectDir := opts.ProjectDir
	if projectDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("config: determine working directory: %w", err)
		}
		projectDir = cwd
	}

	userPath, projectPath := ConfigPaths(projectDir, opts.ProjectConfigPath)

	if err := mergeConfigFile(v, userPath); err != nil {
		return nil, fmt.Errorf("config: user config: %w", err)
	}
	if err := mergeConfigFile(v, projectPath); err != nil {
		return nil, fmt.Errorf("config: project config: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range boundEnvKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: bind env for %q: %w", key, err)
		}
	}
	if err := applyEnvTypeOverrides(v); err != nil {
		return nil, err
	}

	for key, value := range opts.FlagOverrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// boundEnvKeys lists every dotted config key that AutomaticEnv should bind
// to its CMDAI_-prefixed, underscore-joined environment variable.
var boundEnvKeys = []string{
	"general.safety_policy", "general.default_shell", "general.request_timeout_secs",
	"general.self_healing_enabled", "general.execution_timeout_secs",
	"backend.preference", "backend.anthropic_api_key", "backend.anthropic_model",
	"backend.openai_api_key", "backend.openai_model", "backend.ollama_base_url",
	"backend.ollama_model", "backend.vllm_base_url", "backend.vllm_model",
	"backend.exo_base_url", "backend.exo_model",
	"cache.dir", "cache.max_size_bytes", "cache.download_host_url",
	"context.timeout_ms", "context.enable_project", "context.enable_git",
	"context.enable_infrastructure", "context.enable_history",
	"learning.enabled", "learning.database_path",
}

// applyEnvTypeOverrides re-parses integer and boolean env-sourced string
// values so viper.Unmarshal doesn't choke on the string/int mismatch that
// AutomaticEnv's raw string values would otherwise produce; it mirrors the
// teacher's "flags are parsed strings; everything else viper decodes
// natively" approach by surfacing a parse error for malformed values
// instead of silently falling back to the default.
func applyEnvTypeOverrides(v *viper.Viper) error {
	intKeys := []string{
		"general.request_timeout_secs", "general.execution_timeout_secs",
		"cache.max_size_bytes", "context.timeout_ms",
	}
	boolKeys := []string{
		"general.self_healing_enabled", "context.enable_project", "context.enable_git",
		"context.enable_infrastructure", "context.enable_history", "learning.enabled",
	}

	for _, key := range intKeys {
		envVar := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		raw, ok := os.LookupEnv(envVar)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("config: env %s: invalid integer %q: %w", envVar, raw, err)
		}
		v.Set(key, n)
	}
	for _, key := range boolKeys {
		envVar := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		raw, ok := os.LookupEnv(envVar)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("config: env %s: invalid boolean %q: %w", envVar, raw, err)
		}
		v.Set(key, b)
	}
	return nil
}

// mergeConfigFile merges a TOML config file into v. An empty path or a
// missing file is a silent no-op; any other error (unreadable, a directory,
// invalid TOML) is returned.
func mergeConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a config file", path)
	}

	fileViper := viper.New()
	fileViper.SetConfigFile(path)
	fileViper.SetConfigType("toml")
	if err := fileViper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return v.MergeConfigMap(fileViper.AllSettings())
}

// setDefaults seeds v with DefaultConfig's values so Load can overlay files,
// env, and flags on top without needing a separate "was this key ever set"
// tracking mechanism.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("general.safety_policy", d.General.SafetyPolicy)
	v.SetDefault("general.default_shell", d.General.DefaultShell)
	v.SetDefault("general.request_timeout_secs", d.General.RequestTimeoutSecs)
	v.SetDefault("general.self_healing_enabled", d.General.SelfHealingEnabled)
	v.SetDefault("general.execution_timeout_secs", d.General.ExecutionTimeoutSecs)

	v.SetDefault("backend.preference", d.Backend.Preference)
	v.SetDefault("backend.anthropic_api_key", d.Backend.AnthropicAPIKey)
	v.SetDefault("backend.anthropic_model", d.Backend.AnthropicModel)
	v.SetDefault("backend.openai_api_key", d.Backend.OpenAIAPIKey)
	v.SetDefault("backend.openai_model", d.Backend.OpenAIModel)
	v.SetDefault("backend.ollama_base_url", d.Backend.OllamaBaseURL)
	v.SetDefault("backend.ollama_model", d.Backend.OllamaModel)
	v.SetDefault("backend.vllm_base_url", d.Backend.VLLMBaseURL)
	v.SetDefault("backend.vllm_model", d.Backend.VLLMModel)
	v.SetDefault("backend.exo_base_url", d.Backend.ExoBaseURL)
	v.SetDefault("backend.exo_model", d.Backend.ExoModel)

	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.max_size_bytes", d.Cache.MaxSizeBytes)
	v.SetDefault("cache.download_host_url", d.Cache.DownloadHostURL)

	v.SetDefault("context.timeout_ms", d.Context.TimeoutMS)
	v.SetDefault("context.enable_project", d.Context.EnableProject)
	v.SetDefault("context.enable_git", d.Context.EnableGit)
	v.SetDefault("context.enable_infrastructure", d.Context.EnableInfrastructure)
	v.SetDefault("context.enable_history", d.Context.EnableHistory)

	v.SetDefault("learning.enabled", d.Learning.Enabled)
	v.SetDefault("learning.database_path", d.Learning.DatabasePath)
}
