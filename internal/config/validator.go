package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "analysis.max_workers")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// MaxWorkersLimit caps analysis.max_workers.
const MaxWorkersLimit = 64

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidDetailLevels returns the detail levels analyzers and generators accept.
func ValidDetailLevels() []string {
	return []string{analysis.DetailMinimal, analysis.DetailStandard, analysis.DetailComprehensive}
}

// ValidStoreBackends returns the supported artifact store backends.
func ValidStoreBackends() []string {
	return []string{"memory", "disk", "sqlite", "postgres", "s3"}
}

// ValidLLMProviders returns the supported model providers.
func ValidLLMProviders() []string {
	return []string{"auto", "gemini", "none"}
}

// ValidRuleTargets returns the assistant rule files that can be generated.
func ValidRuleTargets() []string {
	return []string{"claude", "agents", "cursor"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, c.validateAnalysis()...)
	errs = append(errs, c.validateReadme()...)
	errs = append(errs, c.validateAIRules()...)
	errs = append(errs, c.validateLLM()...)
	errs = append(errs, c.validateStore()...)
	errs = append(errs, c.validateLogging()...)
	return errs
}

func (c *Config) validateAnalysis() []ValidationError {
	var errs []ValidationError
	a := c.Analysis

	if a.MaxWorkers < 0 || a.MaxWorkers > MaxWorkersLimit {
		errs = append(errs, ValidationError{
			Field:   "analysis.max_workers",
			Value:   a.MaxWorkers,
			Message: fmt.Sprintf("must be between 0 (auto) and %d", MaxWorkersLimit),
		})
	}
	if a.TaskTimeout < 0 {
		errs = append(errs, ValidationError{Field: "analysis.task_timeout", Value: a.TaskTimeout, Message: "must be non-negative"})
	}
	if a.RunTimeout < 0 {
		errs = append(errs, ValidationError{Field: "analysis.run_timeout", Value: a.RunTimeout, Message: "must be non-negative"})
	}
	if a.Retries < 0 || a.Retries > 10 {
		errs = append(errs, ValidationError{Field: "analysis.retries", Value: a.Retries, Message: "must be between 0 and 10"})
	}
	if a.ExportDocs && a.DocsDir == "" {
		errs = append(errs, ValidationError{Field: "analysis.docs_dir", Value: a.DocsDir, Message: "required when export_docs is enabled"})
	}

	errs = append(errs, validateTaskConfig("analysis.defaults", a.Defaults)...)
	for _, name := range sortedKeys(a.Analyzers) {
		errs = append(errs, validateTaskConfig("analysis.analyzers."+name, a.Analyzers[name])...)
	}
	return errs
}

func validateTaskConfig(prefix string, tc analysis.TaskConfig) []ValidationError {
	var errs []ValidationError
	if tc.DetailLevel != "" && !slices.Contains(ValidDetailLevels(), tc.DetailLevel) {
		errs = append(errs, ValidationError{
			Field:   prefix + ".detail_level",
			Value:   tc.DetailLevel,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidDetailLevels(), ", ")),
		})
	}
	if tc.MaxTokens < 0 {
		errs = append(errs, ValidationError{Field: prefix + ".max_tokens", Value: tc.MaxTokens, Message: "must be non-negative"})
	}
	if tc.Temperature < 0 || tc.Temperature > 2 {
		errs = append(errs, ValidationError{Field: prefix + ".temperature", Value: tc.Temperature, Message: "must be between 0 and 2"})
	}
	if tc.Timeout < 0 {
		errs = append(errs, ValidationError{Field: prefix + ".timeout", Value: tc.Timeout, Message: "must be non-negative"})
	}
	return errs
}

func (c *Config) validateReadme() []ValidationError {
	var errs []ValidationError
	if c.Readme.Output == "" {
		errs = append(errs, ValidationError{Field: "readme.output", Value: c.Readme.Output, Message: "must not be empty"})
	}
	if c.Readme.Degraded != "note" && c.Readme.Degraded != "omit" {
		errs = append(errs, ValidationError{Field: "readme.degraded", Value: c.Readme.Degraded, Message: "must be one of: note, omit"})
	}
	return append(errs, validateTaskConfig("readme.writer", c.Readme.Writer)...)
}

func (c *Config) validateAIRules() []ValidationError {
	var errs []ValidationError
	r := c.AIRules

	if !slices.Contains(ValidDetailLevels(), r.DetailLevel) {
		errs = append(errs, ValidationError{
			Field:   "ai_rules.detail_level",
			Value:   r.DetailLevel,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidDetailLevels(), ", ")),
		})
	}
	for _, target := range r.Targets {
		if !slices.Contains(ValidRuleTargets(), target) {
			errs = append(errs, ValidationError{
				Field:   "ai_rules.targets",
				Value:   target,
				Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidRuleTargets(), ", ")),
			})
		}
	}
	if r.MaxClaudeLines < minClaudeLines || r.MaxClaudeLines > maxClaudeLines {
		errs = append(errs, ValidationError{
			Field:   "ai_rules.max_claude_lines",
			Value:   r.MaxClaudeLines,
			Message: fmt.Sprintf("must be between %d and %d", minClaudeLines, maxClaudeLines),
		})
	}
	if r.MaxAgentsLines < minAgentsLines || r.MaxAgentsLines > maxAgentsLines {
		errs = append(errs, ValidationError{
			Field:   "ai_rules.max_agents_lines",
			Value:   r.MaxAgentsLines,
			Message: fmt.Sprintf("must be between %d and %d", minAgentsLines, maxAgentsLines),
		})
	}
	return errs
}

// Line cap bounds for generated rule files.
const (
	minClaudeLines = 100
	maxClaudeLines = 2000
	minAgentsLines = 50
	maxAgentsLines = 500
)

func (c *Config) validateLLM() []ValidationError {
	var errs []ValidationError
	if !slices.Contains(ValidLLMProviders(), c.LLM.Provider) {
		errs = append(errs, ValidationError{
			Field:   "llm.provider",
			Value:   c.LLM.Provider,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLLMProviders(), ", ")),
		})
	}
	if c.LLM.Provider == "gemini" && c.LLM.APIKey == "" {
		errs = append(errs, ValidationError{Field: "llm.api_key", Value: "", Message: "required when llm.provider is gemini"})
	}
	if c.LLM.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{Field: "llm.requests_per_second", Value: c.LLM.RequestsPerSecond, Message: "must be non-negative"})
	}
	if c.LLM.MaxAttempts < 1 {
		errs = append(errs, ValidationError{Field: "llm.max_attempts", Value: c.LLM.MaxAttempts, Message: "must be at least 1"})
	}
	return errs
}

func (c *Config) validateStore() []ValidationError {
	var errs []ValidationError
	s := c.Store

	if !slices.Contains(ValidStoreBackends(), s.Backend) {
		return append(errs, ValidationError{
			Field:   "store.backend",
			Value:   s.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidStoreBackends(), ", ")),
		})
	}

	switch s.Backend {
	case "disk":
		if s.Dir == "" {
			errs = append(errs, ValidationError{Field: "store.dir", Value: s.Dir, Message: "required for the disk backend"})
		}
	case "sqlite":
		if s.SQLitePath == "" {
			errs = append(errs, ValidationError{Field: "store.sqlite_path", Value: s.SQLitePath, Message: "required for the sqlite backend"})
		}
	case "postgres":
		if s.PostgresDSN == "" {
			errs = append(errs, ValidationError{Field: "store.postgres_dsn", Value: "", Message: "required for the postgres backend"})
		}
	case "s3":
		if s.S3.Endpoint == "" {
			errs = append(errs, ValidationError{Field: "store.s3.endpoint", Value: "", Message: "required for the s3 backend"})
		}
		if s.S3.Bucket == "" {
			errs = append(errs, ValidationError{Field: "store.s3.bucket", Value: "", Message: "required for the s3 backend"})
		}
	}

	if s.Cache.Enabled && s.Cache.Size <= 0 {
		errs = append(errs, ValidationError{Field: "store.cache.size", Value: s.Cache.Size, Message: "must be positive when the cache is enabled"})
	}
	return errs
}

func (c *Config) validateLogging() []ValidationError {
	var errs []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	const maxLogSizeMB = 1000
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxSizeMB > maxLogSizeMB {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("must be between 0 and %d", maxLogSizeMB),
		})
	}
	if c.Logging.MaxBackups < 0 {
		errs = append(errs, ValidationError{Field: "logging.max_backups", Value: c.Logging.MaxBackups, Message: "must be non-negative"})
	}
	return errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
