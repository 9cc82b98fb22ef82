package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/logging"
)

// Config represents the complete aidocgen configuration.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Readme   ReadmeConfig   `mapstructure:"readme"`
	AIRules  AIRulesConfig  `mapstructure:"ai_rules"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AnalysisConfig controls the analysis stage.
type AnalysisConfig struct {
	// MaxWorkers bounds concurrent analyzers. 0 picks the CPU count.
	MaxWorkers int `mapstructure:"max_workers"`
	// TaskTimeout is the per-analyzer latency budget unless an analyzer overrides it.
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
	// RunTimeout bounds the whole run. 0 disables it.
	RunTimeout time.Duration `mapstructure:"run_timeout"`
	// Retries re-executes retriable failures this many times before the report is built.
	Retries int `mapstructure:"retries"`
	// RetryBackoff is the wait before each retry round.
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	// Exclude lists analyzers that should not run.
	Exclude []string `mapstructure:"exclude"`
	// Ignore holds glob patterns (relative to the repo root) analyzers skip.
	Ignore []string `mapstructure:"ignore"`
	// ExportDocs writes each successful artifact to DocsDir as Markdown.
	ExportDocs bool `mapstructure:"export_docs"`
	// DocsDir is relative to the repository root.
	DocsDir string `mapstructure:"docs_dir"`
	// Defaults apply to every analyzer.
	Defaults analysis.TaskConfig `mapstructure:"defaults"`
	// Analyzers holds per-analyzer overrides keyed by analyzer ID.
	Analyzers map[string]analysis.TaskConfig `mapstructure:"analyzers"`
}

// ReadmeConfig controls README generation.
type ReadmeConfig struct {
	// Output is the README path relative to the repository root.
	Output string `mapstructure:"output"`
	// UseExisting keeps hand-written content outside the generated block.
	UseExisting bool `mapstructure:"use_existing_readme"`
	// ExcludeSections lists section keys to leave out.
	ExcludeSections []string `mapstructure:"exclude_sections"`
	// Degraded is "note" (render a placeholder) or "omit" (drop the section)
	// when a section's analyzers have no artifact.
	Degraded string `mapstructure:"degraded"`
	// Writer configures the optional model call that drafts the overview.
	Writer analysis.TaskConfig `mapstructure:"writer"`
}

// AIRulesConfig controls generation of assistant rule files.
type AIRulesConfig struct {
	// DetailLevel is one of minimal, standard, comprehensive.
	DetailLevel string `mapstructure:"detail_level"`
	// Targets selects which files to produce: claude, agents, cursor.
	Targets []string `mapstructure:"targets"`
	// MaxClaudeLines truncates CLAUDE.md.
	MaxClaudeLines int `mapstructure:"max_claude_lines"`
	// MaxAgentsLines truncates AGENTS.md.
	MaxAgentsLines int `mapstructure:"max_agents_lines"`
	// SkipExisting leaves files that already exist untouched.
	SkipExisting bool `mapstructure:"skip_existing"`
}

// LLMConfig selects the model provider used by LLM-backed analyzers.
type LLMConfig struct {
	// Provider is "auto", "gemini" or "none". Auto uses gemini when an API key is set.
	Provider string `mapstructure:"provider"`
	// APIKey falls back to GEMINI_API_KEY and GOOGLE_API_KEY.
	APIKey string `mapstructure:"api_key"`
	// Model is the default model for analyzers that do not set one.
	Model string `mapstructure:"model"`
	// RequestsPerSecond throttles calls across all analyzers. 0 disables throttling.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	// MaxAttempts bounds per-call retries inside the client.
	MaxAttempts int `mapstructure:"max_attempts"`
}

// StoreConfig selects and configures the artifact store backend.
type StoreConfig struct {
	// Backend is one of memory, disk, sqlite, postgres, s3.
	Backend string `mapstructure:"backend"`
	// Dir is the disk backend root, relative to the repository root.
	Dir string `mapstructure:"dir"`
	// SQLitePath is relative to the repository root.
	SQLitePath  string      `mapstructure:"sqlite_path"`
	PostgresDSN string      `mapstructure:"postgres_dsn"`
	S3          S3Config    `mapstructure:"s3"`
	Cache       CacheConfig `mapstructure:"cache"`
}

// S3Config configures an S3-compatible object store.
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// CacheConfig configures the read-through cache in front of remote backends.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Size    int           `mapstructure:"size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// ServerConfig configures `aidocgen serve`.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// WatchConfig configures `aidocgen watch`.
type WatchConfig struct {
	// Interval triggers a run periodically. 0 disables periodic runs.
	Interval time.Duration `mapstructure:"interval"`
	// Debounce coalesces bursts of file changes into one run.
	Debounce time.Duration `mapstructure:"debounce"`
	// Generate also regenerates README and rules after each run.
	Generate bool `mapstructure:"generate"`
}

// LoggingConfig controls debug logging behavior.
type LoggingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Level   string `mapstructure:"level"`
	// Dir is relative to the repository root; one subdirectory is created per day.
	Dir        string `mapstructure:"dir"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	// Console mirrors warnings and errors to stderr.
	Console bool `mapstructure:"console"`
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			MaxWorkers:   0,
			TaskTimeout:  10 * time.Minute,
			RunTimeout:   0,
			Retries:      0,
			RetryBackoff: 2 * time.Second,
			Exclude:      []string{},
			Ignore: []string{
				".git/**", ".ai/**", "node_modules/**", "vendor/**",
				"dist/**", "build/**", "**/__pycache__/**", ".venv/**",
			},
			ExportDocs: true,
			DocsDir:    filepath.Join(".ai", "docs"),
			Defaults: analysis.TaskConfig{
				DetailLevel: analysis.DetailStandard,
				MaxTokens:   8192,
				Temperature: 0.0,
			},
			Analyzers: map[string]analysis.TaskConfig{},
		},
		Readme: ReadmeConfig{
			Output:          "README.md",
			UseExisting:     false,
			ExcludeSections: []string{},
			Degraded:        "note",
			Writer: analysis.TaskConfig{
				MaxTokens:   4096,
				Temperature: 0.2,
			},
		},
		AIRules: AIRulesConfig{
			DetailLevel:    analysis.DetailStandard,
			Targets:        []string{"claude", "agents", "cursor"},
			MaxClaudeLines: 500,
			MaxAgentsLines: 150,
			SkipExisting:   true,
		},
		LLM: LLMConfig{
			Provider:          "auto",
			Model:             "gemini-2.5-flash",
			RequestsPerSecond: 1,
			MaxAttempts:       3,
		},
		Store: StoreConfig{
			Backend:    "disk",
			Dir:        filepath.Join(".ai", "store"),
			SQLitePath: filepath.Join(".ai", "aidocgen.db"),
			S3: S3Config{
				Bucket: "aidocgen",
				UseSSL: true,
			},
			Cache: CacheConfig{
				Enabled: false,
				Size:    512,
				TTL:     5 * time.Minute,
			},
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Watch: WatchConfig{
			Interval: 0,
			Debounce: 2 * time.Second,
			Generate: false,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        filepath.Join(".ai", "logs"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			Console:    true,
		},
	}
}

// TaskConfig resolves the configuration for one analyzer: built-in defaults,
// then analysis.defaults, then analysis.analyzers.<id>. The LLM model is
// filled from llm.model when nothing more specific sets it.
func (c *Config) TaskConfig(id analysis.AnalyzerID) analysis.TaskConfig {
	tc := Default().Analysis.Defaults.Merge(c.Analysis.Defaults)
	if override, ok := c.Analysis.Analyzers[string(id)]; ok {
		tc = tc.Merge(override)
	}
	if tc.Model == "" {
		tc.Model = c.LLM.Model
	}
	return tc
}

// TaskConfigs resolves configurations for every id.
func (c *Config) TaskConfigs(ids []analysis.AnalyzerID) map[analysis.AnalyzerID]analysis.TaskConfig {
	out := make(map[analysis.AnalyzerID]analysis.TaskConfig, len(ids))
	for _, id := range ids {
		out[id] = c.TaskConfig(id)
	}
	return out
}

// RotationConfig returns the log rotation settings.
func (c *LoggingConfig) RotationConfig() logging.RotationConfig {
	return logging.RotationConfig{MaxSizeMB: c.MaxSizeMB, MaxBackups: c.MaxBackups}
}

// ResolvePath joins p onto root unless it is already absolute.
func ResolvePath(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "aidocgen")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aidocgen"
	}
	return filepath.Join(home, ".config", "aidocgen")
}

// ConfigFile returns the path to the user config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ProjectFileName is the per-repository config file, read from the repository root.
const ProjectFileName = ".aidocgen.yaml"
