package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
)

// EnvPrefix is prepended to every environment override, e.g. AIDOCGEN_ANALYSIS_MAX_WORKERS.
const EnvPrefix = "AIDOCGEN"

// taskConfigKeys are the TaskConfig fields that can be set per analyzer.
var taskConfigKeys = []string{"model", "base_url", "detail_level", "max_tokens", "temperature", "timeout"}

// SetDefaults registers default values with v.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("analysis.max_workers", d.Analysis.MaxWorkers)
	v.SetDefault("analysis.task_timeout", d.Analysis.TaskTimeout)
	v.SetDefault("analysis.run_timeout", d.Analysis.RunTimeout)
	v.SetDefault("analysis.retries", d.Analysis.Retries)
	v.SetDefault("analysis.retry_backoff", d.Analysis.RetryBackoff)
	v.SetDefault("analysis.exclude", d.Analysis.Exclude)
	v.SetDefault("analysis.ignore", d.Analysis.Ignore)
	v.SetDefault("analysis.export_docs", d.Analysis.ExportDocs)
	v.SetDefault("analysis.docs_dir", d.Analysis.DocsDir)
	v.SetDefault("analysis.defaults.detail_level", d.Analysis.Defaults.DetailLevel)
	v.SetDefault("analysis.defaults.max_tokens", d.Analysis.Defaults.MaxTokens)
	v.SetDefault("analysis.defaults.temperature", d.Analysis.Defaults.Temperature)

	v.SetDefault("readme.output", d.Readme.Output)
	v.SetDefault("readme.use_existing_readme", d.Readme.UseExisting)
	v.SetDefault("readme.exclude_sections", d.Readme.ExcludeSections)
	v.SetDefault("readme.degraded", d.Readme.Degraded)
	v.SetDefault("readme.writer.max_tokens", d.Readme.Writer.MaxTokens)
	v.SetDefault("readme.writer.temperature", d.Readme.Writer.Temperature)

	v.SetDefault("ai_rules.detail_level", d.AIRules.DetailLevel)
	v.SetDefault("ai_rules.targets", d.AIRules.Targets)
	v.SetDefault("ai_rules.max_claude_lines", d.AIRules.MaxClaudeLines)
	v.SetDefault("ai_rules.max_agents_lines", d.AIRules.MaxAgentsLines)
	v.SetDefault("ai_rules.skip_existing", d.AIRules.SkipExisting)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.requests_per_second", d.LLM.RequestsPerSecond)
	v.SetDefault("llm.max_attempts", d.LLM.MaxAttempts)

	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.sqlite_path", d.Store.SQLitePath)
	v.SetDefault("store.postgres_dsn", d.Store.PostgresDSN)
	v.SetDefault("store.s3.endpoint", d.Store.S3.Endpoint)
	v.SetDefault("store.s3.access_key", d.Store.S3.AccessKey)
	v.SetDefault("store.s3.secret_key", d.Store.S3.SecretKey)
	v.SetDefault("store.s3.bucket", d.Store.S3.Bucket)
	v.SetDefault("store.s3.region", d.Store.S3.Region)
	v.SetDefault("store.s3.use_ssl", d.Store.S3.UseSSL)
	v.SetDefault("store.cache.enabled", d.Store.Cache.Enabled)
	v.SetDefault("store.cache.size", d.Store.Cache.Size)
	v.SetDefault("store.cache.ttl", d.Store.Cache.TTL)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("watch.interval", d.Watch.Interval)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("watch.generate", d.Watch.Generate)

	v.SetDefault("logging.enabled", d.Logging.Enabled)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.dir", d.Logging.Dir)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.console", d.Logging.Console)
}

// BindEnv enables AIDOCGEN_* environment overrides on v, including
// per-analyzer keys such as AIDOCGEN_ANALYSIS_ANALYZERS_DATA_FLOW_MAX_TOKENS.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for _, id := range analysis.Universe() {
		for _, field := range taskConfigKeys {
			key := fmt.Sprintf("analysis.analyzers.%s.%s", id, field)
			env := EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
			if err := v.BindEnv(key, env); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadDotEnv loads .env from root into the process environment.
// Variables that are already set win over the file.
func LoadDotEnv(root string) error {
	path := filepath.Join(root, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ReadFiles reads configuration files into v. An explicit path replaces
// discovery; otherwise the user config is read first and the project file
// in root is merged over it. Missing files are not an error.
// It returns the files that were read.
func ReadFiles(v *viper.Viper, root, explicit string) ([]string, error) {
	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", explicit, err)
		}
		return []string{explicit}, nil
	}

	var read []string
	for _, path := range []string{ConfigFile(), filepath.Join(root, ProjectFileName)} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.MergeInConfig(); err != nil {
			return read, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		read = append(read, path)
	}
	return read, nil
}

// ApplyOverrides applies key=value pairs to v with the highest precedence.
// Values are coerced to the type of the key's current value so mistakes
// surface before the run starts.
func ApplyOverrides(v *viper.Viper, pairs []string) error {
	var errs ValidationErrors
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			errs = append(errs, ValidationError{Field: "--set", Value: pair, Message: "must be key=value"})
			continue
		}

		val, err := coerce(v.Get(key), raw)
		if err != nil {
			errs = append(errs, ValidationError{Field: key, Value: raw, Message: err.Error()})
			continue
		}
		v.Set(key, val)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func coerce(current any, raw string) (any, error) {
	switch current.(type) {
	case bool:
		return cast.ToBoolE(raw)
	case int:
		return cast.ToIntE(raw)
	case float64:
		return cast.ToFloat64E(raw)
	case time.Duration:
		return cast.ToDurationE(raw)
	case []string:
		if raw == "" {
			return []string{}, nil
		}
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	default:
		return raw, nil
	}
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY"))
	}
	if cfg.Analysis.Analyzers == nil {
		cfg.Analysis.Analyzers = map[string]analysis.TaskConfig{}
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// New returns a viper instance with defaults and environment bindings applied.
func New() (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		return nil, err
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, s := range values {
		if s != "" {
			return s
		}
	}
	return ""
}
