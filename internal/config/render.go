package config

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ValidShowFormats returns the formats `config show` can print.
func ValidShowFormats() []string {
	return []string{"yaml", "json", "toml"}
}

// Render writes settings (as returned by viper.AllSettings) in the given format.
// API keys and secrets are masked.
func Render(w io.Writer, settings map[string]any, format string) error {
	clean := normalize(settings, "").(map[string]any)

	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(clean); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(clean)
	case "toml":
		return toml.NewEncoder(w).Encode(clean)
	default:
		return fmt.Errorf("unsupported format %q (supported: %s)", format, strings.Join(ValidShowFormats(), ", "))
	}
}

var secretKeys = []string{"api_key", "secret_key", "access_key", "postgres_dsn"}

// normalize converts durations to strings and masks secret values so every
// encoder renders the same thing.
func normalize(v any, key string) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val, k)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val, "")
		}
		return out
	case time.Duration:
		return t.String()
	case string:
		if t != "" && slices.Contains(secretKeys, key) {
			return "********"
		}
		return t
	default:
		return v
	}
}

// Template is the commented file written by `config init`.
const Template = `# aidocgen configuration
#
# Precedence (highest first): command-line flags and --set overrides,
# AIDOCGEN_* environment variables, this file, built-in defaults.

analysis:
  # Concurrent analyzers; 0 uses the number of CPUs.
  max_workers: 0
  # Per-analyzer latency budget.
  task_timeout: 10m
  # Whole-run budget; 0 disables it.
  run_timeout: 0s
  # Re-run retriable failures (timeouts, store writes) this many times.
  retries: 0
  # Analyzers to skip: structure, dependency, data-flow, request-flow, api-surface.
  exclude: []
  # Write each analysis as Markdown under docs_dir.
  export_docs: true
  docs_dir: .ai/docs
  defaults:
    detail_level: standard
    max_tokens: 8192
    temperature: 0
  # Per-analyzer overrides:
  # analyzers:
  #   dependency:
  #     model: gemini-2.5-pro
  #     timeout: 5m

readme:
  output: README.md
  use_existing_readme: false
  # Sections: overview, toc, architecture, c4, structure, dependencies,
  # api, development, known-issues, additional.
  exclude_sections: []
  # note: show a placeholder when analysis is missing; omit: drop the section.
  degraded: note

ai_rules:
  detail_level: standard
  targets: [claude, agents, cursor]
  max_claude_lines: 500
  max_agents_lines: 150
  skip_existing: true

llm:
  # auto uses gemini when GEMINI_API_KEY or GOOGLE_API_KEY is set.
  provider: auto
  model: gemini-2.5-flash
  requests_per_second: 1

store:
  # memory, disk, sqlite, postgres, s3
  backend: disk
  dir: .ai/store

logging:
  enabled: true
  level: info
  dir: .ai/logs
`
