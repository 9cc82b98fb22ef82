package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"maps"
	"time"
)

// Detail levels understood by analyzers and the rules generator.
const (
	DetailMinimal       = "minimal"
	DetailStandard      = "standard"
	DetailComprehensive = "comprehensive"
)

// TaskConfig is the resolved configuration for one analyzer in one run.
// Values are resolved once before execution and never mutated afterward;
// pass it by value.
type TaskConfig struct {
	// Model is the LLM model name, empty for offline analyzers.
	Model string `mapstructure:"model" json:"model,omitempty" yaml:"model,omitempty"`
	// BaseURL overrides the LLM endpoint.
	BaseURL string `mapstructure:"base_url" json:"base_url,omitempty" yaml:"base_url,omitempty"`
	// DetailLevel is one of minimal, standard, comprehensive.
	DetailLevel string `mapstructure:"detail_level" json:"detail_level,omitempty" yaml:"detail_level,omitempty"`
	// MaxTokens caps the size of model output.
	MaxTokens int `mapstructure:"max_tokens" json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	// Temperature is the model sampling temperature.
	Temperature float64 `mapstructure:"temperature" json:"temperature,omitempty" yaml:"temperature,omitempty"`
	// Timeout is the latency budget for this analyzer. Zero defers to the run-level timeout.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Options carries analyzer-specific settings.
	Options map[string]string `mapstructure:"options" json:"options,omitempty" yaml:"options,omitempty"`
}

// Merge returns a copy of c with every non-zero field of override applied.
// Options are merged key by key.
func (c TaskConfig) Merge(override TaskConfig) TaskConfig {
	out := c.Clone()
	if override.Model != "" {
		out.Model = override.Model
	}
	if override.BaseURL != "" {
		out.BaseURL = override.BaseURL
	}
	if override.DetailLevel != "" {
		out.DetailLevel = override.DetailLevel
	}
	if override.MaxTokens != 0 {
		out.MaxTokens = override.MaxTokens
	}
	if override.Temperature != 0 {
		out.Temperature = override.Temperature
	}
	if override.Timeout != 0 {
		out.Timeout = override.Timeout
	}
	if len(override.Options) > 0 {
		if out.Options == nil {
			out.Options = make(map[string]string, len(override.Options))
		}
		maps.Copy(out.Options, override.Options)
	}
	return out
}

// Clone returns a deep copy of c.
func (c TaskConfig) Clone() TaskConfig {
	if c.Options != nil {
		c.Options = maps.Clone(c.Options)
	}
	return c
}

// Option returns the named option, or def when unset.
func (c TaskConfig) Option(name, def string) string {
	if v, ok := c.Options[name]; ok && v != "" {
		return v
	}
	return def
}

// Hash returns a stable fingerprint of the configuration.
// Artifacts record it so a reader can tell which settings produced them.
func (c TaskConfig) Hash() string {
	// encoding/json sorts map keys, so the encoding is canonical.
	b, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:16]
}
