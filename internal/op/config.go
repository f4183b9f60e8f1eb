package op

import (
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/flowllm/flowllm/internal/toolcall"
)

// Config is both the YAML-configurable declaration of an Op instance
// and the live settings the OpRuntime reads. Defaults are applied via
// creasty/defaults and checked with go-playground/validator.
type Config struct {
	Name           string        `yaml:"name" validate:"required"`
	Async          bool          `yaml:"async_mode" default:"true"`
	MaxRetries     int           `yaml:"max_retries" default:"1" validate:"gte=1"`
	RaiseOnFailure bool          `yaml:"raise_on_failure" default:"true"`
	CacheEnabled   bool          `yaml:"cache_enabled"`
	CacheExpire    time.Duration `yaml:"cache_expire" default:"5m"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	RetryBackoff   bool          `yaml:"retry_backoff"`
	SaveAnswer     bool          `yaml:"save_answer" default:"true"`

	// FilePath and Language drive prompt binding.
	FilePath string `yaml:"file_path"`
	Language string `yaml:"language"`

	// Resource names resolved lazily through the Registry; empty means
	// "default".
	LLMName         string `yaml:"llm"`
	EmbeddingName   string `yaml:"embedding_model"`
	VectorStoreName string `yaml:"vector_store"`

	// ToolCall and Children are populated programmatically (by the DSL
	// tree-builder or a constructor), never from YAML directly.
	ToolCall *toolcall.ToolCall `yaml:"-"`
	Children map[string]Op      `yaml:"-"`
}

var validate = validator.New()

// NewConfig returns a Config with its struct-tag defaults applied
// (async_mode=true, max_retries=1, raise_on_failure=true,
// save_answer=true).
func NewConfig(name string) Config {
	c := Config{Name: name}
	_ = defaults.Set(&c)
	return c
}

// Validate applies struct tag validation.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

func (c Config) clone() Config {
	clone := c
	if c.Children != nil {
		clone.Children = make(map[string]Op, len(c.Children))
		for k, v := range c.Children {
			clone.Children[k] = v.Copy()
		}
	}
	return clone
}
