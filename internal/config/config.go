// Package config implements the service configuration surface: backend
// selection, worker-pool sizing, HTTP/MCP transport settings, and the
// flow/llm/embedding_model/vector_store declaration tables. Loading
// follows a three-step pipeline: apply struct-tag defaults via
// creasty/defaults, merge in file/override values, then validate with
// go-playground/validator/v10.
package config

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/flowllm/flowllm/internal/toolcall"
)

// ServiceConfig is the frozen-after-startup process-wide configuration
// every backend and Op reads at startup.
type ServiceConfig struct {
	Backend              string `yaml:"backend" default:"http" validate:"oneof=http mcp cmd"`
	ThreadPoolMaxWorkers int    `yaml:"thread_pool_max_workers" default:"128" validate:"gte=1"`

	Log   LogConfig   `yaml:"log"`
	HTTP  HTTPConfig  `yaml:"http"`
	MCP   MCPConfig   `yaml:"mcp"`
	Cache CacheConfig `yaml:"cache"`

	Flows           map[string]FlowConfig           `yaml:"flow" validate:"dive"`
	LLMs            map[string]LLMConfig            `yaml:"llm" validate:"dive"`
	EmbeddingModels map[string]EmbeddingModelConfig `yaml:"embedding_model" validate:"dive"`
	VectorStores    map[string]VectorStoreConfig    `yaml:"vector_store" validate:"dive"`
}

// LogConfig is loaded and validated with the rest of the config;
// neither internal/telemetry nor the Op runtime reads Level or OpOutput.
type LogConfig struct {
	Level    string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	OpOutput bool   `yaml:"op_output"`
}

// HTTPConfig is read when Backend == "http".
type HTTPConfig struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port int    `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
}

// MCPConfig is read when Backend == "mcp".
type MCPConfig struct {
	Host      string `yaml:"host" default:"0.0.0.0"`
	Port      int    `yaml:"port" default:"8081" validate:"gte=1,lte=65535"`
	Transport string `yaml:"transport" default:"sse" validate:"oneof=sse"`
}

// CacheConfig selects the internal/opcache backend.
type CacheConfig struct {
	Backend   string `yaml:"backend" default:"memory" validate:"oneof=memory file redis"`
	FileDir   string `yaml:"file_dir"`
	RedisAddr string `yaml:"redis_addr"`
}

// FlowConfig declares one flow: flow.{name}.{flow_content,
// description?, stream?, input_schema?}. FlowContent is the flow
// expression source that internal/dslparser parses into the flow's
// composed Op tree.
type FlowConfig struct {
	FlowContent string                         `yaml:"flow_content" validate:"required"`
	Description string                         `yaml:"description"`
	Stream      bool                           `yaml:"stream"`
	InputSchema map[string]toolcall.ParamAttrs `yaml:"input_schema"`
}

// LLMConfig declares one named LLM resolver entry. Concrete provider
// wiring is out of scope; Backend/ModelName only reach as far as the
// reference/mock resources in internal/llmres unless an external
// adapter is registered under the same name.
type LLMConfig struct {
	Backend    string         `yaml:"backend" validate:"required"`
	ModelName  string         `yaml:"model_name" validate:"required"`
	Params     map[string]any `yaml:"params"`
	TokenCount string         `yaml:"token_count"`
}

// EmbeddingModelConfig declares one named embedding resolver entry.
type EmbeddingModelConfig struct {
	Backend   string         `yaml:"backend" validate:"required"`
	ModelName string         `yaml:"model_name" validate:"required"`
	Params    map[string]any `yaml:"params"`
}

// VectorStoreConfig declares one named vector-store resolver entry.
type VectorStoreConfig struct {
	Backend        string         `yaml:"backend" validate:"required"`
	EmbeddingModel string         `yaml:"embedding_model"`
	Params         map[string]any `yaml:"params"`
}

var validate = validator.New()

// Load reads path, applies defaults, and validates the result. Unknown
// YAML keys are silently ignored.
func Load(path string) (*ServiceConfig, error) {
	cfg := &ServiceConfig{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %q: %w", path, err)
	}

	applyMapDefaults(cfg)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// applyMapDefaults runs creasty/defaults over every map-valued
// declaration entry. defaults.Set only walks named struct fields, so
// map values (whose element type isn't known until the map is
// populated from YAML) need one Set call per entry after unmarshalling.
func applyMapDefaults(cfg *ServiceConfig) {
	for k, v := range cfg.Flows {
		_ = defaults.Set(&v)
		cfg.Flows[k] = v
	}
	for k, v := range cfg.LLMs {
		_ = defaults.Set(&v)
		cfg.LLMs[k] = v
	}
	for k, v := range cfg.EmbeddingModels {
		_ = defaults.Set(&v)
		cfg.EmbeddingModels[k] = v
	}
	for k, v := range cfg.VectorStores {
		_ = defaults.Set(&v)
		cfg.VectorStores[k] = v
	}
}
