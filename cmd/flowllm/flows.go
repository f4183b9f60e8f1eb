package main

import (
	"fmt"

	"github.com/flowllm/flowllm/internal/config"
	"github.com/flowllm/flowllm/internal/dispatcher"
	"github.com/flowllm/flowllm/internal/dslparser"
	"github.com/flowllm/flowllm/internal/llmres"
	"github.com/flowllm/flowllm/internal/op"
	"github.com/flowllm/flowllm/internal/ops"
	"github.com/flowllm/flowllm/internal/registry"
)

// registerAllResources wires the built-in Op gallery and the
// dependency-free reference LLM/EmbeddingModel/VectorStore/TokenCounter
// implementations under registry.DefaultName, so a Flow that never
// configures a real provider still resolves.
func registerAllResources(reg *registry.Registry) error {
	if err := ops.RegisterAll(reg); err != nil {
		return err
	}
	return llmres.RegisterDefaults(reg)
}

// registerFlows parses each configured flow's flow_content into an Op
// tree via dslparser and registers it on the Dispatcher.
func registerFlows(d *dispatcher.Dispatcher, reg *registry.Registry, engine *op.Engine, cfg *config.ServiceConfig) error {
	builder := dslparser.NewBuilder(reg, engine)
	for name, fc := range cfg.Flows {
		stmts, err := dslparser.ParseSource(fc.FlowContent)
		if err != nil {
			return fmt.Errorf("flowllm: flow %q: %w", name, err)
		}
		root, err := builder.Build(stmts)
		if err != nil {
			return fmt.Errorf("flowllm: flow %q: %w", name, err)
		}
		flow := dispatcher.NewFlow(name, root)
		flow.Description = fc.Description
		flow.Stream = fc.Stream
		flow.InputSchema = fc.InputSchema
		if err := d.Register(flow); err != nil {
			return fmt.Errorf("flowllm: flow %q: %w", name, err)
		}
	}
	return nil
}
