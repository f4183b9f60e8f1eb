// Package ops implements the built-in gallery of example Ops
// demonstrating the composition system: plain compute, an HTTP call, a
// sandboxed script, a stream producer, and an LLM call.
//
// Every constructor here matches op.Constructor's signature and is
// wired into a Registry with an explicit RegisterAll call rather than
// a package-level init(), the same instance-based registration
// pattern used elsewhere for Op/LLM/EmbeddingModel/VectorStore
// constructors.
package ops

import (
	"github.com/flowllm/flowllm/internal/op"
	"github.com/flowllm/flowllm/internal/registry"
)

// RegisterAll wires every built-in Op into reg under registry.CategoryOp.
func RegisterAll(reg *registry.Registry) error {
	entries := map[string]op.Constructor{
		"EchoOp":        NewEchoOp,
		"AddOneOp":      NewAddOneOp,
		"LenOp":         NewLenOp,
		"SleepOp":       NewSleepOp,
		"ScriptOp":      NewScriptOp,
		"HTTPToolOp":    NewHTTPToolOp,
		"CountStreamOp": NewCountStreamOp,
		"LLMChatOp":     NewLLMChatOp,
	}
	for name, ctor := range entries {
		if err := reg.Register(registry.CategoryOp, name, ctor); err != nil {
			return err
		}
	}
	return nil
}
