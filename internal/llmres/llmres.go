// Package llmres declares the LLM, EmbeddingModel, VectorStore, and
// TokenCounter capability contracts as small Go interfaces: only the
// shape is fixed, no concrete provider is required.
//
// Registry-resolved handles implement these interfaces; internal/op's
// ResourceResolver returns them as `any` and Ops that declare an LLM/
// EmbeddingModel/VectorStore name type-assert to the interface they
// need.
package llmres

import (
	"context"

	"github.com/flowllm/flowllm/internal/flowcontext"
)

// ToolSchema is the minimal shape an LLM needs to advertise a callable
// tool to the underlying model, independent of internal/toolcall's
// richer validation-focused ParamAttrs.
type ToolSchema struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// LLM is a chat-completion capability. Retries around transient
// provider errors are the OpRuntime's responsibility, not the LLM
// implementation's, so this contract is a single attempt.
type LLM interface {
	// Chat runs one non-streaming completion.
	Chat(ctx context.Context, messages []flowcontext.Message, tools []ToolSchema) (flowcontext.Message, error)
	// StreamChat runs one completion, calling emit for each incremental
	// content delta before returning the assembled final message.
	StreamChat(ctx context.Context, messages []flowcontext.Message, tools []ToolSchema, emit func(delta string) error) (flowcontext.Message, error)
}

// EmbeddingModel turns text into vectors.
type EmbeddingModel interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// VectorNode is one entry in a VectorStore workspace.
type VectorNode struct {
	ID       string
	Content  string
	Vector   []float64
	Metadata map[string]any
	Score    float64
}

// VectorStore is a named-workspace nearest-neighbor store.
type VectorStore interface {
	Search(ctx context.Context, workspaceID, query string, topK int) ([]VectorNode, error)
	Insert(ctx context.Context, workspaceID string, nodes []VectorNode) error
	Delete(ctx context.Context, workspaceID string, nodeIDs []string) error
}

// TokenCounter estimates the token cost of a piece of text, used by
// Ops that need to budget context window usage before a call.
type TokenCounter interface {
	Count(text string) int
}
