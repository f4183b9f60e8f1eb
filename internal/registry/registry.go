// Package registry implements the process-wide, frozen-after-startup
// name→constructor index shared across the five resource categories:
// ops, LLMs, embedding models, vector stores, and token counters.
package registry

import (
	"fmt"
	"sync"
)

// Category is one of the five namespaces the Registry indexes.
type Category string

const (
	CategoryOp           Category = "op"
	CategoryLLM          Category = "llm"
	CategoryEmbedding    Category = "embedding"
	CategoryVectorStore  Category = "vector_store"
	CategoryTokenCounter Category = "token_counter"
)

// DefaultName is the well-known resolver name: resolving "default" for
// LLM/Embedding/VectorStore falls back to the entry registered under
// this literal name.
const DefaultName = "default"

// Registry is a process-wide, category-scoped name→constructor index.
// It is populated at startup by explicit Register calls (ops.RegisterAll
// for the built-in Ops) and is read-only once the service has started
// serving traffic.
type Registry struct {
	mu    sync.RWMutex
	ctors map[Category]map[string]any
}

func New() *Registry {
	return &Registry{ctors: make(map[Category]map[string]any)}
}

// Register adds a constructor under (category, name). Duplicate
// registration under the same (category, name) fails. Name lookup is
// case-sensitive.
func (r *Registry) Register(category Category, name string, ctor any) error {
	if name == "" {
		return fmt.Errorf("registry: name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.ctors[category]
	if !ok {
		bucket = make(map[string]any)
		r.ctors[category] = bucket
	}
	if _, exists := bucket[name]; exists {
		return fmt.Errorf("registry: %s/%s already registered", category, name)
	}
	bucket[name] = ctor
	return nil
}

// MustRegister panics on registration failure; intended for use inside
// package-level init() functions.
func (r *Registry) MustRegister(category Category, name string, ctor any) {
	if err := r.Register(category, name, ctor); err != nil {
		panic(err)
	}
}

// Resolve looks up a constructor by (category, name). "" resolves to
// DefaultName, the special default resolver for LLM/Embedding/
// VectorStore.
func (r *Registry) Resolve(category Category, name string) (any, error) {
	if name == "" {
		name = DefaultName
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket, ok := r.ctors[category]
	if !ok {
		return nil, fmt.Errorf("registry: no entries registered for category %s", category)
	}
	ctor, ok := bucket[name]
	if !ok {
		return nil, fmt.Errorf("registry: %s/%s not found", category, name)
	}
	return ctor, nil
}

// Has reports whether (category, name) is registered, without error.
func (r *Registry) Has(category Category, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bucket, ok := r.ctors[category]
	if !ok {
		return false
	}
	_, ok = bucket[name]
	return ok
}

// Names returns every registered name in a category, for schema/docs
// generation and the flow parser's identifier whitelist.
func (r *Registry) Names(category Category) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bucket := r.ctors[category]
	names := make([]string, 0, len(bucket))
	for name := range bucket {
		names = append(names, name)
	}
	return names
}
