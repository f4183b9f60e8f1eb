package op

import (
	"sync"

	"github.com/flowllm/flowllm/internal/flowerr"
	"github.com/flowllm/flowllm/internal/registry"
)

// ResourceResolver resolves an Op's llm/embedding_model/vector_store
// accessors through the Registry on first read, using either an
// explicit name or "default", and caches the resolved handle for the
// Op's lifetime.
type ResourceResolver struct {
	reg *registry.Registry

	mu          sync.Mutex
	llm         any
	llmDone     bool
	embedding   any
	embDone     bool
	vectorStore any
	vecDone     bool
}

func NewResourceResolver(reg *registry.Registry) *ResourceResolver {
	return &ResourceResolver{reg: reg}
}

// clone returns a resolver over the same Registry with no cached
// handles, so a Copy()-ed Op re-resolves independently.
func (r *ResourceResolver) clone() *ResourceResolver {
	if r == nil {
		return nil
	}
	return NewResourceResolver(r.reg)
}

// resolve invokes the registered constructor. Constructors may be
// registered either as the ready instance itself (a singleton, common
// for LLM/EmbeddingModel/VectorStore handles that are safe to share by
// reference) or as a func() (any, error) / func() any factory.
func (r *ResourceResolver) resolve(category registry.Category, name string) (any, error) {
	ctor, err := r.reg.Resolve(category, name)
	if err != nil {
		return nil, flowerr.New(flowerr.KindUnknownResource, err)
	}
	switch fn := ctor.(type) {
	case func() (any, error):
		return fn()
	case func() any:
		return fn(), nil
	default:
		return ctor, nil
	}
}

func (r *ResourceResolver) LLM(name string) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.llmDone {
		return r.llm, nil
	}
	v, err := r.resolve(registry.CategoryLLM, name)
	if err != nil {
		return nil, err
	}
	r.llm, r.llmDone = v, true
	return v, nil
}

func (r *ResourceResolver) EmbeddingModel(name string) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.embDone {
		return r.embedding, nil
	}
	v, err := r.resolve(registry.CategoryEmbedding, name)
	if err != nil {
		return nil, err
	}
	r.embedding, r.embDone = v, true
	return v, nil
}

func (r *ResourceResolver) VectorStore(name string) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.vecDone {
		return r.vectorStore, nil
	}
	v, err := r.resolve(registry.CategoryVectorStore, name)
	if err != nil {
		return nil, err
	}
	r.vectorStore, r.vecDone = v, true
	return v, nil
}
