package llmres

import "github.com/flowllm/flowllm/internal/registry"

// RegisterDefaults wires the dependency-free reference implementations
// into reg under registry.DefaultName, so a Flow that never configures
// a real provider still resolves llm/embedding_model/vector_store/
// token_counter successfully.
func RegisterDefaults(reg *registry.Registry) error {
	if err := reg.Register(registry.CategoryLLM, registry.DefaultName, NewEchoLLM("")); err != nil {
		return err
	}
	if err := reg.Register(registry.CategoryEmbedding, registry.DefaultName, NewHashEmbeddingModel(0)); err != nil {
		return err
	}
	if err := reg.Register(registry.CategoryVectorStore, registry.DefaultName, NewMemoryVectorStore()); err != nil {
		return err
	}
	if err := reg.Register(registry.CategoryTokenCounter, registry.DefaultName, WordTokenCounter{}); err != nil {
		return err
	}
	return nil
}
