package llmres

import (
	"context"
	"crypto/sha256"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/flowllm/flowllm/internal/flowcontext"
)

// EchoLLM is the reference "default" LLM: it never calls out to a
// provider, it echoes the last user message back with a fixed prefix.
// Standalone Ops and tests use it so the module runs end-to-end
// without a configured provider.
type EchoLLM struct {
	Prefix string
}

func NewEchoLLM(prefix string) *EchoLLM {
	if prefix == "" {
		prefix = "echo: "
	}
	return &EchoLLM{Prefix: prefix}
}

func (l *EchoLLM) Chat(_ context.Context, messages []flowcontext.Message, _ []ToolSchema) (flowcontext.Message, error) {
	return flowcontext.Message{Role: "assistant", Content: l.Prefix + lastUserContent(messages)}, nil
}

func (l *EchoLLM) StreamChat(ctx context.Context, messages []flowcontext.Message, tools []ToolSchema, emit func(delta string) error) (flowcontext.Message, error) {
	final, err := l.Chat(ctx, messages, tools)
	if err != nil {
		return flowcontext.Message{}, err
	}
	if err := emit(final.Content); err != nil {
		return flowcontext.Message{}, err
	}
	return final, nil
}

func lastUserContent(messages []flowcontext.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

// HashEmbeddingModel produces a deterministic, dependency-free
// embedding by hashing each text into a fixed-width float vector. It
// is not semantically meaningful; it exists so VectorStore-backed Ops
// and tests have a working EmbeddingModel with no provider configured.
type HashEmbeddingModel struct {
	Dims int
}

func NewHashEmbeddingModel(dims int) *HashEmbeddingModel {
	if dims <= 0 {
		dims = 32
	}
	return &HashEmbeddingModel{Dims: dims}
}

func (m *HashEmbeddingModel) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = m.embedOne(text)
	}
	return out, nil
}

func (m *HashEmbeddingModel) embedOne(text string) []float64 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float64, m.Dims)
	for i := range vec {
		vec[i] = float64(sum[i%len(sum)]) / 255.0
	}
	return vec
}

// MemoryVectorStore is the reference VectorStore: an in-process
// workspace-keyed map with brute-force cosine similarity search.
type MemoryVectorStore struct {
	mu         sync.RWMutex
	workspaces map[string]map[string]VectorNode
}

func NewMemoryVectorStore() *MemoryVectorStore {
	return &MemoryVectorStore{workspaces: make(map[string]map[string]VectorNode)}
}

func (s *MemoryVectorStore) Insert(_ context.Context, workspaceID string, nodes []VectorNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[workspaceID]
	if !ok {
		ws = make(map[string]VectorNode)
		s.workspaces[workspaceID] = ws
	}
	for _, n := range nodes {
		ws[n.ID] = n
	}
	return nil
}

func (s *MemoryVectorStore) Delete(_ context.Context, workspaceID string, nodeIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[workspaceID]
	if !ok {
		return nil
	}
	for _, id := range nodeIDs {
		delete(ws, id)
	}
	return nil
}

// Search embeds query with a default (32-dimension) HashEmbeddingModel
// and ranks nodes by cosine similarity to that vector, comparing only
// the dimensions both vectors have. Node vectors produced by any other
// embedding model are not comparable with that query vector.
func (s *MemoryVectorStore) Search(_ context.Context, workspaceID, query string, topK int) ([]VectorNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws := s.workspaces[workspaceID]
	if len(ws) == 0 {
		return nil, nil
	}
	queryVec := NewHashEmbeddingModel(0).embedOne(query)

	scored := make([]VectorNode, 0, len(ws))
	for _, n := range ws {
		n.Score = cosineSimilarity(queryVec, n.Vector)
		scored = append(scored, n)
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if topK > 0 && topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

func cosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// WordTokenCounter approximates token count by whitespace-splitting,
// the same coarse heuristic the reference clients fall back to without
// a model-specific tokenizer wired in.
type WordTokenCounter struct{}

func (WordTokenCounter) Count(text string) int {
	return len(strings.Fields(text))
}
