// Package stream implements the ordered, bounded chunk pipeline Ops
// use to emit partial results over a {kind, content} wire shape,
// forwarded to clients over the gin/SSE response path.
package stream

// Kind classifies a StreamChunk. DONE is terminal and appears at most
// once per stream.
type Kind string

const (
	KindAnswer Kind = "answer"
	KindThink  Kind = "think"
	KindTool   Kind = "tool"
	KindError  Kind = "error"
	KindDone   Kind = "done"
)

// Chunk is one unit of a stream. Content may be a string or any
// JSON-serializable value (structured tool output, for instance).
type Chunk struct {
	Kind    Kind `json:"type"`
	Content any  `json:"content"`
}

// Done is the synthetic terminal chunk the service layer appends after
// the flow completes or errors.
func Done() Chunk { return Chunk{Kind: KindDone} }

// Error builds an ERROR chunk carrying a message.
func Error(msg string) Chunk { return Chunk{Kind: KindError, Content: msg} }

// Answer builds an ANSWER chunk.
func Answer(content any) Chunk { return Chunk{Kind: KindAnswer, Content: content} }

// Think builds a THINK chunk.
func Think(content any) Chunk { return Chunk{Kind: KindThink, Content: content} }

// Tool builds a TOOL chunk.
func Tool(content any) Chunk { return Chunk{Kind: KindTool, Content: content} }
