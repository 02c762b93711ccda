// Package streamproc consumes one LLM streaming response, assembling
// fragmented tool calls, tracking usage metadata, and yielding a sequence
// of UI-facing events (spec §4.4).
package streamproc

// FunctionCallPart is a (possibly partial) tool-call fragment carried by
// one stream chunk. Args may be a map (most providers) or a list of maps
// that must be merged in order (spec §4.4, "Per chunk").
type FunctionCallPart struct {
	Name string
	ID   string // present if the provider supplies call identity
	Args any
}

// UsageMetadata is the token accounting a chunk may carry (spec §4.4,
// "Per chunk").
type UsageMetadata struct {
	PromptTokens    int
	CandidateTokens int
	TotalTokens     int
}

// ChunkPart is one part of a streamed chunk: free text, a function-call
// fragment, or usage metadata (spec §4.4, "Per chunk").
type ChunkPart struct {
	Text          string
	FunctionCall  *FunctionCallPart
	UsageMetadata *UsageMetadata
}

// Chunk is one item the provider transport yields.
type Chunk struct {
	Parts []ChunkPart
}

// StreamItem is either a Chunk or a terminal stream error; exactly one
// field is set.
type StreamItem struct {
	Chunk *Chunk
	Err   error
}
