package llm

// StreamChunk represents a single parsed chunk of a streaming response.
type StreamChunk struct {
	// Model that generated the chunk
	Model string `json:"model"`

	// Text is the incremental assistant text carried by this chunk. It is
	// empty for role announcements, keep-alives and the final chunk.
	Text string `json:"text"`

	// Whether this is the final chunk
	Done bool `json:"done"`

	// Stop reason (only present on final chunk)
	StopReason string `json:"stop_reason,omitempty"`
}

// HasText reports whether the chunk carries a textual delta.
func (c *StreamChunk) HasText() bool {
	return c != nil && c.Text != ""
}

// Framing describes how a provider delimits chunks of a streaming response.
type Framing int

const (
	// FramingSSE is text/event-stream: one JSON payload per "data:" event.
	FramingSSE Framing = iota

	// FramingNDJSON is newline-delimited JSON: one payload per line.
	FramingNDJSON
)
