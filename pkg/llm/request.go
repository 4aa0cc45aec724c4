package llm

// ChatRequest represents a provider-agnostic chat completion request.
// Wire codecs under pkg/llm/provider encode it into the format expected
// by the resolved endpoint.
type ChatRequest struct {
	// Model name as sent on the wire (e.g. "myserver", "llama3.2"), with any
	// routing prefix already removed.
	Model string `json:"model"`

	// Conversation messages, system instruction first.
	Messages []Message `json:"messages"`

	// Whether to stream the response
	Stream bool `json:"stream"`

	// Sampling temperature; nil leaves the provider default.
	Temperature *float64 `json:"temperature,omitempty"`
}
