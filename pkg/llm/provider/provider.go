package provider

import (
	"net/http"

	"github.com/papercomputeco/aichat/pkg/llm"
)

// Provider defines a chat completion wire format. Each implementation knows
// where its chat endpoint lives, how to encode the internal request and how
// to parse whole and streamed responses back into the internal representation.
type Provider interface {
	// Name returns the canonical provider name (e.g., "openai", "ollama")
	Name() string

	// DefaultBase is the endpoint base used when no explicit base is configured.
	DefaultBase() string

	// ChatPath is appended to the endpoint base to build the chat URL.
	ChatPath() string

	// Framing reports how streamed chunks are delimited.
	Framing() llm.Framing

	// Authorize sets authentication headers for the given credential.
	// Providers that require a credential substitute a placeholder when it is empty.
	Authorize(h http.Header, credential string)

	// EncodeRequest converts the internal request into the provider's wire format.
	EncodeRequest(req *llm.ChatRequest) ([]byte, error)

	// ParseResponse converts a whole provider response into the internal format.
	ParseResponse(payload []byte) (*llm.ChatResponse, error)

	// ParseStreamChunk converts a single streaming chunk into the internal format.
	// Returns (nil, nil) if the chunk should be skipped (e.g., keep-alive, comments).
	ParseStreamChunk(payload []byte) (*llm.StreamChunk, error)
}
