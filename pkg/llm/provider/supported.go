package provider

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/aichat/pkg/llm/provider/ollama"
	"github.com/papercomputeco/aichat/pkg/llm/provider/openai"
)

// Supported provider type constants
const (
	OpenAI     = "openai"
	Ollama     = "ollama"
	OllamaChat = "ollama_chat"
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{OpenAI, Ollama, OllamaChat}
}

// New creates a new Provider instance for the given provider type.
// Returns an error if the provider type is not recognized.
func New(providerType string) (Provider, error) {
	switch providerType {
	case OpenAI:
		return openai.New(), nil
	case Ollama, OllamaChat:
		return ollama.New(), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q (supported: %v)", providerType, SupportedProviders())
	}
}

// Route splits a routed model identifier such as "openai/myserver" or
// "ollama/llama3.2" into the wire format that serves it and the bare model
// name sent on the wire. Identifiers without a recognized prefix are routed
// to the OpenAI-compatible format unchanged.
func Route(model string) (Provider, string) {
	if prefix, bare, ok := strings.Cut(model, "/"); ok && bare != "" {
		if p, err := New(strings.ToLower(prefix)); err == nil {
			return p, bare
		}
	}
	return openai.New(), model
}
