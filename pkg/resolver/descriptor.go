// Package resolver selects the LLM endpoint a chat session talks to: either
// an explicitly configured model, or the first reachable candidate from a
// static list.
package resolver

// Descriptor identifies the model to invoke and, optionally, where to reach it.
type Descriptor struct {
	// Model names model and routing, e.g. "openai/myserver" or "ollama/llama3.2".
	Model string `toml:"model" mapstructure:"model"`

	// APIBase is the endpoint base URL. Empty means default routing for Model.
	APIBase string `toml:"api_base,omitempty" mapstructure:"api_base"`

	// APIKey is an opaque credential. May be empty.
	APIKey string `toml:"api_key,omitempty" mapstructure:"api_key"`
}

// HasEndpoint reports whether the descriptor names an explicit endpoint.
func (d Descriptor) HasEndpoint() bool {
	return d.APIBase != ""
}
