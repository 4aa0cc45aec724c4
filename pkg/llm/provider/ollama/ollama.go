// Package ollama implements Ollama's native /api/chat wire format.
package ollama

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/papercomputeco/aichat/pkg/llm"
)

const (
	defaultBase = "http://localhost:11434"
	chatPath    = "/api/chat"
)

// provider implements the Provider interface for Ollama's API.
type provider struct{}

func New() *provider { return &provider{} }

func (o *provider) Name() string {
	return "ollama"
}

func (o *provider) DefaultBase() string { return defaultBase }

func (o *provider) ChatPath() string { return chatPath }

func (o *provider) Framing() llm.Framing { return llm.FramingNDJSON }

// Authorize only sets a bearer token when one is configured; a stock Ollama
// server needs none.
func (o *provider) Authorize(h http.Header, credential string) {
	if credential != "" {
		h.Set("Authorization", "Bearer "+credential)
	}
}

func (o *provider) EncodeRequest(req *llm.ChatRequest) ([]byte, error) {
	messages := make([]ollamaMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, ollamaMessage{Role: msg.Role, Content: msg.Content})
	}

	wire := ollamaRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   req.Stream,
	}
	if req.Temperature != nil {
		wire.Options = &ollamaOptions{Temperature: req.Temperature}
	}

	return json.Marshal(wire)
}

func (o *provider) ParseResponse(payload []byte) (*llm.ChatResponse, error) {
	var resp ollamaResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama: %s", resp.Error)
	}
	if resp.Message == nil {
		return nil, errors.New("ollama: response has no message")
	}

	result := &llm.ChatResponse{
		Model:      resp.Model,
		CreatedAt:  resp.CreatedAt,
		Message:    llm.AssistantMessage(resp.Message.Content),
		StopReason: resp.DoneReason,
	}
	if resp.PromptEvalCount > 0 || resp.EvalCount > 0 {
		result.Usage = &llm.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		}
	}

	return result, nil
}

func (o *provider) ParseStreamChunk(payload []byte) (*llm.StreamChunk, error) {
	if strings.TrimSpace(string(payload)) == "" {
		return nil, nil
	}

	var resp ollamaResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama: %s", resp.Error)
	}

	chunk := &llm.StreamChunk{
		Model:      resp.Model,
		Done:       resp.Done,
		StopReason: resp.DoneReason,
	}
	if resp.Message != nil {
		chunk.Text = resp.Message.Content
	}

	return chunk, nil
}
