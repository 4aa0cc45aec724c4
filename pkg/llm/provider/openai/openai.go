// Package openai implements the OpenAI-compatible chat completions wire format.
package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/aichat/pkg/llm"
)

const (
	defaultBase = "https://api.openai.com/v1"
	chatPath    = "/chat/completions"

	// doneToken terminates an OpenAI SSE stream.
	doneToken = "[DONE]"

	// placeholderKey is sent when no credential is configured. Local
	// OpenAI-compatible servers ignore the value but reject a missing header.
	placeholderKey = "nokey"
)

// ErrNoChoices is returned when a response carries no choices to read.
var ErrNoChoices = errors.New("openai: response has no choices")

// ErrNoContent is returned when a choice's message has null, missing or
// non-textual content.
var ErrNoContent = errors.New("openai: message has no content")

// provider implements the Provider interface for OpenAI's Chat Completions API.
type provider struct{}

func New() *provider { return &provider{} }

func (o *provider) Name() string {
	return "openai"
}

func (o *provider) DefaultBase() string { return defaultBase }

func (o *provider) ChatPath() string { return chatPath }

func (o *provider) Framing() llm.Framing { return llm.FramingSSE }

func (o *provider) Authorize(h http.Header, credential string) {
	if credential == "" {
		credential = placeholderKey
	}
	h.Set("Authorization", "Bearer "+credential)
}

func (o *provider) EncodeRequest(req *llm.ChatRequest) ([]byte, error) {
	messages := make([]openaiMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openaiMessage{Role: msg.Role, Content: msg.Content})
	}

	return json.Marshal(openaiRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		Stream:      req.Stream,
	})
}

func (o *provider) ParseResponse(payload []byte) (*llm.ChatResponse, error) {
	var resp openaiResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		if msg := errorMessage(payload); msg != "" {
			return nil, fmt.Errorf("openai: %s", msg)
		}
		return nil, ErrNoChoices
	}

	choice := resp.Choices[0]
	var text string
	switch {
	case choice.Message != nil:
		var ok bool
		if text, ok = contentText(choice.Message.Content); !ok {
			return nil, ErrNoContent
		}
	case choice.Text != nil:
		text = *choice.Text
	default:
		return nil, errors.New("openai: choice has neither message nor text")
	}

	var usage *llm.Usage
	if resp.Usage != nil {
		usage = &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	result := &llm.ChatResponse{
		Model:      resp.Model,
		Message:    llm.AssistantMessage(text),
		StopReason: choice.FinishReason,
		Usage:      usage,
	}
	if resp.Created > 0 {
		result.CreatedAt = time.Unix(resp.Created, 0)
	}

	return result, nil
}

func (o *provider) ParseStreamChunk(payload []byte) (*llm.StreamChunk, error) {
	data := strings.TrimSpace(string(payload))
	if data == "" {
		return nil, nil
	}
	if data == doneToken {
		return &llm.StreamChunk{Done: true}, nil
	}

	var chunk openaiChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return nil, err
	}

	if len(chunk.Choices) == 0 {
		if msg := errorMessage([]byte(data)); msg != "" {
			return nil, fmt.Errorf("openai: %s", msg)
		}
		// Usage-only or keep-alive chunk.
		return nil, nil
	}

	choice := chunk.Choices[0]
	result := &llm.StreamChunk{Model: chunk.Model}
	switch {
	case choice.Delta != nil && choice.Delta.Content != nil:
		result.Text = *choice.Delta.Content
	case choice.Text != nil:
		result.Text = *choice.Text
	}
	if choice.FinishReason != nil {
		result.StopReason = *choice.FinishReason
	}

	return result, nil
}

// contentText flattens string or multi-part message content into plain text.
// It reports false for null or any other content shape.
func contentText(content any) (string, bool) {
	switch c := content.(type) {
	case string:
		return c, true
	case []any:
		var b strings.Builder
		for _, item := range c {
			part, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if t, _ := part["type"].(string); t != "" && t != "text" {
				continue
			}
			if text, ok := part["text"].(string); ok {
				b.WriteString(text)
			}
		}
		return b.String(), true
	default:
		return "", false
	}
}

// errorMessage extracts the message of an OpenAI error envelope, if any.
func errorMessage(payload []byte) string {
	var env openaiError
	if err := json.Unmarshal(payload, &env); err != nil || env.Error == nil {
		return ""
	}
	return env.Error.Message
}
