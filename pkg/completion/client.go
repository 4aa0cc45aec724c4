// Package completion issues chat completion requests against a resolved
// endpoint and exposes the answer as a lazy stream of text fragments.
package completion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/papercomputeco/aichat/pkg/llm"
	"github.com/papercomputeco/aichat/pkg/llm/provider"
	"github.com/papercomputeco/aichat/pkg/logger"
	"github.com/papercomputeco/aichat/pkg/resolver"
)

// DefaultTemperature is the sampling temperature sent with every request.
const DefaultTemperature = 0.2

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 4 * 1024

// credentialEnv names the environment variable holding the credential for
// default-routed models of each provider.
var credentialEnv = map[string]string{
	provider.OpenAI: "OPENAI_API_KEY",
	provider.Ollama: "OLLAMA_API_KEY",
}

// Client sends chat completion requests to one endpoint.
type Client struct {
	prov        provider.Provider
	model       string
	endpoint    string
	credential  string
	temperature float64

	httpClient *http.Client
	logger     *slog.Logger
	wire       io.Writer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithTemperature overrides DefaultTemperature.
func WithTemperature(t float64) Option {
	return func(cl *Client) { cl.temperature = t }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// WithWireLog copies the raw lines of streamed responses to w.
func WithWireLog(w io.Writer) Option {
	return func(cl *Client) { cl.wire = w }
}

// New builds a Client for the descriptor. The model prefix selects the wire
// format. When the descriptor has no endpoint base, the provider's default
// base is used with a credential from the provider's environment variable.
func New(d resolver.Descriptor, opts ...Option) (*Client, error) {
	if strings.TrimSpace(d.Model) == "" {
		return nil, fmt.Errorf("model required")
	}

	prov, model := provider.Route(d.Model)

	base, credential := d.APIBase, d.APIKey
	if !d.HasEndpoint() {
		base = prov.DefaultBase()
		if credential == "" {
			credential = os.Getenv(credentialEnv[prov.Name()])
		}
	}

	endpoint, err := url.JoinPath(base, prov.ChatPath())
	if err != nil {
		return nil, fmt.Errorf("building endpoint from %q: %w", base, err)
	}

	c := &Client{
		prov:        prov,
		model:       model,
		endpoint:    endpoint,
		credential:  credential,
		temperature: DefaultTemperature,
		httpClient:  &http.Client{},
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the chat URL requests are sent to.
func (c *Client) Endpoint() string { return c.endpoint }

// Model returns the model name sent on the wire.
func (c *Client) Model() string { return c.model }

// Provider returns the name of the wire format in use.
func (c *Client) Provider() string { return c.prov.Name() }

// Complete sends messages and returns the answer as a Stream. With stream
// set, fragments are decoded lazily as they arrive; otherwise the call blocks
// for the whole response and the Stream yields it as a single fragment.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, stream bool) (Stream, error) {
	temperature := c.temperature
	body, err := c.prov.EncodeRequest(&llm.ChatRequest{
		Model:       c.model,
		Messages:    messages,
		Stream:      stream,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	c.logger.Debug("sending chat request",
		"endpoint", c.endpoint,
		"provider", c.prov.Name(),
		"model", c.model,
		"message_count", len(messages),
		"stream", stream,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if stream && c.prov.Framing() == llm.FramingSSE {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	c.prov.Authorize(req.Header, c.credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if stream {
		return newChunkStream(resp.Body, c.prov, c.wire), nil
	}

	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	parsed, err := c.prov.ParseResponse(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	c.logger.Debug("received chat response",
		"model", parsed.Model,
		"stop_reason", parsed.StopReason,
		"bytes", len(payload),
	)

	return Text(parsed.Message.Content), nil
}
