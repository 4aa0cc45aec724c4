package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/papercomputeco/aichat/pkg/logger"
)

// DefaultProbeTimeout bounds a single reachability probe.
const DefaultProbeTimeout = 3 * time.Second

// ErrNoProvider is returned when no override is set and no candidate answers.
var ErrNoProvider = errors.New("no working LLM provider found")

// Prober checks whether an endpoint base is reachable.
type Prober interface {
	Probe(ctx context.Context, base string) error
}

// HTTPProber probes an endpoint with a HEAD request and accepts only 200 OK.
type HTTPProber struct {
	client *http.Client
}

// NewHTTPProber returns an HTTPProber whose requests time out after timeout.
// A non-positive timeout uses DefaultProbeTimeout.
func NewHTTPProber(timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &HTTPProber{client: &http.Client{Timeout: timeout}}
}

func (p *HTTPProber) Probe(ctx context.Context, base string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, base, nil)
	if err != nil {
		return fmt.Errorf("creating probe request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return nil
}

// Resolver picks the Descriptor a session uses for its lifetime.
type Resolver struct {
	candidates []Descriptor
	prober     Prober
	logger     *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithProber overrides the reachability prober.
func WithProber(p Prober) Option {
	return func(r *Resolver) { r.prober = p }
}

// WithLogger sets the logger used for probe diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// New returns a Resolver over the ordered candidate list.
func New(candidates []Descriptor, opts ...Option) *Resolver {
	r := &Resolver{
		candidates: candidates,
		prober:     NewHTTPProber(DefaultProbeTimeout),
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns a descriptor carrying only the override when override is
// non-empty, without touching the network. Otherwise it probes candidates in
// order and returns the first reachable one; later candidates are not probed.
// Candidates without an endpoint base cannot be probed and are skipped.
func (r *Resolver) Resolve(ctx context.Context, override string) (Descriptor, error) {
	if override != "" {
		r.logger.Debug("using model override", "model", override)
		return Descriptor{Model: override}, nil
	}

	for _, c := range r.candidates {
		if !c.HasEndpoint() {
			r.logger.Debug("skipping candidate without endpoint", "model", c.Model)
			continue
		}

		err := r.prober.Probe(ctx, c.APIBase)
		if err == nil {
			r.logger.Debug("provider reachable", "model", c.Model, "api_base", c.APIBase)
			return c, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Descriptor{}, ctxErr
		}

		r.logger.Debug("provider unreachable",
			"model", c.Model,
			"api_base", c.APIBase,
			"error", err,
		)
	}

	return Descriptor{}, ErrNoProvider
}
