package resolver_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/aichat/pkg/resolver"
)

// recordingProber answers from a fixed table and remembers every probe.
type recordingProber struct {
	reachable map[string]bool
	probed    []string
}

func (p *recordingProber) Probe(_ context.Context, base string) error {
	p.probed = append(p.probed, base)
	if p.reachable[base] {
		return nil
	}
	return errors.New("connection refused")
}

var _ = Describe("Resolver", func() {
	var (
		a, b, c resolver.Descriptor
		prober  *recordingProber
	)

	BeforeEach(func() {
		a = resolver.Descriptor{Model: "openai/a", APIBase: "http://a.invalid", APIKey: "ka"}
		b = resolver.Descriptor{Model: "openai/b", APIBase: "http://b.invalid", APIKey: "kb"}
		c = resolver.Descriptor{Model: "openai/c", APIBase: "http://c.invalid"}
		prober = &recordingProber{reachable: map[string]bool{}}
	})

	Describe("with an explicit override", func() {
		It("returns only the override model without probing", func() {
			r := resolver.New([]resolver.Descriptor{a, b}, resolver.WithProber(prober))

			d, err := r.Resolve(context.Background(), "ollama/llama3.2")
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(Equal(resolver.Descriptor{Model: "ollama/llama3.2"}))
			Expect(d.HasEndpoint()).To(BeFalse())
			Expect(prober.probed).To(BeEmpty())
		})
	})

	Describe("probing candidates", func() {
		It("returns the first reachable candidate after probing earlier ones", func() {
			prober.reachable[b.APIBase] = true
			prober.reachable[c.APIBase] = true
			r := resolver.New([]resolver.Descriptor{a, b, c}, resolver.WithProber(prober))

			d, err := r.Resolve(context.Background(), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(Equal(b))
			Expect(prober.probed).To(Equal([]string{a.APIBase, b.APIBase}))
		})

		It("fails with ErrNoProvider when nothing is reachable", func() {
			r := resolver.New([]resolver.Descriptor{a, b}, resolver.WithProber(prober))

			_, err := r.Resolve(context.Background(), "")
			Expect(err).To(MatchError(resolver.ErrNoProvider))
			Expect(prober.probed).To(HaveLen(2))
		})

		It("fails with ErrNoProvider on an empty candidate list", func() {
			r := resolver.New(nil, resolver.WithProber(prober))

			_, err := r.Resolve(context.Background(), "")
			Expect(err).To(MatchError(resolver.ErrNoProvider))
		})

		It("skips candidates without an endpoint base", func() {
			prober.reachable[b.APIBase] = true
			r := resolver.New([]resolver.Descriptor{{Model: "gpt-4o"}, b}, resolver.WithProber(prober))

			d, err := r.Resolve(context.Background(), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(Equal(b))
			Expect(prober.probed).To(Equal([]string{b.APIBase}))
		})

		It("stops when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			r := resolver.New([]resolver.Descriptor{a, b}, resolver.WithProber(prober))

			_, err := r.Resolve(ctx, "")
			Expect(err).To(MatchError(context.Canceled))
			Expect(prober.probed).To(HaveLen(1))
		})
	})
})

var _ = Describe("HTTPProber", func() {
	It("accepts a 200 response to HEAD", func() {
		var method string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		err := resolver.NewHTTPProber(time.Second).Probe(context.Background(), server.URL)
		Expect(err).NotTo(HaveOccurred())
		Expect(method).To(Equal(http.MethodHead))
	})

	It("rejects non-200 responses", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		err := resolver.NewHTTPProber(time.Second).Probe(context.Background(), server.URL)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("404"))
	})

	It("fails for unreachable endpoints", func() {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		err := resolver.NewHTTPProber(time.Second).Probe(context.Background(), url)
		Expect(err).To(HaveOccurred())
	})

	It("times out slow endpoints", func() {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			<-release
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()
		defer close(release)

		err := resolver.NewHTTPProber(50*time.Millisecond).Probe(context.Background(), server.URL)
		Expect(err).To(HaveOccurred())
	})
})
