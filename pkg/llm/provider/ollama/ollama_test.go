package ollama_test

import (
	"encoding/json"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/aichat/pkg/llm"
	"github.com/papercomputeco/aichat/pkg/llm/provider"
	"github.com/papercomputeco/aichat/pkg/llm/provider/ollama"
)

var _ = Describe("Ollama Provider", func() {
	var p provider.Provider

	BeforeEach(func() {
		p = ollama.New()
	})

	Describe("Name", func() {
		It("returns 'ollama'", func() {
			Expect(p.Name()).To(Equal("ollama"))
		})
	})

	Describe("endpoint", func() {
		It("targets /api/chat over NDJSON", func() {
			Expect(p.DefaultBase()).To(Equal("http://localhost:11434"))
			Expect(p.ChatPath()).To(Equal("/api/chat"))
			Expect(p.Framing()).To(Equal(llm.FramingNDJSON))
		})
	})

	Describe("Authorize", func() {
		It("sets no header without a credential", func() {
			h := http.Header{}
			p.Authorize(h, "")
			Expect(h.Get("Authorization")).To(BeEmpty())
		})

		It("sets a bearer token when configured", func() {
			h := http.Header{}
			p.Authorize(h, "secret")
			Expect(h.Get("Authorization")).To(Equal("Bearer secret"))
		})
	})

	Describe("EncodeRequest", func() {
		It("maps temperature into options", func() {
			temp := 0.2
			payload, err := p.EncodeRequest(&llm.ChatRequest{
				Model:       "llama3.2",
				Messages:    []llm.Message{llm.UserMessage("Hello!")},
				Stream:      true,
				Temperature: &temp,
			})
			Expect(err).NotTo(HaveOccurred())

			var parsed map[string]any
			Expect(json.Unmarshal(payload, &parsed)).To(Succeed())
			Expect(parsed["model"]).To(Equal("llama3.2"))
			Expect(parsed["stream"]).To(BeTrue())
			options := parsed["options"].(map[string]any)
			Expect(options["temperature"]).To(BeNumerically("~", 0.2, 0.0001))

			messages := parsed["messages"].([]any)
			Expect(messages).To(HaveLen(1))
			Expect(messages[0].(map[string]any)["content"]).To(Equal("Hello!"))
		})

		It("omits options without a temperature", func() {
			payload, err := p.EncodeRequest(&llm.ChatRequest{Model: "llama3.2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(string(payload)).NotTo(ContainSubstring("options"))
			Expect(string(payload)).To(ContainSubstring(`"stream":false`))
		})
	})

	Describe("ParseResponse", func() {
		It("parses a whole response", func() {
			payload := []byte(`{
				"model": "llama3.2",
				"created_at": "2024-01-01T00:00:00Z",
				"message": {"role": "assistant", "content": "Go is a language."},
				"done": true,
				"done_reason": "stop",
				"prompt_eval_count": 12,
				"eval_count": 5
			}`)

			resp, err := p.ParseResponse(payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Model).To(Equal("llama3.2"))
			Expect(resp.Message.Content).To(Equal("Go is a language."))
			Expect(resp.StopReason).To(Equal("stop"))
			Expect(resp.Usage.TotalTokens).To(Equal(17))
		})

		It("surfaces server errors", func() {
			_, err := p.ParseResponse([]byte(`{"error": "model 'nope' not found"}`))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("not found"))
		})

		It("rejects responses without a message", func() {
			_, err := p.ParseResponse([]byte(`{"model": "llama3.2", "done": true}`))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ParseStreamChunk", func() {
		It("parses a content chunk", func() {
			chunk, err := p.ParseStreamChunk([]byte(`{"model":"llama3.2","created_at":"2024-01-01T00:00:00Z","message":{"role":"assistant","content":"Hello"},"done":false}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(chunk.Text).To(Equal("Hello"))
			Expect(chunk.Done).To(BeFalse())
		})

		It("parses a final done chunk", func() {
			chunk, err := p.ParseStreamChunk([]byte(`{"model":"llama3.2","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop"}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(chunk.Done).To(BeTrue())
			Expect(chunk.HasText()).To(BeFalse())
			Expect(chunk.StopReason).To(Equal("stop"))
		})

		It("skips blank lines", func() {
			chunk, err := p.ParseStreamChunk([]byte(""))
			Expect(err).NotTo(HaveOccurred())
			Expect(chunk).To(BeNil())
		})

		It("surfaces in-stream errors", func() {
			_, err := p.ParseStreamChunk([]byte(`{"error":"out of memory"}`))
			Expect(err).To(HaveOccurred())
		})
	})
})
