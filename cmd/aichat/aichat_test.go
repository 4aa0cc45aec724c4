package aichatcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/aichat/pkg/config"
	"github.com/papercomputeco/aichat/pkg/logger"
	"github.com/papercomputeco/aichat/pkg/resolver"
	"github.com/papercomputeco/aichat/pkg/session"
)

type scriptedReader struct {
	lines  []string
	end    error
	closed bool
}

func (r *scriptedReader) ReadLine() (string, error) {
	if len(r.lines) == 0 {
		return "", r.end
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

// chatServer is an OpenAI-compatible endpoint that streams answer in two
// fragments, or returns it whole when streaming is off.
func chatServer(answer string, requests *[]map[string]any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			return
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		*requests = append(*requests, body)

		if stream, _ := body["stream"].(bool); !stream {
			content, _ := json.Marshal(answer)
			fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%s}}]}`, content)
			return
		}

		half := len(answer) / 2
		for _, frag := range []string{answer[:half], answer[half:]} {
			content, _ := json.Marshal(frag)
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%s}}]}\n\n", content)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func writeProviders(dir string, extra string, providers ...resolver.Descriptor) {
	var b strings.Builder
	b.WriteString(extra)
	for _, p := range providers {
		fmt.Fprintf(&b, "\n[[providers]]\nmodel = %q\napi_base = %q\n", p.Model, p.APIBase)
	}
	ExpectWithOffset(1, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(b.String()), 0o600)).To(Succeed())
}

var _ = Describe("aichat command", func() {
	var (
		configDir     string
		transcriptDir string
		stdout        *bytes.Buffer
		stderr        *bytes.Buffer
		interactive   bool
		reader        *scriptedReader
		requests      []map[string]any
	)

	run := func(stdin string, args ...string) error {
		cmder := &aichatCommander{
			interactive: func() bool { return interactive },
			newLineReader: func(context.Context, bool, string) lineReader {
				return reader
			},
		}
		cmd := newAichatCmd(cmder)
		cmd.SetIn(strings.NewReader(stdin))
		cmd.SetOut(stdout)
		cmd.SetErr(stderr)
		cmd.SetArgs(append([]string{"--config-dir", configDir}, args...))
		return cmd.ExecuteContext(context.Background())
	}

	BeforeEach(func() {
		configDir = GinkgoT().TempDir()
		transcriptDir = GinkgoT().TempDir()
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
		interactive = false
		reader = &scriptedReader{end: io.EOF}
		requests = nil
		GinkgoT().Setenv(config.ModelEnv, "")
	})

	Context("with a reachable provider", func() {
		var server *httptest.Server

		BeforeEach(func() {
			server = chatServer("Hi there", &requests)
			DeferCleanup(server.Close)

			extra := fmt.Sprintf("[transcript]\ndir = %q\n", transcriptDir)
			writeProviders(configDir, extra,
				resolver.Descriptor{Model: "openai/unreachable", APIBase: "http://127.0.0.1:1"},
				resolver.Descriptor{Model: "openai/myserver", APIBase: server.URL},
			)
		})

		It("answers piped input with streamed text and a newline", func() {
			Expect(run("hello\n")).To(Succeed())

			Expect(stdout.String()).To(Equal("Hi there\n"))
			Expect(requests).To(HaveLen(1))
			Expect(requests[0]["model"]).To(Equal("myserver"))
			Expect(requests[0]["stream"]).To(BeTrue())
			Expect(requests[0]["messages"]).To(HaveLen(2))
		})

		It("prints only code blocks in strip mode", func() {
			server = chatServer("Use:\n```sh\nls -S\n```\n", &requests)
			DeferCleanup(server.Close)
			writeProviders(configDir, "[transcript]\nenabled = false\n",
				resolver.Descriptor{Model: "openai/myserver", APIBase: server.URL})

			Expect(run("list files by size", "-s")).To(Succeed())

			Expect(stdout.String()).To(Equal("ls -S"))
			Expect(requests[0]["stream"]).To(BeFalse())
		})

		It("makes no request for empty piped input", func() {
			Expect(run("   \n")).To(Succeed())

			Expect(stdout.String()).To(BeEmpty())
			Expect(requests).To(BeEmpty())
		})

		It("writes a transcript of the exchange", func() {
			Expect(run("hello")).To(Succeed())

			matches, err := filepath.Glob(filepath.Join(transcriptDir, "chat_ai_*.log"))
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))

			data, err := os.ReadFile(matches[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("> hello\nHi there\n"))
		})

		It("sends the configured temperature and system prompt flags", func() {
			Expect(run("hello", "--temperature", "0.6", "--system-prompt", "Be terse.")).To(Succeed())

			Expect(requests[0]["temperature"]).To(BeNumerically("~", 0.6, 0.0001))
			messages := requests[0]["messages"].([]any)
			first := messages[0].(map[string]any)
			Expect(first["role"]).To(Equal("system"))
			Expect(first["content"]).To(Equal("Be terse."))
		})

		It("writes JSON diagnostics and the wire stream with --log-format json", func() {
			Expect(run("hello", "-d", "--log-format", "json")).To(Succeed())

			Expect(stdout.String()).To(Equal("Hi there\n"))

			var wireLines []string
			for _, line := range strings.Split(strings.TrimSpace(stderr.String()), "\n") {
				var record map[string]any
				Expect(json.Unmarshal([]byte(line), &record)).To(Succeed(), line)
				Expect(record).To(HaveKey("source"))
				if record["msg"] == "wire" {
					wireLines = append(wireLines, record["line"].(string))
				}
			}
			Expect(wireLines).To(ContainElement("data: [DONE]"))
		})

		It("runs an interactive session until end of input", func() {
			interactive = true
			reader.lines = []string{"hello", "", "again"}

			Expect(run("")).To(Succeed())

			Expect(stdout.String()).To(Equal("Hi there\nHi there\n"))
			Expect(requests).To(HaveLen(2))
			Expect(requests[1]["messages"]).To(HaveLen(4))
			Expect(reader.closed).To(BeTrue())
		})

		It("returns ErrInterrupted when the prompt is aborted", func() {
			interactive = true
			reader.end = session.ErrInterrupted

			err := run("")
			Expect(err).To(MatchError(session.ErrInterrupted))
		})
	})

	Context("with an explicit model", func() {
		var (
			server *httptest.Server
			probes int
			cfg    *config.Config
			cmder  *aichatCommander
		)

		BeforeEach(func() {
			probes = 0
			server = httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodHead {
					probes++
				}
			}))
			DeferCleanup(server.Close)

			cfg = config.NewDefaultConfig()
			cfg.Providers = []resolver.Descriptor{{Model: "openai/candidate", APIBase: server.URL}}
			cmder = &aichatCommander{stderr: io.Discard, logger: logger.Nop()}
		})

		It("uses the flag without probing", func() {
			cmder.model = "ollama/from-flag"

			desc, err := cmder.resolveProvider(context.Background(), cfg, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(desc).To(Equal(resolver.Descriptor{Model: "ollama/from-flag"}))
			Expect(probes).To(BeZero())
		})

		It("prefers the environment over the flag", func() {
			GinkgoT().Setenv(config.ModelEnv, "openai/from-env")
			cmder.model = "ollama/from-flag"

			desc, err := cmder.resolveProvider(context.Background(), cfg, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(desc).To(Equal(resolver.Descriptor{Model: "openai/from-env"}))
			Expect(probes).To(BeZero())
		})

		It("uses the configured model when nothing else is set", func() {
			cfg.Chat.Model = "ollama/from-config"

			desc, err := cmder.resolveProvider(context.Background(), cfg, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(desc.Model).To(Equal("ollama/from-config"))
			Expect(probes).To(BeZero())
		})

		It("probes the candidates when no model is set", func() {
			desc, err := cmder.resolveProvider(context.Background(), cfg, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(desc).To(Equal(cfg.Providers[0]))
			Expect(probes).To(Equal(1))
		})
	})

	Context("without a reachable provider", func() {
		It("returns ErrNoProvider", func() {
			writeProviders(configDir, "", resolver.Descriptor{Model: "openai/down", APIBase: "http://127.0.0.1:1"})

			err := run("hello")
			Expect(err).To(MatchError(resolver.ErrNoProvider))
		})
	})

	Context("with bad arguments", func() {
		It("returns a UsageError for unknown flags", func() {
			var usageErr *UsageError
			Expect(errors.As(run("", "--bogus"), &usageErr)).To(BeTrue())
		})

		It("returns a UsageError for an unknown log format", func() {
			var usageErr *UsageError
			Expect(errors.As(run("", "--log-format", "xml"), &usageErr)).To(BeTrue())
		})

		It("returns a UsageError for positional arguments", func() {
			var usageErr *UsageError
			Expect(errors.As(run("", "what is go"), &usageErr)).To(BeTrue())
		})
	})
})

var _ = Describe("Exit", func() {
	var stdout, stderr *bytes.Buffer

	BeforeEach(func() {
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
	})

	It("returns 0 for success", func() {
		Expect(Exit(nil, stdout, stderr)).To(Equal(0))
		Expect(stdout.String()).To(BeEmpty())
	})

	It("returns 2 for usage errors", func() {
		Expect(Exit(&UsageError{Err: errors.New("unknown flag: --bogus")}, stdout, stderr)).To(Equal(2))
		Expect(stderr.String()).To(ContainSubstring("unknown flag: --bogus"))
	})

	It("returns 0 and names the signal on interrupt", func() {
		Expect(Exit(session.ErrInterrupted, stdout, stderr)).To(Equal(0))
		Expect(stdout.String()).To(Equal("SIGINT caught, exiting...\n"))
	})

	It("treats a cancelled context as an interrupt", func() {
		Expect(Exit(fmt.Errorf("probing: %w", context.Canceled), stdout, stderr)).To(Equal(0))
		Expect(stdout.String()).To(Equal("SIGINT caught, exiting...\n"))
	})

	It("returns 1 when no provider is reachable", func() {
		Expect(Exit(resolver.ErrNoProvider, stdout, stderr)).To(Equal(1))
		Expect(stdout.String()).To(Equal("No working LLM provider found, exiting...\n"))
	})

	It("returns 1 for other errors", func() {
		Expect(Exit(errors.New("boom"), stdout, stderr)).To(Equal(1))
		Expect(stderr.String()).To(ContainSubstring("boom"))
	})
})
