// Package aichatcmder provides the root aichat command: an interactive chat
// with a locally reachable LLM endpoint, or a single answer for piped input.
package aichatcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	configcmder "github.com/papercomputeco/aichat/cmd/aichat/config"
	initcmder "github.com/papercomputeco/aichat/cmd/aichat/init"
	versioncmder "github.com/papercomputeco/aichat/cmd/version"
	"github.com/papercomputeco/aichat/pkg/cliui"
	"github.com/papercomputeco/aichat/pkg/completion"
	"github.com/papercomputeco/aichat/pkg/config"
	"github.com/papercomputeco/aichat/pkg/dotdir"
	"github.com/papercomputeco/aichat/pkg/logger"
	"github.com/papercomputeco/aichat/pkg/prompt"
	"github.com/papercomputeco/aichat/pkg/resolver"
	"github.com/papercomputeco/aichat/pkg/session"
	"github.com/papercomputeco/aichat/pkg/transcript"
)

const aichatLongDesc string = `Chat with a large language model from the terminal.

-l|--light    Use colors for light themes
-m|--model    Model as specified in the provider routing
-s|--strip    Strip everything except code blocks in non-interactive mode

First message can be sent also with a stdin pipe which will be processed
in non-interactive mode.

Without -m or AI_API_MODEL, the providers listed in config.toml are probed
in order and the first reachable one is used.

Examples:
  aichat
  aichat -m ollama/llama3.2
  echo "list files by size" | aichat -s`

const aichatShortDesc string = "Chat with a large language model from the terminal"

// noProviderMessage is printed when no candidate endpoint is reachable.
const noProviderMessage = "No working LLM provider found, exiting..."

// UsageError wraps command line parse failures.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

type aichatCommander struct {
	light         bool
	strip         bool
	debug         bool
	logFormat     string
	model         string
	configDir     string
	temperature   float64
	systemPrompt  string
	transcriptDir string
	probeTimeout  string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// interactive reports whether stdin is a terminal.
	interactive func() bool

	// newLineReader opens the interactive prompt.
	newLineReader func(ctx context.Context, light bool, historyFile string) lineReader

	logger *slog.Logger
}

type lineReader interface {
	session.LineReader
	Close() error
}

func NewAichatCmd() *cobra.Command {
	return newAichatCmd(&aichatCommander{
		interactive:   func() bool { return isTerminal(os.Stdin) },
		newLineReader: newPromptReader,
	})
}

func newPromptReader(ctx context.Context, light bool, historyFile string) lineReader {
	opts := []prompt.Option{prompt.WithContext(ctx)}
	if historyFile != "" {
		opts = append(opts, prompt.WithHistoryFile(historyFile))
	}
	return prompt.New(light, opts...)
}

func newAichatCmd(cmder *aichatCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "aichat",
		Short:         aichatShortDesc,
		Long:          aichatLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return &UsageError{Err: fmt.Errorf("unexpected argument %q", args[0])}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, err = cmd.Flags().GetString("config-dir")
			if err != nil {
				return fmt.Errorf("could not get config-dir flag: %w", err)
			}
			cmder.logFormat, err = cmd.Flags().GetString("log-format")
			if err != nil {
				return fmt.Errorf("could not get log-format flag: %w", err)
			}
			if cmder.logFormat != logFormatPretty && cmder.logFormat != logFormatJSON {
				return &UsageError{Err: fmt.Errorf("invalid --log-format %q: must be %s or %s",
					cmder.logFormat, logFormatPretty, logFormatJSON)}
			}

			cmder.stdin = cmd.InOrStdin()
			cmder.stdout = cmd.OutOrStdout()
			cmder.stderr = cmd.ErrOrStderr()

			return cmder.run(cmd)
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding config.toml (default: ./.aichat or ~/.aichat)")
	cmd.PersistentFlags().String("log-format", logFormatPretty, "Diagnostic log format on stderr: pretty or json")

	cmd.Flags().BoolVarP(&cmder.light, "light", "l", false, "Use colors for light themes")
	cmd.Flags().BoolVarP(&cmder.strip, "strip", "s", false, "Strip everything except code blocks in non-interactive mode")
	config.AddStringFlag(cmd, config.ChatFlags, config.FlagModel, &cmder.model)
	config.AddFloatFlag(cmd, config.ChatFlags, config.FlagTemperature, &cmder.temperature)
	config.AddStringFlag(cmd, config.ChatFlags, config.FlagSystemPrompt, &cmder.systemPrompt)
	config.AddStringFlag(cmd, config.ChatFlags, config.FlagTranscriptDir, &cmder.transcriptDir)
	config.AddStringFlag(cmd, config.ChatFlags, config.FlagProbeTimeout, &cmder.probeTimeout)

	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}

const (
	logFormatPretty = "pretty"
	logFormatJSON   = "json"
)

// boundFlags are the chat flags layered over config file and environment.
// The model flag is resolved separately because AI_API_MODEL outranks it.
var boundFlags = []string{
	config.FlagTemperature,
	config.FlagSystemPrompt,
	config.FlagTranscriptDir,
	config.FlagProbeTimeout,
}

func (c *aichatCommander) run(cmd *cobra.Command) error {
	start := time.Now()

	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(c.logFormat != logFormatJSON),
		logger.WithJSON(c.logFormat == logFormatJSON),
		logger.WithSource(c.debug),
		logger.WithWriter(c.stderr),
	).With("session", uuid.NewString())

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	config.BindRegisteredFlags(v, cmd, config.ChatFlags, boundFlags)

	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	interactive := c.interactive()

	desc, err := c.resolveProvider(ctx, cfg, interactive)
	if err != nil {
		return err
	}

	client, err := c.newClient(cfg, desc)
	if err != nil {
		return err
	}

	opts := []session.Option{
		session.WithOutput(c.stdout),
		session.WithLogger(c.logger),
		session.WithTranscript(c.newTranscript(cfg, start)),
	}
	if cfg.Chat.SystemPrompt != "" {
		opts = append(opts, session.WithInstruction(cfg.Chat.SystemPrompt))
	}
	s := session.New(client, opts...)

	if !interactive {
		return s.RunPiped(ctx, c.stdin, c.strip)
	}

	cliui.KeyValue(c.stderr, "Model", desc.Model)
	fmt.Fprintln(c.stderr)

	lines := c.newLineReader(ctx, c.light, c.historyFile())
	defer lines.Close()

	return s.RunInteractive(ctx, lines)
}

func (c *aichatCommander) resolveProvider(ctx context.Context, cfg *config.Config, interactive bool) (resolver.Descriptor, error) {
	override := config.ResolveModel(os.Getenv(config.ModelEnv), c.model, cfg.Chat.Model)

	// Load already validated the duration.
	probeTimeout, _ := cfg.ProbeTimeout()
	r := resolver.New(cfg.Providers,
		resolver.WithProber(resolver.NewHTTPProber(probeTimeout)),
		resolver.WithLogger(c.logger),
	)

	var desc resolver.Descriptor
	resolve := func() error {
		var err error
		desc, err = r.Resolve(ctx, override)
		return err
	}

	var err error
	if interactive && override == "" && !c.debug {
		err = cliui.Step(c.stderr, "Finding a working provider", resolve)
	} else {
		err = resolve()
	}
	if err != nil {
		return resolver.Descriptor{}, err
	}

	c.logger.Debug("resolved provider",
		"model", desc.Model,
		"api_base", desc.APIBase,
		"override", override != "",
	)
	return desc, nil
}

func (c *aichatCommander) newClient(cfg *config.Config, desc resolver.Descriptor) (*completion.Client, error) {
	requestTimeout, _ := cfg.RequestTimeout()

	opts := []completion.Option{
		completion.WithTemperature(cfg.Chat.Temperature),
		completion.WithHTTPClient(&http.Client{Timeout: requestTimeout}),
		completion.WithLogger(c.logger),
	}
	if c.debug {
		opts = append(opts, completion.WithWireLog(logger.DebugWriter(c.logger, "wire")))
	}

	client, err := completion.New(desc, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating completion client: %w", err)
	}

	c.logger.Debug("completion endpoint",
		"provider", client.Provider(),
		"endpoint", client.Endpoint(),
		"model", client.Model(),
	)
	return client, nil
}

func (c *aichatCommander) newTranscript(cfg *config.Config, start time.Time) transcript.Sink {
	if !cfg.Transcript.Enabled {
		return transcript.Discard
	}

	dir := cfg.Transcript.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	sink := transcript.NewFileSink(transcript.PathFor(dir, start))
	c.logger.Debug("writing transcript", "path", sink.Path())
	return sink
}

// historyFile returns the input history path, or "" when there is no
// .aichat/ directory to keep it in.
func (c *aichatCommander) historyFile() string {
	dir, err := dotdir.NewManager().Target(c.configDir)
	if err != nil || dir == "" {
		return ""
	}
	return filepath.Join(dir, dotdir.HistoryFile)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Exit prints the user-facing message for err and returns the process exit
// status.
func Exit(err error, stdout, stderr io.Writer) int {
	var usageErr *UsageError

	switch {
	case err == nil:
		return 0

	case errors.As(err, &usageErr):
		fmt.Fprintln(stderr, usageErr.Err)
		fmt.Fprintln(stderr, "Run 'aichat --help' for usage.")
		return 2

	case errors.Is(err, session.ErrInterrupted), errors.Is(err, context.Canceled):
		fmt.Fprintf(stdout, "%s caught, exiting...\n", unix.SignalName(syscall.SIGINT))
		return 0

	case errors.Is(err, resolver.ErrNoProvider):
		fmt.Fprintln(stdout, noProviderMessage)
		return 1

	default:
		fmt.Fprintf(stderr, "  %s %v\n", cliui.FailMark, err)
		return 1
	}
}
