// Package initcmder provides the init command for initializing a local .aichat
// directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aichat/pkg/cliui"
	"github.com/papercomputeco/aichat/pkg/config"
)

const (
	dirName = ".aichat"

	remoteTimeout = 10 * time.Second
)

const initLongDesc string = `Initialize a new .aichat/ directory in the current working directory.

Creates a local .aichat/ directory with a config.toml that takes precedence
over the default ~/.aichat/ directory. This is useful for keeping a separate
model, provider list or system prompt per project.

The --preset flag selects the starting configuration:
  local    probe an OpenAI-compatible server on 127.0.0.1:8888 (default)
  ollama   probe a native Ollama server on localhost:11434
  openai   use gpt-4o-mini through the OpenAI API (reads OPENAI_API_KEY)
  <url>    fetch a config.toml over HTTP(S)

An existing config.toml is only replaced when --preset is given.

Examples:
  aichat init
  aichat init --preset ollama
  aichat init --preset https://example.com/aichat.toml`

const initShortDesc string = "Initialize a local .aichat/ directory"

type initCommander struct {
	preset string
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "", "Config preset name ("+strings.Join(config.ValidPresetNames(), ", ")+") or URL")

	return cmd
}

func (c *initCommander) run(ctx context.Context, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .aichat directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	_, statErr := os.Stat(cfger.GetTarget())
	exists := statErr == nil
	if exists && c.preset == "" {
		fmt.Fprintf(w, "  %s Already initialized: %s\n", cliui.SuccessMark, dir)
		return nil
	}

	cfg, err := c.loadPreset(ctx)
	if err != nil {
		return err
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Initialized .aichat directory: %s\n", cliui.SuccessMark, dir)
	return nil
}

func (c *initCommander) loadPreset(ctx context.Context) (*config.Config, error) {
	switch {
	case c.preset == "":
		return config.NewDefaultConfig(), nil
	case strings.HasPrefix(c.preset, "http://"), strings.HasPrefix(c.preset, "https://"):
		return fetchRemoteConfig(ctx, c.preset)
	default:
		return config.PresetConfig(c.preset)
	}
}

func fetchRemoteConfig(ctx context.Context, url string) (*config.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}

	cfg, err := config.ParseConfigTOML(data)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("remote config from %s", url), err)
	}
	return cfg, nil
}
