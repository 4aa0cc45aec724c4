package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/aichat/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the AICHAT_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (AICHAT_CHAT_TEMPERATURE, AICHAT_PROBE_TIMEOUT, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("AICHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// Load decodes the effective configuration out of v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Chat: ChatConfig{
			Model:          v.GetString("chat.model"),
			SystemPrompt:   v.GetString("chat.system_prompt"),
			Temperature:    v.GetFloat64("chat.temperature"),
			RequestTimeout: v.GetString("chat.request_timeout"),
		},
		Probe: ProbeConfig{
			Timeout: v.GetString("probe.timeout"),
		},
		Transcript: TranscriptConfig{
			Enabled: v.GetBool("transcript.enabled"),
			Dir:     v.GetString("transcript.dir"),
		},
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	if err := v.UnmarshalKey("providers", &cfg.Providers); err != nil {
		return nil, fmt.Errorf("decoding providers: %w", err)
	}
	if len(cfg.Providers) == 0 {
		cfg.Providers = DefaultProviders()
	}

	if _, err := cfg.ProbeTimeout(); err != nil {
		return nil, err
	}
	if _, err := cfg.RequestTimeout(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Chat
	v.SetDefault("chat.model", d.Chat.Model)
	v.SetDefault("chat.system_prompt", d.Chat.SystemPrompt)
	v.SetDefault("chat.temperature", d.Chat.Temperature)
	v.SetDefault("chat.request_timeout", d.Chat.RequestTimeout)

	// Probe
	v.SetDefault("probe.timeout", d.Probe.Timeout)

	// Transcript
	v.SetDefault("transcript.enabled", d.Transcript.Enabled)
	v.SetDefault("transcript.dir", d.Transcript.Dir)
}
