package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/papercomputeco/aichat/pkg/resolver"
)

// Config represents the persistent aichat configuration stored as config.toml
// in the .aichat/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version    int                   `toml:"version" mapstructure:"version"`
	Chat       ChatConfig            `toml:"chat" mapstructure:"chat"`
	Probe      ProbeConfig           `toml:"probe" mapstructure:"probe"`
	Transcript TranscriptConfig      `toml:"transcript" mapstructure:"transcript"`
	Providers  []resolver.Descriptor `toml:"providers" mapstructure:"providers"`
}

// ChatConfig holds settings for chat exchanges.
type ChatConfig struct {
	// Model is an explicit model override. When set, provider probing is skipped.
	Model string `toml:"model,omitempty" mapstructure:"model"`

	// SystemPrompt replaces the built-in instruction when set.
	SystemPrompt string `toml:"system_prompt,omitempty" mapstructure:"system_prompt"`

	Temperature float64 `toml:"temperature" mapstructure:"temperature"`

	// RequestTimeout bounds a whole exchange, e.g. "2m". Empty means no limit.
	RequestTimeout string `toml:"request_timeout,omitempty" mapstructure:"request_timeout"`
}

// ProbeConfig holds provider reachability probe settings.
type ProbeConfig struct {
	Timeout string `toml:"timeout,omitempty" mapstructure:"timeout"`
}

// TranscriptConfig holds transcript file settings.
type TranscriptConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Dir     string `toml:"dir,omitempty" mapstructure:"dir"`
}

// ProbeTimeout parses Probe.Timeout.
func (c *Config) ProbeTimeout() (time.Duration, error) {
	return parseDuration("probe.timeout", c.Probe.Timeout)
}

// RequestTimeout parses Chat.RequestTimeout. Zero means no limit.
func (c *Config) RequestTimeout() (time.Duration, error) {
	return parseDuration("chat.request_timeout", c.Chat.RequestTimeout)
}

func parseDuration(key, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid value for %s: must not be negative", key)
	}
	return d, nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"chat.model": {
		get: func(c *Config) string { return c.Chat.Model },
		set: func(c *Config, v string) error { c.Chat.Model = v; return nil },
	},
	"chat.system_prompt": {
		get: func(c *Config) string { return c.Chat.SystemPrompt },
		set: func(c *Config, v string) error { c.Chat.SystemPrompt = v; return nil },
	},
	"chat.temperature": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Chat.Temperature, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for chat.temperature: %w", err)
			}
			if f < 0 || f > 2 {
				return fmt.Errorf("invalid value for chat.temperature: %v is outside [0, 2]", f)
			}
			c.Chat.Temperature = f
			return nil
		},
	},
	"chat.request_timeout": {
		get: func(c *Config) string { return c.Chat.RequestTimeout },
		set: func(c *Config, v string) error {
			if _, err := parseDuration("chat.request_timeout", v); err != nil {
				return err
			}
			c.Chat.RequestTimeout = v
			return nil
		},
	},
	"probe.timeout": {
		get: func(c *Config) string { return c.Probe.Timeout },
		set: func(c *Config, v string) error {
			if _, err := parseDuration("probe.timeout", v); err != nil {
				return err
			}
			c.Probe.Timeout = v
			return nil
		},
	},
	"transcript.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Transcript.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for transcript.enabled: %w", err)
			}
			c.Transcript.Enabled = b
			return nil
		},
	},
	"transcript.dir": {
		get: func(c *Config) string { return c.Transcript.Dir },
		set: func(c *Config, v string) error { c.Transcript.Dir = v; return nil },
	},
}
