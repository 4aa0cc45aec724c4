package config

import (
	"os"

	"github.com/papercomputeco/aichat/pkg/resolver"
)

const (
	defaultTemperature  = 0.2
	defaultProbeTimeout = "3s"

	defaultProviderModel = "openai/myserver"
	defaultProviderBase  = "http://127.0.0.1:8888"
	defaultProviderKey   = "nokey"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Chat: ChatConfig{
			Temperature: defaultTemperature,
		},
		Probe: ProbeConfig{
			Timeout: defaultProbeTimeout,
		},
		Transcript: TranscriptConfig{
			Enabled: true,
			Dir:     os.TempDir(),
		},
		Providers: DefaultProviders(),
	}
}

// DefaultProviders returns the candidate list probed when no config file
// names any providers.
func DefaultProviders() []resolver.Descriptor {
	return []resolver.Descriptor{
		{
			Model:   defaultProviderModel,
			APIBase: defaultProviderBase,
			APIKey:  defaultProviderKey,
		},
	}
}
