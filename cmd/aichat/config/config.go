// Package configcmder provides the config command for managing persistent
// aichat configuration stored in the .aichat/ directory.
package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aichat/pkg/config"
)

const configLongDesc string = `Manage persistent aichat configuration.

Configuration is stored as config.toml in the .aichat/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values, and AI_API_MODEL takes precedence over -m/--model.

Keys use dotted notation matching the TOML section structure:
  chat.model, chat.system_prompt, chat.temperature, chat.request_timeout,
  probe.timeout, transcript.enabled, transcript.dir

Candidate providers are listed as [[providers]] tables with model,
api_base and api_key fields; edit config.toml directly to change them.

Use subcommands to get, set, or list configuration values:
  aichat config set <key> <value>    Set a configuration value
  aichat config get <key>            Get a configuration value
  aichat config list                 List all configuration values

Examples:
  aichat config set chat.model ollama/llama3.2
  aichat config set transcript.enabled false
  aichat config get probe.timeout
  aichat config list`

const configShortDesc string = "Manage persistent aichat configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

// checkKey rejects keys the Configer cannot get or set.
func checkKey(key string) error {
	if config.IsValidConfigKey(key) {
		return nil
	}
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

// completeKey offers config keys for the first argument only.
func completeKey(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
