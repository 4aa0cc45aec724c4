package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aichat/pkg/cliui"
	"github.com/papercomputeco/aichat/pkg/config"
)

const getLongDesc string = `Print the effective value of one configuration key.

The value comes from config.toml in the resolved .aichat/ directory,
falling back to the built-in default. With --raw only the value itself
is printed, which suits shell substitution.

Examples:
  aichat config get chat.model
  aichat config get probe.timeout --raw`

const getShortDesc string = "Print a configuration value"

func newGetCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:               "get <key>",
		Short:             getShortDesc,
		Long:              getLongDesc,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeKey,
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			value, target, err := lookup(args[0], configDir)
			if err != nil {
				return err
			}
			if raw {
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			}
			printLookup(cmd.OutOrStdout(), args[0], value, target)
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print only the value")
	return cmd
}

// lookup returns the value of key and the config file it was read from,
// which is empty when only defaults apply.
func lookup(key, configDir string) (string, string, error) {
	if err := checkKey(key); err != nil {
		return "", "", err
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return "", "", fmt.Errorf("loading config: %w", err)
	}

	value, err := cfger.GetConfigValue(key)
	if err != nil {
		return "", "", err
	}
	return value, cfger.GetTarget(), nil
}

func printLookup(w io.Writer, key, value, target string) {
	fmt.Fprintln(w)
	if target == "" {
		target = "<defaults>"
	}
	cliui.KeyValue(w, "Config file", target)

	if value == "" {
		value = "<not set>"
	}
	cliui.KeyValue(w, key, value)
	fmt.Fprintln(w)
}
