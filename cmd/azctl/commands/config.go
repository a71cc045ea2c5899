package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/cloudslab-io/azapi/internal/constants"
)

// Masked replaces secret values in config output.
const Masked = "***"

// secretKeys are config keys whose values are masked in output and prompted
// for without echo.
var secretKeys = []string{
	"client-secret",
	"token",
	"hub-connection-string",
	"hub-token",
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage azctl configuration",
		Long:  "View and persist azctl settings in the config file",
	}

	cmd.AddCommand(newConfigViewCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigViewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show the resolved configuration",
		Long:  "Show the settings azctl resolved from flags, environment, and the config file. Secrets are masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := map[string]string{}

			for _, key := range configKeys {
				value := viper.GetString(key)
				if value == "" {
					continue
				}

				if slices.Contains(secretKeys, key) {
					value = Masked
				}

				settings[key] = value
			}

			if handled, err := encodeOutput(settings); handled {
				return err
			}

			if len(settings) == 0 {
				_, _ = os.Stdout.WriteString("No settings configured\n")

				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.Header("Key", "Value")

			for _, key := range configKeys {
				if value, ok := settings[key]; ok {
					_ = table.Append(key, value)
				}
			}

			if err := table.Render(); err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			return nil
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY [VALUE]",
		Short: "Persist a setting",
		Long: `Persist a setting in the config file.

Secret keys (client-secret, token, hub-connection-string, hub-token) may
omit VALUE; azctl then prompts for it without echoing.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !slices.Contains(configKeys, key) {
				return fmt.Errorf("%w: %q", ErrConfigKeyUnknown, key)
			}

			var value string

			switch {
			case len(args) == 2:
				value = args[1]
			case slices.Contains(secretKeys, key):
				fmt.Printf("%s: ", key)

				secret, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read secret: %w", err)
				}

				value = string(secret)

				fmt.Println()
			default:
				return fmt.Errorf("%w: %q", ErrConfigValueRequired, key)
			}

			viper.Set(key, value)

			return saveConfig()
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Remove a setting",
		Long:  "Remove a setting from the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !slices.Contains(configKeys, key) {
				return fmt.Errorf("%w: %q", ErrConfigKeyUnknown, key)
			}

			viper.Set(key, "")

			return saveConfig()
		},
	}
}

func saveConfig() error {
	path := viper.ConfigFileUsed()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to find home directory: %w", err)
		}

		path = filepath.Join(home, ".azctl", "config.yml")
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, constants.ConfigFilePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Config saved to", path)

	return nil
}
