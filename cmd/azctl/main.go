package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloudslab-io/azapi/cmd/azctl/commands"
	"github.com/cloudslab-io/azapi/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "azctl",
	Short: "Azure preview-feature and IoT hub registry CLI",
	Long: `A command-line interface for the Azure Resource Manager preview-feature
API and the IoT hub service API.

Feature commands manage Microsoft.Features registrations of a subscription.
Device, twin, query, and job commands manage an IoT hub device registry.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.azctl/config.yml)")
	rootCmd.PersistentFlags().StringP("subscription", "s", "", "Azure subscription ID")
	rootCmd.PersistentFlags().StringP("token", "t", "", "ARM bearer token")
	rootCmd.PersistentFlags().String("tenant", "", "AAD tenant ID for client-credential auth")
	rootCmd.PersistentFlags().String("client-id", "", "AAD client ID")
	rootCmd.PersistentFlags().String("management-endpoint", "", "ARM endpoint override")
	rootCmd.PersistentFlags().String("hub", "", "IoT hub host name, e.g. myhub.azure-devices.net")
	rootCmd.PersistentFlags().String("hub-connection-string", "", "IoT hub connection string")
	rootCmd.PersistentFlags().String("hub-token", "", "pre-signed IoT hub SAS token")
	rootCmd.PersistentFlags().String("output", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("subscription", rootCmd.PersistentFlags().Lookup("subscription"))
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	viper.BindPFlag("tenant", rootCmd.PersistentFlags().Lookup("tenant"))
	viper.BindPFlag("client-id", rootCmd.PersistentFlags().Lookup("client-id"))
	viper.BindPFlag("management-endpoint", rootCmd.PersistentFlags().Lookup("management-endpoint"))
	viper.BindPFlag("hub", rootCmd.PersistentFlags().Lookup("hub"))
	viper.BindPFlag("hub-connection-string", rootCmd.PersistentFlags().Lookup("hub-connection-string"))
	viper.BindPFlag("hub-token", rootCmd.PersistentFlags().Lookup("hub-token"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewFeaturesCommand())
	rootCmd.AddCommand(commands.NewDevicesCommand())
	rootCmd.AddCommand(commands.NewModulesCommand())
	rootCmd.AddCommand(commands.NewTwinsCommand())
	rootCmd.AddCommand(commands.NewQueryCommand())
	rootCmd.AddCommand(commands.NewJobsCommand())
	rootCmd.AddCommand(commands.NewConfigurationsCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Create config directory if it doesn't exist
		configDir := filepath.Join(home, ".azctl")
		if err := os.MkdirAll(configDir, constants.ConfigDirPerm); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
		}

		// Search config in ~/.azctl/config.yml
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match
	viper.SetEnvPrefix("AZCTL")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
