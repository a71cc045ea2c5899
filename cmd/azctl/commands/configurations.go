package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/cloudslab-io/azapi/internal/constants"
	"github.com/cloudslab-io/azapi/pkg/azapi"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewConfigurationsCommand creates the configurations command group.
func NewConfigurationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "configurations",
		Aliases: []string{"configuration", "adm"},
		Short:   "Manage device management configurations",
		Long:    "List, inspect, apply, and delete automatic device management configurations",
	}

	cmd.AddCommand(newConfigurationsListCommand())
	cmd.AddCommand(newConfigurationsGetCommand())
	cmd.AddCommand(newConfigurationsApplyCommand())
	cmd.AddCommand(newConfigurationsDeleteCommand())

	return cmd
}

func newConfigurationsListCommand() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configurations",
		Long:  "List the automatic device management configurations of the hub",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			var params *azapi.QueryParams
			if top > 0 {
				params = azapi.NewQueryParams().WithTop(top)
			}

			configurations, err := client.Configurations().List(context.Background(), params)
			if err != nil {
				return fmt.Errorf("failed to list configurations: %w", err)
			}

			return outputConfigurations(configurations)
		},
	}

	cmd.Flags().IntVar(&top, "top", constants.StandardPageSize, "maximum number of configurations to return")

	return cmd
}

func outputConfigurations(configurations []azapi.Configuration) error {
	if handled, err := encodeOutput(configurations); handled {
		return err
	}

	if len(configurations) == 0 {
		_, _ = os.Stdout.WriteString("No configurations found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Priority", "Target Condition", "Updated", "ETag")

	for _, configuration := range configurations {
		_ = table.Append(
			configuration.ID,
			strconv.Itoa(configuration.Priority),
			formatString(configuration.TargetCondition),
			formatTime(configuration.LastUpdatedTime),
			formatString(configuration.ETag),
		)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func newConfigurationsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get CONFIGURATION_ID",
		Short: "Get a configuration",
		Long:  "Display one automatic device management configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			configuration, err := client.Configurations().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get configuration: %w", err)
			}

			return outputConfiguration(configuration)
		},
	}
}

func outputConfiguration(configuration *azapi.Configuration) error {
	if handled, err := encodeOutput(configuration); handled {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")
	_ = table.Append("ID", configuration.ID)
	_ = table.Append("Priority", strconv.Itoa(configuration.Priority))
	_ = table.Append("Target Condition", formatString(configuration.TargetCondition))
	_ = table.Append("Schema Version", formatString(configuration.SchemaVersion))
	_ = table.Append("Created", formatTime(configuration.CreatedTime))
	_ = table.Append("Updated", formatTime(configuration.LastUpdatedTime))
	_ = table.Append("ETag", formatString(configuration.ETag))

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func newConfigurationsApplyCommand() *cobra.Command {
	var (
		fromFile string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create or update a configuration",
		Long: `Create or update a configuration from a JSON document.

When the document carries an ETag the write is a precondition-checked
update; otherwise it creates the configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigurationsApplyCommand(fromFile, force)
		},
	}

	cmd.Flags().StringVar(&fromFile, "from-file", "", "path to the configuration JSON document")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "update regardless of concurrent changes")
	_ = cmd.MarkFlagRequired("from-file")

	return cmd
}

func runConfigurationsApplyCommand(fromFile string, force bool) error {
	client, err := CreateClient()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(fromFile)
	if err != nil {
		return fmt.Errorf("failed to read configuration file: %w", err)
	}

	var configuration azapi.Configuration

	err = json.Unmarshal(data, &configuration)
	if err != nil {
		return fmt.Errorf("failed to parse configuration file: %w", err)
	}

	ctx := context.Background()

	var applied *azapi.Configuration
	if configuration.ETag != "" || force {
		applied, err = client.Configurations().Update(ctx, &configuration, force)
	} else {
		applied, err = client.Configurations().Create(ctx, &configuration)
	}

	if err != nil {
		return fmt.Errorf("failed to apply configuration: %w", err)
	}

	return outputConfiguration(applied)
}

func newConfigurationsDeleteCommand() *cobra.Command {
	var (
		etag  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "delete CONFIGURATION_ID",
		Short: "Delete a configuration",
		Long:  "Remove an automatic device management configuration from the hub",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			if etag == "" && !force {
				configuration, err := client.Configurations().Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get configuration: %w", err)
				}

				etag = configuration.ETag
			}

			err = client.Configurations().Delete(ctx, args[0], azapi.ETag(etag), force)
			if err != nil {
				return fmt.Errorf("failed to delete configuration: %w", err)
			}

			fmt.Printf("Configuration '%s' deleted\n", args[0])

			return nil
		},
	}

	cmd.Flags().StringVar(&etag, "etag", "", "expected ETag (fetched automatically when omitted)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete regardless of concurrent changes")

	return cmd
}
