package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudslab-io/azapi/pkg/azapi"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewModulesCommand creates the modules command group.
func NewModulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "modules",
		Aliases: []string{"module", "mod"},
		Short:   "Manage module identities",
		Long:    "Create, inspect, and delete module identities scoped to a device",
	}

	cmd.AddCommand(newModulesListCommand())
	cmd.AddCommand(newModulesGetCommand())
	cmd.AddCommand(newModulesCreateCommand())
	cmd.AddCommand(newModulesDeleteCommand())

	return cmd
}

func newModulesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list DEVICE_ID",
		Short: "List modules on a device",
		Long:  "List the module identities registered on one device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			modules, err := client.Modules().List(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to list modules: %w", err)
			}

			return outputModules(modules)
		},
	}
}

func outputModules(modules []azapi.Module) error {
	if handled, err := encodeOutput(modules); handled {
		return err
	}

	if len(modules) == 0 {
		_, _ = os.Stdout.WriteString("No modules found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Module ID", "Device ID", "Connection", "Managed By", "ETag")

	for _, module := range modules {
		_ = table.Append(
			module.ModuleID,
			module.DeviceID,
			formatString(module.ConnectionState),
			formatString(module.ManagedBy),
			formatString(module.ETag),
		)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func newModulesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get DEVICE_ID MODULE_ID",
		Short: "Get a module identity",
		Long:  "Display detailed information about one module identity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			module, err := client.Modules().Get(context.Background(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to get module: %w", err)
			}

			return outputModule(module)
		},
	}
}

func outputModule(module *azapi.Module) error {
	if handled, err := encodeOutput(module); handled {
		return err
	}

	authType := NotAvailable
	if module.Authentication != nil {
		authType = module.Authentication.Type
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")
	_ = table.Append("Module ID", module.ModuleID)
	_ = table.Append("Device ID", module.DeviceID)
	_ = table.Append("Connection State", formatString(module.ConnectionState))
	_ = table.Append("Last Activity", formatTime(module.LastActivityTime))
	_ = table.Append("Authentication", authType)
	_ = table.Append("Managed By", formatString(module.ManagedBy))
	_ = table.Append("Generation ID", formatString(module.GenerationID))
	_ = table.Append("ETag", formatString(module.ETag))

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func newModulesCreateCommand() *cobra.Command {
	var managedBy string

	cmd := &cobra.Command{
		Use:   "create DEVICE_ID MODULE_ID",
		Short: "Create a module identity",
		Long:  "Register a new module identity on a device",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			module := &azapi.Module{
				DeviceID:  args[0],
				ModuleID:  args[1],
				ManagedBy: managedBy,
			}

			created, err := client.Modules().Create(context.Background(), module)
			if err != nil {
				return fmt.Errorf("failed to create module: %w", err)
			}

			return outputModule(created)
		},
	}

	cmd.Flags().StringVar(&managedBy, "managed-by", "", "owner of the module, e.g. iotEdge")

	return cmd
}

func newModulesDeleteCommand() *cobra.Command {
	var (
		etag  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "delete DEVICE_ID MODULE_ID",
		Short: "Delete a module identity",
		Long:  "Remove a module identity and its twin from the device",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			if etag == "" && !force {
				module, err := client.Modules().Get(ctx, args[0], args[1])
				if err != nil {
					return fmt.Errorf("failed to get module: %w", err)
				}

				etag = module.ETag
			}

			err = client.Modules().Delete(ctx, args[0], args[1], azapi.ETag(etag), force)
			if err != nil {
				return fmt.Errorf("failed to delete module: %w", err)
			}

			fmt.Printf("Module '%s' deleted from device '%s'\n", args[1], args[0])

			return nil
		},
	}

	cmd.Flags().StringVar(&etag, "etag", "", "expected ETag (fetched automatically when omitted)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete regardless of concurrent changes")

	return cmd
}
