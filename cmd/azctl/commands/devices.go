package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/cloudslab-io/azapi/internal/constants"
	"github.com/cloudslab-io/azapi/pkg/azapi"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewDevicesCommand creates the devices command group.
func NewDevicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "devices",
		Aliases: []string{"device", "dev"},
		Short:   "Manage device identities",
		Long:    "Create, inspect, update, and delete identities in the IoT hub device registry",
	}

	cmd.AddCommand(newDevicesListCommand())
	cmd.AddCommand(newDevicesGetCommand())
	cmd.AddCommand(newDevicesCreateCommand())
	cmd.AddCommand(newDevicesUpdateCommand())
	cmd.AddCommand(newDevicesDeleteCommand())
	cmd.AddCommand(newDevicesStatsCommand())

	return cmd
}

func newDevicesListCommand() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List device identities",
		Long:  "List identities in the device registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			var params *azapi.QueryParams
			if top > 0 {
				params = azapi.NewQueryParams().WithTop(top)
			}

			devices, err := client.Devices().List(context.Background(), params)
			if err != nil {
				return fmt.Errorf("failed to list devices: %w", err)
			}

			return outputDevices(devices)
		},
	}

	cmd.Flags().IntVar(&top, "top", constants.StandardPageSize, "maximum number of devices to return")

	return cmd
}

func outputDevices(devices []azapi.Device) error {
	if handled, err := encodeOutput(devices); handled {
		return err
	}

	if len(devices) == 0 {
		_, _ = os.Stdout.WriteString("No devices found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Device ID", "Status", "Connection", "Last Activity", "ETag")

	for _, device := range devices {
		_ = table.Append(
			device.DeviceID,
			titleCase(device.Status),
			formatString(device.ConnectionState),
			formatTime(device.LastActivityTime),
			formatString(device.ETag),
		)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func newDevicesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get DEVICE_ID",
		Short: "Get a device identity",
		Long:  "Display detailed information about one device identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			device, err := client.Devices().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get device: %w", err)
			}

			return outputDevice(device)
		},
	}
}

func outputDevice(device *azapi.Device) error {
	if handled, err := encodeOutput(device); handled {
		return err
	}

	authType := NotAvailable
	if device.Authentication != nil {
		authType = device.Authentication.Type
	}

	edge := constants.BooleanFalse
	if device.Capabilities != nil && device.Capabilities.IoTEdge {
		edge = constants.BooleanTrue
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")
	_ = table.Append("Device ID", device.DeviceID)
	_ = table.Append("Status", titleCase(device.Status))
	_ = table.Append("Status Reason", formatString(device.StatusReason))
	_ = table.Append("Connection State", formatString(device.ConnectionState))
	_ = table.Append("Last Activity", formatTime(device.LastActivityTime))
	_ = table.Append("C2D Messages", strconv.FormatInt(device.CloudToDeviceMessageCount, 10))
	_ = table.Append("Authentication", authType)
	_ = table.Append("IoT Edge", edge)
	_ = table.Append("Generation ID", formatString(device.GenerationID))
	_ = table.Append("ETag", formatString(device.ETag))

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// DeviceWriteOptions holds the options shared by create and update.
type DeviceWriteOptions struct {
	Status       string
	StatusReason string
	Edge         bool
	Force        bool
}

func newDevicesCreateCommand() *cobra.Command {
	var opts DeviceWriteOptions

	cmd := &cobra.Command{
		Use:   "create DEVICE_ID",
		Short: "Create a device identity",
		Long:  "Register a new device identity. The hub generates symmetric keys unless authentication is supplied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			device := &azapi.Device{
				DeviceID:     args[0],
				Status:       opts.Status,
				StatusReason: opts.StatusReason,
			}
			if opts.Edge {
				device.Capabilities = &azapi.DeviceCapabilities{IoTEdge: true}
			}

			created, err := client.Devices().Create(context.Background(), device)
			if err != nil {
				return fmt.Errorf("failed to create device: %w", err)
			}

			return outputDevice(created)
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", azapi.DeviceStatusEnabled, "initial status (enabled, disabled)")
	cmd.Flags().StringVar(&opts.StatusReason, "status-reason", "", "free-form status reason")
	cmd.Flags().BoolVar(&opts.Edge, "edge", false, "mark the device as an IoT Edge device")

	return cmd
}

func newDevicesUpdateCommand() *cobra.Command {
	var opts DeviceWriteOptions

	cmd := &cobra.Command{
		Use:   "update DEVICE_ID",
		Short: "Update a device identity",
		Long: `Update an existing device identity.

The current identity is fetched first and its ETag sent as an If-Match
precondition, so concurrent edits fail instead of being overwritten. Use
--force to overwrite unconditionally.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevicesUpdateCommand(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "new status (enabled, disabled)")
	cmd.Flags().StringVar(&opts.StatusReason, "status-reason", "", "free-form status reason")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite regardless of concurrent changes")

	return cmd
}

func runDevicesUpdateCommand(cmd *cobra.Command, deviceID string, opts DeviceWriteOptions) error {
	client, err := CreateClient()
	if err != nil {
		return err
	}

	ctx := context.Background()

	device, err := client.Devices().Get(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("failed to get device: %w", err)
	}

	if cmd.Flags().Changed("status") {
		device.Status = opts.Status
	}

	if cmd.Flags().Changed("status-reason") {
		device.StatusReason = opts.StatusReason
	}

	updated, err := client.Devices().Update(ctx, device, opts.Force)
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}

	return outputDevice(updated)
}

func newDevicesDeleteCommand() *cobra.Command {
	var (
		etag  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "delete DEVICE_ID",
		Short: "Delete a device identity",
		Long:  "Remove a device identity, its modules, and its twin from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			if etag == "" && !force {
				device, err := client.Devices().Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get device: %w", err)
				}

				etag = device.ETag
			}

			err = client.Devices().Delete(ctx, args[0], azapi.ETag(etag), force)
			if err != nil {
				return fmt.Errorf("failed to delete device: %w", err)
			}

			fmt.Printf("Device '%s' deleted\n", args[0])

			return nil
		},
	}

	cmd.Flags().StringVar(&etag, "etag", "", "expected ETag (fetched automatically when omitted)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete regardless of concurrent changes")

	return cmd
}

func newDevicesStatsCommand() *cobra.Command {
	var service bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show registry statistics",
		Long:  "Show device registry counts, or live connectivity counts with --service",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			if service {
				stats, err := client.Devices().ServiceStatistics(ctx)
				if err != nil {
					return fmt.Errorf("failed to get service statistics: %w", err)
				}

				return outputServiceStatistics(stats)
			}

			stats, err := client.Devices().Statistics(ctx)
			if err != nil {
				return fmt.Errorf("failed to get registry statistics: %w", err)
			}

			return outputRegistryStatistics(stats)
		},
	}

	cmd.Flags().BoolVar(&service, "service", false, "show connected-device counts instead of registry totals")

	return cmd
}

func outputRegistryStatistics(stats *azapi.RegistryStatistics) error {
	if handled, err := encodeOutput(stats); handled {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")
	_ = table.Append("Total Devices", strconv.FormatInt(stats.TotalDeviceCount, 10))
	_ = table.Append("Enabled Devices", strconv.FormatInt(stats.EnabledDeviceCount, 10))
	_ = table.Append("Disabled Devices", strconv.FormatInt(stats.DisabledDeviceCount, 10))

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func outputServiceStatistics(stats *azapi.ServiceStatistics) error {
	if handled, err := encodeOutput(stats); handled {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")
	_ = table.Append("Connected Devices", strconv.FormatInt(stats.ConnectedDeviceCount, 10))

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
