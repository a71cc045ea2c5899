package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudslab-io/azapi/pkg/azapi"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewTwinsCommand creates the twins command group.
func NewTwinsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "twins",
		Aliases: []string{"twin", "tw"},
		Short:   "Manage device and module twins",
		Long:    "Read and update the twin documents of devices and modules",
	}

	cmd.AddCommand(newTwinsGetCommand())
	cmd.AddCommand(newTwinsUpdateCommand())

	return cmd
}

func newTwinsGetCommand() *cobra.Command {
	var moduleID string

	cmd := &cobra.Command{
		Use:   "get DEVICE_ID",
		Short: "Get a twin",
		Long:  "Display the twin document of a device, or of one of its modules with --module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			var (
				twin *azapi.Twin
			)

			if moduleID != "" {
				twin, err = client.Twins().GetModuleTwin(ctx, args[0], moduleID)
			} else {
				twin, err = client.Twins().Get(ctx, args[0])
			}

			if err != nil {
				return fmt.Errorf("failed to get twin: %w", err)
			}

			return outputTwin(twin)
		},
	}

	cmd.Flags().StringVarP(&moduleID, "module", "m", "", "module ID for a module twin")

	return cmd
}

// TwinsUpdateOptions holds the options for patching a twin.
type TwinsUpdateOptions struct {
	ModuleID string
	Tags     []string
	Desired  []string
	ETag     string
	Force    bool
}

func newTwinsUpdateCommand() *cobra.Command {
	var opts TwinsUpdateOptions

	cmd := &cobra.Command{
		Use:   "update DEVICE_ID",
		Short: "Update a twin",
		Long: `Merge tags and desired properties into a twin.

Unmentioned twin fields are left untouched; setting a value to null removes
it. Dots in keys descend into nested documents, so
--tag location.building=43 sets tags.location.building. The write carries an
If-Match precondition unless --etag or --force is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTwinsUpdateCommand(args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ModuleID, "module", "m", "", "module ID for a module twin")
	cmd.Flags().StringArrayVar(&opts.Tags, "tag", nil, "tag to merge, key=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Desired, "desired", nil, "desired property to merge, key=value (repeatable)")
	cmd.Flags().StringVar(&opts.ETag, "etag", "", "expected ETag (fetched automatically when omitted)")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "update regardless of concurrent changes")

	return cmd
}

func runTwinsUpdateCommand(deviceID string, opts TwinsUpdateOptions) error {
	client, err := CreateClient()
	if err != nil {
		return err
	}

	ctx := context.Background()

	patch, err := buildTwinPatch(opts)
	if err != nil {
		return err
	}

	etag := azapi.ETag(opts.ETag)
	if etag == "" && !opts.Force {
		current, err := fetchTwin(ctx, client.Twins(), deviceID, opts.ModuleID)
		if err != nil {
			return fmt.Errorf("failed to get twin: %w", err)
		}

		etag = azapi.ETag(current.ETag)
	}

	var twin *azapi.Twin
	if opts.ModuleID != "" {
		twin, err = client.Twins().UpdateModuleTwin(ctx, deviceID, opts.ModuleID, patch, etag, opts.Force)
	} else {
		twin, err = client.Twins().Update(ctx, deviceID, patch, etag, opts.Force)
	}

	if err != nil {
		return fmt.Errorf("failed to update twin: %w", err)
	}

	return outputTwin(twin)
}

func fetchTwin(ctx context.Context, twins azapi.TwinsClient, deviceID, moduleID string) (*azapi.Twin, error) {
	if moduleID != "" {
		return twins.GetModuleTwin(ctx, deviceID, moduleID)
	}

	return twins.Get(ctx, deviceID)
}

func buildTwinPatch(opts TwinsUpdateOptions) (*azapi.Twin, error) {
	patch := &azapi.Twin{}

	if len(opts.Tags) > 0 {
		tags, err := parsePairs(opts.Tags)
		if err != nil {
			return nil, err
		}

		patch.Tags = tags
	}

	if len(opts.Desired) > 0 {
		desired, err := parsePairs(opts.Desired)
		if err != nil {
			return nil, err
		}

		patch.Properties = &azapi.TwinProperties{Desired: desired}
	}

	return patch, nil
}

func outputTwin(twin *azapi.Twin) error {
	if handled, err := encodeOutput(twin); handled {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")
	_ = table.Append("Device ID", twin.DeviceID)

	if twin.ModuleID != "" {
		_ = table.Append("Module ID", twin.ModuleID)
	}

	_ = table.Append("Status", titleCase(twin.Status))
	_ = table.Append("Connection State", formatString(twin.ConnectionState))
	_ = table.Append("Version", fmt.Sprintf("%d", twin.Version))
	_ = table.Append("ETag", formatString(twin.ETag))

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return outputTwinDocuments(twin)
}

// outputTwinDocuments prints tags and properties as YAML below the summary
// table; nested documents do not fit table cells.
func outputTwinDocuments(twin *azapi.Twin) error {
	documents := map[string]any{}

	if len(twin.Tags) > 0 {
		documents["tags"] = twin.Tags
	}

	if twin.Properties != nil {
		if len(twin.Properties.Desired) > 0 {
			documents["desired"] = twin.Properties.Desired
		}

		if len(twin.Properties.Reported) > 0 {
			documents["reported"] = twin.Properties.Reported
		}
	}

	if len(documents) == 0 {
		return nil
	}

	encoder := yaml.NewEncoder(os.Stdout)

	if err := encoder.Encode(documents); err != nil {
		return fmt.Errorf("failed to encode twin documents: %w", err)
	}

	return nil
}
