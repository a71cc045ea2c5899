package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudslab-io/azapi/pkg/azapi"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewFeaturesCommand creates the features command group.
func NewFeaturesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "features",
		Aliases: []string{"feature", "ft"},
		Short:   "Manage preview features",
		Long:    "List, inspect, register, and unregister Azure preview features for a subscription",
	}

	cmd.AddCommand(newFeaturesListCommand())
	cmd.AddCommand(newFeaturesGetCommand())
	cmd.AddCommand(newFeaturesRegisterCommand())
	cmd.AddCommand(newFeaturesUnregisterCommand())
	cmd.AddCommand(newFeaturesOperationsCommand())

	return cmd
}

// FeaturesListOptions holds the options for listing features.
type FeaturesListOptions struct {
	Provider string
	AllPages bool
}

func newFeaturesListCommand() *cobra.Command {
	var opts FeaturesListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List preview features",
		Long:  "List preview features across all resource providers, or for one provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeaturesListCommand(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Provider, "provider", "p", "", "limit to one resource provider namespace")
	cmd.Flags().BoolVar(&opts.AllPages, "all", false, "fetch all pages")

	return cmd
}

func runFeaturesListCommand(opts FeaturesListOptions) error {
	client, err := CreateClient()
	if err != nil {
		return err
	}

	ctx := context.Background()

	features, err := fetchFeatures(ctx, client.Features(), opts)
	if err != nil {
		return err
	}

	return outputFeatures(features)
}

func fetchFeatures(ctx context.Context, features azapi.FeaturesClient, opts FeaturesListOptions) ([]azapi.Feature, error) {
	if opts.AllPages && opts.Provider == "" {
		all, err := features.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list features: %w", err)
		}

		return all, nil
	}

	var (
		page *azapi.FeatureList
		err  error
	)

	if opts.Provider != "" {
		page, err = features.ListByProvider(ctx, opts.Provider, nil)
	} else {
		page, err = features.List(ctx, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list features: %w", err)
	}

	all := page.Value

	for opts.AllPages && page.NextLink != nil && *page.NextLink != "" {
		page, err = features.ListPage(ctx, azapi.NextLinkPath(*page.NextLink), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list features: %w", err)
		}

		all = append(all, page.Value...)
	}

	return all, nil
}

func outputFeatures(features []azapi.Feature) error {
	if handled, err := encodeOutput(features); handled {
		return err
	}

	if len(features) == 0 {
		_, _ = os.Stdout.WriteString("No features found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "State", "Type")

	for _, feature := range features {
		state := NotAvailable
		if feature.Properties != nil {
			state = titleCase(feature.Properties.State)
		}

		_ = table.Append(feature.Name, state, formatString(feature.Type))
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func newFeaturesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get PROVIDER FEATURE",
		Short: "Get a preview feature",
		Long:  "Display the registration state of one preview feature",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			feature, err := client.Features().Get(context.Background(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to get feature: %w", err)
			}

			return outputFeature(feature)
		},
	}
}

func newFeaturesRegisterCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "register PROVIDER FEATURE",
		Short: "Register a preview feature",
		Long: `Request registration of a preview feature for the subscription.

Registration is asynchronous: the returned state stays "Registering" or
"Pending" until the resource provider approves it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			feature, err := client.Features().Register(context.Background(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to register feature: %w", err)
			}

			return outputFeature(feature)
		},
	}
}

func newFeaturesUnregisterCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unregister PROVIDER FEATURE",
		Short: "Unregister a preview feature",
		Long:  "Request removal of a preview feature registration from the subscription",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			feature, err := client.Features().Unregister(context.Background(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to unregister feature: %w", err)
			}

			return outputFeature(feature)
		},
	}
}

func outputFeature(feature *azapi.Feature) error {
	if handled, err := encodeOutput(feature); handled {
		return err
	}

	state := NotAvailable
	if feature.Properties != nil {
		state = titleCase(feature.Properties.State)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")
	_ = table.Append("Name", feature.Name)
	_ = table.Append("State", state)
	_ = table.Append("Type", formatString(feature.Type))
	_ = table.Append("ID", formatString(feature.ID))

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func newFeaturesOperationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "operations",
		Short: "List Microsoft.Features operations",
		Long:  "List the operations the Microsoft.Features resource provider exposes",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			operations, err := client.Operations().List(context.Background(), nil)
			if err != nil {
				return fmt.Errorf("failed to list operations: %w", err)
			}

			return outputOperations(operations.Value)
		},
	}
}

func outputOperations(operations []azapi.Operation) error {
	if handled, err := encodeOutput(operations); handled {
		return err
	}

	if len(operations) == 0 {
		_, _ = os.Stdout.WriteString("No operations found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "Provider", "Resource", "Operation")

	for _, operation := range operations {
		provider, resource, action := NotAvailable, NotAvailable, NotAvailable
		if operation.Display != nil {
			provider = formatString(operation.Display.Provider)
			resource = formatString(operation.Display.Resource)
			action = formatString(operation.Display.Operation)
		}

		_ = table.Append(operation.Name, provider, resource, action)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
