package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cloudslab-io/azapi/pkg/azapi"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// QueryOptions holds the options for running a registry query.
type QueryOptions struct {
	PageSize     int
	Continuation string
	AllPages     bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	var opts QueryOptions

	cmd := &cobra.Command{
		Use:     "query QUERY",
		Aliases: []string{"q"},
		Short:   "Run a registry query",
		Long: `Run an IoT hub SQL query against the device registry.

Twin rows render as a table; projections and aggregates render as JSON.
Without --all, one page is fetched and the continuation token printed so the
cursor can be resumed with --continuation.

Examples:
  azctl query "SELECT * FROM devices WHERE tags.env = 'prod'"
  azctl query --all "SELECT * FROM devices.modules"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryCommand(args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "rows per page (service default when 0)")
	cmd.Flags().StringVar(&opts.Continuation, "continuation", "", "continuation token from a previous page")
	cmd.Flags().BoolVar(&opts.AllPages, "all", false, "fetch all pages")

	return cmd
}

func runQueryCommand(query string, opts QueryOptions) error {
	client, err := CreateClient()
	if err != nil {
		return err
	}

	ctx := context.Background()

	if opts.AllPages {
		return runQueryAllPages(ctx, client.Queries(), query, opts.PageSize)
	}

	page, err := client.Queries().Execute(ctx, query, opts.Continuation, opts.PageSize)
	if err != nil {
		return fmt.Errorf("failed to run query: %w", err)
	}

	err = outputQueryRows(page.Items)
	if err != nil {
		return err
	}

	if page.ContinuationToken != "" {
		fmt.Fprintf(os.Stderr, "More results available. Resume with --continuation %q\n", page.ContinuationToken)
	}

	return nil
}

// runQueryAllPages walks the whole cursor. Rows decode as twins on this
// path; use single pages for projections and aggregates.
func runQueryAllPages(ctx context.Context, queries azapi.QueriesClient, query string, pageSize int) error {
	twins, err := queries.Pager(ctx, query, pageSize).All()
	if err != nil {
		return fmt.Errorf("failed to run query: %w", err)
	}

	if handled, err := encodeOutput(twins); handled {
		return err
	}

	return outputQueryTwins(twins)
}

func outputQueryRows(rows []json.RawMessage) error {
	if handled, err := encodeOutput(rows); handled {
		return err
	}

	if len(rows) == 0 {
		_, _ = os.Stdout.WriteString("No results found\n")

		return nil
	}

	twins, ok := decodeTwinRows(rows)
	if !ok {
		// Projection or aggregate rows: no twin shape to tabulate.
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		if err := encoder.Encode(rows); err != nil {
			return fmt.Errorf("failed to encode query results: %w", err)
		}

		return nil
	}

	return outputQueryTwins(twins)
}

func outputQueryTwins(twins []azapi.Twin) error {
	if len(twins) == 0 {
		_, _ = os.Stdout.WriteString("No results found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Device ID", "Module ID", "Status", "Connection", "Version")

	for _, twin := range twins {
		_ = table.Append(
			twin.DeviceID,
			formatString(twin.ModuleID),
			titleCase(twin.Status),
			formatString(twin.ConnectionState),
			fmt.Sprintf("%d", twin.Version),
		)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func decodeTwinRows(rows []json.RawMessage) ([]azapi.Twin, bool) {
	twins := make([]azapi.Twin, 0, len(rows))

	for _, row := range rows {
		var twin azapi.Twin
		if err := json.Unmarshal(row, &twin); err != nil || twin.DeviceID == "" {
			return nil, false
		}

		twins = append(twins, twin)
	}

	return twins, true
}
