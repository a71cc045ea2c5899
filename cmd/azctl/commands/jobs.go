package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/cloudslab-io/azapi/pkg/azapi"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewJobsCommand creates the jobs command group.
func NewJobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"job"},
		Short:   "Manage registry import/export jobs",
		Long:    "Start, inspect, and cancel bulk import and export jobs of the device registry",
	}

	cmd.AddCommand(newJobsListCommand())
	cmd.AddCommand(newJobsGetCommand())
	cmd.AddCommand(newJobsExportCommand())
	cmd.AddCommand(newJobsImportCommand())
	cmd.AddCommand(newJobsCancelCommand())

	return cmd
}

func newJobsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registry jobs",
		Long:  "List recent import and export jobs of the hub",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			jobs, err := client.Jobs().List(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list jobs: %w", err)
			}

			return outputJobs(jobs)
		},
	}
}

func outputJobs(jobs []azapi.JobProperties) error {
	if handled, err := encodeOutput(jobs); handled {
		return err
	}

	if len(jobs) == 0 {
		_, _ = os.Stdout.WriteString("No jobs found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Job ID", "Type", "Status", "Progress", "Started", "Ended")

	for _, job := range jobs {
		_ = table.Append(
			job.JobID,
			titleCase(string(job.Type)),
			titleCase(string(job.Status)),
			strconv.Itoa(job.Progress)+"%",
			formatTime(job.StartTime),
			formatTime(job.EndTime),
		)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func newJobsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get JOB_ID",
		Short: "Get a registry job",
		Long:  "Display the status of one import or export job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			job, err := client.Jobs().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get job: %w", err)
			}

			return outputJob(job)
		},
	}
}

func outputJob(job *azapi.JobProperties) error {
	if handled, err := encodeOutput(job); handled {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")
	_ = table.Append("Job ID", job.JobID)
	_ = table.Append("Type", titleCase(string(job.Type)))
	_ = table.Append("Status", titleCase(string(job.Status)))
	_ = table.Append("Progress", strconv.Itoa(job.Progress)+"%")
	_ = table.Append("Started", formatTime(job.StartTime))
	_ = table.Append("Ended", formatTime(job.EndTime))
	_ = table.Append("Failure Reason", formatString(job.FailureReason))

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// JobsExportOptions holds the options for starting an export job.
type JobsExportOptions struct {
	Container   string
	ExcludeKeys bool
	Wait        bool
}

func newJobsExportCommand() *cobra.Command {
	var opts JobsExportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the device registry",
		Long:  "Start a job that exports every device identity to a blob container",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			job, err := client.Jobs().CreateExport(ctx, opts.Container, opts.ExcludeKeys)
			if err != nil {
				return fmt.Errorf("failed to start export job: %w", err)
			}

			if opts.Wait {
				job, err = client.Jobs().PollUntilComplete(ctx, job.JobID)
				if err != nil {
					return fmt.Errorf("export job did not complete: %w", err)
				}
			}

			return outputJob(job)
		},
	}

	cmd.Flags().StringVar(&opts.Container, "container", "", "SAS URI of the destination blob container")
	cmd.Flags().BoolVar(&opts.ExcludeKeys, "exclude-keys", false, "omit authentication keys from the export")
	cmd.Flags().BoolVar(&opts.Wait, "wait", false, "poll until the job reaches a terminal status")
	_ = cmd.MarkFlagRequired("container")

	return cmd
}

// JobsImportOptions holds the options for starting an import job.
type JobsImportOptions struct {
	InputContainer  string
	OutputContainer string
	Wait            bool
}

func newJobsImportCommand() *cobra.Command {
	var opts JobsImportOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import device identities",
		Long:  "Start a job that applies a devices.txt blob of import records to the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			job, err := client.Jobs().CreateImport(ctx, opts.InputContainer, opts.OutputContainer)
			if err != nil {
				return fmt.Errorf("failed to start import job: %w", err)
			}

			if opts.Wait {
				job, err = client.Jobs().PollUntilComplete(ctx, job.JobID)
				if err != nil {
					return fmt.Errorf("import job did not complete: %w", err)
				}
			}

			return outputJob(job)
		},
	}

	cmd.Flags().StringVar(&opts.InputContainer, "input-container", "", "SAS URI of the blob container holding the import file")
	cmd.Flags().StringVar(&opts.OutputContainer, "output-container", "", "SAS URI of the blob container for the job log")
	cmd.Flags().BoolVar(&opts.Wait, "wait", false, "poll until the job reaches a terminal status")
	_ = cmd.MarkFlagRequired("input-container")
	_ = cmd.MarkFlagRequired("output-container")

	return cmd
}

func newJobsCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel JOB_ID",
		Short: "Cancel a registry job",
		Long:  "Cancel a queued or running import or export job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			err = client.Jobs().Cancel(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to cancel job: %w", err)
			}

			fmt.Printf("Job '%s' cancelled\n", args[0])

			return nil
		},
	}
}
