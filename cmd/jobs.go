package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/crosspost/internal/client"
	"github.com/crosspost/internal/status"
)

// JobsCommand returns the jobs command
func JobsCommand() *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "Inspect and retry posting jobs",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List posting jobs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "Filter by status"},
					&cli.Int64Flag{Name: "listing", Usage: "Filter by listing id"},
				},
				Action: runJobsList,
			},
			{
				Name:      "logs",
				Usage:     "Show the log lines of a job",
				ArgsUsage: "<job-id>",
				Action:    runJobsLogs,
			},
			{
				Name:      "retry",
				Usage:     "Retry a failed job",
				ArgsUsage: "<job-id>",
				Action:    runJobsRetry,
			},
		},
	}
}

func runJobsList(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	core, _ := buildClients(cfg)

	jobs, err := core.ListJobs(c.Context, client.JobFilter{
		Status:    c.String("status"),
		ListingID: c.Int64("listing"),
	})
	if err != nil {
		return fmt.Errorf("failed to fetch jobs: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLISTING\tPLATFORM\tSTATUS\tRETRIES\tERROR")
	for _, j := range jobs {
		errMsg := ""
		if j.ErrorMessage != nil {
			errMsg = *j.ErrorMessage
		}
		display := status.For(status.KindJob, j.Status)
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\t%s\n",
			j.ID, j.ListingID, j.Platform, display.Label, j.RetryCount, errMsg)
	}
	return w.Flush()
}

func runJobsLogs(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	core, _ := buildClients(cfg)

	job, err := core.GetJobLogs(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to fetch logs for job %d: %w", id, err)
	}

	fmt.Printf("job %d (%s, %s)\n", job.ID, job.Platform, job.Status)
	for _, entry := range job.Logs {
		fmt.Printf("%s [%s] %s\n",
			entry.CreatedAt.Format("15:04:05"), entry.Level, entry.Message)
		if entry.ScreenshotPath != nil {
			fmt.Printf("  screenshot: %s\n", *entry.ScreenshotPath)
		}
	}
	return nil
}

func runJobsRetry(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	core, _ := buildClients(cfg)

	// Check the retry gate locally before asking the service.
	job, err := core.GetJob(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to fetch job %d: %w", id, err)
	}
	if !status.CanRetry(*job) {
		return fmt.Errorf("job %d is %s with %d retries and cannot be retried",
			job.ID, job.Status, job.RetryCount)
	}

	retried, err := core.RetryJob(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to retry job %d: %w", id, err)
	}
	fmt.Printf("job %d requeued: %s\n", retried.ID, retried.Status)
	return nil
}
