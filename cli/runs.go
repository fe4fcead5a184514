package cli

import (
	"time"

	"github.com/spf13/cobra"
)

const runningStatus = "running"

func NewRunsCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "runs [start|view|list|wait]",
		Short: "Training runs manager",
		Long:  `Start, view, list and wait for training runs.`,
	}

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start run",
		Long:  `Start a training run over the registered participants.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			run, err := fsdk.StartRun()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, run)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view <id>",
		Short: "View run",
		Long:  `View a run and its session reports.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			run, err := fsdk.GetRun(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, run)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		Long:  `List runs, oldest first.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			page, err := fsdk.ListRuns(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	waitCmd := &cobra.Command{
		Use:   "wait <id>",
		Short: "Wait for run",
		Long:  `Poll a run until it is no longer running and print it.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				run, err := fsdk.GetRun(args[0])
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				if run.Status != runningStatus {
					logJSONCmd(*cmd, run)

					return
				}

				select {
				case <-cmd.Context().Done():
					logErrorCmd(*cmd, cmd.Context().Err())

					return
				case <-ticker.C:
				}
			}
		},
	}
	waitCmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Polling interval")

	cmd.AddCommand(startCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(listCmd)
	cmd.AddCommand(waitCmd)
	addPageFlags(cmd)

	return cmd
}
