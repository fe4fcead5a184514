package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func NewRoundsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rounds <session_id>",
		Short: "List session rounds",
		Long:  `List the fit and evaluate records of every round of a session.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			rounds, err := fsdk.ListRounds(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, rounds)
		},
	}
}

func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models [list|view]",
		Short: "Model checkpoints",
		Long:  `List and view the global model versions of a session.`,
	}

	listCmd := &cobra.Command{
		Use:   "list <session_id>",
		Short: "List model versions",
		Long:  `List checkpointed model versions of a session.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			versions, err := fsdk.ListModels(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, versions)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view <session_id> <version>",
		Short: "View model",
		Long:  `View one checkpointed model version.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			version, err := strconv.Atoi(args[1])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			cp, err := fsdk.GetModel(args[0], version)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, cp)
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(viewCmd)

	return cmd
}
