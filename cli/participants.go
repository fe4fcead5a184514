package cli

import (
	"github.com/absmach/fedround/pkg/sdk"
	"github.com/spf13/cobra"
)

var fsdk sdk.SDK

func SetSDK(s sdk.SDK) {
	fsdk = s
}

func NewParticipantsCmd() *cobra.Command {
	var id, name string

	cmd := &cobra.Command{
		Use:   "participants [register|list|remove]",
		Short: "Participants manager",
		Long:  `Register, list and remove training participants.`,
	}

	registerCmd := &cobra.Command{
		Use:   "register <url>",
		Short: "Register participant",
		Long: `Register a participant reachable at its base URL.

Examples:
  fedround-cli participants register http://10.0.0.2:9000
  fedround-cli participants register http://10.0.0.2:9000 --id site-a --name hospital-a`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			p, err := fsdk.RegisterParticipant(sdk.Participant{
				ID:   id,
				Name: name,
				URL:  args[0],
			})
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, p)
		},
	}
	registerCmd.Flags().StringVar(&id, "id", "", "Participant ID, generated when empty")
	registerCmd.Flags().StringVar(&name, "name", "", "Participant name, generated when empty")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List participants",
		Long:  `List registered participants.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			page, err := fsdk.ListParticipants(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove participant",
		Long:  `Remove a participant from the pool. Running rounds are not affected.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			if err := fsdk.RemoveParticipant(args[0]); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	}

	cmd.AddCommand(registerCmd)
	cmd.AddCommand(listCmd)
	cmd.AddCommand(removeCmd)
	addPageFlags(cmd)

	return cmd
}
