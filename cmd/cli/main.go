package main

import (
	"log"

	"github.com/absmach/fedround/cli"
	"github.com/absmach/fedround/pkg/sdk"
	"github.com/spf13/cobra"
)

const (
	defCoordinatorURL  = "http://localhost:8080"
	defTLSVerification = false
	coordinatorURLHelp = "Coordinator URL"
)

func main() {
	var (
		coordinatorURL  string
		tlsVerification bool
	)

	rootCmd := &cobra.Command{
		Use:   "fedround-cli",
		Short: "Federated round coordinator CLI",
		Long:  `fedround-cli is a command line interface for managing participants, training runs and model checkpoints of a round coordinator.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			sdkConf := sdk.Config{
				CoordinatorURL:  coordinatorURL,
				TLSVerification: tlsVerification,
			}
			cli.SetSDK(sdk.NewSDK(sdkConf))
		},
	}

	rootCmd.PersistentFlags().StringVarP(&coordinatorURL, "coordinator-url", "c", defCoordinatorURL, coordinatorURLHelp)
	rootCmd.PersistentFlags().BoolVar(&tlsVerification, "tls-verification", defTLSVerification, "Verify coordinator TLS certificates")

	rootCmd.AddCommand(cli.NewParticipantsCmd())
	rootCmd.AddCommand(cli.NewRunsCmd())
	rootCmd.AddCommand(cli.NewRoundsCmd())
	rootCmd.AddCommand(cli.NewModelsCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
