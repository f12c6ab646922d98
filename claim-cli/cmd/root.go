package cmd

import (
	"github.com/spf13/cobra"

	"github.com/satlayer/vesting-claim/claim-cli/conf"
)

func Cmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vestclaim",
		Short: "Claim vested tokens backed by a kernel attestation.",
	}

	rootCmd.AddCommand(vestingCmd())
	rootCmd.AddCommand(claimCmd())
	rootCmd.AddCommand(depositCmd())
	rootCmd.AddCommand(withdrawCmd())
	rootCmd.AddCommand(createScheduleCmd())
	rootCmd.AddCommand(keysCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())

	rootCmd.Version = conf.GetVersion()

	return rootCmd
}
