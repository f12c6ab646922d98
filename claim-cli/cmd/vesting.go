package cmd

import (
	"github.com/spf13/cobra"

	"github.com/satlayer/vesting-claim/claim-cli/commands/vault"
)

func vestingCmd() *cobra.Command {
	subCmd := &cobra.Command{
		Use:   "vesting",
		Short: "Vesting schedule and ledger queries",
	}

	var token string
	subCmd.PersistentFlags().StringVar(&token, "token", "", "token address (defaults to contract.token)")

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "To show the token's vesting schedule",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			vault.Schedule(token)
		},
	}

	vestedCmd := &cobra.Command{
		Use:   "vested",
		Short: "To show the amount vested at the latest block",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			vault.Vested(token)
		},
	}

	claimableCmd := &cobra.Command{
		Use:   "claimable <user>",
		Short: "To show how much user can claim now",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			vault.Claimable(token, args[0])
		},
	}

	eligibleCmd := &cobra.Command{
		Use:   "eligible <user>",
		Short: "To check whether user is eligible for the token",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			vault.Eligible(token, args[0])
		},
	}

	ledgerCmd := &cobra.Command{
		Use:   "ledger <user>",
		Short: "To show user's deposited and claimed amounts",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			vault.Ledger(token, args[0])
		},
	}

	subCmd.AddCommand(scheduleCmd)
	subCmd.AddCommand(vestedCmd)
	subCmd.AddCommand(claimableCmd)
	subCmd.AddCommand(eligibleCmd)
	subCmd.AddCommand(ledgerCmd)
	return subCmd
}
