package cmd

import (
	"github.com/spf13/cobra"

	"github.com/satlayer/vesting-claim/claim-cli/commands/vault"
)

// execFlags are shared by every command that may broadcast.
func execFlags(cmd *cobra.Command, opts *vault.ExecOptions, token *string) {
	cmd.Flags().StringVar(token, "token", "", "token address (defaults to contract.token)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "stop after simulation, nothing is broadcast")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "do not ask before broadcasting")
}

func claimCmd() *cobra.Command {
	var opts vault.ExecOptions
	var token string
	c := &cobra.Command{
		Use:   "claim <userAddress> <password> <amount>",
		Short: "To claim vested tokens with a kernel attestation",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			opts.User, opts.Password = args[0], args[1]
			vault.Claim(opts, token, args[2])
		},
	}
	execFlags(c, &opts, &token)
	return c
}

func depositCmd() *cobra.Command {
	var opts vault.ExecOptions
	var token string
	c := &cobra.Command{
		Use:   "deposit <userAddress> <password> <amount>",
		Short: "To deposit tokens into the vault, approving first if needed",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			opts.User, opts.Password = args[0], args[1]
			vault.Deposit(opts, token, args[2])
		},
	}
	execFlags(c, &opts, &token)
	return c
}

func withdrawCmd() *cobra.Command {
	var opts vault.ExecOptions
	var token string
	c := &cobra.Command{
		Use:   "withdraw <userAddress> <password> <amount>",
		Short: "To withdraw deposited tokens from the vault",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			opts.User, opts.Password = args[0], args[1]
			vault.Withdraw(opts, token, args[2])
		},
	}
	execFlags(c, &opts, &token)
	return c
}

func createScheduleCmd() *cobra.Command {
	var opts vault.ExecOptions
	var token string
	var start, cliff, duration uint64
	var eligible []string
	c := &cobra.Command{
		Use:   "create-schedule <userAddress> <password> <totalAmount>",
		Short: "To create the token's vesting schedule",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			opts.User, opts.Password = args[0], args[1]
			vault.CreateSchedule(opts, token, args[2], start, cliff, duration, eligible)
		},
	}
	execFlags(c, &opts, &token)
	c.Flags().Uint64Var(&start, "start", 0, "vesting start, unix seconds")
	c.Flags().Uint64Var(&cliff, "cliff", 0, "cliff duration in seconds")
	c.Flags().Uint64Var(&duration, "duration", 0, "vesting duration in seconds")
	c.Flags().StringSliceVar(&eligible, "eligible", nil, "addresses allowed to claim")
	_ = c.MarkFlagRequired("start")
	_ = c.MarkFlagRequired("duration")
	return c
}
