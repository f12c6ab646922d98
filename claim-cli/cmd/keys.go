package cmd

import (
	"github.com/spf13/cobra"

	"github.com/satlayer/vesting-claim/claim-cli/commands/keys"
)

func keysCmd() *cobra.Command {
	subCmd := &cobra.Command{
		Use:   "keys",
		Short: "Keys related commands",
	}

	createCmd := &cobra.Command{
		Use:   "create <password>",
		Short: "To create an account in the keystore",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			keys.Create(args[0])
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <privateKey> <password>",
		Short: "To import a hex private key into the keystore",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			keys.Import(args[0], args[1])
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "To list keystore accounts",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			keys.List()
		},
	}

	subCmd.AddCommand(createCmd)
	subCmd.AddCommand(importCmd)
	subCmd.AddCommand(listCmd)
	return subCmd
}
