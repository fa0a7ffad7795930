package main

import (
	"os"

	cmd "github.com/dnaclient/dnaclient/cmd/dnaclient/commands"
)

func main() {
	rootCmd := cmd.RootCmd

	rootCmd.AddCommand(
		cmd.VersionCmd,
		cmd.NewRunCmd(),
		cmd.NewPublishCmd(),
		cmd.NewVotingsCmd(),
		cmd.NewVoteCmd(),
	)

	//Do not print usage when error occurs
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
