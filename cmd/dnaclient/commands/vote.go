package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dnaclient/dnaclient/src/dnaclient"
	"github.com/dnaclient/dnaclient/src/oracle"
	"github.com/spf13/cobra"
)

var (
	votingID string
	option   string
)

//NewVoteCmd returns the command that votes on an oracle voting
func NewVoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vote",
		Short:   "Vote on an oracle voting of the current epoch",
		PreRunE: loadConfig,
		RunE:    vote,
	}
	AddVoteFlags(cmd)
	return cmd
}

//AddVoteFlags adds flags to the vote command
func AddVoteFlags(cmd *cobra.Command) {
	AddNodeFlags(cmd)

	cmd.Flags().StringVar(&votingID, "id", "", "Contract address of the voting")
	cmd.Flags().StringVar(&option, "option", oracle.OptionConfirm, "Vote option: confirm or reject")
	cmd.Flags().Int64("vote-deposit", _config.Client.VoteDeposit, "Deposit sent with the vote when the voting sets none")
	cmd.Flags().DurationVar(&timeout, "wait", time.Minute, "Maximum time to wait for the vote")
}

func vote(cmd *cobra.Command, args []string) error {
	conf := _config.Client
	conf.NoService = true
	conf.NoBridge = true

	engine := dnaclient.NewDnaClient(&conf)

	if err := engine.Init(); err != nil {
		conf.Logger().Error("Cannot initialize engine:", err)
		return err
	}
	defer engine.Store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := engine.Vote(ctx, votingID, option); err != nil {
		return fmt.Errorf("voting: %v", err)
	}

	fmt.Printf("Voted %s on %s\n", option, votingID)
	return nil
}
