package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dnaclient/dnaclient/src/dnaclient"
	"github.com/dnaclient/dnaclient/src/oracle"
	"github.com/spf13/cobra"
)

//NewVotingsCmd returns the command that prints the stored votings of an epoch
func NewVotingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "votings",
		Short:   "Print the stored votings of an epoch",
		PreRunE: loadConfig,
		RunE:    listVotings,
	}
	AddVotingsFlags(cmd)
	return cmd
}

//AddVotingsFlags adds flags to the votings command
func AddVotingsFlags(cmd *cobra.Command) {
	AddNodeFlags(cmd)

	cmd.Flags().Int("epoch", _config.Epoch, "Epoch of the votings (negative asks the node)")
	cmd.Flags().String("filter", _config.Filter, "all, mining, pending, counting, archived, invalid")
}

func listVotings(cmd *cobra.Command, args []string) error {
	filter, ok := oracle.ParseStatus(_config.Filter)
	if !ok {
		return fmt.Errorf("unknown filter %s", _config.Filter)
	}

	conf := _config.Client
	conf.NoService = true
	conf.NoBridge = true

	engine := dnaclient.NewDnaClient(&conf)

	if err := engine.Init(); err != nil {
		conf.Logger().Error("Cannot initialize engine:", err)
		return err
	}
	defer engine.Store.Close()

	epoch := _config.Epoch
	if epoch < 0 {
		e, err := engine.Node.Epoch(context.Background())
		if err != nil {
			return fmt.Errorf("reading current epoch: %v", err)
		}
		epoch = e.Epoch
	}

	votings, err := engine.StoredVotings(epoch, filter)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(votings)
}
