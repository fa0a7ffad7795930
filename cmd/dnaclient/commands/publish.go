package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dnaclient/dnaclient/src/dnaclient"
	"github.com/spf13/cobra"
)

var (
	title     string
	desc      string
	startDate string
	timeout   time.Duration
)

//NewPublishCmd returns the command that deploys a new oracle voting
func NewPublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "publish",
		Short:   "Deploy a new oracle voting",
		PreRunE: loadConfig,
		RunE:    publish,
	}
	AddPublishFlags(cmd)
	return cmd
}

//AddPublishFlags adds flags to the publish command
func AddPublishFlags(cmd *cobra.Command) {
	AddNodeFlags(cmd)

	cmd.Flags().StringVar(&title, "title", "", "Title of the voting")
	cmd.Flags().StringVar(&desc, "desc", "", "Description of the voting")
	cmd.Flags().StringVar(&startDate, "start-date", "", "Start date, RFC 3339 or milliseconds since epoch")
	cmd.Flags().DurationVar(&timeout, "wait", time.Minute, "Maximum time to wait for the deployment")
}

func publish(cmd *cobra.Command, args []string) error {
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

	draft, err := engine.PublishVoting(ctx, title, desc, startDate)
	if err != nil {
		return fmt.Errorf("publishing voting: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(draft)
}
