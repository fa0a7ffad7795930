package commands

import (
	"github.com/spf13/cobra"
)

var (
	_config = NewDefaultCLIConfig()
)

func init() {
	RootCmd.PersistentFlags().String("datadir", _config.Client.DataDir, "Top-level directory for configuration and data")
	RootCmd.PersistentFlags().String("log", _config.Client.LogLevel, "debug, info, warn, error, fatal, panic")
	RootCmd.PersistentFlags().String("log-dir", _config.Client.LogDir, "Directory receiving one log file per level")
}

//RootCmd is the root command for dnaclient
var RootCmd = &cobra.Command{
	Use:              "dnaclient",
	Short:            "Idena identity client",
	TraverseChildren: true,
}
