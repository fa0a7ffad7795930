package commands

import (
	"github.com/dnaclient/dnaclient/src/config"
)

//CLIConfig contains configuration for the commands
type CLIConfig struct {
	Client config.Config `mapstructure:",squash"`
	// Epoch selects the epoch of the votings command. A negative value means
	// the node's current epoch.
	Epoch  int    `mapstructure:"epoch"`
	Filter string `mapstructure:"filter"`
}

//NewDefaultCLIConfig creates a CLIConfig with default values
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Client: *config.NewDefaultConfig(),
		Epoch:  -1,
		Filter: "all",
	}
}
