package commands

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dnaclient/dnaclient/src/config"
	"github.com/dnaclient/dnaclient/src/dnaclient"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

//NewRunCmd returns the command that starts the client
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run the client",
		PreRunE: loadConfig,
		RunE:    runDnaClient,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runDnaClient(cmd *cobra.Command, args []string) error {
	engine := dnaclient.NewDnaClient(&_config.Client)

	if err := engine.Init(); err != nil {
		_config.Client.Logger().Error("Cannot initialize engine:", err)
		return err
	}

	go engine.Run()

	//Prepare sigCh to relay SIGINT and SIGTERM system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh

	engine.Shutdown()

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddNodeFlags adds the flags shared by the commands that talk to the node
func AddNodeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("node", "n", _config.Client.NodeAddr, "URL of the node RPC endpoint")
	cmd.Flags().String("node-key", _config.Client.NodeKey, "API key of the node")
	cmd.Flags().Duration("node-timeout", _config.Client.NodeTimeout, "Timeout of a node request")
	cmd.Flags().Float64("rate-limit", _config.Client.RateLimit, "Node requests per second (0 disables the limiter)")
	cmd.Flags().Int("rate-burst", _config.Client.RateBurst, "Node requests allowed above the rate limit")
	cmd.Flags().Duration("tx-interval", _config.Client.TxInterval, "Time between transaction status checks")

	// Store
	cmd.Flags().Bool("store", _config.Client.Store, "Use badgerDB instead of in-mem DB")
	cmd.Flags().String("db", _config.Client.DatabaseDir, "Dabatabase directory")
}

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {
	AddNodeFlags(cmd)

	cmd.Flags().Duration("sync-interval", _config.Client.SyncInterval, "Time between sync checks")
	cmd.Flags().Int64("vote-deposit", _config.Client.VoteDeposit, "Deposit sent with a vote when the voting sets none")

	// Indexer
	cmd.Flags().String("indexer", _config.Client.IndexerURL, "Base URL of the votings indexer")
	cmd.Flags().Int("indexer-limit", _config.Client.IndexerLimit, "Page size of indexer requests")

	// Service
	cmd.Flags().Bool("no-service", _config.Client.NoService, "Disable the HTTP service")
	cmd.Flags().StringP("service-listen", "s", _config.Client.ServiceAddr, "Listen IP:Port for HTTP service")

	// Bridge
	cmd.Flags().Bool("no-bridge", _config.Client.NoBridge, "Disable the WAMP bridge")
	cmd.Flags().StringP("bridge-listen", "b", _config.Client.BridgeAddr, "Listen IP:Port for the WAMP bridge")
	cmd.Flags().String("bridge-realm", _config.Client.BridgeRealm, "WAMP realm of the bridge")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.Client.SetDataDir(_config.Client.DataDir)

	_config.Client.SetLogger(newLogger(&_config.Client))

	logFields := logrus.Fields{
		"client.DataDir":      _config.Client.DataDir,
		"client.LogLevel":     _config.Client.LogLevel,
		"client.LogDir":       _config.Client.LogDir,
		"client.NodeAddr":     _config.Client.NodeAddr,
		"client.NodeTimeout":  _config.Client.NodeTimeout,
		"client.RateLimit":    _config.Client.RateLimit,
		"client.RateBurst":    _config.Client.RateBurst,
		"client.SyncInterval": _config.Client.SyncInterval,
		"client.TxInterval":   _config.Client.TxInterval,
		"client.Store":        _config.Client.Store,
		"client.IndexerURL":   _config.Client.IndexerURL,
		"client.NoService":    _config.Client.NoService,
		"client.ServiceAddr":  _config.Client.ServiceAddr,
		"client.NoBridge":     _config.Client.NoBridge,
		"client.BridgeAddr":   _config.Client.BridgeAddr,
		"client.BridgeRealm":  _config.Client.BridgeRealm,
		"client.VoteDeposit":  _config.Client.VoteDeposit,
	}

	if _config.Client.Store {
		logFields["client.DatabaseDir"] = _config.Client.DatabaseDir
	}

	_config.Client.Logger().WithFields(logFields).Debug(cmd.Name())

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/dnaclient.toml (.json, .yaml also work)
	viper.SetConfigName(config.DefaultConfigFile) // name of config file (without extension)
	viper.AddConfigPath(_config.Client.DataDir)   // search root directory

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Client.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Client.Logger().Debugf("No config file found in: %s", _config.Client.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}

// newLogger writes to stderr with the prefixed formatter and, when LogDir is
// set, adds one file per level.
func newLogger(c *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.Level = config.LogLevel(c.LogLevel)
	logger.Formatter = new(prefixed.TextFormatter)

	if c.LogDir == "" {
		return logger
	}

	if err := os.MkdirAll(c.LogDir, 0700); err != nil {
		logger.WithError(err).Info("Failed to create log directory, using default stderr")
		return logger
	}

	pathMap := lfshook.PathMap{}
	for _, level := range []logrus.Level{
		logrus.DebugLevel,
		logrus.InfoLevel,
		logrus.WarnLevel,
		logrus.ErrorLevel,
	} {
		pathMap[level] = filepath.Join(c.LogDir, "dnaclient_"+level.String()+".log")
	}

	logger.Hooks.Add(lfshook.NewHook(
		pathMap,
		&logrus.TextFormatter{},
	))

	return logger
}
