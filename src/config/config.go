package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/dnaclient/dnaclient/src/common"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultBadgerFile is the default name of the folder containing the Badger
	// database
	DefaultBadgerFile = "badger_db"

	// DefaultConfigFile is the base name of the configuration file read from
	// the data directory.
	DefaultConfigFile = "dnaclient"
)

// Default configuration values.
const (
	DefaultLogLevel     = "info"
	DefaultNodeAddr     = "http://localhost:9009"
	DefaultNodeTimeout  = 10 * time.Second
	DefaultRateLimit    = 20
	DefaultRateBurst    = 5
	DefaultSyncInterval = 3 * time.Second
	DefaultTxInterval   = 10 * time.Second
	DefaultStore        = true
	DefaultServiceAddr  = "127.0.0.1:8000"
	DefaultBridgeAddr   = "127.0.0.1:8001"
	DefaultBridgeRealm  = "dnaclient"
	DefaultIndexerLimit = 100
	DefaultVoteDeposit  = 100
)

// Config contains all the configuration properties of a dnaclient process.
type Config struct {
	// DataDir is the top-level directory containing configuration and data.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogDir, when set, receives one log file per level.
	LogDir string `mapstructure:"log-dir"`

	// NodeAddr is the URL of the node's JSON-RPC endpoint.
	NodeAddr string `mapstructure:"node"`

	// NodeKey is the API key sent with every node request.
	NodeKey string `mapstructure:"node-key"`

	// NodeTimeout bounds a single node request.
	NodeTimeout time.Duration `mapstructure:"node-timeout"`

	// RateLimit is the number of node requests allowed per second. Zero
	// disables the limiter.
	RateLimit float64 `mapstructure:"rate-limit"`

	// RateBurst is the number of requests that may exceed RateLimit at once.
	RateBurst int `mapstructure:"rate-burst"`

	// SyncInterval is the period of the sync poller.
	SyncInterval time.Duration `mapstructure:"sync-interval"`

	// TxInterval is the period of the transaction confirmation poller.
	TxInterval time.Duration `mapstructure:"tx-interval"`

	// Store activates persistant storage.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// NoService disables the HTTP status service.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the HTTP status service.
	ServiceAddr string `mapstructure:"service-listen"`

	// NoBridge disables the WAMP bridge.
	NoBridge bool `mapstructure:"no-bridge"`

	// BridgeAddr is the address:port of the bridge's websocket server.
	BridgeAddr string `mapstructure:"bridge-listen"`

	// BridgeRealm is the WAMP realm in which the bridge publishes.
	BridgeRealm string `mapstructure:"bridge-realm"`

	// IndexerURL is the base URL of the indexer listing oracle votings. The
	// votings list only reads the local store when it is empty.
	IndexerURL string `mapstructure:"indexer"`

	// IndexerLimit is the page size requested from the indexer.
	IndexerLimit int `mapstructure:"indexer-limit"`

	// VoteDeposit is the amount sent with a vote when the voting sets none.
	VoteDeposit int64 `mapstructure:"vote-deposit"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:      DefaultDataDir(),
		LogLevel:     DefaultLogLevel,
		NodeAddr:     DefaultNodeAddr,
		NodeTimeout:  DefaultNodeTimeout,
		RateLimit:    DefaultRateLimit,
		RateBurst:    DefaultRateBurst,
		SyncInterval: DefaultSyncInterval,
		TxInterval:   DefaultTxInterval,
		Store:        DefaultStore,
		DatabaseDir:  DefaultDatabaseDir(),
		ServiceAddr:  DefaultServiceAddr,
		BridgeAddr:   DefaultBridgeAddr,
		BridgeRealm:  DefaultBridgeRealm,
		IndexerLimit: DefaultIndexerLimit,
		VoteDeposit:  DefaultVoteDeposit,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests. Nothing is persisted and no listener is opened.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.Store = false
	config.NoService = true
	config.NoBridge = true
	config.logger = common.NewTestLogger(t, level)
	return config
}

// SetDataDir sets the top-level directory, and updates the database
// directory if it is currently set to the default value. If the database
// directory is not currently the default, it means the user has explicitely set
// it to something else, so avoid changing it again here.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// SetLogger replaces the logger returned by Logger.
func (c *Config) SetLogger(logger *logrus.Logger) {
	c.logger = logger
}

// BaseLogger returns the underlying logger, creating it if needed.
func (c *Config) BaseLogger() *logrus.Logger {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
	}
	return c.logger
}

// Logger returns a formatted logrus Entry, with prefix set to "dnaclient".
func (c *Config) Logger() *logrus.Entry {
	return c.BaseLogger().WithField("prefix", "dnaclient")
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir return the default directory name for top-level config
// based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".DnaClient")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "DnaClient")
		} else {
			return filepath.Join(home, ".dnaclient")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
