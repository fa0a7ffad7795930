// Package config defines the configuration of a dnaclient process.
//
// Whether the client is embedded from Go code or started from the command
// line, it uses the Config object defined in this package. The command line
// reads an optional file from the data directory, Config.DataDir:
//
//  dnaclient.toml // (or .yaml, .json) values for any of the command-line flags.
//  badger_db/     // the epoch store, when Config.Store is set.
package config
