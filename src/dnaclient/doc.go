// Package dnaclient assembles the client.
//
// A DnaClient is created from a config.Config and initialized with Init, which
// builds, in order: the metrics registry, the epoch store (badger or
// in-memory), the node client and the optional indexer, the pollers and the
// application machine, the HTTP status service and the WAMP bridge. Run sends
// Connect to the application machine and blocks until Shutdown.
//
// The engine follows the application machine: each time the epoch in its
// context changes, the votings list of the previous epoch is stopped and a
// list for the new epoch is started.
//
// Example:
//
//	conf := config.NewDefaultConfig()
//	conf.NodeAddr = "http://localhost:9009"
//	engine := dnaclient.NewDnaClient(conf)
//	if err := engine.Init(); err != nil {
//		return err
//	}
//	go engine.Run()
//	defer engine.Shutdown()
package dnaclient
