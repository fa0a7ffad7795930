// Package app implements the application state machine. It connects to the
// node, keeps the chain snapshot (sync status, epoch, identity and ceremony
// intervals) up to date while the node produces blocks, and tracks
// connectivity for the rest of the client.
//
//	idle --Connect--> connecting --> connected.syncing
//	                             --> connected.synced.pull --> connected.synced.ready
//	any --Offline--> offline --Retry--> connecting
//	any --Disconnect--> disconnected --Reconnect--> connected.synced.pull
//
// Transition is a pure function. Runner interprets its effects on a
// machine.Loop.
package app
