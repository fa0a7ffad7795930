package app

import "github.com/dnaclient/dnaclient/src/chain"

// Connect starts the connection cycle from Idle.
type Connect struct{}

// Retry restarts the connection cycle from Offline.
type Retry struct{}

// Disconnect moves the machine to Disconnected from any state.
type Disconnect struct{}

// Reconnect resumes from Disconnected.
type Reconnect struct{}

// TerminateIdentity submits a termination transaction for the identity.
type TerminateIdentity struct {
	To string
}

// SyncFetched reports the result of the connecting sync check.
type SyncFetched struct {
	Sync chain.SyncStatus
}

// SyncFailed reports a failed connecting sync check.
type SyncFailed struct {
	Err error
}

// IdentityFetched reports the identity fetched while syncing.
type IdentityFetched struct {
	Identity chain.Identity
}

// IdentityFailed reports a failed identity fetch while syncing.
type IdentityFailed struct {
	Err error
}

// ChainFetched reports the chain state fetched by Pull.
type ChainFetched struct {
	Snapshot chain.Snapshot
}

// ChainFailed reports a failed chain state fetch.
type ChainFailed struct {
	Err error
}

// TerminateDone reports an accepted termination transaction.
type TerminateDone struct {
	Hash string
}

// TerminateFailed reports a rejected termination transaction.
type TerminateFailed struct {
	Err error
}
