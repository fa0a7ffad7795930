package app

import "github.com/dnaclient/dnaclient/src/chain"

// Effect is a command returned by Transition. Each effect runs as an activity
// owned by the scope it names.
type Effect interface {
	Scope() string
}

// FetchSync calls bcn_syncing once.
type FetchSync struct{}

// Scope implements Effect.
func (FetchSync) Scope() string { return Connecting.String() }

// FetchIdentity calls dna_identity once.
type FetchIdentity struct{}

// Scope implements Effect.
func (FetchIdentity) Scope() string { return Syncing.String() }

// FetchChain completes Sync into a full snapshot.
type FetchChain struct {
	Sync chain.SyncStatus
}

// Scope implements Effect.
func (FetchChain) Scope() string { return Pull.String() }

// StartPoller runs the sync poller from PrevBlock for as long as the state In
// is active.
type StartPoller struct {
	In        State
	PrevBlock int64
}

// Scope implements Effect.
func (e StartPoller) Scope() string { return e.In.String() }

// SendTerminate submits the termination transaction. It belongs to the
// connected scope so that it survives block updates.
type SendTerminate struct {
	From string
	To   string
}

// Scope implements Effect.
func (SendTerminate) Scope() string { return "connected" }
