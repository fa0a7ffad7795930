package app

import (
	"github.com/dnaclient/dnaclient/src/chain"
	"github.com/dnaclient/dnaclient/src/machine"
	"github.com/dnaclient/dnaclient/src/poll"
	"github.com/dnaclient/dnaclient/src/rpc"
)

// Transition computes the next machine and the effects to run for ev. Events
// that the current state does not handle leave the machine unchanged.
func Transition(m Machine, ev machine.Event) (Machine, []Effect) {
	// global transitions
	switch e := ev.(type) {
	case poll.Offline:
		m.State = Offline
		if e.Err != nil {
			m.Context.LastError = e.Err.Error()
		}
		return m, nil
	case Disconnect:
		m.State = Disconnected
		return m, nil
	}

	switch m.State {
	case Idle:
		if _, ok := ev.(Connect); ok {
			return connect(m)
		}
	case Connecting:
		switch e := ev.(type) {
		case SyncFetched:
			s := e.Sync
			m.Context.Sync = &s
			if s.Syncing {
				m.State = Syncing
				return m, []Effect{
					FetchIdentity{},
					StartPoller{In: Syncing, PrevBlock: m.Context.PrevBlock},
				}
			}
			return pull(m)
		case SyncFailed:
			return offline(m, e.Err), nil
		}
	case Syncing:
		switch e := ev.(type) {
		case IdentityFetched:
			id := chain.MergeIdentity(m.Context.Identity, e.Identity)
			m.Context.Identity = &id
			return m, nil
		case IdentityFailed:
			if rpc.IsTransport(e.Err) {
				return offline(m, e.Err), nil
			}
			return m, nil
		case poll.Block:
			next, ok := applyBlock(m.Context, e.Snapshot)
			if !ok {
				return m, nil
			}
			m.Context = next
			if !e.Snapshot.Sync.Syncing {
				return ready(m)
			}
			return m, nil
		case TerminateDone:
			return terminating(m), nil
		}
	case Pull:
		switch e := ev.(type) {
		case ChainFetched:
			next, ok := applyBlock(m.Context, e.Snapshot)
			if ok {
				m.Context = next
			}
			return ready(m)
		case ChainFailed:
			return offline(m, e.Err), nil
		case TerminateDone:
			return terminating(m), nil
		}
	case Ready:
		switch e := ev.(type) {
		case poll.Block:
			next, ok := applyBlock(m.Context, e.Snapshot)
			if !ok {
				return m, nil
			}
			m.Context = next
			return ready(m)
		case TerminateIdentity:
			if m.Context.Identity == nil {
				return m, nil
			}
			return m, []Effect{SendTerminate{From: m.Context.Identity.Address, To: e.To}}
		case TerminateDone:
			return terminating(m), nil
		}
	case Offline:
		if _, ok := ev.(Retry); ok {
			return connect(m)
		}
	case Disconnected:
		if _, ok := ev.(Reconnect); ok {
			return pull(m)
		}
	}

	return m, nil
}

func connect(m Machine) (Machine, []Effect) {
	m.State = Connecting
	return m, []Effect{FetchSync{}}
}

func pull(m Machine) (Machine, []Effect) {
	m.State = Pull
	var sync chain.SyncStatus
	if m.Context.Sync != nil {
		sync = *m.Context.Sync
	}
	return m, []Effect{FetchChain{Sync: sync}}
}

func ready(m Machine) (Machine, []Effect) {
	m.State = Ready
	return m, []Effect{StartPoller{In: Ready, PrevBlock: m.Context.PrevBlock}}
}

func offline(m Machine, err error) Machine {
	m.State = Offline
	if err != nil {
		m.Context.LastError = err.Error()
	}
	return m
}

func terminating(m Machine) Machine {
	if m.Context.Identity == nil {
		return m
	}
	id := *m.Context.Identity
	id.State = chain.Terminating
	m.Context.Identity = &id
	return m
}

// applyBlock merges a snapshot into c: it replaces the sync status, the
// epoch and the ceremony intervals, merges the identity, and raises
// PrevBlock. Snapshots below PrevBlock are rejected.
func applyBlock(c Context, snap chain.Snapshot) (Context, bool) {
	if snap.Sync.HighestBlock < c.PrevBlock {
		return c, false
	}

	sync := snap.Sync
	epoch := snap.Epoch
	intervals := snap.CeremonyIntervals
	id := chain.MergeIdentity(c.Identity, snap.Identity)

	c.Sync = &sync
	c.Epoch = &epoch
	c.Identity = &id
	c.CeremonyIntervals = &intervals
	c.PrevBlock = sync.HighestBlock
	c.LastError = ""

	return c, true
}
