package app

import "github.com/dnaclient/dnaclient/src/chain"

// State is the active leaf state of the application machine.
type State int

const (
	// Idle is the initial state, before Connect.
	Idle State = iota
	// Connecting runs a one-shot sync status check.
	Connecting
	// Syncing is entered while the node catches up with the network.
	Syncing
	// Pull fetches the full chain state once.
	Pull
	// Ready polls the node for new blocks.
	Ready
	// Offline is entered on any transport failure.
	Offline
	// Disconnected is entered on Disconnect.
	Disconnected
)

// String returns the dotted path of the state.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Syncing:
		return "connected.syncing"
	case Pull:
		return "connected.synced.pull"
	case Ready:
		return "connected.synced.ready"
	case Offline:
		return "offline"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Connected reports whether s is one of the connected substates.
func (s State) Connected() bool {
	return s == Syncing || s == Pull || s == Ready
}

// Context is the data carried by the machine. The pointed-to values are never
// mutated in place; transitions replace them.
type Context struct {
	PrevBlock         int64                    `json:"prevBlock"`
	Sync              *chain.SyncStatus        `json:"sync"`
	Epoch             *chain.Epoch             `json:"epoch"`
	Identity          *chain.Identity          `json:"identity"`
	CeremonyIntervals *chain.CeremonyIntervals `json:"ceremonyIntervals"`
	// LastError is the failure that sent the machine offline.
	LastError string `json:"lastError,omitempty"`
}

// Machine is a state with its context.
type Machine struct {
	State   State   `json:"-"`
	Context Context `json:"context"`
}

// New returns the machine in its initial state.
func New() Machine {
	return Machine{
		State:   Idle,
		Context: Context{PrevBlock: -1},
	}
}

// MarshalState is the JSON view of a Machine, with the state as its path.
type MarshalState struct {
	State   string  `json:"state"`
	Context Context `json:"context"`
}

// View returns the JSON view of m.
func (m Machine) View() MarshalState {
	return MarshalState{
		State:   m.State.String(),
		Context: m.Context,
	}
}
