package oracle

import (
	"github.com/dnaclient/dnaclient/src/machine"
)

// ListPhase is the state of a voting list machine.
type ListPhase int

const (
	// ListLoading loads the votings of the epoch.
	ListLoading ListPhase = iota
	// ListLoaded accepts Filter, Mined and Changed.
	ListLoaded
	// ListFailed keeps the load error until Reload.
	ListFailed
)

// String returns the name of the phase.
func (p ListPhase) String() string {
	switch p {
	case ListLoading:
		return "loading"
	case ListLoaded:
		return "loaded"
	case ListFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// List is the state of a voting list machine.
type List struct {
	Phase    ListPhase `json:"-"`
	Epoch    int       `json:"epoch"`
	Votings  []Voting  `json:"votings"`
	Filtered []Voting  `json:"filteredVotings"`
	Filter   Status    `json:"filter"`
	Error    string    `json:"error,omitempty"`
}

// NewList returns a list machine loading the votings of epoch.
func NewList(epoch int) List {
	return List{
		Phase:  ListLoading,
		Epoch:  epoch,
		Filter: All,
	}
}

// VotingsLoaded reports the votings read by LoadVotings.
type VotingsLoaded struct {
	Votings []Voting
}

// VotingsLoadFailed reports a failed load.
type VotingsLoadFailed struct {
	Err error
}

// Filter changes the visible subset of the list.
type Filter struct {
	Status Status
}

// Reload loads the list again.
type Reload struct{}

// Mined is sent by a child whose transaction was mined.
type Mined struct {
	ID string
}

// Changed is sent by a child after each change of its voting.
type Changed struct {
	Voting Voting
}

// LoadVotings reads the persisted and remote votings of the list's epoch.
type LoadVotings struct {
	Epoch int
}

// SpawnChildren replaces the children of the list with one actor per voting.
type SpawnChildren struct {
	Votings []Voting
}

// EnterList returns the effects to run when a list machine starts in l.
func EnterList(l List) []Effect {
	if l.Phase == ListLoading {
		return []Effect{LoadVotings{Epoch: l.Epoch}}
	}
	return nil
}

// TransitionList computes the next list state and the effects to run for ev.
func TransitionList(l List, ev machine.Event) (List, []Effect) {
	switch l.Phase {
	case ListLoading:
		switch e := ev.(type) {
		case VotingsLoaded:
			votings := make([]Voting, len(e.Votings))
			for i, v := range e.Votings {
				v.Epoch = l.Epoch
				votings[i] = v
			}
			l.Votings = votings
			l.Filtered = FilterVotings(votings, l.Filter)
			l.Error = ""
			l.Phase = ListLoaded
			return l, []Effect{SpawnChildren{Votings: votings}}
		case VotingsLoadFailed:
			l.Error = e.Err.Error()
			l.Phase = ListFailed
			return l, nil
		}
	case ListLoaded:
		switch e := ev.(type) {
		case Filter:
			l.Filter = e.Status
			l.Filtered = FilterVotings(l.Votings, e.Status)
			return l, nil
		case Mined:
			l.Votings = setStatus(l.Votings, e.ID, Pending)
			l.Filtered = setStatus(l.Filtered, e.ID, Pending)
			return l, nil
		case Changed:
			l.Votings = replace(l.Votings, e.Voting)
			l.Filtered = FilterVotings(l.Votings, l.Filter)
			return l, nil
		case Reload:
			return reload(l)
		}
	case ListFailed:
		if _, ok := ev.(Reload); ok {
			return reload(l)
		}
	}
	return l, nil
}

func reload(l List) (List, []Effect) {
	l.Phase = ListLoading
	l.Error = ""
	return l, EnterList(l)
}

// setStatus returns a copy of votings where the voting with the given id has
// the given status.
func setStatus(votings []Voting, id string, status Status) []Voting {
	res := make([]Voting, len(votings))
	copy(res, votings)
	for i := range res {
		if res[i].ID == id {
			res[i].Status = status
		}
	}
	return res
}

func replace(votings []Voting, v Voting) []Voting {
	res := make([]Voting, len(votings))
	copy(res, votings)
	for i := range res {
		if res[i].ID == v.ID {
			v.Epoch = res[i].Epoch
			res[i] = v
		}
	}
	return res
}

// MergeVotings concatenates persisted and remote votings. A remote voting
// whose id is already persisted is dropped.
func MergeVotings(persisted, remote []Voting) []Voting {
	seen := make(map[string]bool, len(persisted))
	res := make([]Voting, 0, len(persisted)+len(remote))
	for _, v := range persisted {
		seen[v.ID] = true
		res = append(res, v)
	}
	for _, v := range remote {
		if seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		res = append(res, v)
	}
	return res
}
