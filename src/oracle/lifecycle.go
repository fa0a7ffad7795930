package oracle

import (
	"github.com/dnaclient/dnaclient/src/chain"
	"github.com/dnaclient/dnaclient/src/machine"
	"github.com/dnaclient/dnaclient/src/poll"
)

// Phase is the state of a voting lifecycle machine.
type Phase int

const (
	// PhaseIdle accepts AddFund, and Vote in standalone machines.
	PhaseIdle Phase = iota
	// PhaseLoading reads the voting from the store (standalone machines).
	PhaseLoading
	// PhaseDeploying waits for the deploy transaction.
	PhaseDeploying
	// PhaseFundSubmitting sends the fund transaction.
	PhaseFundSubmitting
	// PhaseFundMining waits for the fund transaction.
	PhaseFundMining
	// PhaseFundFailure waits for Publish to resubmit the fund transaction.
	PhaseFundFailure
	// PhaseVoting sends a vote (standalone machines).
	PhaseVoting
	// PhaseCounting is read-only.
	PhaseCounting
	// PhaseArchived is read-only.
	PhaseArchived
	// PhaseInvalid is terminal.
	PhaseInvalid
)

// String returns the dotted path of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseDeploying:
		return "deploying"
	case PhaseFundSubmitting:
		return "funding.submitting"
	case PhaseFundMining:
		return "funding.mining"
	case PhaseFundFailure:
		return "funding.failure"
	case PhaseVoting:
		return "voting"
	case PhaseCounting:
		return "counting"
	case PhaseArchived:
		return "archived"
	case PhaseInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Error messages recorded when a watched transaction disappears.
const (
	ErrDeployTxMissing  = "Deploy tx is missing"
	ErrFundingTxMissing = "Funding tx is missing"
)

// Vote options.
const (
	OptionConfirm = "confirm"
	OptionReject  = "reject"
)

// Lifecycle is the state of a voting lifecycle machine.
type Lifecycle struct {
	Phase  Phase
	Voting Voting
	// Standalone machines load their voting and accept Vote.
	Standalone bool
}

// Classify returns the phase a machine starts in for v: deploying if its
// transaction is being mined, counting, archived, and idle otherwise.
func Classify(v Voting) Phase {
	switch {
	case v.Status == Mining && v.TxHash != "":
		return PhaseDeploying
	case v.Status == Counting:
		return PhaseCounting
	case v.Status == Archived:
		return PhaseArchived
	default:
		return PhaseIdle
	}
}

// NewLifecycle returns the machine of a voting loaded by a list.
func NewLifecycle(v Voting) Lifecycle {
	return Lifecycle{Phase: Classify(v), Voting: v}
}

// NewViewLifecycle returns a standalone machine that starts by loading the
// voting with the given id.
func NewViewLifecycle(id string, epoch int) Lifecycle {
	return Lifecycle{
		Phase:      PhaseLoading,
		Voting:     Voting{ID: id, Epoch: epoch},
		Standalone: true,
	}
}

/*******************************************************************************
Events
*******************************************************************************/

// AddFund adds Amount to the voting's funding and submits it.
type AddFund struct {
	Amount chain.Amount
}

// Publish resubmits a failed transaction.
type Publish struct{}

// FundDone reports an accepted fund transaction.
type FundDone struct {
	Hash string
}

// FundFailed reports a rejected fund transaction.
type FundFailed struct {
	Err error
}

// Vote sends a vote with the given option.
type Vote struct {
	Option string
}

// VoteDone reports an accepted vote.
type VoteDone struct {
	Hash string
}

// VoteFailed reports a rejected vote.
type VoteFailed struct {
	Err error
}

// VotingLoaded reports the voting read by a standalone machine.
type VotingLoaded struct {
	Voting Voting
}

// VotingLoadFailed reports that a standalone machine could not read its
// voting.
type VotingLoadFailed struct {
	Err error
}

/*******************************************************************************
Effects
*******************************************************************************/

// Effect is a command returned by the transition functions of this package.
type Effect interface{}

// Persist writes the voting to the epoch store.
type Persist struct {
	Voting Voting
}

// SubmitFund sends Amount from the issuer to the voting contract.
type SubmitFund struct {
	From   string
	To     string
	Amount chain.Amount
}

// PollTx watches Hash for as long as the phase In is active.
type PollTx struct {
	In   Phase
	Hash string
}

// NotifyMined tells the parent list that the voting's transaction is mined.
type NotifyMined struct {
	ID string
}

// SendVote calls sendVote on the voting contract.
type SendVote struct {
	From     string
	Contract string
	Deposit  chain.Amount
	Option   string
}

// LoadVoting reads the voting from the store.
type LoadVoting struct {
	ID string
}

/*******************************************************************************
Transitions
*******************************************************************************/

// Enter returns the effects to run when a machine starts in l.
func Enter(l Lifecycle) []Effect {
	switch l.Phase {
	case PhaseLoading:
		return []Effect{LoadVoting{ID: l.Voting.ID}}
	case PhaseDeploying, PhaseFundMining:
		return []Effect{PollTx{In: l.Phase, Hash: l.Voting.TxHash}}
	case PhaseFundSubmitting:
		return []Effect{submitFund(l.Voting)}
	}
	return nil
}

// Transition computes the next lifecycle state and the effects to run for
// ev. Terminal phases accept no event.
func Transition(l Lifecycle, ev machine.Event) (Lifecycle, []Effect) {
	switch l.Phase {
	case PhaseLoading:
		switch e := ev.(type) {
		case VotingLoaded:
			v := e.Voting
			v.ID = l.Voting.ID
			v.Epoch = l.Voting.Epoch
			l.Voting = v
			l.Phase = Classify(v)
			return l, Enter(l)
		case VotingLoadFailed:
			l.Phase = PhaseInvalid
			l.Voting.Error = e.Err.Error()
			return l, nil
		}
	case PhaseIdle:
		switch e := ev.(type) {
		case AddFund:
			l.Voting.FundingAmount = l.Voting.FundingAmount.Add(e.Amount)
			l.Phase = PhaseFundSubmitting
			return l, []Effect{Persist{Voting: l.Voting}, submitFund(l.Voting)}
		case Vote:
			if !l.Standalone {
				return l, nil
			}
			l.Phase = PhaseVoting
			return l, []Effect{SendVote{
				From:     l.Voting.Issuer,
				Contract: l.Voting.ContractHash,
				Deposit:  l.Voting.Deposit,
				Option:   e.Option,
			}}
		}
	case PhaseFundSubmitting:
		switch e := ev.(type) {
		case FundDone:
			l.Voting.TxHash = e.Hash
			l.Voting.Status = Mining
			l.Voting.Error = ""
			l.Phase = PhaseFundMining
			return l, []Effect{Persist{Voting: l.Voting}, PollTx{In: PhaseFundMining, Hash: e.Hash}}
		case FundFailed:
			l.Voting.Error = e.Err.Error()
			l.Phase = PhaseFundFailure
			return l, []Effect{Persist{Voting: l.Voting}}
		}
	case PhaseFundFailure:
		if _, ok := ev.(Publish); ok {
			l.Phase = PhaseFundSubmitting
			return l, []Effect{submitFund(l.Voting)}
		}
	case PhaseDeploying, PhaseFundMining:
		missing := ErrDeployTxMissing
		if l.Phase == PhaseFundMining {
			missing = ErrFundingTxMissing
		}
		switch ev.(type) {
		case poll.Mined:
			l.Voting.Status = Pending
			l.Phase = PhaseIdle
			return l, []Effect{Persist{Voting: l.Voting}, NotifyMined{ID: l.Voting.ID}}
		case poll.TxNull:
			l.Voting.Status = Invalid
			l.Voting.Error = missing
			l.Phase = PhaseInvalid
			return l, []Effect{Persist{Voting: l.Voting}}
		}
	case PhaseVoting:
		switch e := ev.(type) {
		case VoteDone:
			l.Phase = PhaseIdle
			return l, nil
		case VoteFailed:
			l.Voting.Error = e.Err.Error()
			l.Phase = PhaseInvalid
			return l, []Effect{Persist{Voting: l.Voting}}
		}
	}

	return l, nil
}

func submitFund(v Voting) SubmitFund {
	return SubmitFund{
		From:   v.Issuer,
		To:     v.ContractHash,
		Amount: v.FundingAmount,
	}
}
