package chain

// IdentityStatus is the validation status of an identity as reported by the
// node.
type IdentityStatus string

// Identity statuses. Terminating is never reported by the node; the client
// sets it after a termination transaction has been submitted.
const (
	Undefined   IdentityStatus = "Undefined"
	Invite      IdentityStatus = "Invite"
	Candidate   IdentityStatus = "Candidate"
	Newbie      IdentityStatus = "Newbie"
	Verified    IdentityStatus = "Verified"
	Suspended   IdentityStatus = "Suspended"
	Killed      IdentityStatus = "Killed"
	Zombie      IdentityStatus = "Zombie"
	Human       IdentityStatus = "Human"
	Terminating IdentityStatus = "Terminating"
)

// Identity is the identity record of the node's coinbase address, augmented
// with its balance and with the capability flags derived from its status.
type Identity struct {
	Address        string         `json:"address"`
	Nickname       string         `json:"nickname,omitempty"`
	State          IdentityStatus `json:"state"`
	Stake          Amount         `json:"stake"`
	Balance        Amount         `json:"balance"`
	Invites        int            `json:"invites"`
	Age            int            `json:"age"`
	Online         bool           `json:"online"`
	Flips          []string       `json:"flips"`
	RequiredFlips  int            `json:"requiredFlips"`
	AvailableFlips int            `json:"availableFlips"`
	MadeFlips      int            `json:"madeFlips"`

	CanActivateInvite bool `json:"canActivateInvite"`
	CanSubmitFlip     bool `json:"canSubmitFlip"`
	CanTerminate      bool `json:"canTerminate"`
	CanMine           bool `json:"canMine"`
}

func (s IdentityStatus) in(statuses ...IdentityStatus) bool {
	for _, o := range statuses {
		if s == o {
			return true
		}
	}
	return false
}

// CanActivateInvite reports whether an invite can be activated by id.
func CanActivateInvite(id Identity) bool {
	return id.State.in(Undefined, Invite)
}

// CanSubmitFlip reports whether id still has flips to submit this epoch.
func CanSubmitFlip(id Identity) bool {
	return id.State.in(Newbie, Verified, Human) &&
		id.RequiredFlips > 0 &&
		len(id.Flips) < id.AvailableFlips
}

// CanTerminate reports whether id can be terminated.
func CanTerminate(id Identity) bool {
	return id.State.in(Verified, Suspended, Zombie, Human)
}

// CanMine reports whether id is allowed to mine.
func CanMine(id Identity) bool {
	return id.State.in(Newbie, Verified, Human)
}

// WithCapabilities returns id with its capability flags recomputed from its
// status and flip counts.
func WithCapabilities(id Identity) Identity {
	id.CanActivateInvite = CanActivateInvite(id)
	id.CanSubmitFlip = CanSubmitFlip(id)
	id.CanTerminate = CanTerminate(id)
	id.CanMine = CanMine(id)
	return id
}

// MergeIdentity overlays the capability flags on a freshly fetched identity
// and applies the terminating latch: once prev is Terminating, the status is
// kept until the node reports Undefined. Flags are derived from the status the
// node reported.
func MergeIdentity(prev *Identity, next Identity) Identity {
	merged := WithCapabilities(next)
	if prev != nil && prev.State == Terminating && next.State != Undefined {
		merged.State = Terminating
	}
	return merged
}
