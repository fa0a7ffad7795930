package oracle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dnaclient/dnaclient/src/chain"
	cm "github.com/dnaclient/dnaclient/src/common"
	"github.com/dnaclient/dnaclient/src/machine"
	"github.com/dnaclient/dnaclient/src/rpc"
)

// Fixed parameters of the oracle voting contract template.
const (
	OracleVotingCodeHash = "0x02"
)

var (
	// ContractStake is the stake locked by a deployment.
	ContractStake = chain.NewAmount(1000)
	// DeployAmount is the amount sent with a deployment.
	DeployAmount = chain.NewAmount(1)
)

// DraftPhase is the state of a new-voting draft machine.
type DraftPhase int

const (
	// DraftIdle waits for the first Change.
	DraftIdle DraftPhase = iota
	// DraftDirty accepts Change and Publish.
	DraftDirty
	// DraftEstimating asks the node for the deployment cost.
	DraftEstimating
	// DraftDeploying deploys the contract.
	DraftDeploying
	// DraftPublished is terminal.
	DraftPublished
	// DraftFailed keeps the error until Publish retries.
	DraftFailed
)

// String returns the dotted path of the phase.
func (p DraftPhase) String() string {
	switch p {
	case DraftIdle:
		return "idle"
	case DraftDirty:
		return "dirty"
	case DraftEstimating:
		return "publishing.estimating"
	case DraftDeploying:
		return "publishing.deploying"
	case DraftPublished:
		return "published"
	case DraftFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Draft is the state of a new-voting draft machine.
type Draft struct {
	Phase        DraftPhase   `json:"-"`
	Epoch        int          `json:"epoch"`
	From         string       `json:"from"`
	Title        string       `json:"title"`
	Desc         string       `json:"desc"`
	StartDate    time.Time    `json:"startDate"`
	ContractHash string       `json:"contractHash,omitempty"`
	TxHash       string       `json:"txHash,omitempty"`
	GasCost      chain.Amount `json:"gasCost,omitempty"`
	TxFee        chain.Amount `json:"txFee,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// NewDraft returns an empty draft for a voting issued by from.
func NewDraft(epoch int, from string) Draft {
	return Draft{Epoch: epoch, From: from}
}

// Change sets the form field Field (title, desc or startDate) to Value. A
// start date is either RFC 3339 or a millisecond timestamp.
type Change struct {
	Field string
	Value string
}

// Estimated reports the deployment estimate.
type Estimated struct {
	Estimate rpc.DeployEstimate
}

// EstimateFailed reports a failed estimate.
type EstimateFailed struct {
	Err error
}

// Deployed reports the deploy transaction hash, once the voting is persisted.
type Deployed struct {
	Hash string
}

// DeployFailed reports a failed deployment.
type DeployFailed struct {
	Err error
}

// Estimate calls dna_estimateDeployContract.
type Estimate struct {
	Args rpc.DeployArgs
}

// Deploy calls dna_deployContract, then persists Voting with the resulting
// transaction hash.
type Deploy struct {
	Args   rpc.DeployArgs
	Voting Voting
}

// TransitionDraft computes the next draft state and the effects to run for
// ev.
func TransitionDraft(d Draft, ev machine.Event) (Draft, []Effect) {
	switch d.Phase {
	case DraftIdle, DraftDirty, DraftFailed:
		switch e := ev.(type) {
		case Change:
			if d.Phase != DraftFailed {
				d.Phase = DraftDirty
			}
			if err := d.apply(e); err != nil {
				d.Error = err.Error()
			} else {
				d.Error = ""
			}
			return d, nil
		case Publish:
			if d.Phase == DraftIdle {
				return d, nil
			}
			args, err := d.deployArgs()
			if err != nil {
				d.Error = err.Error()
				d.Phase = DraftFailed
				return d, nil
			}
			d.Error = ""
			d.Phase = DraftEstimating
			return d, []Effect{Estimate{Args: args}}
		}
	case DraftEstimating:
		switch e := ev.(type) {
		case Estimated:
			d.ContractHash = e.Estimate.Contract
			d.TxHash = e.Estimate.TxHash
			d.GasCost = e.Estimate.GasCost
			d.TxFee = e.Estimate.TxFee
			args, err := d.deployArgs()
			if err != nil {
				d.Error = err.Error()
				d.Phase = DraftFailed
				return d, nil
			}
			args.ContractStake = ContractStake
			args.MaxFee = chain.MaxFee(d.GasCost, d.TxFee)
			d.Phase = DraftDeploying
			return d, []Effect{Deploy{Args: args, Voting: d.voting()}}
		case EstimateFailed:
			d.Error = e.Err.Error()
			d.Phase = DraftFailed
			return d, nil
		}
	case DraftDeploying:
		switch e := ev.(type) {
		case Deployed:
			d.TxHash = e.Hash
			d.Phase = DraftPublished
			return d, nil
		case DeployFailed:
			d.Error = e.Err.Error()
			d.Phase = DraftFailed
			return d, nil
		}
	}
	return d, nil
}

func (d *Draft) apply(c Change) error {
	switch c.Field {
	case "title":
		d.Title = c.Value
	case "desc":
		d.Desc = c.Value
	case "startDate":
		t, err := ParseStartDate(c.Value)
		if err != nil {
			return err
		}
		d.StartDate = t
	default:
		return fmt.Errorf("unknown field %q", c.Field)
	}
	return nil
}

// ParseStartDate accepts an RFC 3339 date or a millisecond timestamp.
func ParseStartDate(s string) (time.Time, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q", s)
	}
	return t, nil
}

// Content returns the hex encoded JSON document {title, desc} stored in the
// voting contract.
func Content(title, desc string) (string, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	err := enc.Encode(struct {
		Title string `json:"title"`
		Desc  string `json:"desc"`
	}{title, desc})
	if err != nil {
		return "", err
	}
	return cm.EncodeToString(bytes.TrimRight(b.Bytes(), "\n")), nil
}

func (d Draft) deployArgs() (rpc.DeployArgs, error) {
	if d.StartDate.IsZero() {
		return rpc.DeployArgs{}, fmt.Errorf("start date is required")
	}
	content, err := Content(d.Title, d.Desc)
	if err != nil {
		return rpc.DeployArgs{}, err
	}
	return rpc.DeployArgs{
		From:     d.From,
		CodeHash: OracleVotingCodeHash,
		Amount:   DeployAmount,
		Args: []rpc.ContractArg{
			{Index: 0, Format: "hex", Value: content},
			{Index: 1, Format: "uint64", Value: strconv.FormatInt(d.StartDate.UnixMilli(), 10)},
		},
	}, nil
}

func (d Draft) voting() Voting {
	return Voting{
		ID:           d.ContractHash,
		Epoch:        d.Epoch,
		Title:        d.Title,
		Desc:         d.Desc,
		StartDate:    d.StartDate,
		ContractHash: d.ContractHash,
		TxHash:       d.TxHash,
		Issuer:       d.From,
		Status:       Mining,
		GasCost:      d.GasCost,
		TxFee:        d.TxFee,
	}
}
