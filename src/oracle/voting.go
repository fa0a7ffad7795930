package oracle

import (
	"strings"
	"time"

	"github.com/dnaclient/dnaclient/src/chain"
	"github.com/dnaclient/dnaclient/src/rpc"
)

// Table is the store table holding the votings of an epoch.
const Table = "votings"

// Status is the status of a voting.
type Status string

const (
	// All is the filter that matches every voting. No voting has this status.
	All Status = "all"
	// Mining is the status of a voting whose deploy or fund transaction is in
	// the mempool.
	Mining Status = "mining"
	// Pending is the status of a deployed voting waiting for its start.
	Pending Status = "pending"
	// Counting is the status of a voting whose votes are being counted.
	Counting Status = "counting"
	// Archived is the status of a finished voting.
	Archived Status = "archived"
	// Invalid is the status of a voting whose transaction went missing.
	Invalid Status = "invalid"
)

// ParseStatus returns the Status named s. Unknown names return false.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToLower(s)); st {
	case All, Mining, Pending, Counting, Archived, Invalid:
		return st, true
	}
	return "", false
}

// Voting is an oracle voting as tracked by the client. It is persisted as is,
// without its epoch.
type Voting struct {
	ID            string       `json:"id"`
	Epoch         int          `json:"-"`
	Title         string       `json:"title"`
	Desc          string       `json:"desc"`
	StartDate     time.Time    `json:"startDate"`
	ContractHash  string       `json:"contractHash,omitempty"`
	TxHash        string       `json:"txHash,omitempty"`
	Issuer        string       `json:"issuer,omitempty"`
	Status        Status       `json:"status"`
	FundingAmount chain.Amount `json:"fundingAmount"`
	GasCost       chain.Amount `json:"gasCost,omitempty"`
	TxFee         chain.Amount `json:"txFee,omitempty"`
	Deposit       chain.Amount `json:"deposit,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// FromRemote converts a voting discovered through the indexer.
func FromRemote(o rpc.OracleVoting, epoch int) Voting {
	return Voting{
		ID:            o.ContractAddress,
		Epoch:         epoch,
		Title:         o.Title,
		Desc:          o.Desc,
		StartDate:     o.StartTime,
		ContractHash:  o.ContractAddress,
		TxHash:        o.CreateTxHash,
		Issuer:        o.Author,
		Status:        remoteStatus(o.State),
		FundingAmount: o.Balance,
	}
}

func remoteStatus(state string) Status {
	if st, ok := ParseStatus(state); ok && st != All {
		return st
	}
	switch strings.ToLower(state) {
	case "archive", "terminated":
		return Archived
	default:
		return Pending
	}
}

// Matches reports whether v is visible under filter.
func (v Voting) Matches(filter Status) bool {
	return filter == All || v.Status == filter
}

// FilterVotings returns the votings visible under filter, in order.
func FilterVotings(votings []Voting, filter Status) []Voting {
	res := make([]Voting, 0, len(votings))
	for _, v := range votings {
		if v.Matches(filter) {
			res = append(res, v)
		}
	}
	return res
}
