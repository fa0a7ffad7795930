package oracle

import (
	"github.com/dnaclient/dnaclient/src/chain"
	"github.com/dnaclient/dnaclient/src/machine"
	"github.com/dnaclient/dnaclient/src/poll"
	"github.com/dnaclient/dnaclient/src/rpc"
	"github.com/dnaclient/dnaclient/src/store"
	"github.com/sirupsen/logrus"
)

// DefaultDeposit is the amount sent with a vote when the voting sets none.
var DefaultDeposit = chain.NewAmount(100)

// Deps are the collaborators shared by the machines of this package.
type Deps struct {
	Node     rpc.Node
	Store    store.Store
	TxPoller *poll.TxPoller
	Metrics  *machine.Metrics
	// Deposit overrides DefaultDeposit.
	Deposit chain.Amount
	Logger  *logrus.Entry
}

func (d Deps) deposit(v chain.Amount) chain.Amount {
	switch {
	case !v.IsZero():
		return v
	case !d.Deposit.IsZero():
		return d.Deposit
	default:
		return DefaultDeposit
	}
}
