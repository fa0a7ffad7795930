package poll

import (
	"context"
	"time"

	"github.com/dnaclient/dnaclient/src/rpc"
	"github.com/sirupsen/logrus"
)

// DefaultTxInterval is the pause before each transaction check.
const DefaultTxInterval = 10 * time.Second

// TxPoller waits for a transaction to be mined.
type TxPoller struct {
	node     rpc.Node
	interval time.Duration
	timer    TimerFactory
	logger   *logrus.Entry
}

// NewTxPoller creates a TxPoller. A nil timer defaults to RealTimer.
func NewTxPoller(node rpc.Node, interval time.Duration, timer TimerFactory, logger *logrus.Entry) *TxPoller {
	if timer == nil {
		timer = RealTimer
	}
	if interval <= 0 {
		interval = DefaultTxInterval
	}
	return &TxPoller{
		node:     node,
		interval: interval,
		timer:    timer,
		logger:   logger,
	}
}

// Run waits one interval, then calls bcn_transaction(hash). It emits Mined
// once the transaction carries a block hash, and TxNull as soon as a call
// fails, including when the node does not know the hash. Transactions still
// in the mempool are checked again after another interval.
func (p *TxPoller) Run(ctx context.Context, hash string, emit func(interface{})) {
	for {
		if !wait(ctx, p.timer, p.interval) {
			return
		}

		tx, err := p.node.Transaction(ctx, hash)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.WithError(err).WithField("hash", hash).Debug("TxPoller.Run TxNull")
			emit(TxNull{Hash: hash, Err: err})
			return
		}

		if tx.Mined() {
			p.logger.WithFields(logrus.Fields{
				"hash":       hash,
				"block_hash": tx.BlockHash,
			}).Debug("TxPoller.Run Mined")
			emit(Mined{Hash: hash, Tx: tx})
			return
		}
	}
}
