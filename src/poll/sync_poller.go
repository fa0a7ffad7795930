package poll

import (
	"context"
	"time"

	"github.com/dnaclient/dnaclient/src/rpc"
	"github.com/sirupsen/logrus"
)

// DefaultSyncInterval is the pause between two sync checks.
const DefaultSyncInterval = 3 * time.Second

// SyncPoller watches the node's highest block.
type SyncPoller struct {
	node     rpc.Node
	interval time.Duration
	timer    TimerFactory
	logger   *logrus.Entry
}

// NewSyncPoller creates a SyncPoller. A nil timer defaults to RealTimer.
func NewSyncPoller(node rpc.Node, interval time.Duration, timer TimerFactory, logger *logrus.Entry) *SyncPoller {
	if timer == nil {
		timer = RealTimer
	}
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &SyncPoller{
		node:     node,
		interval: interval,
		timer:    timer,
		logger:   logger,
	}
}

// Run checks bcn_syncing immediately, then every interval. Whenever the
// highest block exceeds prevBlock, it fetches the rest of the chain state,
// emits a Block and raises prevBlock. The first failed call emits Offline and
// ends the run. Run returns when ctx is cancelled.
func (p *SyncPoller) Run(ctx context.Context, prevBlock int64, emit func(interface{})) {
	for {
		sync, err := p.node.Syncing(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.WithError(err).Debug("SyncPoller.Run bcn_syncing")
			emit(Offline{Err: err})
			return
		}

		if sync.HighestBlock > prevBlock {
			snap, err := FetchChainState(ctx, p.node, sync)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				p.logger.WithError(err).Debug("SyncPoller.Run chain state")
				emit(Offline{Err: err})
				return
			}

			p.logger.WithFields(logrus.Fields{
				"prev_block":    prevBlock,
				"highest_block": sync.HighestBlock,
				"syncing":       sync.Syncing,
			}).Debug("SyncPoller.Run Block")

			prevBlock = sync.HighestBlock
			emit(Block{Snapshot: snap})
		}

		if !wait(ctx, p.timer, p.interval) {
			return
		}
	}
}
