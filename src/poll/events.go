package poll

import (
	"github.com/dnaclient/dnaclient/src/chain"
	"github.com/dnaclient/dnaclient/src/rpc"
)

// Block is emitted by the SyncPoller when the node reports a highest block
// above the last one seen.
type Block struct {
	Snapshot chain.Snapshot
}

// Offline is emitted by the SyncPoller when a node call fails. The poller
// stops after emitting it.
type Offline struct {
	Err error
}

// Mined is emitted by the TxPoller when the transaction is in a block.
type Mined struct {
	Hash string
	Tx   rpc.Transaction
}

// TxNull is emitted by the TxPoller when the transaction cannot be fetched.
type TxNull struct {
	Hash string
	Err  error
}
