package poll

import (
	"context"

	"github.com/dnaclient/dnaclient/src/chain"
	"github.com/dnaclient/dnaclient/src/rpc"
)

// FetchChainState completes a sync status into a full snapshot. The node is
// queried in a fixed order: dna_epoch, dna_identity, dna_getBalance for the
// identity's address, and dna_ceremonyIntervals. The balance and stake
// reported by dna_getBalance take precedence over those of the identity.
func FetchChainState(ctx context.Context, node rpc.Node, sync chain.SyncStatus) (chain.Snapshot, error) {
	epoch, err := node.Epoch(ctx)
	if err != nil {
		return chain.Snapshot{}, err
	}

	identity, err := node.Identity(ctx)
	if err != nil {
		return chain.Snapshot{}, err
	}

	balance, err := node.Balance(ctx, identity.Address)
	if err != nil {
		return chain.Snapshot{}, err
	}
	identity.Balance = balance.Balance
	identity.Stake = balance.Stake

	intervals, err := node.CeremonyIntervals(ctx)
	if err != nil {
		return chain.Snapshot{}, err
	}

	return chain.Snapshot{
		Sync:              sync,
		Epoch:             epoch,
		Identity:          identity,
		CeremonyIntervals: intervals,
	}, nil
}
