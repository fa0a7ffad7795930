package oracle

import (
	"context"
	"fmt"

	cm "github.com/dnaclient/dnaclient/src/common"
	"github.com/dnaclient/dnaclient/src/rpc"
	"github.com/dnaclient/dnaclient/src/store"
)

// PersistedVotings reads the votings of a table. An empty table is not an
// error.
func PersistedVotings(table store.Table) ([]Voting, error) {
	rows, err := table.All()
	if err != nil {
		if cm.IsStore(err, cm.KeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	votings := make([]Voting, 0, len(rows))
	for _, row := range rows {
		var v Voting
		if err := store.Decode(row, &v); err != nil {
			return nil, fmt.Errorf("decoding persisted voting: %w", err)
		}
		votings = append(votings, v)
	}

	return votings, nil
}

// LoadEpochVotings returns the persisted votings of epoch followed by the
// remote votings that are not persisted. A source that knows no votings, or
// answers not found, contributes nothing.
func LoadEpochVotings(ctx context.Context, s store.Store, source rpc.VotingSource, epoch int) ([]Voting, error) {
	persisted, err := PersistedVotings(s.Table(Table, epoch))
	if err != nil {
		return nil, err
	}

	if source == nil {
		return persisted, nil
	}

	known, err := source.Votings(ctx)
	if err != nil && !rpc.IsNotFound(err) {
		return nil, err
	}

	remote := make([]Voting, 0, len(known))
	for _, o := range known {
		remote = append(remote, FromRemote(o, epoch))
	}

	return MergeVotings(persisted, remote), nil
}
