package dnaclient

import (
	"context"
	"errors"

	"github.com/dnaclient/dnaclient/src/oracle"
)

// PublishVoting deploys a new oracle voting issued by the node's identity in
// the current epoch. It runs a draft to completion and returns its final
// state. It does not need Run.
func (c *DnaClient) PublishVoting(ctx context.Context, title, desc, startDate string) (oracle.Draft, error) {
	epoch, err := c.Node.Epoch(ctx)
	if err != nil {
		return oracle.Draft{}, err
	}

	id, err := c.Node.Identity(ctx)
	if err != nil {
		return oracle.Draft{}, err
	}

	draft := oracle.NewDraftRunner(epoch.Epoch, id.Address, c.Deps())

	done := make(chan oracle.Draft, 1)
	draft.OnChange(func(d oracle.Draft) {
		if d.Phase == oracle.DraftPublished || d.Phase == oracle.DraftFailed {
			select {
			case done <- d:
			default:
			}
		}
	})

	draft.Start()
	defer draft.Stop()

	draft.Send(oracle.Change{Field: "title", Value: title})
	draft.Send(oracle.Change{Field: "desc", Value: desc})
	if startDate != "" {
		draft.Send(oracle.Change{Field: "startDate", Value: startDate})
	}
	draft.Send(oracle.Publish{})

	select {
	case d := <-done:
		if d.Phase == oracle.DraftFailed {
			return d, errors.New(d.Error)
		}
		return d, nil
	case <-ctx.Done():
		return draft.Current(), ctx.Err()
	}
}

// StoredVotings returns the persisted votings of epoch visible under filter.
// It does not need Run.
func (c *DnaClient) StoredVotings(epoch int, filter oracle.Status) ([]oracle.Voting, error) {
	votings, err := oracle.PersistedVotings(c.Store.Table(oracle.Table, epoch))
	if err != nil {
		return nil, err
	}
	return oracle.FilterVotings(votings, filter), nil
}
