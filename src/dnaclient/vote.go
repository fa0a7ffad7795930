package dnaclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/dnaclient/dnaclient/src/oracle"
)

// ErrUnknownOption is returned by Vote for options other than
// oracle.OptionConfirm and oracle.OptionReject.
var ErrUnknownOption = errors.New("unknown vote option")

// Vote casts option on the voting with the given id of the node's current
// epoch. It runs a standalone lifecycle machine that loads the voting from
// the store, and returns once the vote transaction was accepted. It does not
// need Run.
func (c *DnaClient) Vote(ctx context.Context, id, option string) error {
	if option != oracle.OptionConfirm && option != oracle.OptionReject {
		return fmt.Errorf("%w %q", ErrUnknownOption, option)
	}

	epoch, err := c.Node.Epoch(ctx)
	if err != nil {
		return err
	}

	actor := oracle.NewViewActor(id, epoch.Epoch, c.Deps())

	quit := make(chan struct{})
	changes := make(chan oracle.Lifecycle)
	actor.OnChange(func(l oracle.Lifecycle) {
		select {
		case changes <- l:
		case <-quit:
		}
	})

	actor.Start()
	defer actor.Stop()
	defer close(quit)

	sent := false
	for {
		select {
		case l := <-changes:
			switch l.Phase {
			case oracle.PhaseInvalid:
				return fmt.Errorf("voting %s: %s", id, l.Voting.Error)
			case oracle.PhaseVoting:
			case oracle.PhaseIdle:
				if sent {
					return nil
				}
				if !actor.Send(oracle.Vote{Option: option}) {
					return fmt.Errorf("voting %s: machine stopped", id)
				}
				sent = true
			default:
				return fmt.Errorf("voting %s is %s", id, l.Phase)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
