package app

import (
	"testing"
	"time"

	"github.com/dnaclient/dnaclient/src/chain"
	"github.com/dnaclient/dnaclient/src/common"
	"github.com/dnaclient/dnaclient/src/poll"
	"github.com/dnaclient/dnaclient/src/rpc"
)

func newTestRunner(t *testing.T, node rpc.Node) (*Runner, chan Machine) {
	logger := common.NewTestEntry(t)
	poller := poll.NewSyncPoller(node, 10*time.Millisecond, nil, logger)
	r := NewRunner(node, poller, nil, logger)

	changes := make(chan Machine, 64)
	r.OnChange(func(m Machine) { changes <- m })

	go r.Run()
	return r, changes
}

func waitFor(t *testing.T, changes chan Machine, cond func(Machine) bool) Machine {
	timeout := time.After(2 * time.Second)
	for {
		select {
		case m := <-changes:
			if cond(m) {
				return m
			}
		case <-timeout:
			t.Fatal("timeout waiting for machine condition")
		}
	}
}

func TestRunnerConnectAndPoll(t *testing.T) {
	node := rpc.NewInmemNode()
	node.SetSync(chain.SyncStatus{HighestBlock: 100})
	node.SetEpoch(chain.Epoch{Epoch: 7})
	node.SetIdentity(chain.Identity{Address: "0xabc", State: chain.Human})

	r, changes := newTestRunner(t, node)
	defer r.Stop()

	r.Send(Connect{})

	m := waitFor(t, changes, func(m Machine) bool { return m.State == Ready })
	if m.Context.PrevBlock != 100 || m.Context.Epoch.Epoch != 7 {
		t.Fatalf("unexpected context %+v", m.Context)
	}
	if !m.Context.Identity.CanTerminate {
		t.Fatal("a human can terminate")
	}

	node.SetSync(chain.SyncStatus{HighestBlock: 101})
	waitFor(t, changes, func(m Machine) bool { return m.Context.PrevBlock == 101 })

	r.Send(TerminateIdentity{To: "0xdef"})
	m = waitFor(t, changes, func(m Machine) bool {
		return m.Context.Identity.State == chain.Terminating
	})
	sent := node.Sent()
	if len(sent) != 1 || sent[0].Type != rpc.TerminateTxType || sent[0].From != "0xabc" {
		t.Fatalf("unexpected termination transaction %+v", sent)
	}

	node.Fail("bcn_syncing", &rpc.TransportError{Method: "bcn_syncing"})
	m = waitFor(t, changes, func(m Machine) bool { return m.State == Offline })
	if m.Context.LastError == "" {
		t.Fatal("offline should record the error")
	}

	node.Fail("bcn_syncing", nil)
	r.Send(Retry{})
	waitFor(t, changes, func(m Machine) bool { return m.State == Ready })

	if r.Current().State != Ready {
		t.Fatal("Current should report the ready state")
	}
}

func TestRunnerConnectFailure(t *testing.T) {
	node := rpc.NewInmemNode()
	node.Fail("bcn_syncing", &rpc.TransportError{Method: "bcn_syncing"})

	r, changes := newTestRunner(t, node)
	defer r.Stop()

	r.Send(Connect{})
	waitFor(t, changes, func(m Machine) bool { return m.State == Offline })
}
