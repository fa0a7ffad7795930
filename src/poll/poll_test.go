package poll

import (
	"context"
	"testing"
	"time"

	"github.com/dnaclient/dnaclient/src/chain"
	"github.com/dnaclient/dnaclient/src/common"
	"github.com/dnaclient/dnaclient/src/rpc"
)

// manualTimer hands out timers that fire when the test calls tick.
type manualTimer struct {
	armed chan chan time.Time
}

func newManualTimer() *manualTimer {
	return &manualTimer{armed: make(chan chan time.Time, 16)}
}

func (m *manualTimer) factory(d time.Duration) (<-chan time.Time, func() bool) {
	c := make(chan time.Time, 1)
	m.armed <- c
	return c, func() bool { return true }
}

// next returns the next timer the poller arms.
func (m *manualTimer) next(t *testing.T) chan time.Time {
	select {
	case c := <-m.armed:
		return c
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for the poller to arm a timer")
	}
	return nil
}

// tick fires the next timer the poller arms.
func (m *manualTimer) tick(t *testing.T) {
	m.next(t) <- time.Now()
}

func collect() (func(interface{}), chan interface{}) {
	ch := make(chan interface{}, 16)
	return func(ev interface{}) { ch <- ev }, ch
}

func next(t *testing.T, ch chan interface{}) interface{} {
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return nil
}

func TestFetchChainState(t *testing.T) {
	node := rpc.NewInmemNode()
	node.SetEpoch(chain.Epoch{Epoch: 12, CurrentPeriod: "None"})
	node.SetIdentity(chain.Identity{Address: "0xabc", State: chain.Verified, Balance: "1"})
	node.SetBalance(rpc.Balance{Balance: "250", Stake: "50"})
	node.SetIntervals(chain.CeremonyIntervals{Validation: time.Hour})

	sync := chain.SyncStatus{HighestBlock: 10}
	snap, err := FetchChainState(context.Background(), node, sync)
	if err != nil {
		t.Fatal(err)
	}

	if snap.Sync != sync || snap.Epoch.Epoch != 12 || snap.CeremonyIntervals.Validation != time.Hour {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Identity.Balance != "250" || snap.Identity.Stake != "50" {
		t.Fatalf("balance should override the identity's, got %+v", snap.Identity)
	}

	node.Fail("dna_ceremonyIntervals", &rpc.TransportError{Method: "dna_ceremonyIntervals"})
	if _, err := FetchChainState(context.Background(), node, sync); !rpc.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestSyncPoller(t *testing.T) {
	node := rpc.NewInmemNode()
	node.SetSync(chain.SyncStatus{HighestBlock: 5})
	node.SetIdentity(chain.Identity{Address: "0xabc"})

	timer := newManualTimer()
	p := NewSyncPoller(node, time.Second, timer.factory, common.NewTestEntry(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emit, events := collect()
	done := make(chan struct{})
	go func() {
		p.Run(ctx, 5, emit)
		close(done)
	}()

	// block 5 is not above prevBlock: no event, the poller waits
	timer.tick(t)
	if n := node.Calls("dna_epoch"); n != 0 {
		t.Fatalf("chain state should not be fetched without a new block, got %d calls", n)
	}

	node.SetSync(chain.SyncStatus{HighestBlock: 6})
	timer.tick(t)

	ev := next(t, events)
	block, ok := ev.(Block)
	if !ok {
		t.Fatalf("expected Block, got %#v", ev)
	}
	if block.Snapshot.Sync.HighestBlock != 6 {
		t.Fatalf("highest block should be 6, not %d", block.Snapshot.Sync.HighestBlock)
	}

	// the watermark moved to 6, so no second Block for the same height
	timer.tick(t)

	// the poller is parked on its next timer once the re-check is done
	c := timer.next(t)
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %#v", ev)
	default:
	}

	node.Fail("bcn_syncing", &rpc.TransportError{Method: "bcn_syncing"})
	c <- time.Now()

	if _, ok := next(t, events).(Offline); !ok {
		t.Fatal("expected Offline")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("the poller should stop after Offline")
	}
}

func TestSyncPollerCancel(t *testing.T) {
	node := rpc.NewInmemNode()
	timer := newManualTimer()
	p := NewSyncPoller(node, time.Second, timer.factory, common.NewTestEntry(t))

	ctx, cancel := context.WithCancel(context.Background())
	emit, events := collect()
	done := make(chan struct{})
	go func() {
		p.Run(ctx, 0, emit)
		close(done)
	}()

	// wait until the poller is parked on its timer
	timer.next(t)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("the poller should stop on cancel")
	}
	if len(events) != 0 {
		t.Fatalf("no event expected, got %d", len(events))
	}
}

func TestTxPoller(t *testing.T) {
	node := rpc.NewInmemNode()
	hash, err := node.SendTransaction(context.Background(), rpc.SendTxArgs{From: "0xa", To: "0xb"})
	if err != nil {
		t.Fatal(err)
	}

	timer := newManualTimer()
	p := NewTxPoller(node, time.Second, timer.factory, common.NewTestEntry(t))

	emit, events := collect()
	go p.Run(context.Background(), hash, emit)

	// first check only after one interval
	first := timer.next(t)
	if n := node.Calls("bcn_transaction"); n != 0 {
		t.Fatalf("the first check should be delayed, got %d calls", n)
	}
	first <- time.Now()

	// still in the mempool: the poller arms another timer
	second := timer.next(t)
	if n := node.Calls("bcn_transaction"); n != 1 {
		t.Fatalf("expected one check, got %d", n)
	}

	node.Mine(hash)
	second <- time.Now()

	ev := next(t, events)
	mined, ok := ev.(Mined)
	if !ok || mined.Hash != hash {
		t.Fatalf("expected Mined for %s, got %#v", hash, ev)
	}
}

func TestTxPollerNull(t *testing.T) {
	node := rpc.NewInmemNode()

	timer := newManualTimer()
	p := NewTxPoller(node, time.Second, timer.factory, common.NewTestEntry(t))

	emit, events := collect()
	go p.Run(context.Background(), "0xunknown", emit)

	first := timer.next(t)
	if node.Calls("bcn_transaction") != 0 {
		t.Fatal("the first check should be delayed")
	}
	first <- time.Now()

	ev := next(t, events)
	null, ok := ev.(TxNull)
	if !ok || !rpc.IsNotFound(null.Err) {
		t.Fatalf("expected TxNull with a not found error, got %#v", ev)
	}
}
