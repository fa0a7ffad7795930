package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/dnaclient/dnaclient/src/chain"
	"github.com/dnaclient/dnaclient/src/common"
	"github.com/dnaclient/dnaclient/src/machine"
	"github.com/dnaclient/dnaclient/src/poll"
	"github.com/dnaclient/dnaclient/src/rpc"
	"github.com/dnaclient/dnaclient/src/store"
)

func testDeps(t *testing.T, node rpc.Node, s store.Store) Deps {
	logger := common.NewTestEntry(t)
	return Deps{
		Node:     node,
		Store:    s,
		TxPoller: poll.NewTxPoller(node, 5*time.Millisecond, nil, logger),
		Logger:   logger,
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for condition")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestActorFunding(t *testing.T) {
	node := rpc.NewInmemNode()
	s := store.NewInmemStore()
	deps := testDeps(t, node, s)

	notified := make(chan machine.Event, 16)
	a := NewActor(Voting{
		ID:           "0xc",
		Epoch:        2,
		ContractHash: "0xc",
		Issuer:       "0xa",
		Status:       Pending,
	}, deps, func(ev machine.Event) { notified <- ev })
	a.Start()
	defer a.Stop()

	a.Send(AddFund{Amount: chain.NewAmount(50)})

	waitUntil(t, func() bool { return a.Current().Phase == PhaseFundMining })

	var persisted Voting
	if err := s.Table(Table, 2).Get("0xc", &persisted); err != nil {
		t.Fatal(err)
	}
	if persisted.Status != Mining || persisted.TxHash == "" || persisted.FundingAmount != "50" {
		t.Fatalf("unexpected persisted voting %+v", persisted)
	}

	sent := node.Sent()
	if len(sent) != 1 || sent[0].To != "0xc" || sent[0].From != "0xa" || sent[0].Amount != "50" {
		t.Fatalf("unexpected fund transaction %+v", sent)
	}

	node.Mine(persisted.TxHash)
	waitUntil(t, func() bool { return a.Current().Phase == PhaseIdle })

	if err := s.Table(Table, 2).Get("0xc", &persisted); err != nil {
		t.Fatal(err)
	}
	if persisted.Status != Pending {
		t.Fatalf("the pending status should be persisted, got %s", persisted.Status)
	}

	gotMined := false
	for len(notified) > 0 {
		if m, ok := (<-notified).(Mined); ok && m.ID == "0xc" {
			gotMined = true
		}
	}
	if !gotMined {
		t.Fatal("the parent should receive Mined")
	}
}

func TestActorTxNull(t *testing.T) {
	node := rpc.NewInmemNode()
	s := store.NewInmemStore()

	a := NewActor(Voting{ID: "0xc", Epoch: 2, Status: Mining, TxHash: "0xgone"}, testDeps(t, node, s), nil)
	a.Start()
	defer a.Stop()

	waitUntil(t, func() bool { return a.Current().Phase == PhaseInvalid })

	var persisted Voting
	if err := s.Table(Table, 2).Get("0xc", &persisted); err != nil {
		t.Fatal(err)
	}
	if persisted.Status != Invalid || persisted.Error != ErrDeployTxMissing {
		t.Fatalf("unexpected persisted voting %+v", persisted)
	}
}

func TestViewActorVote(t *testing.T) {
	node := rpc.NewInmemNode()
	s := store.NewInmemStore()
	if err := s.Table(Table, 2).Put("0xc", Voting{ID: "0xc", ContractHash: "0xc", Issuer: "0xa", Status: Pending}); err != nil {
		t.Fatal(err)
	}

	a := NewViewActor("0xc", 2, testDeps(t, node, s))
	a.Start()
	defer a.Stop()

	waitUntil(t, func() bool { return a.Current().Phase == PhaseIdle })

	a.Send(Vote{Option: OptionConfirm})
	waitUntil(t, func() bool { return len(node.ContractCalls()) == 1 && a.Current().Phase == PhaseIdle })

	call := node.ContractCalls()[0]
	if call.Method != "sendVote" || call.Contract != "0xc" || call.Amount != "100" {
		t.Fatalf("unexpected contract call %+v", call)
	}
	if call.Args[0].Value != "1" || call.Args[1] != (rpc.ContractArg{Index: 1, Format: "hex", Value: "0x1"}) {
		t.Fatalf("unexpected vote arguments %+v", call.Args)
	}

	missing := NewViewActor("0xd", 2, testDeps(t, node, s))
	missing.Start()
	defer missing.Stop()
	waitUntil(t, func() bool { return missing.Current().Phase == PhaseInvalid })
}

func TestListRunner(t *testing.T) {
	node := rpc.NewInmemNode()
	s := store.NewInmemStore()
	deps := testDeps(t, node, s)

	hash, err := node.SendTransaction(context.Background(), rpc.SendTxArgs{From: "0xa"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Table(Table, 2).Put("0xc", Voting{ID: "0xc", Status: Mining, TxHash: hash}); err != nil {
		t.Fatal(err)
	}

	source := sourceFunc(func(ctx context.Context) ([]rpc.OracleVoting, error) {
		return []rpc.OracleVoting{{ContractAddress: "0xd", State: "Counting"}}, nil
	})

	r := NewListRunner(2, source, deps)
	r.Start()
	defer r.Stop()

	waitUntil(t, func() bool { return r.Current().Phase == ListLoaded })

	if l := r.Current(); len(l.Votings) != 2 || l.Votings[0].ID != "0xc" || l.Votings[1].Status != Counting {
		t.Fatalf("unexpected votings %+v", l.Votings)
	}

	child, ok := r.Child("0xc")
	if !ok {
		t.Fatal("0xc should have an actor")
	}
	waitUntil(t, func() bool { return child.Current().Phase == PhaseDeploying })

	r.Send(Filter{Status: Mining})
	waitUntil(t, func() bool { return len(r.Current().Filtered) == 1 })

	node.Mine(hash)
	waitUntil(t, func() bool {
		l := r.Current()
		return l.Votings[0].Status == Pending
	})

	if c, _ := r.Child("0xd"); c.Current().Phase != PhaseCounting {
		t.Fatalf("0xd should be counting, got %s", c.Current().Phase)
	}
}

func TestListRunnerDropsRetiredChildEvents(t *testing.T) {
	s := store.NewInmemStore()
	if err := s.Table(Table, 2).Put("0xc", Voting{ID: "0xc", Title: "stored", Status: Pending}); err != nil {
		t.Fatal(err)
	}

	r := NewListRunner(2, nil, testDeps(t, rpc.NewInmemNode(), s))
	r.Start()
	defer r.Stop()

	waitUntil(t, func() bool { return r.Current().Phase == ListLoaded })
	first, ok := r.Child("0xc")
	if !ok {
		t.Fatal("0xc should have an actor")
	}

	r.Send(Reload{})
	waitUntil(t, func() bool {
		c, ok := r.Child("0xc")
		return ok && c != first && r.Current().Phase == ListLoaded
	})

	// a late event from the first generation of children
	r.Send(childEvent{generation: 1, ev: Changed{Voting: Voting{ID: "0xc", Title: "stale"}}})
	r.Send(Filter{Status: Pending})
	waitUntil(t, func() bool { return r.Current().Filter == Pending })

	if title := r.Current().Votings[0].Title; title != "stored" {
		t.Fatalf("retired child should not overwrite the reloaded voting, got title %q", title)
	}

	r.Send(childEvent{generation: 2, ev: Changed{Voting: Voting{ID: "0xc", Title: "fresh", Status: Pending}}})
	waitUntil(t, func() bool { return r.Current().Votings[0].Title == "fresh" })
}
