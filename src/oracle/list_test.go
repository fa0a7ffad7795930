package oracle

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/dnaclient/dnaclient/src/common"
	"github.com/dnaclient/dnaclient/src/rpc"
	"github.com/dnaclient/dnaclient/src/store"
)

type sourceFunc func(ctx context.Context) ([]rpc.OracleVoting, error)

func (f sourceFunc) Votings(ctx context.Context) ([]rpc.OracleVoting, error) {
	return f(ctx)
}

func sampleVotings() []Voting {
	return []Voting{
		{ID: "0x1", Status: Mining, TxHash: "0xa"},
		{ID: "0x2", Status: Pending},
		{ID: "0x3", Status: Archived},
		{ID: "0x4", Status: Pending},
	}
}

func loadedList(t *testing.T) List {
	l := NewList(5)
	l, effects := TransitionList(l, VotingsLoaded{Votings: sampleVotings()})
	if l.Phase != ListLoaded {
		t.Fatalf("expected loaded, got %s", l.Phase)
	}
	if sc := effects[0].(SpawnChildren); len(sc.Votings) != 4 || sc.Votings[0].Epoch != 5 {
		t.Fatalf("one child per voting with the list's epoch expected, got %+v", sc)
	}
	return l
}

func TestListFilter(t *testing.T) {
	l := loadedList(t)

	if !reflect.DeepEqual(l.Filtered, l.Votings) {
		t.Fatal("the initial filter should show everything")
	}

	l, _ = TransitionList(l, Filter{Status: Pending})
	if len(l.Filtered) != 2 || l.Filter != Pending || len(l.Votings) != 4 {
		t.Fatalf("unexpected filtered view %+v", l.Filtered)
	}

	l, _ = TransitionList(l, Filter{Status: Invalid})
	if len(l.Filtered) != 0 {
		t.Fatalf("no invalid voting expected, got %+v", l.Filtered)
	}

	l, _ = TransitionList(l, Filter{Status: All})
	if !reflect.DeepEqual(l.Filtered, l.Votings) {
		t.Fatal("filtering by All should restore the full list")
	}
}

func TestListMinedAndChanged(t *testing.T) {
	l := loadedList(t)
	l, _ = TransitionList(l, Filter{Status: Mining})

	l, _ = TransitionList(l, Mined{ID: "0x1"})
	if l.Votings[0].Status != Pending || l.Filtered[0].Status != Pending {
		t.Fatalf("0x1 should be pending in both views, got %+v %+v", l.Votings[0], l.Filtered)
	}

	v := l.Votings[1]
	v.FundingAmount = "20"
	v.Status = Mining
	l, _ = TransitionList(l, Changed{Voting: v})
	if l.Votings[1].FundingAmount != "20" || l.Votings[1].Epoch != 5 {
		t.Fatalf("0x2 should be replaced, got %+v", l.Votings[1])
	}
	if len(l.Filtered) != 1 || l.Filtered[0].ID != "0x2" {
		t.Fatalf("the filtered view should be recomputed, got %+v", l.Filtered)
	}
}

func TestListFailure(t *testing.T) {
	l := NewList(5)
	if e := EnterList(l)[0].(LoadVotings); e.Epoch != 5 {
		t.Fatalf("unexpected load %+v", e)
	}

	l, _ = TransitionList(l, VotingsLoadFailed{Err: errors.New("disk")})
	if l.Phase != ListFailed || l.Error != "disk" {
		t.Fatalf("unexpected %s %q", l.Phase, l.Error)
	}

	l, effects := TransitionList(l, Reload{})
	if l.Phase != ListLoading || l.Error != "" || len(effects) != 1 {
		t.Fatalf("Reload should load again, got %s %v", l.Phase, effects)
	}
}

func TestMergeVotings(t *testing.T) {
	persisted := []Voting{{ID: "0x1", Status: Mining}, {ID: "0x2", Status: Pending}}
	remote := []Voting{{ID: "0x2", Status: Archived}, {ID: "0x3", Status: Pending}}

	merged := MergeVotings(persisted, remote)
	ids := []string{}
	for _, v := range merged {
		ids = append(ids, v.ID)
	}
	if !reflect.DeepEqual(ids, []string{"0x1", "0x2", "0x3"}) {
		t.Fatalf("unexpected order %v", ids)
	}
	if merged[1].Status != Pending {
		t.Fatal("the persisted copy should win")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	s, err := store.NewBadgerStore(t.TempDir(), common.NewTestEntry(t))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	v := Voting{
		ID:            "0xc",
		Title:         "title",
		StartDate:     time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC),
		ContractHash:  "0xc",
		TxHash:        "0xtx",
		Issuer:        "0xa",
		Status:        Mining,
		FundingAmount: "12.5",
	}
	if err := s.Table(Table, 9).Put(v.ID, v); err != nil {
		t.Fatal(err)
	}

	source := sourceFunc(func(ctx context.Context) ([]rpc.OracleVoting, error) {
		return []rpc.OracleVoting{
			{ContractAddress: "0xc", State: "Archived"},
			{ContractAddress: "0xd", Author: "0xb", State: "Open", Balance: "3"},
		}, nil
	})

	votings, err := LoadEpochVotings(context.Background(), s, source, 9)
	if err != nil {
		t.Fatal(err)
	}
	if len(votings) != 2 {
		t.Fatalf("expected 2 votings, got %+v", votings)
	}

	got := votings[0]
	if got.ID != v.ID || got.Status != v.Status || got.TxHash != v.TxHash || got.FundingAmount != v.FundingAmount {
		t.Fatalf("reloaded voting differs: %+v", got)
	}
	if !got.StartDate.Equal(v.StartDate) {
		t.Fatalf("start date should be %v, not %v", v.StartDate, got.StartDate)
	}
	if votings[1].Issuer != "0xb" || votings[1].Status != Pending || votings[1].Epoch != 9 {
		t.Fatalf("unexpected remote voting %+v", votings[1])
	}

	// another epoch has nothing persisted
	empty, err := LoadEpochVotings(context.Background(), s, nil, 10)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no votings, got %v %v", empty, err)
	}
}

func TestLoadRemoteErrors(t *testing.T) {
	s := store.NewInmemStore()
	if err := s.Table(Table, 1).Put("0x1", Voting{ID: "0x1", Status: Pending}); err != nil {
		t.Fatal(err)
	}

	notFound := sourceFunc(func(ctx context.Context) ([]rpc.OracleVoting, error) {
		return nil, &rpc.NodeError{Code: rpc.CodeNotFound}
	})
	votings, err := LoadEpochVotings(context.Background(), s, notFound, 1)
	if err != nil || len(votings) != 1 {
		t.Fatalf("a not found source should keep the persisted votings, got %v %v", votings, err)
	}

	broken := sourceFunc(func(ctx context.Context) ([]rpc.OracleVoting, error) {
		return nil, &rpc.TransportError{Method: "indexer"}
	})
	if _, err := LoadEpochVotings(context.Background(), s, broken, 1); !rpc.IsTransport(err) {
		t.Fatalf("transport errors should be raised, got %v", err)
	}
}
