package rpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dnaclient/dnaclient/src/common"
)

func TestIndexerVotings(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/OracleVotingContracts" {
			http.NotFound(w, r)
			return
		}
		query = r.URL.RawQuery
		w.Write([]byte(`{"result":[
			{"contractAddress":"0x1","author":"0xa","title":"one","state":"Pending","balance":"10","epoch":4},
			{"contractAddress":"0x2","author":"0xb","title":"two","state":"Open","balance":0,"epoch":4}
		]}`))
	}))
	defer srv.Close()

	idx := NewIndexer(srv.URL+"/", 50, time.Second, nil, common.NewTestEntry(t))

	votings, err := idx.Votings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if query != "limit=50" {
		t.Fatalf("query should be limit=50, not %s", query)
	}
	if len(votings) != 2 {
		t.Fatalf("expected 2 votings, got %d", len(votings))
	}
	if votings[0].ContractAddress != "0x1" || votings[0].Balance.String() != "10" {
		t.Fatalf("unexpected first voting %+v", votings[0])
	}
	if votings[1].Title != "two" || !votings[1].Balance.IsZero() {
		t.Fatalf("unexpected second voting %+v", votings[1])
	}
}

func TestIndexerErrors(t *testing.T) {
	status := http.StatusNotFound
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	idx := NewIndexer(srv.URL, 10, time.Second, nil, common.NewTestEntry(t))

	_, err := idx.Votings(context.Background())
	if !IsNotFound(err) {
		t.Fatalf("404 should be reported as not found, got %v", err)
	}

	status = http.StatusBadGateway
	_, err = idx.Votings(context.Background())
	if !IsTransport(err) {
		t.Fatalf("502 should be a transport error, got %v", err)
	}
}

func TestIndexerDisabled(t *testing.T) {
	idx := NewIndexer("", 10, time.Second, nil, common.NewTestEntry(t))
	votings, err := idx.Votings(context.Background())
	if err != nil || votings != nil {
		t.Fatalf("a disabled indexer should return nothing, got %v, %v", votings, err)
	}
}
