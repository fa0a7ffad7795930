package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dnaclient/dnaclient/src/chain"
	"github.com/sirupsen/logrus"
)

// OracleVoting is an oracle voting contract as listed by the indexer.
type OracleVoting struct {
	ContractAddress string       `json:"contractAddress"`
	Author          string       `json:"author"`
	Title           string       `json:"title"`
	Desc            string       `json:"desc"`
	StartTime       time.Time    `json:"startTime"`
	State           string       `json:"state"`
	Balance         chain.Amount `json:"balance"`
	Epoch           int          `json:"epoch"`
	CreateTxHash    string       `json:"createTxHash"`
}

// VotingSource discovers the oracle votings known to the network.
type VotingSource interface {
	Votings(ctx context.Context) ([]OracleVoting, error)
}

// Indexer is a VotingSource backed by the indexer HTTP API. An Indexer with an
// empty base URL knows no votings.
type Indexer struct {
	base    string
	limit   int
	http    *http.Client
	metrics *Metrics
	logger  *logrus.Entry
}

// NewIndexer returns an Indexer for the API rooted at base.
func NewIndexer(base string, limit int, timeout time.Duration, metrics *Metrics, logger *logrus.Entry) *Indexer {
	return &Indexer{
		base:    strings.TrimRight(base, "/"),
		limit:   limit,
		http:    &http.Client{Timeout: timeout},
		metrics: metrics,
		logger:  logger,
	}
}

// Votings implements VotingSource. A 404 answer is reported as a NodeError
// with CodeNotFound.
func (i *Indexer) Votings(ctx context.Context) (res []OracleVoting, err error) {
	const method = "indexer_oracleVotingContracts"

	if i.base == "" {
		return nil, nil
	}

	start := time.Now()
	defer func() {
		i.metrics.observe(method, start, err)
	}()

	q := url.Values{}
	q.Set("limit", fmt.Sprint(i.limit))
	u := fmt.Sprintf("%s/api/OracleVotingContracts?%s", i.base, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{Method: method, Err: err}
	}

	resp, err := i.http.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &NodeError{Method: method, Code: CodeNotFound, Message: "not found"}
	case resp.StatusCode != http.StatusOK:
		return nil, &TransportError{Method: method, Err: fmt.Errorf("http status %d", resp.StatusCode)}
	}

	var body struct {
		Result []OracleVoting `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &TransportError{Method: method, Err: err}
	}

	i.logger.WithField("votings", len(body.Result)).Debug("Indexer.Votings")

	return body.Result, nil
}
