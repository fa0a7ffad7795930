package rpc

import (
	"context"
	"fmt"
	"sync"

	"github.com/dnaclient/dnaclient/src/chain"
)

// InmemNode is an in-memory Node whose answers are set by the caller. It
// records the transactions it receives and keeps them in a mempool until Mine
// is called. It is used to run the machines without a real node.
type InmemNode struct {
	mu sync.Mutex

	sync      chain.SyncStatus
	epoch     chain.Epoch
	identity  chain.Identity
	balance   Balance
	intervals chain.CeremonyIntervals
	estimate  DeployEstimate

	txs      map[string]Transaction
	failures map[string]error
	calls    map[string]int
	hashSeq  int

	sent          []SendTxArgs
	deployed      []DeployArgs
	contractCalls []CallArgs
}

// NewInmemNode returns an InmemNode reporting a synced chain at block 0.
func NewInmemNode() *InmemNode {
	return &InmemNode{
		identity: chain.Identity{State: chain.Undefined},
		txs:      make(map[string]Transaction),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// SetSync sets the bcn_syncing answer.
func (n *InmemNode) SetSync(s chain.SyncStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sync = s
}

// SetEpoch sets the dna_epoch answer.
func (n *InmemNode) SetEpoch(e chain.Epoch) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.epoch = e
}

// SetIdentity sets the dna_identity answer.
func (n *InmemNode) SetIdentity(id chain.Identity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.identity = id
}

// SetBalance sets the dna_getBalance answer.
func (n *InmemNode) SetBalance(b Balance) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balance = b
}

// SetIntervals sets the dna_ceremonyIntervals answer.
func (n *InmemNode) SetIntervals(c chain.CeremonyIntervals) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.intervals = c
}

// SetEstimate sets the dna_estimateDeployContract answer.
func (n *InmemNode) SetEstimate(e DeployEstimate) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.estimate = e
}

// Fail makes every subsequent call to method return err. A nil err clears the
// failure.
func (n *InmemNode) Fail(method string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err == nil {
		delete(n.failures, method)
		return
	}
	n.failures[method] = err
}

// Mine moves a transaction out of the mempool.
func (n *InmemNode) Mine(hash string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	tx, ok := n.txs[hash]
	if !ok {
		tx = Transaction{Hash: hash}
	}
	tx.BlockHash = fmt.Sprintf("0x%064x", n.hashSeq+1)
	n.txs[hash] = tx
}

// Drop forgets a transaction, as if it had been evicted from the mempool.
func (n *InmemNode) Drop(hash string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.txs, hash)
}

// Calls returns the number of calls made to method.
func (n *InmemNode) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

// Sent returns the dna_sendTransaction arguments received so far.
func (n *InmemNode) Sent() []SendTxArgs {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]SendTxArgs(nil), n.sent...)
}

// Deployed returns the dna_deployContract arguments received so far.
func (n *InmemNode) Deployed() []DeployArgs {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]DeployArgs(nil), n.deployed...)
}

// ContractCalls returns the contract_call arguments received so far.
func (n *InmemNode) ContractCalls() []CallArgs {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]CallArgs(nil), n.contractCalls...)
}

// enter counts the call and returns the injected failure, if any. It must be
// called with the lock held.
func (n *InmemNode) enter(method string) error {
	n.calls[method]++
	return n.failures[method]
}

func (n *InmemNode) newTx(from, to string, amount chain.Amount) string {
	n.hashSeq++
	hash := fmt.Sprintf("0x%064x", n.hashSeq)
	n.txs[hash] = Transaction{
		Hash:      hash,
		From:      from,
		To:        to,
		Amount:    amount,
		BlockHash: HashInMempool,
	}
	return hash
}

// Syncing implements Node.
func (n *InmemNode) Syncing(ctx context.Context) (chain.SyncStatus, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter("bcn_syncing"); err != nil {
		return chain.SyncStatus{}, err
	}
	return n.sync, nil
}

// Epoch implements Node.
func (n *InmemNode) Epoch(ctx context.Context) (chain.Epoch, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter("dna_epoch"); err != nil {
		return chain.Epoch{}, err
	}
	return n.epoch, nil
}

// Identity implements Node.
func (n *InmemNode) Identity(ctx context.Context) (chain.Identity, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter("dna_identity"); err != nil {
		return chain.Identity{}, err
	}
	return n.identity, nil
}

// Balance implements Node.
func (n *InmemNode) Balance(ctx context.Context, address string) (Balance, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter("dna_getBalance"); err != nil {
		return Balance{}, err
	}
	return n.balance, nil
}

// CeremonyIntervals implements Node.
func (n *InmemNode) CeremonyIntervals(ctx context.Context) (chain.CeremonyIntervals, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter("dna_ceremonyIntervals"); err != nil {
		return chain.CeremonyIntervals{}, err
	}
	return n.intervals, nil
}

// SendTransaction implements Node.
func (n *InmemNode) SendTransaction(ctx context.Context, args SendTxArgs) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter("dna_sendTransaction"); err != nil {
		return "", err
	}
	n.sent = append(n.sent, args)
	return n.newTx(args.From, args.To, args.Amount), nil
}

// Transaction implements Node.
func (n *InmemNode) Transaction(ctx context.Context, hash string) (Transaction, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter("bcn_transaction"); err != nil {
		return Transaction{}, err
	}
	tx, ok := n.txs[hash]
	if !ok {
		return Transaction{}, &NodeError{Method: "bcn_transaction", Code: CodeNullResult, Message: "null result"}
	}
	return tx, nil
}

// EstimateDeployContract implements Node.
func (n *InmemNode) EstimateDeployContract(ctx context.Context, args DeployArgs) (DeployEstimate, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter("dna_estimateDeployContract"); err != nil {
		return DeployEstimate{}, err
	}
	return n.estimate, nil
}

// DeployContract implements Node.
func (n *InmemNode) DeployContract(ctx context.Context, args DeployArgs) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter("dna_deployContract"); err != nil {
		return "", err
	}
	n.deployed = append(n.deployed, args)
	return n.newTx(args.From, n.estimate.Contract, args.Amount), nil
}

// CallContract implements Node.
func (n *InmemNode) CallContract(ctx context.Context, args CallArgs) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter("contract_call"); err != nil {
		return "", err
	}
	n.contractCalls = append(n.contractCalls, args)
	return n.newTx(args.From, args.Contract, args.Amount), nil
}
