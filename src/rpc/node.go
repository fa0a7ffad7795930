package rpc

import (
	"context"

	"github.com/dnaclient/dnaclient/src/chain"
)

// Node is the set of node methods the orchestration core depends on.
type Node interface {
	Syncing(ctx context.Context) (chain.SyncStatus, error)
	Epoch(ctx context.Context) (chain.Epoch, error)
	Identity(ctx context.Context) (chain.Identity, error)
	Balance(ctx context.Context, address string) (Balance, error)
	CeremonyIntervals(ctx context.Context) (chain.CeremonyIntervals, error)
	SendTransaction(ctx context.Context, args SendTxArgs) (string, error)
	Transaction(ctx context.Context, hash string) (Transaction, error)
	EstimateDeployContract(ctx context.Context, args DeployArgs) (DeployEstimate, error)
	DeployContract(ctx context.Context, args DeployArgs) (string, error)
	CallContract(ctx context.Context, args CallArgs) (string, error)
}

// API implements Node on top of a Caller.
type API struct {
	caller Caller
}

// NewAPI wraps a Caller.
func NewAPI(caller Caller) *API {
	return &API{caller: caller}
}

// Syncing calls bcn_syncing.
func (a *API) Syncing(ctx context.Context) (chain.SyncStatus, error) {
	var res chain.SyncStatus
	err := a.caller.Call(ctx, "bcn_syncing", &res)
	return res, err
}

// Epoch calls dna_epoch.
func (a *API) Epoch(ctx context.Context) (chain.Epoch, error) {
	var res chain.Epoch
	err := a.caller.Call(ctx, "dna_epoch", &res)
	return res, err
}

// Identity calls dna_identity.
func (a *API) Identity(ctx context.Context) (chain.Identity, error) {
	var res chain.Identity
	err := a.caller.Call(ctx, "dna_identity", &res)
	return res, err
}

// Balance calls dna_getBalance.
func (a *API) Balance(ctx context.Context, address string) (Balance, error) {
	var res Balance
	err := a.caller.Call(ctx, "dna_getBalance", &res, address)
	return res, err
}

// CeremonyIntervals calls dna_ceremonyIntervals. The node reports durations in
// seconds.
func (a *API) CeremonyIntervals(ctx context.Context) (chain.CeremonyIntervals, error) {
	var res ceremonyIntervals
	if err := a.caller.Call(ctx, "dna_ceremonyIntervals", &res); err != nil {
		return chain.CeremonyIntervals{}, err
	}
	return res.toChain(), nil
}

// SendTransaction calls dna_sendTransaction and returns the transaction hash.
func (a *API) SendTransaction(ctx context.Context, args SendTxArgs) (string, error) {
	var hash string
	err := a.caller.Call(ctx, "dna_sendTransaction", &hash, args)
	return hash, err
}

// Transaction calls bcn_transaction.
func (a *API) Transaction(ctx context.Context, hash string) (Transaction, error) {
	var res Transaction
	err := a.caller.Call(ctx, "bcn_transaction", &res, hash)
	return res, err
}

// EstimateDeployContract calls dna_estimateDeployContract.
func (a *API) EstimateDeployContract(ctx context.Context, args DeployArgs) (DeployEstimate, error) {
	var res DeployEstimate
	err := a.caller.Call(ctx, "dna_estimateDeployContract", &res, args)
	return res, err
}

// DeployContract calls dna_deployContract and returns the transaction hash.
func (a *API) DeployContract(ctx context.Context, args DeployArgs) (string, error) {
	var hash string
	err := a.caller.Call(ctx, "dna_deployContract", &hash, args)
	return hash, err
}

// CallContract calls contract_call and returns the transaction hash.
func (a *API) CallContract(ctx context.Context, args CallArgs) (string, error) {
	var hash string
	err := a.caller.Call(ctx, "contract_call", &hash, args)
	return hash, err
}
