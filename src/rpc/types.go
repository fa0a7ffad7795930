package rpc

import (
	"time"

	"github.com/dnaclient/dnaclient/src/chain"
)

// HashInMempool is the block hash reported for transactions that have not
// been included in a block yet.
const HashInMempool = "0x0000000000000000000000000000000000000000000000000000000000000000"

// TerminateTxType is the transaction type that kills an identity.
const TerminateTxType = 3

// Balance is the result of dna_getBalance.
type Balance struct {
	Balance chain.Amount `json:"balance"`
	Stake   chain.Amount `json:"stake"`
	Nonce   uint32       `json:"nonce"`
}

// Transaction is the subset of bcn_transaction used to track confirmations.
type Transaction struct {
	Hash      string       `json:"hash"`
	Type      string       `json:"type"`
	From      string       `json:"from"`
	To        string       `json:"to"`
	Amount    chain.Amount `json:"amount"`
	BlockHash string       `json:"blockHash"`
}

// Mined reports whether the transaction has been included in a block.
func (t Transaction) Mined() bool {
	return t.BlockHash != HashInMempool
}

// SendTxArgs are the arguments of dna_sendTransaction.
type SendTxArgs struct {
	Type   uint16       `json:"type,omitempty"`
	From   string       `json:"from"`
	To     string       `json:"to,omitempty"`
	Amount chain.Amount `json:"amount,omitempty"`
}

// ContractArg is a positional argument of a contract deployment or call.
type ContractArg struct {
	Index  int    `json:"index"`
	Format string `json:"format"`
	Value  string `json:"value"`
}

// DeployArgs are the arguments of dna_estimateDeployContract and
// dna_deployContract.
type DeployArgs struct {
	From          string        `json:"from"`
	CodeHash      string        `json:"codeHash"`
	ContractStake chain.Amount  `json:"contractStake,omitempty"`
	Amount        chain.Amount  `json:"amount,omitempty"`
	MaxFee        chain.Amount  `json:"maxFee,omitempty"`
	Args          []ContractArg `json:"args"`
}

// DeployEstimate is the result of dna_estimateDeployContract.
type DeployEstimate struct {
	Contract string       `json:"contract"`
	TxHash   string       `json:"txHash"`
	GasCost  chain.Amount `json:"gasCost"`
	TxFee    chain.Amount `json:"txFee"`
}

// CallArgs are the arguments of contract_call.
type CallArgs struct {
	From     string        `json:"from"`
	Contract string        `json:"contract"`
	Method   string        `json:"method"`
	Amount   chain.Amount  `json:"amount,omitempty"`
	MaxFee   chain.Amount  `json:"maxFee,omitempty"`
	Args     []ContractArg `json:"args"`
}

type ceremonyIntervals struct {
	ValidationInterval   float64
	FlipLotteryDuration  float64
	ShortSessionDuration float64
	LongSessionDuration  float64
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (c ceremonyIntervals) toChain() chain.CeremonyIntervals {
	return chain.CeremonyIntervals{
		Validation:   seconds(c.ValidationInterval),
		FlipLottery:  seconds(c.FlipLotteryDuration),
		ShortSession: seconds(c.ShortSessionDuration),
		LongSession:  seconds(c.LongSessionDuration),
	}
}
