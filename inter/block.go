// Package inter defines the core data structures of the block lattice: every
// account owns an independent chain of blocks, a block carries the account's
// outgoing send transactions and the receive transactions that settle inbound
// value from other chains.
package inter

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Block is an immutable block on one account chain.
type Block struct {
	Header              *BlockHeader
	Transactions        SendTransactions
	ReceiveTransactions ReceiveTransactions
	RewardBundle        RewardBundle
}

// Hash returns the block's header hash.
func (b *Block) Hash() common.Hash {
	return b.Header.Hash()
}

// Number returns the block's position on its account chain.
func (b *Block) Number() uint64 {
	return uint64(b.Header.Number)
}

// IsGenesis reports whether this is the first block of its chain.
func (b *Block) IsGenesis() bool {
	return b.Header.Number == 0 && b.Header.ParentHash == ZeroHash
}

// Copy duplicates the block; transaction lists are copied shallowly since
// committed transactions are immutable.
func (b *Block) Copy() *Block {
	cpy := *b
	cpy.Header = b.Header.Copy()
	cpy.Transactions = append(SendTransactions(nil), b.Transactions...)
	cpy.ReceiveTransactions = append(ReceiveTransactions(nil), b.ReceiveTransactions...)
	return &cpy
}

// QueueBlock is the single mutable staging block of an account chain. It
// accumulates transactions until it is executed, signed and imported; adds
// are deduplicated by transaction hash so staging is idempotent.
type QueueBlock struct {
	Header              *BlockHeader
	Transactions        SendTransactions
	ReceiveTransactions ReceiveTransactions
	RewardBundle        RewardBundle

	known map[common.Hash]struct{}
}

// NewQueueBlock creates an empty staging block on top of the given header
// template. The header is copied; the template stays untouched.
func NewQueueBlock(header *BlockHeader) *QueueBlock {
	return &QueueBlock{
		Header:       header.Copy(),
		RewardBundle: EmptyRewardBundle(),
		known:        make(map[common.Hash]struct{}),
	}
}

// Mutable reports whether the queue block can still accept transactions.
// A queue block whose header has been signed is sealed.
func (qb *QueueBlock) Mutable() bool {
	return !qb.Header.IsSigned()
}

// Contains reports whether a transaction with the given hash is staged.
func (qb *QueueBlock) Contains(hash common.Hash) bool {
	_, ok := qb.known[hash]
	return ok
}

// AddTransaction stages a send transaction. It returns false if a
// transaction with the same hash is already staged.
func (qb *QueueBlock) AddTransaction(tx *SendTransaction) bool {
	h := tx.Hash()
	if qb.Contains(h) {
		return false
	}
	qb.known[h] = struct{}{}
	qb.Transactions = append(qb.Transactions, tx)
	return true
}

// AddReceiveTransaction stages a receive transaction. It returns false if a
// receive transaction with the same hash is already staged.
func (qb *QueueBlock) AddReceiveTransaction(rtx *ReceiveTransaction) bool {
	h := rtx.Hash()
	if qb.Contains(h) {
		return false
	}
	qb.known[h] = struct{}{}
	qb.ReceiveTransactions = append(qb.ReceiveTransactions, rtx)
	return true
}

// AsBlock freezes the staged transactions into a provisional block. The
// transaction roots and reward hash are computed here; the executor-owned
// header fields are filled in during import.
func (qb *QueueBlock) AsBlock() *Block {
	header := qb.Header.Copy()
	header.TxRoot = CalcTxRoot(qb.Transactions)
	header.ReceiveTxRoot = CalcReceiveTxRoot(qb.ReceiveTransactions)
	header.RewardHash = qb.RewardBundle.Hash()
	return &Block{
		Header:              header,
		Transactions:        append(SendTransactions(nil), qb.Transactions...),
		ReceiveTransactions: append(ReceiveTransactions(nil), qb.ReceiveTransactions...),
		RewardBundle:        qb.RewardBundle,
	}
}

// Receipt is the per-transaction execution result reported by the executor.
type Receipt struct {
	Status            uint64
	GasUsed           uint64
	CumulativeGasUsed uint64
	Bloom             types.Bloom
}

// Receipts is a list of receipts, in block transaction order.
type Receipts []*Receipt

// CalcReceiptRoot returns the deterministic root hash of a receipt list.
func CalcReceiptRoot(receipts Receipts) common.Hash {
	if len(receipts) == 0 {
		return EmptyRootHash
	}
	return rlpHash(receipts)
}

// StakeReward is one component of a block's reward bundle.
type StakeReward struct {
	Amount *big.Int
}

// ProofOfStakeReward is the reward component that carries a stake proof.
type ProofOfStakeReward struct {
	Amount *big.Int
	Proof  [][]byte
}

// RewardBundle carries the block reward components. Reward computation is
// owned by the executor; this core only hashes and transports the bundle.
type RewardBundle struct {
	BaseReward  StakeReward
	StakeReward ProofOfStakeReward
}

// EmptyRewardBundle returns a bundle with zero rewards.
func EmptyRewardBundle() RewardBundle {
	return RewardBundle{
		BaseReward:  StakeReward{Amount: new(big.Int)},
		StakeReward: ProofOfStakeReward{Amount: new(big.Int)},
	}
}

// Hash returns the keccak hash of the RLP-encoded bundle.
func (rb RewardBundle) Hash() common.Hash {
	return rlpHash(&rb)
}
