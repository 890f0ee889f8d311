package inter

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

// TestQueueBlockDeduplicatesAdds verifies that staging is idempotent by
// transaction hash.
func TestQueueBlockDeduplicatesAdds(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	qb := NewQueueBlock(testHeader())

	tx, err := testSendTx().Signed(key, testChainID)
	require.NoError(t, err)

	require.True(t, qb.AddTransaction(tx))
	require.False(t, qb.AddTransaction(tx))
	require.False(t, qb.AddTransaction(tx.Copy()))
	require.Len(t, qb.Transactions, 1)

	other := testSendTx()
	other.Nonce++
	signedOther, err := other.Signed(key, testChainID)
	require.NoError(t, err)
	require.True(t, qb.AddTransaction(signedOther))
	require.Len(t, qb.Transactions, 2)

	rtx := NewReceiveTransaction(testHeader().Hash(), tx)
	require.True(t, qb.AddReceiveTransaction(rtx))
	require.False(t, qb.AddReceiveTransaction(rtx))
	require.Len(t, qb.ReceiveTransactions, 1)
}

// TestQueueBlockMutability verifies that a signed header seals the block.
func TestQueueBlockMutability(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	qb := NewQueueBlock(testHeader())
	require.True(t, qb.Mutable())

	signed, err := qb.Header.Signed(key, testChainID)
	require.NoError(t, err)
	qb.Header = signed
	require.False(t, qb.Mutable())
}

// TestQueueBlockHeaderIsDetached verifies that the queue block copies its
// header template instead of aliasing it.
func TestQueueBlockHeaderIsDetached(t *testing.T) {
	template := testHeader()
	qb := NewQueueBlock(template)

	qb.Header.GasUsed = 99
	require.NotEqual(t, template.GasUsed, qb.Header.GasUsed)
}

// TestQueueBlockAsBlock verifies that freezing computes the transaction
// roots and the reward hash, and detaches the result from the queue.
func TestQueueBlockAsBlock(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	qb := NewQueueBlock(testHeader())
	tx, err := testSendTx().Signed(key, testChainID)
	require.NoError(t, err)
	require.True(t, qb.AddTransaction(tx))

	block := qb.AsBlock()
	require.Equal(t, CalcTxRoot(qb.Transactions), block.Header.TxRoot)
	require.Equal(t, EmptyRootHash, block.Header.ReceiveTxRoot)
	require.Equal(t, qb.RewardBundle.Hash(), block.Header.RewardHash)

	// Appending to the frozen block leaves the queue untouched.
	block.Transactions = append(block.Transactions, tx)
	require.Len(t, qb.Transactions, 1)
}

// TestBlockIsGenesis verifies genesis detection by number and parent hash.
func TestBlockIsGenesis(t *testing.T) {
	genesis := &Block{Header: &BlockHeader{Number: 0, ParentHash: ZeroHash}}
	require.True(t, genesis.IsGenesis())

	child := &Block{Header: &BlockHeader{Number: 1, ParentHash: genesis.Hash()}}
	require.False(t, child.IsGenesis())

	orphan := &Block{Header: &BlockHeader{Number: 0, ParentHash: genesis.Hash()}}
	require.False(t, orphan.IsGenesis())
}

// TestCalcReceiptRoot verifies the empty list root and content sensitivity.
func TestCalcReceiptRoot(t *testing.T) {
	require.Equal(t, EmptyRootHash, CalcReceiptRoot(nil))

	receipts := Receipts{{Status: 1, GasUsed: 21000, CumulativeGasUsed: 21000}}
	root := CalcReceiptRoot(receipts)
	require.NotEqual(t, EmptyRootHash, root)

	receipts[0].Status = 0
	require.NotEqual(t, root, CalcReceiptRoot(receipts))
}

// TestRewardBundleHash verifies that the reward hash tracks the amounts.
func TestRewardBundleHash(t *testing.T) {
	empty := EmptyRewardBundle()
	funded := EmptyRewardBundle()
	funded.BaseReward.Amount = big.NewInt(100)

	require.NotEqual(t, empty.Hash(), funded.Hash())
	require.Equal(t, EmptyRewardBundle().Hash(), empty.Hash())
}
