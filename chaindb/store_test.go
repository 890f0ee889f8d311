package chaindb

import (
	"math/big"
	"testing"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/stretchr/testify/require"

	"github.com/heliosworks/go-helios/inter"
)

const testChainID uint64 = 43

func testStore() *Store {
	return NewStore(memorydb.New(), DefaultStoreConfig())
}

func testAddr(b byte) common.Address {
	var addr common.Address
	addr[common.AddressLength-1] = b
	return addr
}

// testBlock builds a signed block of owner's chain with the given send and
// receive transactions.
func testBlock(t *testing.T, parent *inter.BlockHeader, time inter.Timestamp, txs inter.SendTransactions, rtxs inter.ReceiveTransactions) *inter.Block {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	header := &inter.BlockHeader{
		TxRoot:         inter.CalcTxRoot(txs),
		ReceiveTxRoot:  inter.CalcReceiveTxRoot(rtxs),
		ReceiptRoot:    inter.EmptyRootHash,
		GasLimit:       3141592,
		Time:           time,
		AccountBalance: big.NewInt(0),
	}
	if parent != nil {
		header.ParentHash = parent.Hash()
		header.Number = parent.Number + 1
	}
	signed, err := header.Signed(key, testChainID)
	require.NoError(t, err)

	return &inter.Block{
		Header:              signed,
		Transactions:        txs,
		ReceiveTransactions: rtxs,
		RewardBundle:        inter.EmptyRewardBundle(),
	}
}

func signedSend(t *testing.T, nonce uint64, to common.Address) *inter.SendTransaction {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	tx := &inter.SendTransaction{
		Nonce:    nonce,
		GasPrice: big.NewInt(1e9),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(1000),
	}
	signed, err := tx.Signed(key, testChainID)
	require.NoError(t, err)
	return signed
}

// TestStoreCommitAndRead verifies that a committed block is readable by
// hash, by canonical position and through its transactions.
func TestStoreCommitAndRead(t *testing.T) {
	s := testStore()
	owner := testAddr(1)
	recipient := testAddr(2)

	tx := signedSend(t, 0, recipient)
	block := testBlock(t, nil, 1000, inter.SendTransactions{tx}, nil)
	require.NoError(t, s.CommitBlock(owner, block))

	got, err := s.Block(block.Hash())
	require.NoError(t, err)
	require.Equal(t, block.Hash(), got.Hash())
	require.Len(t, got.Transactions, 1)
	require.Equal(t, tx.Hash(), got.Transactions[0].Hash())

	header, err := s.Header(block.Hash())
	require.NoError(t, err)
	require.Equal(t, block.Header.Hash(), header.Hash())

	canonical, err := s.CanonicalBlock(owner, 0)
	require.NoError(t, err)
	require.Equal(t, block.Hash(), canonical.Hash())

	head, err := s.Heads().HeadOf(owner)
	require.NoError(t, err)
	require.Equal(t, block.Hash(), head)

	// Cross-chain transaction lookup by hash.
	found, pos, err := s.Transaction(tx.Hash())
	require.NoError(t, err)
	require.Equal(t, tx.Hash(), found.Hash())
	require.Equal(t, block.Hash(), pos.BlockHash)
	require.False(t, pos.Receive)
}

// TestStoreMissingReads verifies the not-found error taxonomy.
func TestStoreMissingReads(t *testing.T) {
	s := testStore()

	_, err := s.Block(common.HexToHash("0x01"))
	require.ErrorIs(t, err, ErrBlockNotFound)

	_, err = s.Header(common.HexToHash("0x01"))
	require.ErrorIs(t, err, ErrHeaderNotFound)

	_, err = s.CanonicalHash(testAddr(1), 5)
	require.ErrorIs(t, err, ErrBlockNotFound)

	_, err = s.TransactionPosition(common.HexToHash("0x01"))
	require.ErrorIs(t, err, ErrTxNotFound)

	_, err = s.Heads().HeadOf(testAddr(1))
	require.ErrorIs(t, err, ErrNoHead)
}

// TestStoreSendRecordsReceivable verifies that committing a send registers
// a pending receive for the recipient.
func TestStoreSendRecordsReceivable(t *testing.T) {
	s := testStore()
	owner := testAddr(1)
	recipient := testAddr(2)

	tx := signedSend(t, 0, recipient)
	block := testBlock(t, nil, 1000, inter.SendTransactions{tx}, nil)
	require.NoError(t, s.CommitBlock(owner, block))

	pending, err := s.Receivable().ListPending(recipient)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, tx.Hash(), pending[0].TxHash)
	require.Equal(t, block.Hash(), pending[0].SenderBlockHash)

	// Nothing pending on the sender's own side.
	pending, err = s.Receivable().ListPending(owner)
	require.NoError(t, err)
	require.Empty(t, pending)
}

// TestStoreReceiveConsumesReceivable verifies that committing a receive
// settles the matching pending entry and that settling it twice fails.
func TestStoreReceiveConsumesReceivable(t *testing.T) {
	s := testStore()
	sender := testAddr(1)
	recipient := testAddr(2)

	recvKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	tx := signedSend(t, 0, recipient)
	senderBlock := testBlock(t, nil, 1000, inter.SendTransactions{tx}, nil)
	require.NoError(t, s.CommitBlock(sender, senderBlock))

	rtx, err := inter.NewReceiveTransaction(senderBlock.Hash(), tx).Signed(recvKey, testChainID)
	require.NoError(t, err)

	recvBlock := testBlock(t, nil, 2000, nil, inter.ReceiveTransactions{rtx})
	require.NoError(t, s.CommitBlock(recipient, recvBlock))

	pending, err := s.Receivable().ListPending(recipient)
	require.NoError(t, err)
	require.Empty(t, pending)

	// The receive transaction is indexed too.
	found, pos, err := s.Transaction(rtx.Hash())
	require.NoError(t, err)
	require.True(t, pos.Receive)
	require.Equal(t, rtx.Hash(), found.Hash())

	// A second settlement of the same receivable on a fresh block fails and
	// persists nothing.
	dup, err := inter.NewReceiveTransaction(senderBlock.Hash(), tx).Signed(recvKey, testChainID)
	require.NoError(t, err)
	dupBlock := testBlock(t, recvBlock.Header, 3000, nil, inter.ReceiveTransactions{dup})
	err = s.CommitBlock(recipient, dupBlock)
	require.ErrorIs(t, err, ErrNoSuchPending)

	_, err = s.Block(dupBlock.Hash())
	require.ErrorIs(t, err, ErrBlockNotFound)
	head, err := s.Heads().HeadOf(recipient)
	require.NoError(t, err)
	require.Equal(t, recvBlock.Hash(), head)
}

// TestStoreRejectsDoubleReceiveInOneBlock verifies that one block cannot
// settle the same receivable twice.
func TestStoreRejectsDoubleReceiveInOneBlock(t *testing.T) {
	s := testStore()
	sender := testAddr(1)
	recipient := testAddr(2)

	recvKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	tx := signedSend(t, 0, recipient)
	senderBlock := testBlock(t, nil, 1000, inter.SendTransactions{tx}, nil)
	require.NoError(t, s.CommitBlock(sender, senderBlock))

	rtx, err := inter.NewReceiveTransaction(senderBlock.Hash(), tx).Signed(recvKey, testChainID)
	require.NoError(t, err)

	block := testBlock(t, nil, 2000, nil, inter.ReceiveTransactions{rtx, rtx.Copy()})
	err = s.CommitBlock(recipient, block)
	require.ErrorIs(t, err, ErrNoSuchPending)
}

// TestStoreChainGrowth verifies canonical numbering and head advancement
// over several blocks.
func TestStoreChainGrowth(t *testing.T) {
	s := testStore()
	owner := testAddr(1)

	var parent *inter.BlockHeader
	var hashes []common.Hash
	for i := 0; i < 3; i++ {
		block := testBlock(t, parent, inter.Timestamp(1000*(i+1)), nil, nil)
		require.NoError(t, s.CommitBlock(owner, block))
		parent = block.Header
		hashes = append(hashes, block.Hash())
	}

	for i, want := range hashes {
		got, err := s.CanonicalHash(owner, idx.Block(i))
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	head, err := s.Heads().HeadOf(owner)
	require.NoError(t, err)
	require.Equal(t, hashes[2], head)
}
