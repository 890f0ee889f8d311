// Package chaindb persists the block lattice: per-account chains of blocks
// in one shared key-value store, the canonical head registry and the
// receivable index. All chains share the store, so reading another account's
// committed blocks needs no access to that account's live chain object.
package chaindb

import (
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/heliosworks/go-helios/inter"
)

var (
	// ErrHeaderNotFound means no header is stored under the given hash.
	ErrHeaderNotFound = errors.New("header not found")

	// ErrBlockNotFound means no block is stored under the given hash or
	// canonical position.
	ErrBlockNotFound = errors.New("block not found")

	// ErrTxNotFound means the transaction hash is not indexed.
	ErrTxNotFound = errors.New("transaction not found")
)

// StoreConfig tunes the store's caches and the head registry retention.
type StoreConfig struct {
	// HeaderCacheSize and BlockCacheSize bound the in-memory LRU caches.
	HeaderCacheSize int
	BlockCacheSize  int

	Heads HeadRegistryConfig
}

// DefaultStoreConfig returns the cache sizing used by the launcher.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		HeaderCacheSize: 2048,
		BlockCacheSize:  256,
		Heads:           DefaultHeadRegistryConfig(),
	}
}

// TxPosition locates a transaction inside a committed block.
type TxPosition struct {
	BlockHash common.Hash
	Index     uint64
	Receive   bool
}

// Store is the persistent block storage shared by every account chain.
// Blocks are append-only and keyed by hash; the canonical path of each chain
// is keyed by (address, number). All writes of one block import go through a
// single batch, so a head pointer can never reference a block that was not
// durably stored.
type Store struct {
	db  ethdb.KeyValueStore
	log *logrus.Entry

	headerCache *lru.Cache
	blockCache  *lru.Cache

	heads      *HeadRegistry
	receivable *ReceivableIndex
}

// NewStore creates a store over db.
func NewStore(db ethdb.KeyValueStore, cfg StoreConfig) *Store {
	headerCache, _ := lru.New(cfg.HeaderCacheSize)
	blockCache, _ := lru.New(cfg.BlockCacheSize)
	return &Store{
		db:          db,
		log:         logrus.WithField("module", "chaindb"),
		headerCache: headerCache,
		blockCache:  blockCache,
		heads:       NewHeadRegistry(db, cfg.Heads),
		receivable:  NewReceivableIndex(db),
	}
}

// Heads returns the canonical head registry.
func (s *Store) Heads() *HeadRegistry {
	return s.heads
}

// Receivable returns the receivable index.
func (s *Store) Receivable() *ReceivableIndex {
	return s.receivable
}

// Header returns the header stored under hash.
func (s *Store) Header(hash common.Hash) (*inter.BlockHeader, error) {
	if cached, ok := s.headerCache.Get(hash); ok {
		return cached.(*inter.BlockHeader).Copy(), nil
	}
	raw, err := s.db.Get(headerKey(hash))
	if err != nil || len(raw) == 0 {
		return nil, errors.Wrapf(ErrHeaderNotFound, "hash %s", hash.Hex())
	}
	header := new(inter.BlockHeader)
	if err := rlp.DecodeBytes(raw, header); err != nil {
		return nil, errors.Wrap(err, "decoding header")
	}
	s.headerCache.Add(hash, header.Copy())
	return header, nil
}

// Block returns the block stored under hash.
func (s *Store) Block(hash common.Hash) (*inter.Block, error) {
	if cached, ok := s.blockCache.Get(hash); ok {
		return cached.(*inter.Block).Copy(), nil
	}
	raw, err := s.db.Get(blockKey(hash))
	if err != nil || len(raw) == 0 {
		return nil, errors.Wrapf(ErrBlockNotFound, "hash %s", hash.Hex())
	}
	block := new(inter.Block)
	if err := rlp.DecodeBytes(raw, block); err != nil {
		return nil, errors.Wrap(err, "decoding block")
	}
	s.blockCache.Add(hash, block.Copy())
	return block, nil
}

// CanonicalHash returns the hash of block n on addr's canonical chain.
func (s *Store) CanonicalHash(addr common.Address, n idx.Block) (common.Hash, error) {
	raw, err := s.db.Get(canonicalKey(addr, n))
	if err != nil || len(raw) == 0 {
		return common.Hash{}, errors.Wrapf(ErrBlockNotFound, "address %s number %d", addr.Hex(), n)
	}
	return common.BytesToHash(raw), nil
}

// CanonicalBlock returns block n on addr's canonical chain.
func (s *Store) CanonicalBlock(addr common.Address, n idx.Block) (*inter.Block, error) {
	hash, err := s.CanonicalHash(addr, n)
	if err != nil {
		return nil, err
	}
	return s.Block(hash)
}

// TransactionPosition returns the committed location of the transaction
// with the given hash.
func (s *Store) TransactionPosition(txHash common.Hash) (TxPosition, error) {
	raw, err := s.db.Get(txIndexKey(txHash))
	if err != nil || len(raw) == 0 {
		return TxPosition{}, errors.Wrapf(ErrTxNotFound, "hash %s", txHash.Hex())
	}
	var pos TxPosition
	if err := rlp.DecodeBytes(raw, &pos); err != nil {
		return TxPosition{}, errors.Wrap(err, "decoding transaction position")
	}
	return pos, nil
}

// Transaction returns the committed transaction with the given hash,
// whichever chain it lives on. Committed blocks are immutable, so the read
// observes a single committed version even while the owning chain is being
// extended.
func (s *Store) Transaction(txHash common.Hash) (inter.Transaction, TxPosition, error) {
	pos, err := s.TransactionPosition(txHash)
	if err != nil {
		return nil, TxPosition{}, err
	}
	block, err := s.Block(pos.BlockHash)
	if err != nil {
		return nil, TxPosition{}, err
	}
	if pos.Receive {
		if pos.Index >= uint64(len(block.ReceiveTransactions)) {
			return nil, TxPosition{}, errors.Wrapf(ErrTxNotFound, "receive index %d out of range in block %s", pos.Index, pos.BlockHash.Hex())
		}
		return block.ReceiveTransactions[pos.Index], pos, nil
	}
	if pos.Index >= uint64(len(block.Transactions)) {
		return nil, TxPosition{}, errors.Wrapf(ErrTxNotFound, "send index %d out of range in block %s", pos.Index, pos.BlockHash.Hex())
	}
	return block.Transactions[pos.Index], pos, nil
}

// CommitBlock persists an imported block of addr's chain: block and header
// records, the canonical pointer, the transaction reverse index, the
// receivable bookkeeping (record a pending receive per outgoing send,
// consume one per settled receive) and the head checkpoint. Everything is
// written through one batch; on any error nothing is persisted.
func (s *Store) CommitBlock(addr common.Address, block *inter.Block) error {
	hash := block.Hash()
	batch := s.db.NewBatch()

	rawHeader, err := rlp.EncodeToBytes(block.Header)
	if err != nil {
		return errors.Wrap(err, "encoding header")
	}
	if err := batch.Put(headerKey(hash), rawHeader); err != nil {
		return errors.Wrap(err, "staging header")
	}

	rawBlock, err := rlp.EncodeToBytes(block)
	if err != nil {
		return errors.Wrap(err, "encoding block")
	}
	if err := batch.Put(blockKey(hash), rawBlock); err != nil {
		return errors.Wrap(err, "staging block")
	}

	if err := batch.Put(canonicalKey(addr, block.Header.Number), hash.Bytes()); err != nil {
		return errors.Wrap(err, "staging canonical pointer")
	}

	for i, tx := range block.Transactions {
		if err := s.stageTxIndex(batch, tx.Hash(), TxPosition{BlockHash: hash, Index: uint64(i)}); err != nil {
			return err
		}
		if tx.To != nil {
			if err := s.receivable.recordIn(batch, *tx.To, tx.Hash(), hash); err != nil {
				return err
			}
		}
	}

	consumed := make(map[PendingReceiveKey]struct{}, len(block.ReceiveTransactions))
	for i, rtx := range block.ReceiveTransactions {
		if err := s.stageTxIndex(batch, rtx.Hash(), TxPosition{BlockHash: hash, Index: uint64(i), Receive: true}); err != nil {
			return err
		}
		pk := PendingReceiveKey{TxHash: rtx.Transaction.Hash(), SenderBlockHash: rtx.SenderBlockHash}
		if _, dup := consumed[pk]; dup {
			return errors.Wrapf(ErrNoSuchPending, "duplicate receive of tx %s in one block", pk.TxHash.Hex())
		}
		consumed[pk] = struct{}{}
		if err := s.receivable.consumeIn(batch, addr, pk.TxHash, pk.SenderBlockHash); err != nil {
			return err
		}
	}

	if err := s.heads.commitHead(batch, addr, hash, block.Header.Time); err != nil {
		return err
	}

	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "committing block batch")
	}

	s.headerCache.Add(hash, block.Header.Copy())
	s.blockCache.Add(hash, block.Copy())
	s.log.WithFields(logrus.Fields{
		"address": addr.Hex(),
		"number":  block.Header.Number,
		"hash":    hash.Hex(),
	}).Debug("Committed block")
	return nil
}

func (s *Store) stageTxIndex(w ethdb.KeyValueWriter, txHash common.Hash, pos TxPosition) error {
	raw, err := rlp.EncodeToBytes(pos)
	if err != nil {
		return errors.Wrap(err, "encoding transaction position")
	}
	if err := w.Put(txIndexKey(txHash), raw); err != nil {
		return errors.Wrap(err, "staging transaction index")
	}
	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
