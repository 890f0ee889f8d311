package chaindb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrNoSuchPending means an attempt to consume a receivable that is unknown
// or already settled. The caller treats this as a logic error; it is the
// backstop against double receipts.
var ErrNoSuchPending = errors.New("no such pending receive")

// PendingReceiveKey identifies one outstanding receivable item for an
// address: a specific send transaction inside a specific block on the
// sender's chain.
type PendingReceiveKey struct {
	TxHash          common.Hash
	SenderBlockHash common.Hash
}

// ReceivableIndex tracks, per address, the send transactions committed on
// other chains that this address has not yet settled with a receive
// transaction.
type ReceivableIndex struct {
	db  ethdb.KeyValueStore
	log *logrus.Entry
}

// NewReceivableIndex creates a receivable index over db.
func NewReceivableIndex(db ethdb.KeyValueStore) *ReceivableIndex {
	return &ReceivableIndex{
		db:  db,
		log: logrus.WithField("module", "receivable"),
	}
}

// RecordPending registers a receivable for addr. Recording the same key
// twice is a no-op, since the same send may be observed more than once
// during resynchronization.
func (ri *ReceivableIndex) RecordPending(addr common.Address, txHash, senderBlockHash common.Hash) error {
	return ri.recordIn(ri.db, addr, txHash, senderBlockHash)
}

func (ri *ReceivableIndex) recordIn(w ethdb.KeyValueWriter, addr common.Address, txHash, senderBlockHash common.Hash) error {
	key := pendingKey(addr, txHash, senderBlockHash)
	if has, err := ri.db.Has(key); err != nil {
		return errors.Wrap(err, "reading pending receive")
	} else if has {
		ri.log.WithFields(logrus.Fields{
			"address": addr.Hex(),
			"tx":      txHash.Hex(),
		}).Debug("Pending receive already recorded")
		return nil
	}
	if err := w.Put(key, []byte{1}); err != nil {
		return errors.Wrap(err, "writing pending receive")
	}
	return nil
}

// ConsumePending removes the matching entry once a receive transaction
// settles it. It fails with ErrNoSuchPending if the entry is absent or was
// already consumed.
func (ri *ReceivableIndex) ConsumePending(addr common.Address, txHash, senderBlockHash common.Hash) error {
	return ri.consumeIn(ri.db, addr, txHash, senderBlockHash)
}

func (ri *ReceivableIndex) consumeIn(w ethdb.KeyValueWriter, addr common.Address, txHash, senderBlockHash common.Hash) error {
	key := pendingKey(addr, txHash, senderBlockHash)
	has, err := ri.db.Has(key)
	if err != nil {
		return errors.Wrap(err, "reading pending receive")
	}
	if !has {
		return errors.Wrapf(ErrNoSuchPending, "address %s tx %s", addr.Hex(), txHash.Hex())
	}
	if err := w.Delete(key); err != nil {
		return errors.Wrap(err, "deleting pending receive")
	}
	return nil
}

// ListPending enumerates the outstanding receivables of addr, ordered by
// (transaction hash, sender block hash).
func (ri *ReceivableIndex) ListPending(addr common.Address) ([]PendingReceiveKey, error) {
	prefix := pendingAddrPrefix(addr)
	it := ri.db.NewIterator(prefix, nil)
	defer it.Release()

	var keys []PendingReceiveKey
	for it.Next() {
		key := it.Key()
		rest := key[len(prefix):]
		if len(rest) != 2*common.HashLength {
			return nil, errors.Errorf("malformed pending receive key %x", key)
		}
		var pk PendingReceiveKey
		copy(pk.TxHash[:], rest[:common.HashLength])
		copy(pk.SenderBlockHash[:], rest[common.HashLength:])
		keys = append(keys, pk)
	}
	if err := it.Error(); err != nil {
		return nil, errors.Wrap(err, "iterating pending receives")
	}
	return keys, nil
}
