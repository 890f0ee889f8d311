package chaindb

import (
	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
)

// Key layout. Every record lives under a one-byte bucket prefix so that all
// chains share a single key-value store and cross-chain reads go through the
// same committed view.
//
//	h + blockHash                        -> RLP(header)
//	b + blockHash                        -> RLP(block)
//	c + address + number                 -> canonical block hash
//	t + txHash                           -> RLP(tx position)
//	p + address + txHash + senderBlockHash -> pending receive marker
//	H + address                          -> head block hash
//	S + address                          -> RLP(head samples)
var (
	headerPrefix      = []byte("h")
	blockPrefix       = []byte("b")
	canonicalPrefix   = []byte("c")
	txIndexPrefix     = []byte("t")
	pendingPrefix     = []byte("p")
	headPrefix        = []byte("H")
	headHistoryPrefix = []byte("S")
)

func headerKey(hash common.Hash) []byte {
	return append(append([]byte(nil), headerPrefix...), hash[:]...)
}

func blockKey(hash common.Hash) []byte {
	return append(append([]byte(nil), blockPrefix...), hash[:]...)
}

func canonicalKey(addr common.Address, n idx.Block) []byte {
	key := append(append([]byte(nil), canonicalPrefix...), addr[:]...)
	return append(key, bigendian.Uint64ToBytes(uint64(n))...)
}

func txIndexKey(hash common.Hash) []byte {
	return append(append([]byte(nil), txIndexPrefix...), hash[:]...)
}

func pendingAddrPrefix(addr common.Address) []byte {
	return append(append([]byte(nil), pendingPrefix...), addr[:]...)
}

func pendingKey(addr common.Address, txHash, senderBlockHash common.Hash) []byte {
	key := pendingAddrPrefix(addr)
	key = append(key, txHash[:]...)
	return append(key, senderBlockHash[:]...)
}

func headKey(addr common.Address) []byte {
	return append(append([]byte(nil), headPrefix...), addr[:]...)
}

func headHistoryKey(addr common.Address) []byte {
	return append(append([]byte(nil), headHistoryPrefix...), addr[:]...)
}
