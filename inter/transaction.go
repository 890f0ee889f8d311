package inter

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Transaction is the closed set of transaction kinds that may be staged on a
// queue block: outgoing sends and inbound receives. Staging dispatches on the
// concrete type; an unknown kind is a hard error, not a silent skip.
type Transaction interface {
	Hash() common.Hash

	// kind restricts implementations to this package.
	kind() string
}

// SendTransaction is an outgoing value/state transfer appended to the
// sender's own chain. To is nil for contract creation.
type SendTransaction struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *common.Address `rlp:"nil"`
	Value    *big.Int
	Data     []byte
	V        *big.Int
	R        *big.Int
	S        *big.Int
}

type sendTxSigPayload struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *common.Address `rlp:"nil"`
	Value    *big.Int
	Data     []byte
	ChainID  uint64
	Zero1    uint64
	Zero2    uint64
}

// SendTransactions is a list of send transactions, in block order.
type SendTransactions []*SendTransaction

func (tx *SendTransaction) kind() string { return "send" }

// Hash returns the keccak hash of the RLP-encoded transaction.
func (tx *SendTransaction) Hash() common.Hash {
	return rlpHash(tx)
}

// SigHash returns the hash signed by the sender for the given chain id.
func (tx *SendTransaction) SigHash(chainID uint64) common.Hash {
	return rlpHash(&sendTxSigPayload{
		Nonce:    tx.Nonce,
		GasPrice: tx.GasPrice,
		Gas:      tx.Gas,
		To:       tx.To,
		Value:    tx.Value,
		Data:     tx.Data,
		ChainID:  chainID,
	})
}

// Signed returns a copy of the transaction signed with key under chainID.
func (tx *SendTransaction) Signed(key *ecdsa.PrivateKey, chainID uint64) (*SendTransaction, error) {
	v, r, s, err := signPayload(tx.SigHash(chainID), key, chainID)
	if err != nil {
		return nil, err
	}
	cpy := tx.Copy()
	cpy.V, cpy.R, cpy.S = v, r, s
	return cpy, nil
}

// Sender recovers the account that signed the transaction.
func (tx *SendTransaction) Sender(chainID uint64) (common.Address, error) {
	if err := tx.Validate(chainID); err != nil {
		return common.Address{}, err
	}
	return recoverAddress(tx.SigHash(chainID), tx.V, tx.R, tx.S, chainID)
}

// ChainID extracts the chain id embedded in v, or 0 if unprotected.
func (tx *SendTransaction) ChainID() uint64 {
	if tx.V == nil {
		return 0
	}
	return DeriveChainID(tx.V)
}

// Validate checks the structural invariants of a signed transaction:
// canonical signature bounds and the v window for the given chain id.
func (tx *SendTransaction) Validate(chainID uint64) error {
	if tx.GasPrice == nil || tx.Value == nil {
		return fmt.Errorf("transaction gas price and value must be set")
	}
	return ValidateSignatureValues(tx.V, tx.R, tx.S, chainID)
}

// Copy duplicates the transaction, deep-copying pointer fields.
func (tx *SendTransaction) Copy() *SendTransaction {
	cpy := *tx
	if tx.To != nil {
		to := *tx.To
		cpy.To = &to
	}
	if tx.Data != nil {
		cpy.Data = append([]byte(nil), tx.Data...)
	}
	cpy.GasPrice = copyBig(tx.GasPrice)
	cpy.Value = copyBig(tx.Value)
	cpy.V = copyBig(tx.V)
	cpy.R = copyBig(tx.R)
	cpy.S = copyBig(tx.S)
	return &cpy
}

// ReceiveTransaction settles, on the recipient's chain, one send transaction
// that lives on the sender's chain. At most one may ever exist per
// (SenderBlockHash, Transaction) pair, system-wide.
type ReceiveTransaction struct {
	SenderBlockHash common.Hash
	Transaction     *SendTransaction
	V               *big.Int
	R               *big.Int
	S               *big.Int
}

type receiveTxSigPayload struct {
	SenderBlockHash common.Hash
	Transaction     *SendTransaction
	ChainID         uint64
	Zero1           uint64
	Zero2           uint64
}

// ReceiveTransactions is a list of receive transactions, in block order.
type ReceiveTransactions []*ReceiveTransaction

// NewReceiveTransaction packages a send transaction observed at
// senderBlockHash into an unsigned receive transaction.
func NewReceiveTransaction(senderBlockHash common.Hash, tx *SendTransaction) *ReceiveTransaction {
	return &ReceiveTransaction{
		SenderBlockHash: senderBlockHash,
		Transaction:     tx.Copy(),
		V:               new(big.Int),
		R:               new(big.Int),
		S:               new(big.Int),
	}
}

func (rtx *ReceiveTransaction) kind() string { return "receive" }

// Hash returns the keccak hash of the RLP-encoded receive transaction.
func (rtx *ReceiveTransaction) Hash() common.Hash {
	return rlpHash(rtx)
}

// SigHash returns the hash signed by the receiver for the given chain id.
func (rtx *ReceiveTransaction) SigHash(chainID uint64) common.Hash {
	return rlpHash(&receiveTxSigPayload{
		SenderBlockHash: rtx.SenderBlockHash,
		Transaction:     rtx.Transaction,
		ChainID:         chainID,
	})
}

// Signed returns a copy of the receive transaction signed with the receiving
// account's key under chainID.
func (rtx *ReceiveTransaction) Signed(key *ecdsa.PrivateKey, chainID uint64) (*ReceiveTransaction, error) {
	v, r, s, err := signPayload(rtx.SigHash(chainID), key, chainID)
	if err != nil {
		return nil, err
	}
	cpy := rtx.Copy()
	cpy.V, cpy.R, cpy.S = v, r, s
	return cpy, nil
}

// Receiver recovers the account that signed the receive transaction.
func (rtx *ReceiveTransaction) Receiver(chainID uint64) (common.Address, error) {
	if err := rtx.Validate(chainID); err != nil {
		return common.Address{}, err
	}
	return recoverAddress(rtx.SigHash(chainID), rtx.V, rtx.R, rtx.S, chainID)
}

// Validate checks the receive transaction's own signature bounds. The
// embedded send transaction is validated against its sender chain id.
func (rtx *ReceiveTransaction) Validate(chainID uint64) error {
	if rtx.Transaction == nil {
		return fmt.Errorf("receive transaction has no embedded send transaction")
	}
	return ValidateSignatureValues(rtx.V, rtx.R, rtx.S, chainID)
}

// Copy duplicates the receive transaction.
func (rtx *ReceiveTransaction) Copy() *ReceiveTransaction {
	cpy := *rtx
	if rtx.Transaction != nil {
		cpy.Transaction = rtx.Transaction.Copy()
	}
	cpy.V = copyBig(rtx.V)
	cpy.R = copyBig(rtx.R)
	cpy.S = copyBig(rtx.S)
	return &cpy
}

// CalcTxRoot returns the deterministic root hash of a send transaction list.
func CalcTxRoot(txs SendTransactions) common.Hash {
	if len(txs) == 0 {
		return EmptyRootHash
	}
	return rlpHash(txs)
}

// CalcReceiveTxRoot returns the deterministic root hash of a receive
// transaction list.
func CalcReceiveTxRoot(txs ReceiveTransactions) common.Hash {
	if len(txs) == 0 {
		return EmptyRootHash
	}
	return rlpHash(txs)
}
