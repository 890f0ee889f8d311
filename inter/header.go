package inter

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

var (
	// ZeroHash is the parent hash of every genesis block.
	ZeroHash = common.Hash{}

	// EmptyRootHash is the root of an empty transaction, receive-transaction
	// or receipt list.
	EmptyRootHash = common.HexToHash("0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")
)

// BlockHeader is the header of a block on one account chain. Once signed and
// imported it is immutable; the header of a queue block is a mutable template
// whose executor-owned fields (GasUsed, Bloom, ReceiptRoot, AccountRoot,
// AccountBalance) are filled in during import.
type BlockHeader struct {
	ParentHash     common.Hash
	TxRoot         common.Hash
	ReceiveTxRoot  common.Hash
	ReceiptRoot    common.Hash
	Bloom          types.Bloom
	Number         idx.Block
	GasLimit       uint64
	GasUsed        uint64
	Time           Timestamp
	Extra          []byte
	RewardHash     common.Hash
	AccountRoot    common.Hash
	AccountBalance *big.Int
	V              *big.Int
	R              *big.Int
	S              *big.Int
}

// headerSigPayload is the header with the signature stripped, extended with
// the EIP-155 chain id triplet. Field order must match BlockHeader.
type headerSigPayload struct {
	ParentHash     common.Hash
	TxRoot         common.Hash
	ReceiveTxRoot  common.Hash
	ReceiptRoot    common.Hash
	Bloom          types.Bloom
	Number         idx.Block
	GasLimit       uint64
	GasUsed        uint64
	Time           Timestamp
	Extra          []byte
	RewardHash     common.Hash
	AccountRoot    common.Hash
	AccountBalance *big.Int
	ChainID        uint64
	Zero1          uint64
	Zero2          uint64
}

// Hash returns the keccak hash of the RLP-encoded header, signature included.
func (h *BlockHeader) Hash() common.Hash {
	return rlpHash(h)
}

// SigHash returns the hash the chain owner signs for the given chain id.
func (h *BlockHeader) SigHash(chainID uint64) common.Hash {
	return rlpHash(&headerSigPayload{
		ParentHash:     h.ParentHash,
		TxRoot:         h.TxRoot,
		ReceiveTxRoot:  h.ReceiveTxRoot,
		ReceiptRoot:    h.ReceiptRoot,
		Bloom:          h.Bloom,
		Number:         h.Number,
		GasLimit:       h.GasLimit,
		GasUsed:        h.GasUsed,
		Time:           h.Time,
		Extra:          h.Extra,
		RewardHash:     h.RewardHash,
		AccountRoot:    h.AccountRoot,
		AccountBalance: h.AccountBalance,
		ChainID:        chainID,
	})
}

// Signed returns a copy of the header signed with key under chainID.
func (h *BlockHeader) Signed(key *ecdsa.PrivateKey, chainID uint64) (*BlockHeader, error) {
	v, r, s, err := signPayload(h.SigHash(chainID), key, chainID)
	if err != nil {
		return nil, err
	}
	cpy := h.Copy()
	cpy.V, cpy.R, cpy.S = v, r, s
	return cpy, nil
}

// IsSigned reports whether the header carries a signature.
func (h *BlockHeader) IsSigned() bool {
	return h.V != nil && h.V.Sign() != 0
}

// Signer recovers the account that signed the header.
func (h *BlockHeader) Signer(chainID uint64) (common.Address, error) {
	if !h.IsSigned() {
		return common.Address{}, fmt.Errorf("header %d is not signed", h.Number)
	}
	if err := ValidateSignatureValues(h.V, h.R, h.S, chainID); err != nil {
		return common.Address{}, err
	}
	return recoverAddress(h.SigHash(chainID), h.V, h.R, h.S, chainID)
}

// Copy duplicates the header, deep-copying the big.Int and byte fields.
func (h *BlockHeader) Copy() *BlockHeader {
	cpy := *h
	if h.Extra != nil {
		cpy.Extra = append([]byte(nil), h.Extra...)
	}
	cpy.AccountBalance = copyBig(h.AccountBalance)
	cpy.V = copyBig(h.V)
	cpy.R = copyBig(h.R)
	cpy.S = copyBig(h.S)
	return &cpy
}

func copyBig(x *big.Int) *big.Int {
	if x == nil {
		return nil
	}
	return new(big.Int).Set(x)
}

func rlpHash(x interface{}) common.Hash {
	enc, err := rlp.EncodeToBytes(x)
	if err != nil {
		panic(fmt.Errorf("rlp hashing failed: %v", err))
	}
	return crypto.Keccak256Hash(enc)
}
