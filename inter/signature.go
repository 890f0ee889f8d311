package inter

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Headers and both transaction kinds share one signature scheme: a secp256k1
// signature over the keccak hash of the RLP-encoded payload, with the chain id
// folded into v the same way EIP-155 does for Ethereum transactions.

var (
	secp256k1N     = crypto.S256().Params().N
	secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)

	big8 = big.NewInt(8)
)

// SignatureValues splits a 65-byte [R || S || V] signature into v, r, s,
// embedding the chain id into v when one is given.
func SignatureValues(sig []byte, chainID uint64) (v, r, s *big.Int, err error) {
	if len(sig) != crypto.SignatureLength {
		return nil, nil, nil, fmt.Errorf("wrong size for signature: got %d, want %d", len(sig), crypto.SignatureLength)
	}
	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	if chainID == 0 {
		v = new(big.Int).SetBytes([]byte{sig[64] + 27})
	} else {
		v = big.NewInt(int64(sig[64]) + 35)
		v.Add(v, new(big.Int).SetUint64(chainID*2))
	}
	return v, r, s, nil
}

// DeriveChainID derives the chain id from an EIP-155 style v value.
// It returns 0 for unprotected (v = 27/28) signatures and for any v
// below 35, which no chain id can produce.
func DeriveChainID(v *big.Int) uint64 {
	if v.BitLen() <= 64 {
		x := v.Uint64()
		if x < 35 {
			return 0
		}
		return (x - 35) / 2
	}
	x := new(big.Int).Sub(v, big.NewInt(35))
	return x.Div(x, big.NewInt(2)).Uint64()
}

// ValidateSignatureValues checks the r, s bounds, the low-s rule and, for a
// protected signature, that v falls in the exact two-value window derived
// from the chain id.
func ValidateSignatureValues(v, r, s *big.Int, chainID uint64) error {
	if v == nil || r == nil || s == nil {
		return fmt.Errorf("signature values must not be nil")
	}
	if r.Sign() < 1 || r.Cmp(secp256k1N) >= 0 {
		return fmt.Errorf("signature r out of range: %v", r)
	}
	if s.Sign() < 1 || s.Cmp(secp256k1N) >= 0 {
		return fmt.Errorf("signature s out of range: %v", s)
	}
	if s.Cmp(secp256k1HalfN) > 0 {
		return fmt.Errorf("signature s is in the upper half of the curve order: %v", s)
	}
	if !v.IsUint64() {
		return fmt.Errorf("signature v out of range: %v", v)
	}
	vu := v.Uint64()
	if vu == 27 || vu == 28 {
		if chainID != 0 {
			return fmt.Errorf("signature is not replay-protected, chain id %d required", chainID)
		}
		return nil
	}
	if chainID == 0 {
		return fmt.Errorf("signature v = %d for an unprotected signature, want 27 or 28", vu)
	}
	if vu < 35 {
		return fmt.Errorf("signature v = %d encodes no chain id", vu)
	}
	vMin := 35 + 2*chainID
	if vu != vMin && vu != vMin+1 {
		return fmt.Errorf("signature v = %d outside [%d, %d] for chain id %d", vu, vMin, vMin+1, chainID)
	}
	return nil
}

// recoverAddress recovers the signer of sighash from v, r, s.
func recoverAddress(sighash common.Hash, v, r, s *big.Int, chainID uint64) (common.Address, error) {
	recV := new(big.Int).Set(v)
	if chainID != 0 {
		recV.Sub(recV, new(big.Int).SetUint64(chainID*2))
		recV.Sub(recV, big8)
		recV.Sub(recV, big.NewInt(27))
	} else {
		recV.Sub(recV, big.NewInt(27))
	}
	if !recV.IsUint64() || recV.Uint64() > 1 {
		return common.Address{}, fmt.Errorf("invalid recovery id %v", v)
	}

	sig := make([]byte, crypto.SignatureLength)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])
	sig[64] = byte(recV.Uint64())

	pub, err := crypto.Ecrecover(sighash[:], sig)
	if err != nil {
		return common.Address{}, err
	}
	if len(pub) == 0 || pub[0] != 4 {
		return common.Address{}, fmt.Errorf("invalid public key recovered")
	}
	var addr common.Address
	copy(addr[:], crypto.Keccak256(pub[1:])[12:])
	return addr, nil
}

// signPayload signs sighash with key and returns EIP-155 style v, r, s.
func signPayload(sighash common.Hash, key *ecdsa.PrivateKey, chainID uint64) (v, r, s *big.Int, err error) {
	sig, err := crypto.Sign(sighash[:], key)
	if err != nil {
		return nil, nil, nil, err
	}
	return SignatureValues(sig, chainID)
}
