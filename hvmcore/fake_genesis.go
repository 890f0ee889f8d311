package hvmcore

import (
	"crypto/ecdsa"
	"math/rand"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/heliosworks/go-helios/inter"
)

// FakeGenesisTime is the default genesis timestamp of fake networks.
var FakeGenesisTime = inter.Timestamp(1608600000)

// FakeKey generates a deterministic private key for testing. The same n
// always yields the same key, so fake networks and tests get reproducible
// accounts.
func FakeKey(n int) *ecdsa.PrivateKey {
	reader := rand.New(rand.NewSource(int64(n)))
	key, err := ecdsa.GenerateKey(crypto.S256(), reader)
	if err != nil {
		panic(err)
	}
	return key
}

// FakeAddress returns the address of FakeKey(n).
func FakeAddress(n int) common.Address {
	return crypto.PubkeyToAddress(FakeKey(n).PublicKey)
}
