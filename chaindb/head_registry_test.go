package chaindb

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/stretchr/testify/require"

	"github.com/heliosworks/go-helios/inter"
)

// TestHeadRegistryStagingVisibility verifies that staged writes are visible
// to reads before Persist and durable after it.
func TestHeadRegistryStagingVisibility(t *testing.T) {
	db := memorydb.New()
	hr := NewHeadRegistry(db, DefaultHeadRegistryConfig())
	addr := testAddr(1)
	hash := common.HexToHash("0x01")

	_, err := hr.HeadOf(addr)
	require.ErrorIs(t, err, ErrNoHead)

	hr.SetHead(addr, hash)
	got, err := hr.HeadOf(addr)
	require.NoError(t, err)
	require.Equal(t, hash, got)

	require.NoError(t, hr.Persist())

	// A fresh registry over the same db sees the persisted head.
	reopened := NewHeadRegistry(db, DefaultHeadRegistryConfig())
	got, err = reopened.HeadOf(addr)
	require.NoError(t, err)
	require.Equal(t, hash, got)
}

// TestHeadRegistryRemove verifies that a staged removal shadows both staged
// and persisted heads.
func TestHeadRegistryRemove(t *testing.T) {
	hr := NewHeadRegistry(memorydb.New(), DefaultHeadRegistryConfig())
	addr := testAddr(1)

	hr.SetHead(addr, common.HexToHash("0x01"))
	require.NoError(t, hr.Persist())

	hr.RemoveHead(addr)
	_, err := hr.HeadOf(addr)
	require.ErrorIs(t, err, ErrNoHead)

	require.NoError(t, hr.Persist())
	_, err = hr.HeadOf(addr)
	require.ErrorIs(t, err, ErrNoHead)

	// Re-setting after a removal reinstates the head.
	hr.SetHead(addr, common.HexToHash("0x02"))
	got, err := hr.HeadOf(addr)
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0x02"), got)
}

// TestHeadRegistrySampling verifies that head history records at most one
// sample per interval.
func TestHeadRegistrySampling(t *testing.T) {
	db := memorydb.New()
	cfg := HeadRegistryConfig{SampleInterval: 100, MaxSamples: 1000}
	hr := NewHeadRegistry(db, cfg)
	addr := testAddr(1)

	write := func(ts uint64, b byte) {
		batch := db.NewBatch()
		require.NoError(t, hr.commitHead(batch, addr, common.Hash{b}, inter.Timestamp(ts)))
		require.NoError(t, batch.Write())
	}

	write(1000, 1)
	write(1050, 2) // within the interval, head moves but no sample
	write(1100, 3)

	samples, err := hr.HeadHistory(addr)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	require.Equal(t, common.Hash{1}, samples[0].Hash)
	require.Equal(t, common.Hash{3}, samples[1].Hash)

	// The head itself always tracks the latest write.
	got, err := hr.HeadOf(addr)
	require.NoError(t, err)
	require.Equal(t, common.Hash{3}, got)
}

// TestHeadRegistrySampleEviction verifies the bounded history evicts oldest
// first.
func TestHeadRegistrySampleEviction(t *testing.T) {
	db := memorydb.New()
	cfg := HeadRegistryConfig{SampleInterval: 10, MaxSamples: 3}
	hr := NewHeadRegistry(db, cfg)
	addr := testAddr(1)

	for i := 0; i < 5; i++ {
		batch := db.NewBatch()
		require.NoError(t, hr.commitHead(batch, addr, common.Hash{byte(i)}, inter.Timestamp(100*(i+1))))
		require.NoError(t, batch.Write())
	}

	samples, err := hr.HeadHistory(addr)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	require.Equal(t, common.Hash{2}, samples[0].Hash)
	require.Equal(t, common.Hash{4}, samples[2].Hash)
}

// TestHeadRegistryIsolation verifies that addresses do not share heads or
// history.
func TestHeadRegistryIsolation(t *testing.T) {
	hr := NewHeadRegistry(memorydb.New(), DefaultHeadRegistryConfig())

	hr.SetHead(testAddr(1), common.HexToHash("0x01"))
	require.NoError(t, hr.Persist())

	_, err := hr.HeadOf(testAddr(2))
	require.ErrorIs(t, err, ErrNoHead)

	history, err := hr.HeadHistory(testAddr(2))
	require.NoError(t, err)
	require.Empty(t, history)
}
