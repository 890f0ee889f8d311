package chaindb

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/heliosworks/go-helios/inter"
)

// ErrNoHead means no canonical head is recorded for an address. This is
// expected on a brand-new chain; callers treat it as "start from genesis".
var ErrNoHead = errors.New("no canonical head defined")

// HeadRegistryConfig tunes the retrospective head-hash sampling. The exact
// retention policy is a consensus-review knob, so both values are
// configuration rather than constants.
type HeadRegistryConfig struct {
	// SampleInterval is the minimum time, in seconds, between two recorded
	// head samples of one address.
	SampleInterval uint64

	// MaxSamples caps the per-address history; the oldest sample is evicted
	// on overflow.
	MaxSamples int
}

// DefaultHeadRegistryConfig returns the retention knobs used on mainnet.
func DefaultHeadRegistryConfig() HeadRegistryConfig {
	return HeadRegistryConfig{
		SampleInterval: 1000,
		MaxSamples:     1000,
	}
}

// HeadSample is one retrospective head checkpoint of an address.
type HeadSample struct {
	Time inter.Timestamp
	Hash common.Hash
}

// HeadRegistry is the persistent mapping from account address to that
// account's canonical head block hash, plus a bounded, time-sampled history
// of past heads. Writes are staged and committed as a single atomic batch:
// after a crash mid-commit either every staged write is visible or none is.
type HeadRegistry struct {
	db  ethdb.KeyValueStore
	cfg HeadRegistryConfig
	log *logrus.Entry

	mu      sync.Mutex
	staged  map[common.Address]common.Hash
	deleted map[common.Address]struct{}
}

// NewHeadRegistry creates a head registry over db.
func NewHeadRegistry(db ethdb.KeyValueStore, cfg HeadRegistryConfig) *HeadRegistry {
	return &HeadRegistry{
		db:      db,
		cfg:     cfg,
		log:     logrus.WithField("module", "heads"),
		staged:  make(map[common.Address]common.Hash),
		deleted: make(map[common.Address]struct{}),
	}
}

// HeadOf returns the canonical head hash of addr, staged writes included.
// It fails with ErrNoHead if the address has no recorded head.
func (hr *HeadRegistry) HeadOf(addr common.Address) (common.Hash, error) {
	hr.mu.Lock()
	if hash, ok := hr.staged[addr]; ok {
		hr.mu.Unlock()
		return hash, nil
	}
	if _, ok := hr.deleted[addr]; ok {
		hr.mu.Unlock()
		return common.Hash{}, errors.Wrapf(ErrNoHead, "address %s", addr.Hex())
	}
	hr.mu.Unlock()

	raw, err := hr.db.Get(headKey(addr))
	if err != nil || len(raw) == 0 {
		return common.Hash{}, errors.Wrapf(ErrNoHead, "address %s", addr.Hex())
	}
	return common.BytesToHash(raw), nil
}

// SetHead stages a head update for addr. The write becomes durable on the
// next Persist call.
func (hr *HeadRegistry) SetHead(addr common.Address, hash common.Hash) {
	hr.mu.Lock()
	defer hr.mu.Unlock()
	delete(hr.deleted, addr)
	hr.staged[addr] = hash
}

// RemoveHead stages the deletion of addr's head.
func (hr *HeadRegistry) RemoveHead(addr common.Address) {
	hr.mu.Lock()
	defer hr.mu.Unlock()
	delete(hr.staged, addr)
	hr.deleted[addr] = struct{}{}
}

// Persist durably commits all staged writes, applying pending deletions, as
// one atomic unit.
func (hr *HeadRegistry) Persist() error {
	hr.mu.Lock()
	defer hr.mu.Unlock()

	batch := hr.db.NewBatch()
	for addr, hash := range hr.staged {
		if err := batch.Put(headKey(addr), hash.Bytes()); err != nil {
			return errors.Wrap(err, "staging head write")
		}
	}
	for addr := range hr.deleted {
		if err := batch.Delete(headKey(addr)); err != nil {
			return errors.Wrap(err, "staging head delete")
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "committing head registry batch")
	}
	hr.staged = make(map[common.Address]common.Hash)
	hr.deleted = make(map[common.Address]struct{})
	return nil
}

// HeadHistory returns the recorded head samples of addr, oldest first.
func (hr *HeadRegistry) HeadHistory(addr common.Address) ([]HeadSample, error) {
	raw, err := hr.db.Get(headHistoryKey(addr))
	if err != nil || len(raw) == 0 {
		return nil, nil
	}
	var samples []HeadSample
	if err := rlp.DecodeBytes(raw, &samples); err != nil {
		return nil, errors.Wrap(err, "decoding head history")
	}
	return samples, nil
}

// commitHead writes addr's head pointer into w and, if at least
// SampleInterval has elapsed since the last sample, appends a history
// sample, evicting the oldest past MaxSamples. Called by the store inside
// the block-import batch so the head and the block commit together.
func (hr *HeadRegistry) commitHead(w ethdb.KeyValueWriter, addr common.Address, hash common.Hash, ts inter.Timestamp) error {
	if err := w.Put(headKey(addr), hash.Bytes()); err != nil {
		return errors.Wrap(err, "writing head")
	}

	samples, err := hr.HeadHistory(addr)
	if err != nil {
		return err
	}
	if n := len(samples); n > 0 && uint64(ts) < uint64(samples[n-1].Time)+hr.cfg.SampleInterval {
		return nil
	}
	samples = append(samples, HeadSample{Time: ts, Hash: hash})
	if len(samples) > hr.cfg.MaxSamples {
		samples = samples[len(samples)-hr.cfg.MaxSamples:]
	}
	enc, err := rlp.EncodeToBytes(samples)
	if err != nil {
		return errors.Wrap(err, "encoding head history")
	}
	if err := w.Put(headHistoryKey(addr), enc); err != nil {
		return errors.Wrap(err, "writing head history")
	}
	return nil
}
