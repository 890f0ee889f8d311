// Package hvmcore implements the per-account chain orchestrator of the
// block lattice. A Chain tracks one account's tip, stages transactions on a
// mutable queue block, packages receivable cross-chain sends into receive
// transactions and drives the block import pipeline. Transaction execution
// itself is delegated to an Executor.
package hvmcore

import (
	"bytes"
	"crypto/ecdsa"
	"math/big"
	"sync"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/heliosworks/go-helios/chaindb"
	"github.com/heliosworks/go-helios/helios"
	"github.com/heliosworks/go-helios/inter"
)

// Chain orchestrates one account's chain. All mutating operations are
// serialized by an internal lock: staging and importing on the same chain
// are single-writer, while chains of different addresses are fully
// independent.
type Chain struct {
	mu sync.Mutex

	rules   helios.Rules
	address common.Address
	key     *ecdsa.PrivateKey // nil for read-only chains

	store     *chaindb.Store
	executor  Executor
	estimator GasEstimator

	// header is the template of the chain's next block; queue is the
	// mutable staging block built on it, or nil right after an import.
	header *inter.BlockHeader
	queue  *inter.QueueBlock

	log *logrus.Entry
}

// NewChain opens the chain of addr over store. If the head registry knows no
// head for addr, a genesis header is synthesized from the ruleset active at
// the current time; otherwise the next header is derived from the stored
// head. key may be nil for a read-only chain.
func NewChain(rules helios.Rules, store *chaindb.Store, executor Executor, addr common.Address, key *ecdsa.PrivateKey) (*Chain, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	c := &Chain{
		rules:     rules,
		address:   addr,
		key:       key,
		store:     store,
		executor:  executor,
		estimator: DefaultGasEstimator,
		log: logrus.WithFields(logrus.Fields{
			"module": "chain",
			"chain":  addr.Hex(),
		}),
	}

	headHash, err := store.Heads().HeadOf(addr)
	switch {
	case errors.Is(err, chaindb.ErrNoHead):
		rs, err := rules.RulesetNow()
		if err != nil {
			return nil, err
		}
		c.log.WithField("ruleset", rs.ID).Debug("No canonical head, starting genesis chain")
		c.header = GenesisHeader(rules.Genesis)
	case err != nil:
		return nil, err
	default:
		head, err := store.Header(headHash)
		if err != nil {
			return nil, err
		}
		c.header, err = c.createHeaderFromParent(head)
		if err != nil {
			return nil, err
		}
	}

	c.queue = inter.NewQueueBlock(c.header)
	return c, nil
}

// Address returns the account owning this chain.
func (c *Chain) Address() common.Address {
	return c.address
}

// Header returns a copy of the chain's next-block header template.
func (c *Chain) Header() *inter.BlockHeader {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.header.Copy()
}

// SetGasEstimator injects a gas estimation strategy.
func (c *Chain) SetGasEstimator(estimator GasEstimator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.estimator = estimator
}

// CreateHeaderFromParent builds the next header on top of parent, resolving
// the ruleset by the parent's timestamp.
func (c *Chain) CreateHeaderFromParent(parent *inter.BlockHeader, overrides ...HeaderOverride) (*inter.BlockHeader, error) {
	return c.createHeaderFromParent(parent, overrides...)
}

func (c *Chain) createHeaderFromParent(parent *inter.BlockHeader, overrides ...HeaderOverride) (*inter.BlockHeader, error) {
	rs, err := c.rules.RulesetAt(parent.Time)
	if err != nil {
		return nil, err
	}
	return CreateHeaderFromParent(rs, parent, overrides...)
}

//
// Queue block API
//

// AddTransactionToQueueBlock stages a transaction on the chain's queue
// block, creating the queue block from the current tip if absent. Staging
// the same transaction again is a no-op, so the operation is safe to retry.
func (c *Chain) AddTransactionToQueueBlock(tx inter.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stageTransaction(tx)
}

// AddTransactionsToQueueBlock stages every transaction in order.
func (c *Chain) AddTransactionsToQueueBlock(txs []inter.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tx := range txs {
		if err := c.stageTransaction(tx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chain) stageTransaction(tx inter.Transaction) error {
	if c.queue == nil {
		c.queue = inter.NewQueueBlock(c.header)
	}
	if !c.queue.Mutable() {
		return errors.Wrapf(ErrQueueBlockSealed, "chain %s", c.address.Hex())
	}

	switch t := tx.(type) {
	case *inter.SendTransaction:
		if !c.queue.AddTransaction(t) {
			c.log.WithField("tx", t.Hash().Hex()).Debug("Transaction already staged, not adding again")
		}
	case *inter.ReceiveTransaction:
		if !c.queue.AddReceiveTransaction(t) {
			c.log.WithField("tx", t.Hash().Hex()).Debug("Receive transaction already staged, not adding again")
		}
	default:
		return validationErrorf("unknown transaction kind %T", tx)
	}
	return nil
}

// QueueBlock returns the current staging block, or nil if none exists.
func (c *Chain) QueueBlock() *inter.QueueBlock {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue
}

// SignQueueBlockHeader seals the staging block: the transaction roots are
// frozen into its header and the header is signed with the chain's key.
// A sealed queue block accepts no further transactions.
func (c *Chain) SignQueueBlockHeader() (*inter.BlockHeader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key == nil {
		return nil, errors.Wrapf(ErrNoSigningKey, "chain %s", c.address.Hex())
	}
	if c.queue == nil {
		return nil, validationErrorf("chain %s has no queue block", c.address.Hex())
	}
	if !c.queue.Mutable() {
		return nil, errors.Wrapf(ErrQueueBlockSealed, "chain %s", c.address.Hex())
	}

	header := c.queue.Header.Copy()
	header.TxRoot = inter.CalcTxRoot(c.queue.Transactions)
	header.ReceiveTxRoot = inter.CalcReceiveTxRoot(c.queue.ReceiveTransactions)
	header.RewardHash = c.queue.RewardBundle.Hash()
	signed, err := header.Signed(c.key, c.rules.NetworkID)
	if err != nil {
		return nil, err
	}
	c.queue.Header = signed
	return signed.Copy(), nil
}

//
// Transaction API
//

// CreateTransaction builds an unsigned send transaction.
func (c *Chain) CreateTransaction(nonce uint64, gasPrice *big.Int, gas uint64, to *common.Address, value *big.Int, data []byte) *inter.SendTransaction {
	return &inter.SendTransaction{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       to,
		Value:    value,
		Data:     data,
	}
}

// CreateAndSignTransaction builds a send transaction signed with the
// chain's key under the network's chain id.
func (c *Chain) CreateAndSignTransaction(nonce uint64, gasPrice *big.Int, gas uint64, to *common.Address, value *big.Int, data []byte) (*inter.SendTransaction, error) {
	if c.key == nil {
		return nil, errors.Wrapf(ErrNoSigningKey, "chain %s", c.address.Hex())
	}
	return c.CreateTransaction(nonce, gasPrice, gas, to, value, data).Signed(c.key, c.rules.NetworkID)
}

// CreateAndSignTransactionForQueueBlock signs a send transaction and stages
// it on the queue block.
func (c *Chain) CreateAndSignTransactionForQueueBlock(nonce uint64, gasPrice *big.Int, gas uint64, to *common.Address, value *big.Int, data []byte) (*inter.SendTransaction, error) {
	tx, err := c.CreateAndSignTransaction(nonce, gasPrice, gas, to, value, data)
	if err != nil {
		return nil, err
	}
	if err := c.AddTransactionToQueueBlock(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// GetCanonicalTransaction returns a committed transaction by hash, from
// whichever chain it lives on.
func (c *Chain) GetCanonicalTransaction(txHash common.Hash) (inter.Transaction, error) {
	tx, _, err := c.store.Transaction(txHash)
	if err != nil {
		return nil, err
	}
	if tx.Hash() != txHash {
		return nil, validationErrorf("transaction index returned %s instead of %s", tx.Hash().Hex(), txHash.Hex())
	}
	return tx, nil
}

//
// Receivable API
//

// ReceivableTransactions resolves every outstanding receivable of addr: the
// pending keys from the receivable index, plus the referenced send
// transactions looked up on their sender chains. The two slices are in
// matching order; both are empty when nothing is pending.
func (c *Chain) ReceivableTransactions(addr common.Address) (inter.SendTransactions, []chaindb.PendingReceiveKey, error) {
	keys, err := c.store.Receivable().ListPending(addr)
	if err != nil {
		return nil, nil, err
	}
	if len(keys) == 0 {
		return nil, nil, nil
	}
	txs := make(inter.SendTransactions, 0, len(keys))
	for _, key := range keys {
		tx, err := c.GetCanonicalTransaction(key.TxHash)
		if err != nil {
			return nil, nil, err
		}
		send, ok := tx.(*inter.SendTransaction)
		if !ok {
			return nil, nil, validationErrorf("pending receive %s references a non-send transaction", key.TxHash.Hex())
		}
		txs = append(txs, send)
	}
	return txs, keys, nil
}

// CreateReceivableSignedTransactions packages every receivable of this
// chain's account into a receive transaction signed with the chain's key.
func (c *Chain) CreateReceivableSignedTransactions() (inter.ReceiveTransactions, error) {
	txs, keys, err := c.ReceivableTransactions(c.address)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, nil
	}
	if c.key == nil {
		return nil, errors.Wrapf(ErrNoSigningKey, "chain %s", c.address.Hex())
	}
	receives := make(inter.ReceiveTransactions, 0, len(txs))
	for i, tx := range txs {
		rtx := inter.NewReceiveTransaction(keys[i].SenderBlockHash, tx)
		signed, err := rtx.Signed(c.key, c.rules.NetworkID)
		if err != nil {
			return nil, err
		}
		receives = append(receives, signed)
	}
	return receives, nil
}

// PopulateQueueBlockWithReceivables discovers, signs and stages the
// account's receivable transactions, returning what was staged.
func (c *Chain) PopulateQueueBlockWithReceivables() (inter.ReceiveTransactions, error) {
	receives, err := c.CreateReceivableSignedTransactions()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rtx := range receives {
		if err := c.stageTransaction(rtx); err != nil {
			return nil, err
		}
	}
	return receives, nil
}

//
// Block API
//

// GetBlockByHash returns a committed block by hash.
func (c *Chain) GetBlockByHash(hash common.Hash) (*inter.Block, error) {
	return c.store.Block(hash)
}

// GetCanonicalBlockByNumber returns block n of this chain's canonical path.
func (c *Chain) GetCanonicalBlockByNumber(n idx.Block) (*inter.Block, error) {
	return c.store.CanonicalBlock(c.address, n)
}

// Ancestors returns up to limit blocks below the chain's next-block slot,
// newest first.
func (c *Chain) Ancestors(limit uint64) ([]*inter.Block, error) {
	c.mu.Lock()
	tip := uint64(c.header.Number)
	c.mu.Unlock()

	lower := uint64(0)
	if tip > limit {
		lower = tip - limit
	}
	var blocks []*inter.Block
	for n := tip; n > lower; n-- {
		block, err := c.GetCanonicalBlockByNumber(idx.Block(n - 1))
		if err != nil {
			return blocks, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

//
// Execution API
//

// EstimateGas estimates the gas the transaction would use on top of the
// given header, defaulting to the chain's canonical head. Estimation runs
// against a disposable state view and never mutates the chain.
func (c *Chain) EstimateGas(tx *inter.SendTransaction, at *inter.BlockHeader) (uint64, error) {
	c.mu.Lock()
	estimator := c.estimator
	c.mu.Unlock()

	if at == nil {
		headHash, err := c.store.Heads().HeadOf(c.address)
		if err != nil {
			return 0, err
		}
		at, err = c.store.Header(headHash)
		if err != nil {
			return 0, err
		}
	}
	return estimator(c.executor, at.Copy(), tx)
}

// ImportQueueBlock executes, signs and imports the chain's current queue
// block.
func (c *Chain) ImportQueueBlock() (*inter.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queue == nil {
		c.queue = inter.NewQueueBlock(c.header)
	}
	if !c.queue.Mutable() {
		return nil, errors.Wrapf(ErrQueueBlockSealed, "chain %s", c.address.Hex())
	}
	return c.importBlock(c.queue.AsBlock(), false, true)
}

// ImportBlock imports a complete, signed block received from elsewhere.
// With performValidation the executor's output must match the submitted
// block and the full structural validation runs before anything persists.
func (c *Chain) ImportBlock(block *inter.Block, performValidation bool) (*inter.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.importBlock(block, performValidation, false)
}

// importBlock is the Importing transition. Any failure before the commit
// leaves the tip and queue block untouched; no partial persistence.
func (c *Chain) importBlock(block *inter.Block, performValidation bool, fromQueue bool) (*inter.Block, error) {
	if !block.IsGenesis() {
		parent, err := c.store.Header(block.Header.ParentHash)
		if err != nil {
			return nil, validationErrorf("parent %s of block %d not found", block.Header.ParentHash.Hex(), block.Header.Number)
		}
		rs, err := c.rules.RulesetAt(parent.Time)
		if err != nil {
			return nil, err
		}
		if uint64(block.Header.Time) < uint64(parent.Time)+rs.MinTimeBetweenBlocks {
			return nil, errors.Wrapf(ErrNotEnoughTimeBetweenBlocks,
				"we require %d seconds between blocks, parent at %d, block at %d",
				rs.MinTimeBetweenBlocks, parent.Time, block.Header.Time)
		}
	}

	if block.Header.Number != c.header.Number {
		return nil, validationErrorf(
			"cannot import block with number %d different from the queue block number %d",
			block.Header.Number, c.header.Number)
	}

	executedHeader, _, _, err := c.executor.Apply(block.Header, block.Transactions, block.ReceiveTransactions)
	if err != nil {
		return nil, err
	}

	imported := &inter.Block{
		Header:              executedHeader,
		Transactions:        block.Transactions,
		ReceiveTransactions: block.ReceiveTransactions,
		RewardBundle:        block.RewardBundle,
	}

	if fromQueue {
		// A locally produced queue block is provisional: execution fills
		// the header in and the chain owner signs the result.
		if c.key == nil {
			return nil, errors.Wrapf(ErrNoSigningKey, "chain %s cannot seal its queue block", c.address.Hex())
		}
		signedHeader, err := imported.Header.Signed(c.key, c.rules.NetworkID)
		if err != nil {
			return nil, err
		}
		imported.Header = signedHeader
	} else if performValidation {
		if err := ensureImportedBlockUnchanged(imported, block); err != nil {
			return nil, err
		}
		if err := c.validateBlock(imported); err != nil {
			return nil, err
		}
	}

	if err := c.store.CommitBlock(c.address, imported); err != nil {
		return nil, err
	}

	nextHeader, err := c.createHeaderFromParent(imported.Header)
	if err != nil {
		return nil, err
	}
	c.header = nextHeader
	c.queue = nil

	c.log.WithFields(logrus.Fields{
		"number": imported.Header.Number,
		"hash":   imported.Hash().Hex(),
	}).Debug("Imported block")
	return imported, nil
}

//
// Validation API
//

// ValidateBlock runs the structural checks on a block that is being
// imported: ownership signature, transaction roots, per-transaction
// signature bounds and the elastic gas limit.
func (c *Chain) ValidateBlock(block *inter.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateBlock(block)
}

func (c *Chain) validateBlock(block *inter.Block) error {
	signer, err := block.Header.Signer(c.rules.NetworkID)
	if err != nil {
		return validationErrorf("block %d signature invalid: %v", block.Header.Number, err)
	}
	if signer != c.address {
		return validationErrorf("block %d signed by %s, chain owned by %s", block.Header.Number, signer.Hex(), c.address.Hex())
	}

	if root := inter.CalcTxRoot(block.Transactions); root != block.Header.TxRoot {
		return validationErrorf("transaction root mismatch: header %s, computed %s", block.Header.TxRoot.Hex(), root.Hex())
	}
	if root := inter.CalcReceiveTxRoot(block.ReceiveTransactions); root != block.Header.ReceiveTxRoot {
		return validationErrorf("receive transaction root mismatch: header %s, computed %s", block.Header.ReceiveTxRoot.Hex(), root.Hex())
	}

	for _, tx := range block.Transactions {
		if err := tx.Validate(tx.ChainID()); err != nil {
			return validationErrorf("transaction %s invalid: %v", tx.Hash().Hex(), err)
		}
	}
	for _, rtx := range block.ReceiveTransactions {
		if err := rtx.Validate(c.rules.NetworkID); err != nil {
			return validationErrorf("receive transaction %s invalid: %v", rtx.Hash().Hex(), err)
		}
	}

	if !block.IsGenesis() {
		return c.validateGasLimit(block.Header)
	}
	return nil
}

// ValidateGasLimit checks that the header's gas limit lies inside the
// elastic window around its parent's.
func (c *Chain) ValidateGasLimit(header *inter.BlockHeader) error {
	return c.validateGasLimit(header)
}

func (c *Chain) validateGasLimit(header *inter.BlockHeader) error {
	parent, err := c.store.Header(header.ParentHash)
	if err != nil {
		return validationErrorf("parent %s not found", header.ParentHash.Hex())
	}
	rs, err := c.rules.RulesetAt(parent.Time)
	if err != nil {
		return err
	}
	low, high := GasLimitBounds(rs, parent)
	if header.GasLimit < low {
		return validationErrorf("gas limit %d too low, must be at least %d", header.GasLimit, low)
	}
	if header.GasLimit > high {
		return validationErrorf("gas limit %d too high, must be at most %d", header.GasLimit, high)
	}
	return nil
}

// ensureImportedBlockUnchanged compares a re-executed block against the
// submitted one. Any difference means the submitted block's claims do not
// match re-execution.
func ensureImportedBlockUnchanged(executed, submitted *inter.Block) error {
	got, err := rlp.EncodeToBytes(executed)
	if err != nil {
		return err
	}
	want, err := rlp.EncodeToBytes(submitted)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, want) {
		return validationErrorf("block %d changed during execution, submitted claims do not match re-execution", submitted.Header.Number)
	}
	return nil
}
