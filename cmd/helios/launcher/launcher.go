package launcher

import (
	"crypto/ecdsa"
	"io/ioutil"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/heliosworks/go-helios/chaindb"
	"github.com/heliosworks/go-helios/flags"
	"github.com/heliosworks/go-helios/hvmcore"
	"github.com/heliosworks/go-helios/inter"
)

// Launch parses the CLI arguments and runs the node.
func Launch(args []string) error {
	app := flags.NewApp()
	app.Flags = append(app.Flags, flags.CommonFlags()...)
	app.Flags = append(app.Flags, flags.NetworkFlags()...)
	app.Flags = append(app.Flags, flags.ChainFlags()...)
	app.Flags = append(app.Flags, flags.NodeFlags()...)
	app.Action = run
	return app.Run(args)
}

func run(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	if err := SetupLogging(cfg.Logging); err != nil {
		return err
	}
	log := logrus.WithField("node", cfg.Node.Name)

	rules, err := cfg.Rules()
	if err != nil {
		return err
	}
	key, err := loadChainKey(cfg)
	if err != nil {
		return err
	}
	owner := crypto.PubkeyToAddress(key.PublicKey)

	db, err := leveldb.New(cfg.Node.ChainData, cfg.Storage.CacheMB, cfg.Storage.Handles, "chaindata", false)
	if err != nil {
		return errors.Wrapf(err, "opening chaindata at %s", cfg.Node.ChainData)
	}
	store := chaindb.NewStore(db, cfg.StoreConfig())
	defer store.Close()

	chain, err := hvmcore.NewChain(rules, store, noopExecutor{}, owner, key)
	if err != nil {
		return errors.Wrap(err, "opening account chain")
	}

	head := chain.Header()
	log.WithFields(logrus.Fields{
		"network": rules.Name,
		"account": owner.Hex(),
		"next":    head.Number,
	}).Info("Account chain ready")

	pending, _, err := chain.ReceivableTransactions(owner)
	if err != nil {
		return errors.Wrap(err, "listing receivables")
	}
	if len(pending) > 0 {
		log.WithField("count", len(pending)).Info("Outstanding receivable transactions")
	}
	return nil
}

// loadChainKey resolves the chain signing key: deterministic on fake
// networks, file-backed otherwise.
func loadChainKey(cfg Config) (*ecdsa.PrivateKey, error) {
	if cfg.Network.Name == "fake" {
		return hvmcore.FakeKey(cfg.Network.FakeKey), nil
	}
	if cfg.Network.ChainKey == "" {
		return nil, errors.New("no chain key configured, pass --chainkey <file>")
	}
	raw, err := ioutil.ReadFile(cfg.Network.ChainKey)
	if err != nil {
		return nil, errors.Wrap(err, "reading chain key")
	}
	key, err := crypto.HexToECDSA(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, errors.Wrap(err, "decoding chain key")
	}
	return key, nil
}

// noopExecutor passes headers through unchanged. The launcher runs the chain
// core without a transaction executor attached.
type noopExecutor struct{}

func (noopExecutor) Apply(header *inter.BlockHeader, txs inter.SendTransactions, rtxs inter.ReceiveTransactions) (*inter.BlockHeader, inter.Receipts, []*hvmcore.Computation, error) {
	return header.Copy(), nil, nil, nil
}
