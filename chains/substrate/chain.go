// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

/*
The substrate package runs a local asset handler as a ChainBridge chain.

There are 3 major components: the state, the listener, and the writer.

State

The chain owns a store holding the asset ledger, the bridge outbox and the resource registry,
wired together into a handler.Handler. Endpoint names the state directory, an empty endpoint keeps
the state in memory.

Listener

The listener polls the bridge outbox of every whitelisted destination and forwards new fungible
transfers into the router. The last relayed deposit nonce per destination is kept in a blockstore.

Writer

As the writer receives messages from the router, it applies them through the handler with the
bridge origin. Each (source, nonce) pair is executed at most once.
*/
package substrate

import (
	"github.com/ChainSafe/chainbridge-utils/blockstore"
	"github.com/ChainSafe/chainbridge-utils/core"
	metrics "github.com/ChainSafe/chainbridge-utils/metrics/types"
	"github.com/ChainSafe/chainbridge-utils/msg"
	"github.com/ChainSafe/log15"
	"github.com/chainx-org/AssetHandler/chainbridge"
	"github.com/chainx-org/AssetHandler/chains/chainset"
	"github.com/chainx-org/AssetHandler/config"
	"github.com/chainx-org/AssetHandler/handler"
	"github.com/chainx-org/AssetHandler/ledger"
	"github.com/chainx-org/AssetHandler/origin"
	"github.com/chainx-org/AssetHandler/store"
	"github.com/prometheus/client_golang/prometheus"
)

var _ core.Chain = &Chain{}

type Chain struct {
	cfg      *core.ChainConfig // The config of the chain
	store    store.Store
	ledger   *ledger.Ledger
	bridge   *chainbridge.Bridge
	handler  *handler.Handler
	listener *listener // The listener of this chain
	writer   *writer   // The writer of the chain
	stop     chan<- int
}

// checkBlockstore queries the blockStore for the latest relayed nonce. The next nonce to relay is
// returned, never lower than startNonce.
func checkBlockstore(bs *blockstore.Blockstore, startNonce msg.Nonce) (msg.Nonce, error) {
	latest, err := bs.TryLoadLatestBlock()
	if err != nil {
		return 0, err
	}
	if latest.Sign() > 0 && latest.Uint64()+1 > uint64(startNonce) {
		return msg.Nonce(latest.Uint64() + 1), nil
	}
	return startNonce, nil
}

func openStore(cfg *core.ChainConfig, logger log15.Logger) (store.Store, error) {
	if cfg.Endpoint == "" {
		return store.NewMemoryStore(), nil
	}
	return store.OpenBadger(cfg.Endpoint, logger)
}

// InitializeChain opens the chain state, applies genesis on first use and prepares the listener and writer.
// reg may be nil, handler metrics are then not collected.
func InitializeChain(cfg *core.ChainConfig, gen *config.Genesis, logger log15.Logger, sysErr chan<- error, m *metrics.ChainMetrics, reg prometheus.Registerer) (*Chain, error) {
	g, err := parseGenesis(gen)
	if err != nil {
		return nil, err
	}
	pollInterval, err := parsePollInterval(cfg)
	if err != nil {
		return nil, err
	}
	batchSize, err := parseBatchSize(cfg)
	if err != nil {
		return nil, err
	}
	startNonce, err := parseStartNonce(cfg)
	if err != nil {
		return nil, err
	}

	s, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	admin := origin.EitherOf{origin.EnsureRoot{}, origin.NewEnsureSignedBy(g.admins...)}
	registrar := origin.EitherOf{origin.EnsureRoot{}, origin.NewEnsureSignedBy(g.registrars...)}

	bridge := chainbridge.NewBridge(cfg.Id, admin, logger)
	l := ledger.NewLedger(bridge.AccountId(), logger)
	hcfg := handler.Config{
		Registrar: registrar,
		Bridge:    bridge.EnsureBridge(),
	}
	if g.strict {
		hcfg.Classifier = chainset.NewClassifier(cfg.Id)
	}
	var hm *handler.Metrics
	if reg != nil {
		hm = handler.NewMetrics(cfg.Name, reg)
	}
	h := handler.NewHandler(s, l, bridge, hcfg, logger, hm)

	c := &Chain{
		cfg:     cfg,
		store:   s,
		ledger:  l,
		bridge:  bridge,
		handler: h,
	}

	applied, err := c.applyGenesis(g)
	if err != nil {
		s.Close()
		return nil, err
	}
	if applied {
		logger.Info(GenesisApplied, "resources", len(g.resources), "whitelist", len(g.whitelist), "endowments", len(g.endowments))
	} else {
		logger.Debug(GenesisSkipped)
	}

	/// Checkpoints only make sense when the outbox survives a restart
	var newBlockstore func(dest msg.ChainId) (blockstore.Blockstorer, msg.Nonce, error)
	if cfg.Endpoint != "" && cfg.BlockstorePath != "" {
		newBlockstore = func(dest msg.ChainId) (blockstore.Blockstorer, msg.Nonce, error) {
			bs, err := blockstore.NewBlockstore(cfg.BlockstorePath, dest, relayerName(cfg))
			if err != nil {
				return nil, 0, err
			}
			if cfg.FreshStart {
				return bs, startNonce, nil
			}
			next, err := checkBlockstore(bs, startNonce)
			return bs, next, err
		}
	}

	stop := make(chan int)
	c.listener = NewListener(cfg.Name, cfg.Id, s, bridge, startNonce, newBlockstore, pollInterval, batchSize, logger, stop, sysErr, m)
	c.writer = NewWriter(cfg.Id, bridge, h, logger, m)
	c.stop = stop
	return c, nil
}

func relayerName(cfg *core.ChainConfig) string {
	if cfg.From != "" {
		return cfg.From + "-" + cfg.Name
	}
	return cfg.Name
}

func (c *Chain) Start() error {
	err := c.listener.start()
	if err != nil {
		return err
	}
	c.listener.log.Debug("Successfully started chain", "chainId", c.cfg.Id)
	return nil
}

func (c *Chain) SetRouter(r *core.Router) {
	r.Listen(c.cfg.Id, c.writer)
	c.listener.setRouter(r)
}

func (c *Chain) LatestBlock() metrics.LatestBlock {
	return c.listener.latest()
}

func (c *Chain) Id() msg.ChainId {
	return c.cfg.Id
}

func (c *Chain) Name() string {
	return c.cfg.Name
}

// Stop halts the listener and closes the chain state.
func (c *Chain) Stop() {
	close(c.stop)
	c.listener.wait()
	if err := c.store.Close(); err != nil {
		c.listener.log.Error("Failed to close state", "err", err)
	}
}

func (c *Chain) Store() store.Store {
	return c.store
}

func (c *Chain) Ledger() *ledger.Ledger {
	return c.ledger
}

func (c *Chain) Bridge() *chainbridge.Bridge {
	return c.bridge
}

func (c *Chain) Handler() *handler.Handler {
	return c.handler
}
