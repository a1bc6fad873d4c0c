// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package substrate

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ChainSafe/chainbridge-utils/blockstore"
	metrics "github.com/ChainSafe/chainbridge-utils/metrics/types"
	"github.com/ChainSafe/chainbridge-utils/msg"
	"github.com/ChainSafe/log15"
	"github.com/chainx-org/AssetHandler/chainbridge"
	"github.com/chainx-org/AssetHandler/chains"
	"github.com/chainx-org/AssetHandler/store"
)

// blockstoreFactory opens the checkpoint for one destination and returns the next nonce to relay.
type blockstoreFactory func(dest msg.ChainId) (blockstore.Blockstorer, msg.Nonce, error)

// destination tracks relay progress to one whitelisted chain.
type destination struct {
	next       msg.Nonce
	blockStore blockstore.Blockstorer
}

type listener struct {
	name          string
	chainId       msg.ChainId
	store         store.Store
	bridge        *chainbridge.Bridge
	startNonce    msg.Nonce
	newBlockstore blockstoreFactory
	dests         map[msg.ChainId]*destination
	pollInterval  time.Duration
	batchSize     int
	router        chains.Router
	log           log15.Logger
	stop          <-chan int
	sysErr        chan<- error
	metrics       *metrics.ChainMetrics
	wg            sync.WaitGroup

	lock        sync.RWMutex
	latestBlock metrics.LatestBlock
}

func NewListener(name string, id msg.ChainId, s store.Store, bridge *chainbridge.Bridge, startNonce msg.Nonce, newBlockstore blockstoreFactory,
	pollInterval time.Duration, batchSize int, log log15.Logger, stop <-chan int, sysErr chan<- error, m *metrics.ChainMetrics) *listener {
	return &listener{
		name:          name,
		chainId:       id,
		store:         s,
		bridge:        bridge,
		startNonce:    startNonce,
		newBlockstore: newBlockstore,
		dests:         make(map[msg.ChainId]*destination),
		pollInterval:  pollInterval,
		batchSize:     batchSize,
		log:           log,
		stop:          stop,
		sysErr:        sysErr,
		metrics:       m,
		latestBlock:   metrics.LatestBlock{Height: big.NewInt(0), LastUpdated: time.Now()},
	}
}

func (l *listener) setRouter(r chains.Router) {
	l.router = r
}

func (l *listener) start() error {
	if l.router == nil {
		return errors.New("listener started without a router")
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		err := l.pollOutbox()
		if err != nil {
			l.log.Error("Polling outbox failed", "err", err)
			l.sysErr <- err
		}
	}()
	return nil
}

func (l *listener) wait() {
	l.wg.Wait()
}

func (l *listener) latest() metrics.LatestBlock {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return metrics.LatestBlock{Height: new(big.Int).Set(l.latestBlock.Height), LastUpdated: l.latestBlock.LastUpdated}
}

// pollOutbox relays new outbound transfers every pollInterval. Each round counts as one block.
func (l *listener) pollOutbox() error {
	l.log.Info(PollingOutbox, "ChainId", l.chainId, "Chain", l.name, "interval", l.pollInterval)
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			l.log.Info(ListenerStopped, "Chain", l.name)
			return nil
		case <-ticker.C:
			if err := l.relayRound(); err != nil {
				if errors.Is(err, store.ErrClosed) {
					return nil
				}
				l.log.Error(FailedToReadOutbox, "err", err)
				continue
			}
			l.lock.Lock()
			height := new(big.Int).Add(l.latestBlock.Height, big.NewInt(1))
			l.latestBlock = metrics.LatestBlock{Height: height, LastUpdated: time.Now()}
			l.lock.Unlock()
			if l.metrics != nil {
				l.metrics.BlocksProcessed.Inc()
				l.metrics.LatestProcessedBlock.Set(float64(height.Int64()))
			}
		}
	}
}

// relayRound sends at most batchSize pending messages to each whitelisted destination.
func (l *listener) relayRound() error {
	var ids []msg.ChainId
	err := l.store.View(func(txn store.Txn) (err error) {
		ids, err = l.bridge.WhitelistedChains(txn)
		return
	})
	if err != nil {
		return err
	}

	for _, id := range ids {
		d, err := l.destination(id)
		if err != nil {
			return err
		}
		var msgs []msg.Message
		err = l.store.View(func(txn store.Txn) (err error) {
			msgs, err = l.bridge.Messages(txn, id, d.next, l.batchSize)
			return
		})
		if err != nil {
			return err
		}
		if l.metrics != nil && len(msgs) > 0 {
			l.metrics.LatestKnownBlock.Set(float64(msgs[len(msgs)-1].DepositNonce))
		}

		for _, m := range msgs {
			if err := l.router.Send(m); err != nil {
				// Retried next round from the same nonce.
				l.log.Warn(FailedToRouteMessage, "dest", id, "nonce", m.DepositNonce, "err", err)
				break
			}
			l.log.Debug(RelayedMessage, "dest", id, "nonce", m.DepositNonce, "rId", m.ResourceId.Hex())
			d.next = m.DepositNonce + 1

			if err := d.blockStore.StoreBlock(new(big.Int).SetUint64(uint64(m.DepositNonce))); err != nil {
				l.log.Error(FailedToWriteToBlockStore, "err", err)
			}
		}
	}
	return nil
}

func (l *listener) destination(id msg.ChainId) (*destination, error) {
	if d, ok := l.dests[id]; ok {
		return d, nil
	}
	d := &destination{next: l.startNonce, blockStore: noopBlockstore{}}
	if l.newBlockstore != nil {
		bs, next, err := l.newBlockstore(id)
		if err != nil {
			return nil, err
		}
		d.blockStore, d.next = bs, next
	}
	l.log.Debug("Relaying to destination", "dest", id, "from", d.next)
	l.dests[id] = d
	return d, nil
}

type noopBlockstore struct{}

func (noopBlockstore) StoreBlock(*big.Int) error { return nil }
