// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package handler

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/ChainSafe/chainbridge-utils/msg"
	"github.com/ChainSafe/log15"
	"github.com/chainx-org/AssetHandler/chainbridge"
	"github.com/chainx-org/AssetHandler/chains/chainset"
	"github.com/chainx-org/AssetHandler/ledger"
	"github.com/chainx-org/AssetHandler/origin"
	utils "github.com/chainx-org/AssetHandler/shared/substrate"
	"github.com/chainx-org/AssetHandler/store"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	localChainId msg.ChainId = chainset.IdChainX
	destChainId  msg.ChainId = chainset.IdETH
)

var (
	Alice     = utils.AccountId{1}
	Registrar = utils.AccountId{0xaa}
	Admin     = utils.AccountId{0xbb}

	PcxResourceId  = chainset.NewResourceId(chainset.AssetPCX, localChainId)
	WethResourceId = chainset.NewResourceId(chainset.AssetXETH, chainset.IdETH)
)

type testContext struct {
	store   store.Store
	ledger  *ledger.Ledger
	bridge  *chainbridge.Bridge
	handler *Handler
	metrics *Metrics
}

func newTestContext(t *testing.T, s store.Store) *testContext {
	t.Helper()
	log := log15.New("test", t.Name())
	log.SetHandler(log15.DiscardHandler())

	bridge := chainbridge.NewBridge(localChainId, origin.NewEnsureSignedBy(Admin), log)
	l := ledger.NewLedger(bridge.AccountId(), log)
	m := NewMetrics("test", prometheus.NewRegistry())
	h := NewHandler(s, l, bridge, Config{
		Registrar:  origin.NewEnsureSignedBy(Registrar),
		Bridge:     bridge.EnsureBridge(),
		Classifier: chainset.NewClassifier(localChainId),
	}, log, m)

	require.NoError(t, s.Update(func(txn store.Txn) error {
		return l.Deposit(txn, chainset.AssetPCX, Alice, 1000)
	}))
	return &testContext{store: s, ledger: l, bridge: bridge, handler: h, metrics: m}
}

func (c *testContext) whitelist(t *testing.T, id msg.ChainId) {
	require.NoError(t, c.store.Update(func(txn store.Txn) error {
		return c.bridge.WhitelistChain(txn, origin.NewSigned(Admin), id)
	}))
}

func (c *testContext) deposit(t *testing.T, asset utils.AssetId, who utils.AccountId, amount utils.Balance) {
	require.NoError(t, c.store.Update(func(txn store.Txn) error {
		return c.ledger.Deposit(txn, asset, who, amount)
	}))
}

func (c *testContext) free(t *testing.T, asset utils.AssetId, who utils.AccountId) utils.Balance {
	var b utils.Balance
	require.NoError(t, c.store.View(func(txn store.Txn) (err error) {
		b, err = c.ledger.FreeBalance(txn, asset, who)
		return
	}))
	return b
}

func (c *testContext) issuance(t *testing.T, asset utils.AssetId) utils.Balance {
	var b utils.Balance
	require.NoError(t, c.store.View(func(txn store.Txn) (err error) {
		b, err = c.ledger.TotalIssuance(txn, asset)
		return
	}))
	return b
}

func (c *testContext) nonce(t *testing.T, id msg.ChainId) msg.Nonce {
	var n msg.Nonce
	require.NoError(t, c.store.View(func(txn store.Txn) (err error) {
		n, err = c.bridge.DepositNonce(txn, id)
		return
	}))
	return n
}

func stores(t *testing.T) map[string]func() store.Store {
	return map[string]func() store.Store{
		"memory": func() store.Store { return store.NewMemoryStore() },
		"badger": func() store.Store {
			s, err := store.OpenBadgerInMemory()
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestRegisterResourceId(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c := newTestContext(t, newStore())
			h := c.handler

			_, ok, err := h.ResourceIds(chainset.AssetPCX)
			require.NoError(t, err)
			assert.False(t, ok)
			_, ok, err = h.CurrencyIds(PcxResourceId)
			require.NoError(t, err)
			assert.False(t, ok)

			err = h.RegisterResourceId(origin.NewSigned(Alice), PcxResourceId, chainset.AssetPCX)
			assert.ErrorIs(t, err, origin.ErrBadOrigin)

			err = h.RegisterResourceId(origin.NewSigned(Registrar), PcxResourceId, chainset.AssetXETH)
			assert.ErrorIs(t, err, ErrResourceIdCurrencyIdNotMatch)
			err = h.RegisterResourceId(origin.NewSigned(Registrar), WethResourceId, chainset.AssetPCX)
			assert.ErrorIs(t, err, ErrResourceIdCurrencyIdNotMatch)
			assert.Empty(t, h.Events())

			require.NoError(t, h.RegisterResourceId(origin.NewSigned(Registrar), PcxResourceId, chainset.AssetPCX))
			assert.Equal(t, []Event{{Kind: RegisterResourceId, ResourceId: PcxResourceId, AssetId: chainset.AssetPCX}}, h.Events())

			rId, ok, err := h.ResourceIds(chainset.AssetPCX)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, PcxResourceId, rId)
			assetId, ok, err := h.CurrencyIds(PcxResourceId)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, chainset.AssetPCX, assetId)

			err = h.RegisterResourceId(origin.NewSigned(Registrar), PcxResourceId, chainset.AssetPCX)
			assert.ErrorIs(t, err, ErrResourceIdAlreadyRegistered)
			// The asset side alone is enough to reject.
			err = h.RegisterResourceId(origin.NewSigned(Registrar), chainset.NewResourceId(9, localChainId), chainset.AssetPCX)
			assert.ErrorIs(t, err, ErrResourceIdAlreadyRegistered)
			assert.Len(t, h.Events(), 1)
			assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.Registrations))
		})
	}
}

func TestRegisterUnknownAssetIgnoresClassifier(t *testing.T) {
	c := newTestContext(t, store.NewMemoryStore())
	rId := chainset.NewResourceId(77, chainset.IdBSC)
	require.NoError(t, c.handler.RegisterResourceId(origin.NewSigned(Registrar), rId, 77))

	res, err := c.handler.Resources()
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, OriginRemote, res[0].Origin)
}

func TestRegisterWithoutClassifier(t *testing.T) {
	s := store.NewMemoryStore()
	bridge := chainbridge.NewBridge(localChainId, origin.EnsureRoot{}, nil)
	h := NewHandler(s, ledger.NewLedger(bridge.AccountId(), nil), bridge, Config{
		Registrar: origin.EnsureRoot{},
		Bridge:    bridge.EnsureBridge(),
	}, nil, nil)

	require.NoError(t, h.RegisterResourceId(origin.NewRoot(), PcxResourceId, chainset.AssetXETH))
	assetId, ok, err := h.CurrencyIds(PcxResourceId)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, chainset.AssetXETH, assetId)
}

func TestRemoveResourceId(t *testing.T) {
	c := newTestContext(t, store.NewMemoryStore())
	h := c.handler

	require.NoError(t, h.RegisterResourceId(origin.NewSigned(Registrar), PcxResourceId, chainset.AssetPCX))

	err := h.RemoveResourceId(origin.NewSigned(Alice), PcxResourceId)
	assert.ErrorIs(t, err, origin.ErrBadOrigin)

	require.NoError(t, h.RemoveResourceId(origin.NewSigned(Registrar), PcxResourceId))
	assert.Equal(t, Event{Kind: UnregisterResourceId, ResourceId: PcxResourceId, AssetId: chainset.AssetPCX}, h.Events()[1])

	_, ok, err := h.ResourceIds(chainset.AssetPCX)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = h.CurrencyIds(PcxResourceId)
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing again is a no-op without an event.
	require.NoError(t, h.RemoveResourceId(origin.NewSigned(Registrar), PcxResourceId))
	assert.Len(t, h.Events(), 2)

	// The asset can be bound again once released.
	require.NoError(t, h.RegisterResourceId(origin.NewSigned(Registrar), PcxResourceId, chainset.AssetPCX))
}

func TestDoTransferToBridge(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c := newTestContext(t, newStore())
			h := c.handler
			custody := c.bridge.AccountId()

			err := h.DoTransferToBridge(Alice, chainset.AssetPCX, destChainId, []byte{1}, 10)
			assert.ErrorIs(t, err, ErrInvalidDestChainId)

			c.whitelist(t, destChainId)
			err = h.DoTransferToBridge(Alice, chainset.AssetPCX, destChainId, []byte{1}, 10)
			assert.ErrorIs(t, err, ErrResourceIdNotRegistered)

			require.NoError(t, h.RegisterResourceId(origin.NewSigned(Registrar), PcxResourceId, chainset.AssetPCX))
			assert.Equal(t, utils.Balance(1000), c.issuance(t, chainset.AssetPCX))
			assert.Equal(t, utils.Balance(1000), c.free(t, chainset.AssetPCX, Alice))
			assert.Equal(t, utils.Balance(0), c.free(t, chainset.AssetPCX, custody))

			require.NoError(t, h.DoTransferToBridge(Alice, chainset.AssetPCX, destChainId, []byte{1}, 10))
			assert.Equal(t, utils.Balance(1000), c.issuance(t, chainset.AssetPCX))
			assert.Equal(t, utils.Balance(990), c.free(t, chainset.AssetPCX, Alice))
			assert.Equal(t, utils.Balance(10), c.free(t, chainset.AssetPCX, custody))
			assert.Equal(t, msg.Nonce(1), c.nonce(t, destChainId))

			require.NoError(t, h.RegisterResourceId(origin.NewSigned(Registrar), WethResourceId, chainset.AssetXETH))
			c.deposit(t, chainset.AssetXETH, Alice, 1000)
			assert.Equal(t, utils.Balance(1000), c.issuance(t, chainset.AssetXETH))

			require.NoError(t, h.DoTransferToBridge(Alice, chainset.AssetXETH, destChainId, []byte{1}, 20))
			assert.Equal(t, utils.Balance(980), c.issuance(t, chainset.AssetXETH))
			assert.Equal(t, utils.Balance(980), c.free(t, chainset.AssetXETH, Alice))
			assert.Equal(t, utils.Balance(0), c.free(t, chainset.AssetXETH, custody))
			assert.Equal(t, msg.Nonce(2), c.nonce(t, destChainId))

			var msgs []msg.Message
			require.NoError(t, c.store.View(func(txn store.Txn) (err error) {
				msgs, err = c.bridge.Messages(txn, destChainId, 0, 0)
				return
			}))
			require.Len(t, msgs, 2)
			assert.Equal(t, PcxResourceId, msgs[0].ResourceId)
			assert.Equal(t, WethResourceId, msgs[1].ResourceId)
			assert.Equal(t, msg.Nonce(2), msgs[1].DepositNonce)
			assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.Outbound.WithLabelValues("lock")))
			assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.Outbound.WithLabelValues("burn")))
		})
	}
}

func TestTransferToBridgeRequiresSigned(t *testing.T) {
	c := newTestContext(t, store.NewMemoryStore())
	c.whitelist(t, destChainId)
	require.NoError(t, c.handler.RegisterResourceId(origin.NewSigned(Registrar), PcxResourceId, chainset.AssetPCX))

	err := c.handler.TransferToBridge(origin.NewRoot(), chainset.AssetPCX, destChainId, []byte{1}, 10)
	assert.ErrorIs(t, err, origin.ErrBadOrigin)
	err = c.handler.TransferToBridge(origin.NewNone(), chainset.AssetPCX, destChainId, []byte{1}, 10)
	assert.ErrorIs(t, err, origin.ErrBadOrigin)

	require.NoError(t, c.handler.TransferToBridge(origin.NewSigned(Alice), chainset.AssetPCX, destChainId, []byte{1}, 10))
	assert.Equal(t, utils.Balance(990), c.free(t, chainset.AssetPCX, Alice))
}

func TestTransferToBridgeInsufficientBalance(t *testing.T) {
	c := newTestContext(t, store.NewMemoryStore())
	c.whitelist(t, destChainId)
	require.NoError(t, c.handler.RegisterResourceId(origin.NewSigned(Registrar), PcxResourceId, chainset.AssetPCX))
	require.NoError(t, c.handler.RegisterResourceId(origin.NewSigned(Registrar), WethResourceId, chainset.AssetXETH))

	err := c.handler.DoTransferToBridge(Alice, chainset.AssetPCX, destChainId, []byte{1}, 1001)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	err = c.handler.DoTransferToBridge(Alice, chainset.AssetXETH, destChainId, []byte{1}, 1)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	assert.Equal(t, utils.Balance(1000), c.free(t, chainset.AssetPCX, Alice))
	assert.Equal(t, msg.Nonce(0), c.nonce(t, destChainId))
}

func TestTransferToBridgeRollsBackOnDispatchFailure(t *testing.T) {
	c := newTestContext(t, store.NewMemoryStore())
	c.whitelist(t, destChainId)
	require.NoError(t, c.handler.RegisterResourceId(origin.NewSigned(Registrar), PcxResourceId, chainset.AssetPCX))

	recipient := make([]byte, chainbridge.MaxRecipientLen+1)
	err := c.handler.DoTransferToBridge(Alice, chainset.AssetPCX, destChainId, recipient, 10)
	assert.ErrorIs(t, err, chainbridge.ErrRecipientTooLong)

	err = c.handler.DoTransferToBridge(Alice, chainset.AssetPCX, destChainId, nil, 10)
	assert.ErrorIs(t, err, chainbridge.ErrEmptyRecipient)

	assert.Equal(t, utils.Balance(1000), c.free(t, chainset.AssetPCX, Alice))
	assert.Equal(t, utils.Balance(0), c.free(t, chainset.AssetPCX, c.bridge.AccountId()))
	assert.Equal(t, msg.Nonce(0), c.nonce(t, destChainId))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.metrics.Failures.WithLabelValues(utils.TransferToBridgeMethod.String())))
}

// failingTransport accepts every destination and fails every dispatch.
type failingTransport struct {
	err error
}

func (f failingTransport) LocalChainId() msg.ChainId { return localChainId }

func (f failingTransport) ChainWhitelisted(store.Txn, msg.ChainId) (bool, error) { return true, nil }

func (f failingTransport) AccountId() utils.AccountId {
	return utils.AccountIdFromPalletId(chainbridge.PalletId)
}

func (f failingTransport) TransferFungible(store.Txn, msg.ChainId, msg.ResourceId, []byte, *uint256.Int) error {
	return f.err
}

func (f failingTransport) Executed(store.Txn, msg.ChainId, msg.Nonce) (bool, error) { return false, nil }

func (f failingTransport) MarkExecuted(store.Txn, msg.ChainId, msg.Nonce) error { return f.err }

func TestTransferToBridgeAtomicBurn(t *testing.T) {
	s := store.NewMemoryStore()
	errDispatch := errors.New("dispatch failed")
	l := ledger.NewLedger(utils.AccountIdFromPalletId(chainbridge.PalletId), nil)
	h := NewHandler(s, l, failingTransport{err: errDispatch}, Config{Registrar: origin.EnsureRoot{}, Bridge: origin.EnsureRoot{}}, nil, nil)

	require.NoError(t, h.RegisterResourceId(origin.NewRoot(), WethResourceId, chainset.AssetXETH))
	require.NoError(t, s.Update(func(txn store.Txn) error {
		return l.Deposit(txn, chainset.AssetXETH, Alice, 100)
	}))

	err := h.DoTransferToBridge(Alice, chainset.AssetXETH, destChainId, []byte{1}, 40)
	assert.ErrorIs(t, err, errDispatch)

	require.NoError(t, s.View(func(txn store.Txn) error {
		free, err := l.FreeBalance(txn, chainset.AssetXETH, Alice)
		require.NoError(t, err)
		assert.Equal(t, utils.Balance(100), free)
		issuance, err := l.TotalIssuance(txn, chainset.AssetXETH)
		require.NoError(t, err)
		assert.Equal(t, utils.Balance(100), issuance)
		return nil
	}))
}

func TestCustodyCannotTransferToBridge(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c := newTestContext(t, newStore())
			h := c.handler
			custody := c.bridge.AccountId()
			c.whitelist(t, destChainId)
			require.NoError(t, h.RegisterResourceId(origin.NewSigned(Registrar), PcxResourceId, chainset.AssetPCX))
			require.NoError(t, h.RegisterResourceId(origin.NewSigned(Registrar), WethResourceId, chainset.AssetXETH))

			require.NoError(t, h.TransferToBridge(origin.NewSigned(Alice), chainset.AssetPCX, destChainId, []byte{1}, 10))
			assert.Equal(t, utils.Balance(10), c.free(t, chainset.AssetPCX, custody))

			err := h.TransferToBridge(origin.NewSigned(custody), chainset.AssetPCX, destChainId, []byte{2}, 10)
			assert.ErrorIs(t, err, ErrCustodySender)
			c.deposit(t, chainset.AssetXETH, custody, 5)
			err = h.DoTransferToBridge(custody, chainset.AssetXETH, destChainId, []byte{2}, 5)
			assert.ErrorIs(t, err, ErrCustodySender)

			assert.Equal(t, utils.Balance(10), c.free(t, chainset.AssetPCX, custody))
			assert.Equal(t, utils.Balance(5), c.free(t, chainset.AssetXETH, custody))
			assert.Equal(t, msg.Nonce(1), c.nonce(t, destChainId))
		})
	}
}

func TestTransferFromBridge(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c := newTestContext(t, newStore())
			h := c.handler
			custody := c.bridge.AccountId()

			err := h.TransferFromBridge(origin.NewSigned(Alice), Alice, 500, PcxResourceId)
			assert.ErrorIs(t, err, origin.ErrBadOrigin)
			err = h.TransferFromBridge(origin.NewRoot(), Alice, 500, PcxResourceId)
			assert.ErrorIs(t, err, origin.ErrBadOrigin)

			err = h.TransferFromBridge(origin.NewSigned(custody), Alice, 500, PcxResourceId)
			assert.ErrorIs(t, err, ErrResourceIdNotRegistered)

			require.NoError(t, h.RegisterResourceId(origin.NewSigned(Registrar), PcxResourceId, chainset.AssetPCX))
			c.deposit(t, chainset.AssetPCX, custody, 1000)
			assert.Equal(t, utils.Balance(2000), c.issuance(t, chainset.AssetPCX))

			require.NoError(t, h.TransferFromBridge(origin.NewSigned(custody), Alice, 500, PcxResourceId))
			assert.Equal(t, utils.Balance(2000), c.issuance(t, chainset.AssetPCX))
			assert.Equal(t, utils.Balance(1500), c.free(t, chainset.AssetPCX, Alice))
			assert.Equal(t, utils.Balance(500), c.free(t, chainset.AssetPCX, custody))

			// Unlocking never creates supply.
			err = h.TransferFromBridge(origin.NewSigned(custody), Alice, 501, PcxResourceId)
			assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
			assert.Equal(t, utils.Balance(500), c.free(t, chainset.AssetPCX, custody))

			require.NoError(t, h.RegisterResourceId(origin.NewSigned(Registrar), WethResourceId, chainset.AssetXETH))
			assert.Equal(t, utils.Balance(0), c.issuance(t, chainset.AssetXETH))

			require.NoError(t, h.TransferFromBridge(origin.NewSigned(custody), Alice, 500, WethResourceId))
			assert.Equal(t, utils.Balance(500), c.issuance(t, chainset.AssetXETH))
			assert.Equal(t, utils.Balance(500), c.free(t, chainset.AssetXETH, Alice))
			assert.Equal(t, utils.Balance(0), c.free(t, chainset.AssetXETH, custody))
			assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.Inbound.WithLabelValues("mint")))
		})
	}
}

func TestTransferFromBridgeOnce(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c := newTestContext(t, newStore())
			h := c.handler
			bridge := origin.NewSigned(c.bridge.AccountId())
			require.NoError(t, h.RegisterResourceId(origin.NewSigned(Registrar), WethResourceId, chainset.AssetXETH))

			_, err := h.TransferFromBridgeOnce(origin.NewSigned(Alice), destChainId, 1, Alice, 50, WethResourceId)
			assert.ErrorIs(t, err, origin.ErrBadOrigin)

			applied, err := h.TransferFromBridgeOnce(bridge, destChainId, 1, Alice, 50, WethResourceId)
			require.NoError(t, err)
			assert.True(t, applied)

			applied, err = h.TransferFromBridgeOnce(bridge, destChainId, 1, Alice, 50, WethResourceId)
			require.NoError(t, err)
			assert.False(t, applied)

			// A failed credit leaves the deposit unexecuted.
			_, err = h.TransferFromBridgeOnce(bridge, destChainId, 2, Alice, 50, PcxResourceId)
			assert.ErrorIs(t, err, ErrResourceIdNotRegistered)
			applied, err = h.TransferFromBridgeOnce(bridge, destChainId, 2, Alice, 50, WethResourceId)
			require.NoError(t, err)
			assert.True(t, applied)

			assert.Equal(t, utils.Balance(100), c.free(t, chainset.AssetXETH, Alice))
			assert.Equal(t, utils.Balance(100), c.issuance(t, chainset.AssetXETH))
		})
	}
}

// markFailingTransport is a working bridge whose executed set cannot be written.
type markFailingTransport struct {
	*chainbridge.Bridge
	err error
}

func (m markFailingTransport) MarkExecuted(store.Txn, msg.ChainId, msg.Nonce) error { return m.err }

func TestTransferFromBridgeOnceMarkFailure(t *testing.T) {
	s := store.NewMemoryStore()
	errMark := errors.New("mark failed")
	bridge := chainbridge.NewBridge(localChainId, origin.EnsureRoot{}, nil)
	l := ledger.NewLedger(bridge.AccountId(), nil)
	h := NewHandler(s, l, markFailingTransport{Bridge: bridge, err: errMark}, Config{Registrar: origin.EnsureRoot{}, Bridge: bridge.EnsureBridge()}, nil, nil)
	require.NoError(t, h.RegisterResourceId(origin.NewRoot(), WethResourceId, chainset.AssetXETH))

	applied, err := h.TransferFromBridgeOnce(origin.NewSigned(bridge.AccountId()), destChainId, 1, Alice, 50, WethResourceId)
	assert.ErrorIs(t, err, errMark)
	assert.False(t, applied)

	require.NoError(t, s.View(func(txn store.Txn) error {
		free, err := l.FreeBalance(txn, chainset.AssetXETH, Alice)
		require.NoError(t, err)
		assert.Equal(t, utils.Balance(0), free)
		issuance, err := l.TotalIssuance(txn, chainset.AssetXETH)
		require.NoError(t, err)
		assert.Equal(t, utils.Balance(0), issuance)
		executed, err := bridge.Executed(txn, destChainId, 1)
		require.NoError(t, err)
		assert.False(t, executed)
		return nil
	}))
}

func TestRoundTripConservation(t *testing.T) {
	c := newTestContext(t, store.NewMemoryStore())
	h := c.handler
	custody := c.bridge.AccountId()
	c.whitelist(t, destChainId)
	require.NoError(t, h.RegisterResourceId(origin.NewSigned(Registrar), PcxResourceId, chainset.AssetPCX))
	require.NoError(t, h.RegisterResourceId(origin.NewSigned(Registrar), WethResourceId, chainset.AssetXETH))
	c.deposit(t, chainset.AssetXETH, Alice, 100)

	require.NoError(t, h.DoTransferToBridge(Alice, chainset.AssetPCX, destChainId, []byte{1}, 10))
	require.NoError(t, h.TransferFromBridge(origin.NewSigned(custody), Alice, 10, PcxResourceId))
	assert.Equal(t, utils.Balance(1000), c.free(t, chainset.AssetPCX, Alice))
	assert.Equal(t, utils.Balance(0), c.free(t, chainset.AssetPCX, custody))
	assert.Equal(t, utils.Balance(1000), c.issuance(t, chainset.AssetPCX))

	require.NoError(t, h.DoTransferToBridge(Alice, chainset.AssetXETH, destChainId, []byte{1}, 30))
	assert.Equal(t, utils.Balance(70), c.issuance(t, chainset.AssetXETH))
	require.NoError(t, h.TransferFromBridge(origin.NewSigned(custody), Alice, 30, WethResourceId))
	assert.Equal(t, utils.Balance(100), c.free(t, chainset.AssetXETH, Alice))
	assert.Equal(t, utils.Balance(100), c.issuance(t, chainset.AssetXETH))
}

func TestRegistryBijection(t *testing.T) {
	c := newTestContext(t, store.NewMemoryStore())
	h := c.handler
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		assetId := utils.AssetId(100 + rng.Intn(8))
		rId := chainset.NewResourceId(utils.AssetId(rng.Intn(8)), msg.ChainId(rng.Intn(4)))
		if rng.Intn(3) == 0 {
			require.NoError(t, h.RemoveResourceId(origin.NewSigned(Registrar), rId))
			continue
		}
		err := h.RegisterResourceId(origin.NewSigned(Registrar), rId, assetId)
		if err != nil {
			require.ErrorIs(t, err, ErrResourceIdAlreadyRegistered)
		}

		res, err := h.Resources()
		require.NoError(t, err)
		seen := make(map[utils.AssetId]bool)
		for _, r := range res {
			assert.False(t, seen[r.AssetId], "asset %d bound twice", r.AssetId)
			seen[r.AssetId] = true
			back, ok, err := h.ResourceIds(r.AssetId)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, r.ResourceId, back)
			assert.Equal(t, OriginOf(r.ResourceId, localChainId), r.Origin)
		}
		for a := utils.AssetId(100); a < 108; a++ {
			_, ok, err := h.ResourceIds(a)
			require.NoError(t, err)
			assert.Equal(t, seen[a], ok)
		}
	}
}

func TestOriginOf(t *testing.T) {
	assert.Equal(t, OriginLocal, OriginOf(PcxResourceId, localChainId))
	assert.Equal(t, OriginRemote, OriginOf(WethResourceId, localChainId))
	assert.Equal(t, OriginLocal, OriginOf(WethResourceId, chainset.IdETH))
}
