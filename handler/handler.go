// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

/*
The handler package binds local assets to bridge resource ids and moves value across the bridge.

Registration maps an AssetId to a ResourceId and back. The last byte of the resource id names the
chain the asset originates from: resources tagged with the local chain id are locked into bridge
custody when sent out and unlocked when they come back, any other tag is burned on the way out and
minted on the way in. That discipline is fixed when the resource is registered.

Every call runs in a single store transaction. A call that fails leaves no writes and emits no events.
*/
package handler

import (
	"fmt"
	"sync"

	"github.com/ChainSafe/chainbridge-utils/msg"
	"github.com/ChainSafe/log15"
	"github.com/chainx-org/AssetHandler/chainbridge"
	"github.com/chainx-org/AssetHandler/origin"
	utils "github.com/chainx-org/AssetHandler/shared/substrate"
	"github.com/chainx-org/AssetHandler/store"
	"github.com/holiman/uint256"
)

// AssetLedger is the balance side of a transfer.
type AssetLedger interface {
	Lock(txn store.Txn, asset utils.AssetId, who utils.AccountId, amount utils.Balance) error
	Unlock(txn store.Txn, asset utils.AssetId, who utils.AccountId, amount utils.Balance) error
	Burn(txn store.Txn, asset utils.AssetId, who utils.AccountId, amount utils.Balance) error
	Mint(txn store.Txn, asset utils.AssetId, who utils.AccountId, amount utils.Balance) error
}

// BridgeTransport records outbound fungible transfers and the inbound ones already applied.
type BridgeTransport interface {
	LocalChainId() msg.ChainId
	// AccountId is the custody account backing locked assets.
	AccountId() utils.AccountId
	ChainWhitelisted(txn store.Txn, id msg.ChainId) (bool, error)
	TransferFungible(txn store.Txn, dest msg.ChainId, rId msg.ResourceId, recipient []byte, amount *uint256.Int) error
	Executed(txn store.Txn, src msg.ChainId, nonce msg.Nonce) (bool, error)
	MarkExecuted(txn store.Txn, src msg.ChainId, nonce msg.Nonce) error
}

// AssetClassifier reports whether an asset's canonical supply lives on this chain.
// known is false for assets it has no opinion on.
type AssetClassifier interface {
	IsLocalAsset(asset utils.AssetId) (local bool, known bool)
}

type Config struct {
	// Registrar gates RegisterResourceId and RemoveResourceId.
	Registrar origin.EnsureOrigin
	// Bridge gates TransferFromBridge.
	Bridge origin.EnsureOrigin
	// Classifier rejects registrations whose chain tag contradicts the asset's home. Nil disables the check.
	Classifier AssetClassifier
}

type Handler struct {
	mu         sync.Mutex
	store      store.Store
	registry   *Registry
	ledger     AssetLedger
	bridge     BridgeTransport
	registrar  origin.EnsureOrigin
	bridgeAuth origin.EnsureOrigin
	classifier AssetClassifier
	events     []Event
	log        log15.Logger
	metrics    *Metrics
}

func NewHandler(s store.Store, ledger AssetLedger, bridge BridgeTransport, cfg Config, log log15.Logger, m *Metrics) *Handler {
	if log == nil {
		log = log15.Root()
	}
	return &Handler{
		store:      s,
		registry:   NewRegistry(bridge.LocalChainId()),
		ledger:     ledger,
		bridge:     bridge,
		registrar:  cfg.Registrar,
		bridgeAuth: cfg.Bridge,
		classifier: cfg.Classifier,
		log:        log,
		metrics:    m,
	}
}

func (h *Handler) RegisterResourceId(o origin.Origin, rId msg.ResourceId, assetId utils.AssetId) error {
	return h.call(utils.RegisterResourceIdMethod, func(txn store.Txn, deposit func(Event)) error {
		if _, err := h.registrar.EnsureOrigin(o); err != nil {
			return err
		}
		if _, err := h.register(txn, rId, assetId); err != nil {
			return err
		}
		deposit(Event{Kind: RegisterResourceId, ResourceId: rId, AssetId: assetId})
		return nil
	})
}

// InitResource registers a mapping inside an existing transaction without an origin check or event.
// It is meant for genesis.
func (h *Handler) InitResource(txn store.Txn, rId msg.ResourceId, assetId utils.AssetId) error {
	_, err := h.register(txn, rId, assetId)
	return err
}

func (h *Handler) register(txn store.Txn, rId msg.ResourceId, assetId utils.AssetId) (OriginKind, error) {
	if h.classifier != nil {
		kind := OriginOf(rId, h.registry.localChainId)
		if local, known := h.classifier.IsLocalAsset(assetId); known && local != (kind == OriginLocal) {
			return 0, fmt.Errorf("%w: asset %d, resource %s", ErrResourceIdCurrencyIdNotMatch, assetId, rId.Hex())
		}
	}
	return h.registry.Register(txn, rId, assetId)
}

// RemoveResourceId unbinds rId. Removing an unknown resource succeeds without an event.
func (h *Handler) RemoveResourceId(o origin.Origin, rId msg.ResourceId) error {
	return h.call(utils.RemoveResourceIdMethod, func(txn store.Txn, deposit func(Event)) error {
		if _, err := h.registrar.EnsureOrigin(o); err != nil {
			return err
		}
		assetId, removed, err := h.registry.Unregister(txn, rId)
		if err != nil {
			return err
		}
		if removed {
			deposit(Event{Kind: UnregisterResourceId, ResourceId: rId, AssetId: assetId})
		}
		return nil
	})
}

// TransferToBridge is DoTransferToBridge for a signed caller.
func (h *Handler) TransferToBridge(o origin.Origin, assetId utils.AssetId, dest msg.ChainId, recipient []byte, amount utils.Balance) error {
	who, err := origin.EnsureSigned{}.EnsureOrigin(o)
	if err != nil {
		h.metrics.failed(utils.TransferToBridgeMethod.String())
		return err
	}
	return h.DoTransferToBridge(who, assetId, dest, recipient, amount)
}

// DoTransferToBridge takes amount of assetId from sender and dispatches it to recipient on dest.
// The custody account cannot send, its balance already backs transfers out.
func (h *Handler) DoTransferToBridge(sender utils.AccountId, assetId utils.AssetId, dest msg.ChainId, recipient []byte, amount utils.Balance) error {
	var kind OriginKind
	err := h.call(utils.TransferToBridgeMethod, func(txn store.Txn, _ func(Event)) error {
		if sender == h.bridge.AccountId() {
			return fmt.Errorf("%w: %s", ErrCustodySender, sender)
		}
		ok, err := h.bridge.ChainWhitelisted(txn, dest)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %d", ErrInvalidDestChainId, dest)
		}
		rId, ok, err := h.registry.ResourceId(txn, assetId)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: asset %d", ErrResourceIdNotRegistered, assetId)
		}
		entry, _, err := h.registry.Entry(txn, rId)
		if err != nil {
			return err
		}
		kind = entry.Origin

		if kind == OriginLocal {
			err = h.ledger.Lock(txn, assetId, sender, amount)
		} else {
			err = h.ledger.Burn(txn, assetId, sender, amount)
		}
		if err != nil {
			return err
		}
		return h.bridge.TransferFungible(txn, dest, rId, recipient, chainbridge.ToWire(amount))
	})
	if err != nil {
		return err
	}
	h.metrics.outbound(kind)
	h.log.Info(TransferToBridgeMsg, "asset", assetId, "from", sender, "dest", dest, "amount", amount, "action", kind.outbound())
	return nil
}

// TransferFromBridge credits amount of the asset behind rId to to. Only the bridge may call it.
func (h *Handler) TransferFromBridge(o origin.Origin, to utils.AccountId, amount utils.Balance, rId msg.ResourceId) error {
	var entry Resource
	err := h.call(utils.TransferFromBridgeMethod, func(txn store.Txn, _ func(Event)) (err error) {
		entry, err = h.transferFromBridge(txn, o, to, amount, rId)
		return
	})
	if err != nil {
		return err
	}
	h.inbound(entry, to, amount)
	return nil
}

// TransferFromBridgeOnce is TransferFromBridge for the deposit src/nonce. The credit and the
// executed mark commit together; applied is false when the deposit had already been executed.
func (h *Handler) TransferFromBridgeOnce(o origin.Origin, src msg.ChainId, nonce msg.Nonce, to utils.AccountId, amount utils.Balance, rId msg.ResourceId) (applied bool, err error) {
	var entry Resource
	err = h.call(utils.TransferFromBridgeMethod, func(txn store.Txn, _ func(Event)) error {
		if _, err := h.bridgeAuth.EnsureOrigin(o); err != nil {
			return err
		}
		executed, err := h.bridge.Executed(txn, src, nonce)
		if err != nil || executed {
			return err
		}
		if entry, err = h.transferFromBridge(txn, o, to, amount, rId); err != nil {
			return err
		}
		applied = true
		return h.bridge.MarkExecuted(txn, src, nonce)
	})
	if err != nil {
		return false, err
	}
	if applied {
		h.inbound(entry, to, amount)
	}
	return applied, nil
}

func (h *Handler) transferFromBridge(txn store.Txn, o origin.Origin, to utils.AccountId, amount utils.Balance, rId msg.ResourceId) (Resource, error) {
	if _, err := h.bridgeAuth.EnsureOrigin(o); err != nil {
		return Resource{}, err
	}
	entry, ok, err := h.registry.Entry(txn, rId)
	if err != nil {
		return entry, err
	}
	if !ok {
		return entry, fmt.Errorf("%w: %s", ErrResourceIdNotRegistered, rId.Hex())
	}
	if entry.Origin == OriginLocal {
		return entry, h.ledger.Unlock(txn, entry.AssetId, to, amount)
	}
	return entry, h.ledger.Mint(txn, entry.AssetId, to, amount)
}

func (h *Handler) inbound(entry Resource, to utils.AccountId, amount utils.Balance) {
	h.metrics.inbound(entry.Origin)
	h.log.Info(TransferFromBridgeMsg, "asset", entry.AssetId, "to", to, "amount", amount, "action", entry.Origin.inbound())
}

// ResourceIds looks up the resource id bound to assetId.
func (h *Handler) ResourceIds(assetId utils.AssetId) (rId msg.ResourceId, ok bool, err error) {
	err = h.store.View(func(txn store.Txn) error {
		rId, ok, err = h.registry.ResourceId(txn, assetId)
		return err
	})
	return
}

// CurrencyIds looks up the asset bound to rId.
func (h *Handler) CurrencyIds(rId msg.ResourceId) (assetId utils.AssetId, ok bool, err error) {
	err = h.store.View(func(txn store.Txn) error {
		var e Resource
		e, ok, err = h.registry.Entry(txn, rId)
		assetId = e.AssetId
		return err
	})
	return
}

func (h *Handler) Resources() (res []Resource, err error) {
	err = h.store.View(func(txn store.Txn) error {
		res, err = h.registry.Entries(txn)
		return err
	})
	return
}

// Events returns a copy of every event deposited so far, oldest first.
func (h *Handler) Events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	evs := make([]Event, len(h.events))
	copy(evs, h.events)
	return evs
}

// call runs fn in one transaction under the handler lock. Events passed to deposit
// are kept only if the transaction commits.
func (h *Handler) call(method utils.Method, fn func(txn store.Txn, deposit func(Event)) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var pending []Event
	err := h.store.Update(func(txn store.Txn) error {
		pending = pending[:0]
		return fn(txn, func(e Event) { pending = append(pending, e) })
	})
	if err != nil {
		h.metrics.failed(method.String())
		h.log.Debug(CallFailedMsg, "call", method, "err", err)
		return err
	}
	for _, e := range pending {
		switch e.Kind {
		case RegisterResourceId:
			h.metrics.registered()
		case UnregisterResourceId:
			h.metrics.unregistered()
		}
		h.log.Info(DepositEventMsg, "event", e.Kind, "resource", e.ResourceId.Hex(), "asset", e.AssetId)
	}
	h.events = append(h.events, pending...)
	return nil
}

const (
	DepositEventMsg       = "Deposit event"
	CallFailedMsg         = "Call failed"
	TransferToBridgeMsg   = "Transfer to bridge"
	TransferFromBridgeMsg = "Transfer from bridge"
)
