// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

/*
The chainbridge package is the local side of the bridge transport the handler dispatches through.

It keeps the set of whitelisted destination chains with a deposit nonce per chain, and records every
fungible transfer as an outbound message keyed by (destination, nonce). Relayers read those messages
and deliver them to the destination chain, where they arrive through the bridge account.
*/
package chainbridge

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ChainSafe/chainbridge-utils/msg"
	"github.com/ChainSafe/log15"
	"github.com/centrifuge/go-substrate-rpc-client/v3/types"
	"github.com/chainx-org/AssetHandler/origin"
	utils "github.com/chainx-org/AssetHandler/shared/substrate"
	"github.com/chainx-org/AssetHandler/store"
	"github.com/holiman/uint256"
)

// PalletId of the bridge, its sovereign account holds locked funds.
var PalletId = [8]byte{'c', 'b', '/', 'b', 'r', 'i', 'd', 'g'}

// MaxRecipientLen bounds the opaque recipient carried to the destination chain.
const MaxRecipientLen = 128

var (
	ErrInvalidChainId          = errors.New("cannot whitelist the local chain id")
	ErrChainAlreadyWhitelisted = errors.New("chain already whitelisted")
	ErrChainNotWhitelisted     = errors.New("chain not whitelisted")
	ErrEmptyRecipient          = errors.New("empty recipient")
	ErrRecipientTooLong        = errors.New("recipient too long")
)

const (
	chainNoncesItem      = "ChainNonces"
	fungibleTransferItem = "FungibleTransfer"
	executedItem         = "Executed"
)

type Bridge struct {
	chainId   msg.ChainId
	accountId utils.AccountId
	admin     origin.EnsureOrigin
	log       log15.Logger
}

// fungibleRecord is the stored form of a dispatched FungibleTransfer.
type fungibleRecord struct {
	ResourceId types.Bytes32
	Amount     types.U256
	Recipient  types.Bytes
}

func NewBridge(chainId msg.ChainId, admin origin.EnsureOrigin, log log15.Logger) *Bridge {
	if log == nil {
		log = log15.Root()
	}
	return &Bridge{
		chainId:   chainId,
		accountId: utils.AccountIdFromPalletId(PalletId),
		admin:     admin,
		log:       log,
	}
}

func (b *Bridge) LocalChainId() msg.ChainId {
	return b.chainId
}

// AccountId is the bridge's identity, both custody holder and the only inbound caller.
func (b *Bridge) AccountId() utils.AccountId {
	return b.accountId
}

// EnsureBridge only accepts calls signed by the bridge account.
func (b *Bridge) EnsureBridge() origin.EnsureOrigin {
	return EnsureBridge{Account: b.accountId}
}

type EnsureBridge struct {
	Account utils.AccountId
}

func (e EnsureBridge) EnsureOrigin(o origin.Origin) (utils.AccountId, error) {
	if o.Kind != origin.Signed || o.Who != e.Account {
		return utils.AccountId{}, origin.ErrBadOrigin
	}
	return o.Who, nil
}

func (b *Bridge) ChainWhitelisted(txn store.Txn, id msg.ChainId) (bool, error) {
	return store.Has(txn, nonceKey(id))
}

// WhitelistChain enables id as a destination. Only the bridge admin may call it.
func (b *Bridge) WhitelistChain(txn store.Txn, o origin.Origin, id msg.ChainId) error {
	if _, err := b.admin.EnsureOrigin(o); err != nil {
		b.log.Debug("Call failed", "call", utils.WhitelistChainMethod, "err", err)
		return err
	}
	return b.whitelist(txn, id)
}

func (b *Bridge) whitelist(txn store.Txn, id msg.ChainId) error {
	if id == b.chainId {
		return ErrInvalidChainId
	}
	ok, err := b.ChainWhitelisted(txn, id)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %d", ErrChainAlreadyWhitelisted, id)
	}
	if err := putNonce(txn, id, 0); err != nil {
		return err
	}
	b.log.Info("Chain whitelisted", "call", utils.WhitelistChainMethod, "chainId", id)
	return nil
}

// WhitelistedChains lists every enabled destination in ascending order.
func (b *Bridge) WhitelistedChains(txn store.Txn) ([]msg.ChainId, error) {
	prefix := store.Key(utils.BridgeStoragePrefix, chainNoncesItem)
	var ids []msg.ChainId
	err := txn.Iterate(prefix, func(key, _ []byte) error {
		if len(key) != len(prefix)+1 {
			return fmt.Errorf("unexpected chain nonce key %x", key)
		}
		ids = append(ids, msg.ChainId(key[len(prefix)]))
		return nil
	})
	return ids, err
}

// DepositNonce is the nonce of the last transfer dispatched to id, zero if none.
func (b *Bridge) DepositNonce(txn store.Txn, id msg.ChainId) (msg.Nonce, error) {
	bz, err := txn.Get(nonceKey(id))
	if errors.Is(err, store.ErrNotFound) {
		return 0, fmt.Errorf("%w: %d", ErrChainNotWhitelisted, id)
	}
	if err != nil {
		return 0, err
	}
	return msg.Nonce(binary.BigEndian.Uint64(bz)), nil
}

// TransferFungible records an outbound fungible transfer to dest under the next deposit nonce.
func (b *Bridge) TransferFungible(txn store.Txn, dest msg.ChainId, rId msg.ResourceId, recipient []byte, amount *uint256.Int) error {
	if len(recipient) == 0 {
		return ErrEmptyRecipient
	}
	if len(recipient) > MaxRecipientLen {
		return fmt.Errorf("%w: %d bytes", ErrRecipientTooLong, len(recipient))
	}
	nonce, err := b.DepositNonce(txn, dest)
	if err != nil {
		return err
	}
	nonce++

	rec := fungibleRecord{
		ResourceId: types.NewBytes32(rId),
		Amount:     types.NewU256(*amount.ToBig()),
		Recipient:  types.NewBytes(recipient),
	}
	bz, err := types.EncodeToBytes(rec)
	if err != nil {
		return err
	}
	if err := txn.Set(transferKey(dest, nonce), bz); err != nil {
		return err
	}
	if err := putNonce(txn, dest, nonce); err != nil {
		return err
	}

	b.log.Debug("FungibleTransfer", "call", utils.TransferFungibleMethod, "dest", dest, "nonce", nonce, "rId", rId.Hex(), "amount", amount.ToBig())
	return nil
}

// Messages returns up to limit dispatched transfers to dest with nonce >= from. limit <= 0 means all.
func (b *Bridge) Messages(txn store.Txn, dest msg.ChainId, from msg.Nonce, limit int) ([]msg.Message, error) {
	prefix := store.Key(utils.BridgeStoragePrefix, fungibleTransferItem, []byte{uint8(dest)})
	var msgs []msg.Message
	errDone := errors.New("done")

	err := txn.Iterate(prefix, func(key, value []byte) error {
		if len(key) != len(prefix)+8 {
			return fmt.Errorf("unexpected transfer key %x", key)
		}
		nonce := msg.Nonce(binary.BigEndian.Uint64(key[len(prefix):]))
		if nonce < from {
			return nil
		}
		var rec fungibleRecord
		if err := types.DecodeFromBytes(value, &rec); err != nil {
			return fmt.Errorf("corrupt transfer %d/%d: %w", dest, nonce, err)
		}
		msgs = append(msgs, msg.NewFungibleTransfer(
			b.chainId,
			dest,
			nonce,
			rec.Amount.Int,
			msg.ResourceIdFromSlice(rec.ResourceId[:]),
			rec.Recipient,
		))
		if limit > 0 && len(msgs) >= limit {
			return errDone
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDone) {
		return nil, err
	}
	return msgs, nil
}

// Executed reports whether the inbound transfer src/nonce has already been applied.
func (b *Bridge) Executed(txn store.Txn, src msg.ChainId, nonce msg.Nonce) (bool, error) {
	return store.Has(txn, executedKey(src, nonce))
}

func (b *Bridge) MarkExecuted(txn store.Txn, src msg.ChainId, nonce msg.Nonce) error {
	return txn.Set(executedKey(src, nonce), []byte{1})
}

func nonceKey(id msg.ChainId) []byte {
	return store.Key(utils.BridgeStoragePrefix, chainNoncesItem, []byte{uint8(id)})
}

func transferKey(dest msg.ChainId, nonce msg.Nonce) []byte {
	n := make([]byte, 8)
	binary.BigEndian.PutUint64(n, uint64(nonce))
	return store.Key(utils.BridgeStoragePrefix, fungibleTransferItem, []byte{uint8(dest)}, n)
}

func executedKey(src msg.ChainId, nonce msg.Nonce) []byte {
	n := make([]byte, 8)
	binary.BigEndian.PutUint64(n, uint64(nonce))
	return store.Key(utils.BridgeStoragePrefix, executedItem, []byte{uint8(src)}, n)
}

func putNonce(txn store.Txn, id msg.ChainId, nonce msg.Nonce) error {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, uint64(nonce))
	return txn.Set(nonceKey(id), bz)
}
