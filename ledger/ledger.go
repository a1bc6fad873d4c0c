// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

/*
The ledger package is the asset ledger the handler mutates: per asset, per account usable and
reserved balances plus total issuance.

Only usable balance can be locked, transferred or burned. Locking moves value into the custody
account (the bridge account) without touching issuance; burning and minting change issuance.
Every method takes the store.Txn of the surrounding call so its writes commit or roll back with it.
*/
package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/ChainSafe/log15"
	"github.com/centrifuge/go-substrate-rpc-client/v3/types"
	utils "github.com/chainx-org/AssetHandler/shared/substrate"
	"github.com/chainx-org/AssetHandler/store"
)

var ErrInsufficientBalance = errors.New("insufficient usable balance")
var ErrInsufficientReserved = errors.New("insufficient reserved balance")
var ErrOverflow = errors.New("balance overflow")

const (
	freeItem          = "Free"
	reservedItem      = "Reserved"
	totalIssuanceItem = "TotalIssuance"
)

type Ledger struct {
	custody utils.AccountId
	log     log15.Logger
}

// NewLedger creates a ledger whose bridge custody account is custody.
func NewLedger(custody utils.AccountId, log log15.Logger) *Ledger {
	if log == nil {
		log = log15.Root()
	}
	return &Ledger{custody: custody, log: log}
}

func (l *Ledger) Custody() utils.AccountId {
	return l.custody
}

func (l *Ledger) FreeBalance(txn store.Txn, asset utils.AssetId, who utils.AccountId) (utils.Balance, error) {
	return getBalance(txn, accountKey(freeItem, asset, who))
}

// UsableBalance is the part of an account's balance that may be spent, locked or burned.
func (l *Ledger) UsableBalance(txn store.Txn, asset utils.AssetId, who utils.AccountId) (utils.Balance, error) {
	return l.FreeBalance(txn, asset, who)
}

func (l *Ledger) ReservedBalance(txn store.Txn, asset utils.AssetId, who utils.AccountId) (utils.Balance, error) {
	return getBalance(txn, accountKey(reservedItem, asset, who))
}

func (l *Ledger) TotalIssuance(txn store.Txn, asset utils.AssetId) (utils.Balance, error) {
	return getBalance(txn, issuanceKey(asset))
}

// Mint issues amount of asset into who and raises total issuance.
func (l *Ledger) Mint(txn store.Txn, asset utils.AssetId, who utils.AccountId, amount utils.Balance) error {
	issuance, err := l.TotalIssuance(txn, asset)
	if err != nil {
		return err
	}
	free, err := l.FreeBalance(txn, asset, who)
	if err != nil {
		return err
	}
	newIssuance, ok := checkedAdd(issuance, amount)
	if !ok {
		return fmt.Errorf("%w: total issuance of asset %d", ErrOverflow, asset)
	}
	newFree, ok := checkedAdd(free, amount)
	if !ok {
		return fmt.Errorf("%w: balance of %s in asset %d", ErrOverflow, who, asset)
	}

	if err := putBalance(txn, issuanceKey(asset), newIssuance); err != nil {
		return err
	}
	if err := putBalance(txn, accountKey(freeItem, asset, who), newFree); err != nil {
		return err
	}
	l.log.Trace("Issue", "call", utils.XAssetsDepositMethod, "asset", asset, "who", who, "amount", amount)
	return nil
}

// Deposit endows an account, used by genesis and tests.
func (l *Ledger) Deposit(txn store.Txn, asset utils.AssetId, who utils.AccountId, amount utils.Balance) error {
	return l.Mint(txn, asset, who, amount)
}

// Burn destroys amount of who's usable balance and lowers total issuance.
func (l *Ledger) Burn(txn store.Txn, asset utils.AssetId, who utils.AccountId, amount utils.Balance) error {
	free, err := l.ensureUsable(txn, asset, who, amount)
	if err != nil {
		return err
	}
	issuance, err := l.TotalIssuance(txn, asset)
	if err != nil {
		return err
	}
	if issuance < amount {
		return fmt.Errorf("%w: total issuance of asset %d below %d", ErrInsufficientBalance, asset, amount)
	}

	if err := putBalance(txn, accountKey(freeItem, asset, who), free-amount); err != nil {
		return err
	}
	if err := putBalance(txn, issuanceKey(asset), issuance-amount); err != nil {
		return err
	}
	l.log.Trace("Destroy usable", "asset", asset, "who", who, "amount", amount)
	return nil
}

// Lock moves amount of who's usable balance into bridge custody.
func (l *Ledger) Lock(txn store.Txn, asset utils.AssetId, who utils.AccountId, amount utils.Balance) error {
	return l.Transfer(txn, asset, who, l.custody, amount)
}

// Unlock releases amount from bridge custody to who. It never changes issuance.
func (l *Ledger) Unlock(txn store.Txn, asset utils.AssetId, who utils.AccountId, amount utils.Balance) error {
	return l.Transfer(txn, asset, l.custody, who, amount)
}

func (l *Ledger) Transfer(txn store.Txn, asset utils.AssetId, from, to utils.AccountId, amount utils.Balance) error {
	fromFree, err := l.ensureUsable(txn, asset, from, amount)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	toFree, err := l.FreeBalance(txn, asset, to)
	if err != nil {
		return err
	}
	newTo, ok := checkedAdd(toFree, amount)
	if !ok {
		return fmt.Errorf("%w: balance of %s in asset %d", ErrOverflow, to, asset)
	}

	if err := putBalance(txn, accountKey(freeItem, asset, from), fromFree-amount); err != nil {
		return err
	}
	if err := putBalance(txn, accountKey(freeItem, asset, to), newTo); err != nil {
		return err
	}
	l.log.Trace("Move usable balance", "call", utils.XAssetsTransferMethod, "asset", asset, "from", from, "to", to, "amount", amount)
	return nil
}

// Reserve moves usable balance into the reserved bucket, where it cannot be locked or burned.
func (l *Ledger) Reserve(txn store.Txn, asset utils.AssetId, who utils.AccountId, amount utils.Balance) error {
	free, err := l.ensureUsable(txn, asset, who, amount)
	if err != nil {
		return err
	}
	reserved, err := l.ReservedBalance(txn, asset, who)
	if err != nil {
		return err
	}
	newReserved, ok := checkedAdd(reserved, amount)
	if !ok {
		return fmt.Errorf("%w: reserved balance of %s in asset %d", ErrOverflow, who, asset)
	}
	if err := putBalance(txn, accountKey(freeItem, asset, who), free-amount); err != nil {
		return err
	}
	return putBalance(txn, accountKey(reservedItem, asset, who), newReserved)
}

func (l *Ledger) Unreserve(txn store.Txn, asset utils.AssetId, who utils.AccountId, amount utils.Balance) error {
	reserved, err := l.ReservedBalance(txn, asset, who)
	if err != nil {
		return err
	}
	if reserved < amount {
		return fmt.Errorf("%w: %s has %d reserved in asset %d, need %d", ErrInsufficientReserved, who, reserved, asset, amount)
	}
	free, err := l.FreeBalance(txn, asset, who)
	if err != nil {
		return err
	}
	newFree, ok := checkedAdd(free, amount)
	if !ok {
		return fmt.Errorf("%w: balance of %s in asset %d", ErrOverflow, who, asset)
	}
	if err := putBalance(txn, accountKey(reservedItem, asset, who), reserved-amount); err != nil {
		return err
	}
	return putBalance(txn, accountKey(freeItem, asset, who), newFree)
}

func (l *Ledger) ensureUsable(txn store.Txn, asset utils.AssetId, who utils.AccountId, amount utils.Balance) (utils.Balance, error) {
	free, err := l.FreeBalance(txn, asset, who)
	if err != nil {
		return 0, err
	}
	if free < amount {
		return 0, fmt.Errorf("%w: %s has %d usable in asset %d, need %d", ErrInsufficientBalance, who, free, asset, amount)
	}
	return free, nil
}

func checkedAdd(a, b utils.Balance) (utils.Balance, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

func assetKeyPart(asset utils.AssetId) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(asset))
	return b
}

func accountKey(item string, asset utils.AssetId, who utils.AccountId) []byte {
	return store.Key(utils.AssetsStoragePrefix, item, assetKeyPart(asset), who[:])
}

func issuanceKey(asset utils.AssetId) []byte {
	return store.Key(utils.AssetsStoragePrefix, totalIssuanceItem, assetKeyPart(asset))
}

func getBalance(txn store.Txn, key []byte) (utils.Balance, error) {
	bz, err := txn.Get(key)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var b types.U64
	if err := types.DecodeFromBytes(bz, &b); err != nil {
		return 0, fmt.Errorf("corrupt balance at %x: %w", key, err)
	}
	return utils.Balance(b), nil
}

// putBalance drops zero entries so an empty account leaves no storage behind.
func putBalance(txn store.Txn, key []byte, b utils.Balance) error {
	if b == 0 {
		return txn.Delete(key)
	}
	bz, err := types.EncodeToBytes(types.NewU64(b))
	if err != nil {
		return err
	}
	return txn.Set(key, bz)
}
