// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package handler

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ChainSafe/chainbridge-utils/msg"
	"github.com/centrifuge/go-substrate-rpc-client/v3/types"
	utils "github.com/chainx-org/AssetHandler/shared/substrate"
	"github.com/chainx-org/AssetHandler/store"
)

const (
	resourceIdsItem = "ResourceIds"
	currencyIdsItem = "CurrencyIds"
)

// currencyEntry is stored under CurrencyIds, the origin is kept next to the asset id.
type currencyEntry struct {
	AssetId types.U32
	Origin  types.U8
}

// Registry keeps the asset id <-> resource id bijection. Both directions are written
// and removed together within the caller's transaction.
type Registry struct {
	localChainId msg.ChainId
}

func NewRegistry(localChainId msg.ChainId) *Registry {
	return &Registry{localChainId: localChainId}
}

// Register binds rId and assetId. Neither side may already be bound.
func (r *Registry) Register(txn store.Txn, rId msg.ResourceId, assetId utils.AssetId) (OriginKind, error) {
	_, bound, err := r.ResourceId(txn, assetId)
	if err != nil {
		return 0, err
	}
	if bound {
		return 0, fmt.Errorf("%w: asset %d", ErrResourceIdAlreadyRegistered, assetId)
	}
	_, bound, err = r.Entry(txn, rId)
	if err != nil {
		return 0, err
	}
	if bound {
		return 0, fmt.Errorf("%w: %s", ErrResourceIdAlreadyRegistered, rId.Hex())
	}

	kind := OriginOf(rId, r.localChainId)
	bz, err := types.EncodeToBytes(currencyEntry{AssetId: types.U32(assetId), Origin: types.U8(kind)})
	if err != nil {
		return 0, err
	}
	if err := txn.Set(currencyIdKey(rId), bz); err != nil {
		return 0, err
	}
	if err := txn.Set(resourceIdKey(assetId), rId[:]); err != nil {
		return 0, err
	}
	return kind, nil
}

// Unregister drops the mapping for rId. removed is false when rId was not bound.
func (r *Registry) Unregister(txn store.Txn, rId msg.ResourceId) (assetId utils.AssetId, removed bool, err error) {
	entry, ok, err := r.Entry(txn, rId)
	if err != nil || !ok {
		return 0, false, err
	}
	if err := txn.Delete(currencyIdKey(rId)); err != nil {
		return 0, false, err
	}
	if err := txn.Delete(resourceIdKey(entry.AssetId)); err != nil {
		return 0, false, err
	}
	return entry.AssetId, true, nil
}

func (r *Registry) ResourceId(txn store.Txn, assetId utils.AssetId) (msg.ResourceId, bool, error) {
	bz, err := txn.Get(resourceIdKey(assetId))
	if errors.Is(err, store.ErrNotFound) {
		return msg.ResourceId{}, false, nil
	}
	if err != nil {
		return msg.ResourceId{}, false, err
	}
	if len(bz) != len(msg.ResourceId{}) {
		return msg.ResourceId{}, false, fmt.Errorf("corrupt resource id for asset %d", assetId)
	}
	return msg.ResourceIdFromSlice(bz), true, nil
}

// Entry resolves a resource id to its asset and stored origin kind.
func (r *Registry) Entry(txn store.Txn, rId msg.ResourceId) (Resource, bool, error) {
	bz, err := txn.Get(currencyIdKey(rId))
	if errors.Is(err, store.ErrNotFound) {
		return Resource{}, false, nil
	}
	if err != nil {
		return Resource{}, false, err
	}
	var e currencyEntry
	if err := types.DecodeFromBytes(bz, &e); err != nil {
		return Resource{}, false, fmt.Errorf("corrupt currency entry for %s: %w", rId.Hex(), err)
	}
	return Resource{ResourceId: rId, AssetId: utils.AssetId(e.AssetId), Origin: OriginKind(e.Origin)}, true, nil
}

// Entries lists every mapping ordered by resource id.
func (r *Registry) Entries(txn store.Txn) ([]Resource, error) {
	prefix := store.Key(utils.HandlerStoragePrefix, currencyIdsItem)
	var res []Resource
	err := txn.Iterate(prefix, func(key, value []byte) error {
		if len(key) != len(prefix)+len(msg.ResourceId{}) {
			return fmt.Errorf("unexpected currency key %x", key)
		}
		var e currencyEntry
		if err := types.DecodeFromBytes(value, &e); err != nil {
			return err
		}
		res = append(res, Resource{
			ResourceId: msg.ResourceIdFromSlice(key[len(prefix):]),
			AssetId:    utils.AssetId(e.AssetId),
			Origin:     OriginKind(e.Origin),
		})
		return nil
	})
	return res, err
}

func resourceIdKey(assetId utils.AssetId) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(assetId))
	return store.Key(utils.HandlerStoragePrefix, resourceIdsItem, b)
}

func currencyIdKey(rId msg.ResourceId) []byte {
	return store.Key(utils.HandlerStoragePrefix, currencyIdsItem, rId[:])
}
