// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package handler

import (
	"errors"

	"github.com/ChainSafe/chainbridge-utils/msg"
	utils "github.com/chainx-org/AssetHandler/shared/substrate"
)

var (
	ErrInvalidDestChainId           = errors.New("invalid destination chain id")
	ErrResourceIdAlreadyRegistered  = errors.New("resource id already registered")
	ErrResourceIdNotRegistered      = errors.New("resource id not registered")
	ErrResourceIdCurrencyIdNotMatch = errors.New("resource id does not match currency id")
	ErrCustodySender                = errors.New("bridge custody account cannot transfer to bridge")
)

// OriginKind is the custody discipline of a resource, fixed when it is registered.
type OriginKind uint8

const (
	// OriginLocal assets are locked into bridge custody on the way out and unlocked on the way in.
	OriginLocal OriginKind = iota
	// OriginRemote assets are local representations, burned on the way out and minted on the way in.
	OriginRemote
)

func (k OriginKind) String() string {
	if k == OriginLocal {
		return "local"
	}
	return "remote"
}

func (k OriginKind) outbound() string {
	if k == OriginLocal {
		return "lock"
	}
	return "burn"
}

func (k OriginKind) inbound() string {
	if k == OriginLocal {
		return "unlock"
	}
	return "mint"
}

// OriginOf classifies a resource by its chain tag, the last byte of the id.
func OriginOf(rId msg.ResourceId, localChainId msg.ChainId) OriginKind {
	if rId[len(rId)-1] == uint8(localChainId) {
		return OriginLocal
	}
	return OriginRemote
}

// Resource is one registered mapping.
type Resource struct {
	ResourceId msg.ResourceId
	AssetId    utils.AssetId
	Origin     OriginKind
}

type EventKind uint8

const (
	RegisterResourceId EventKind = iota
	UnregisterResourceId
)

func (k EventKind) String() string {
	switch k {
	case RegisterResourceId:
		return "RegisterResourceId"
	case UnregisterResourceId:
		return "UnregisterResourceId"
	default:
		return "Unknown"
	}
}

type Event struct {
	Kind       EventKind
	ResourceId msg.ResourceId
	AssetId    utils.AssetId
}
