// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package chainbridge

import (
	"math"
	"math/big"

	utils "github.com/chainx-org/AssetHandler/shared/substrate"
	"github.com/holiman/uint256"
)

// ToWire widens a local balance to the bridge's 256 bit amount. It is lossless.
func ToWire(b utils.Balance) *uint256.Int {
	return uint256.NewInt(b)
}

// FromWire narrows a bridge amount to a local balance, saturating at the largest balance.
func FromWire(x *uint256.Int) utils.Balance {
	if x == nil {
		return 0
	}
	if !x.IsUint64() {
		return math.MaxUint64
	}
	return x.Uint64()
}

// FromWireBig narrows a big-endian encoded amount as carried in a FungibleTransfer payload.
func FromWireBig(b *big.Int) utils.Balance {
	if b == nil || b.Sign() <= 0 {
		return 0
	}
	x, overflow := uint256.FromBig(b)
	if overflow {
		return math.MaxUint64
	}
	return FromWire(x)
}
