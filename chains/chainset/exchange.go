// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package chainset

import (
	"fmt"
	"math/big"

	utils "github.com/chainx-org/AssetHandler/shared/substrate"
	"github.com/shopspring/decimal"
)

// decimalsOf falls back to zero decimals for assets missing from the currency table.
func decimalsOf(assetId utils.AssetId) int32 {
	if c, err := GetCurrencyByAssetId(assetId); err == nil {
		return c.Decimals
	}
	return 0
}

// FormatBalance renders a raw balance in whole units of the asset, "990" PCX units -> "0.0000099".
func FormatBalance(assetId utils.AssetId, b utils.Balance) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(b), -decimalsOf(assetId))
	return d.String()
}

// ParseBalance reads a whole-unit amount ("1.5") into the asset's raw balance.
// A trailing "u" reads the number as raw units instead ("150u").
func ParseBalance(assetId utils.AssetId, s string) (utils.Balance, error) {
	raw := false
	if n := len(s); n > 0 && s[n-1] == 'u' {
		raw = true
		s = s[:n-1]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !raw {
		d = d.Shift(decimalsOf(assetId))
	}
	if d.Sign() < 0 {
		return 0, fmt.Errorf("negative amount %q", s)
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("amount %q is finer than the asset precision", s)
	}
	i := d.BigInt()
	if !i.IsUint64() {
		return 0, fmt.Errorf("amount %q overflows", s)
	}
	return i.Uint64(), nil
}
