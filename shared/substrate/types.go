// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JFJun/go-substrate-crypto/ss58"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const BridgePalletName = "ChainBridge"
const BridgeStoragePrefix = "ChainBridge"
const HandlerPalletName = "Handler"
const HandlerStoragePrefix = "Handler"
const AssetsPalletName = "XAssets"
const AssetsStoragePrefix = "XAssets"
const SystemStoragePrefix = "System"

// AccountIdLen is the byte length of a substrate account id.
const AccountIdLen = 32

var ErrInvalidAccountId = errors.New("invalid account id")

// AssetId identifies a fungible asset type on the local ledger.
type AssetId uint32

// Balance is a local asset amount.
type Balance = uint64

// AccountId is a 32 byte substrate public key.
type AccountId [AccountIdLen]byte

func NewAccountId(b []byte) AccountId {
	var a AccountId
	copy(a[:], b)
	return a
}

// ParseAccountId accepts either an SS58 address or a 0x prefixed 32 byte hex string.
func ParseAccountId(s string) (AccountId, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		b := common.FromHex(s)
		if len(b) != AccountIdLen {
			return AccountId{}, fmt.Errorf("%w: %s has %d bytes", ErrInvalidAccountId, s, len(b))
		}
		return NewAccountId(b), nil
	}

	pub, err := ss58.DecodeToPub(s)
	if err != nil {
		return AccountId{}, fmt.Errorf("%w: %s: %v", ErrInvalidAccountId, s, err)
	}
	if len(pub) != AccountIdLen {
		return AccountId{}, fmt.Errorf("%w: %s has %d bytes", ErrInvalidAccountId, s, len(pub))
	}
	return NewAccountId(pub), nil
}

// SS58 renders the account with the ChainX address prefix.
func (a AccountId) SS58() string {
	addr, err := ss58.Encode(a[:], ss58.ChainXPrefix)
	if err != nil {
		return a.Hex()
	}
	return addr
}

func (a AccountId) Hex() string {
	return hexutil.Encode(a[:])
}

func (a AccountId) String() string {
	return a.SS58()
}

func (a AccountId) IsZero() bool {
	return a == AccountId{}
}

// AccountIdFromPalletId derives the sovereign account of a pallet,
// "modl" followed by the 8 byte pallet id, zero padded.
func AccountIdFromPalletId(palletId [8]byte) AccountId {
	var a AccountId
	copy(a[:], "modl")
	copy(a[4:], palletId[:])
	return a
}
