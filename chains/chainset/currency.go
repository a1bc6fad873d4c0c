// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package chainset

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/ChainSafe/chainbridge-utils/msg"
	utils "github.com/chainx-org/AssetHandler/shared/substrate"
	"github.com/ethereum/go-ethereum/common"
)

// ResourceIdLen is the width of a bridge resource id. The last byte is the chain tag.
const ResourceIdLen = 32

const chainTagIndex = ResourceIdLen - 1

type Currency struct {
	AssetId  utils.AssetId
	Name     string
	Decimals int32
	/// Chain on which the canonical supply lives
	Home msg.ChainId
}

/// AssetId Type
const (
	AssetPCX  utils.AssetId = 0
	AssetXBTC utils.AssetId = 1
	AssetXBNB utils.AssetId = 2
	AssetXETH utils.AssetId = 3
	AssetXHT  utils.AssetId = 4
	AssetXUSD utils.AssetId = 5
)

var currencies = []Currency{
	{AssetPCX, TokenPCX, 8, IdChainX},
	{AssetXBTC, TokenXBTC, 8, IdChainX},
	{AssetXBNB, TokenXBNB, 18, IdBSC},
	{AssetXETH, TokenXETH, 18, IdETH},
	{AssetXHT, TokenXHT, 18, IdHeco},
	{AssetXUSD, TokenXUSD, 6, IdETH},
}

func GetCurrencyByAssetId(assetId utils.AssetId) (*Currency, error) {
	for i := range currencies {
		if currencies[i].AssetId == assetId {
			c := currencies[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("unimplemented currency %d", assetId)
}

func GetCurrencyByName(name string) (*Currency, error) {
	for i := range currencies {
		if strings.EqualFold(currencies[i].Name, name) {
			c := currencies[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("unimplemented currency %s", name)
}

// ParseAssetId accepts a numeric asset id or a currency name.
func ParseAssetId(s string) (utils.AssetId, error) {
	if id, err := strconv.ParseUint(s, 10, 32); err == nil {
		return utils.AssetId(id), nil
	}
	c, err := GetCurrencyByName(s)
	if err != nil {
		return 0, err
	}
	return c.AssetId, nil
}

// NewResourceId lays out a resource id as the big-endian asset id followed by the chain tag.
func NewResourceId(assetId utils.AssetId, chainTag msg.ChainId) msg.ResourceId {
	var rId msg.ResourceId
	binary.BigEndian.PutUint32(rId[chainTagIndex-4:chainTagIndex], uint32(assetId))
	rId[chainTagIndex] = uint8(chainTag)
	return rId
}

// ResourceIdOf is the canonical resource id of a known currency, tagged with its home chain.
func ResourceIdOf(c *Currency) msg.ResourceId {
	return NewResourceId(c.AssetId, c.Home)
}

// ChainTag reads the originating chain out of a resource id.
func ChainTag(rId msg.ResourceId) msg.ChainId {
	return msg.ChainId(rId[chainTagIndex])
}

func ConvertStringToResourceId(rId string) (msg.ResourceId, error) {
	b := common.FromHex(rId)
	if len(b) != ResourceIdLen {
		return msg.ResourceId{}, fmt.Errorf("resource id %s has %d bytes, want %d", rId, len(b), ResourceIdLen)
	}
	return msg.ResourceIdFromSlice(b), nil
}

// Classifier answers whether an asset's canonical supply is on the local chain,
// using the currency table.
type Classifier struct {
	local msg.ChainId
}

func NewClassifier(local msg.ChainId) Classifier {
	return Classifier{local: local}
}

func (c Classifier) IsLocalAsset(assetId utils.AssetId) (local bool, known bool) {
	cur, err := GetCurrencyByAssetId(assetId)
	if err != nil {
		return false, false
	}
	return cur.Home == c.local, true
}
