// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package chainset

import "github.com/ChainSafe/chainbridge-utils/msg"

/// Chain name constants
const (
	NameUnimplemented string = "unimplemented"

	NameETH  string = "eth"
	NameBSC  string = "bsc"
	NameHeco string = "heco"

	NameKusama   string = "kusama"
	NamePolkadot string = "polkadot"

	NameChainX  string = "chainx"
	NameSherpaX string = "sherpax"
)

const (
	TokenPCX string = "PCX"

	TokenXBTC string = "XBTC"
	TokenXBNB string = "XBNB"
	TokenXETH string = "XETH"
	TokenXUSD string = "XUSD"
	TokenXHT  string = "XHT"
)

/// ChainId Type
const (
	IdETH      msg.ChainId = 0
	IdBSC      msg.ChainId = 1
	IdChainX   msg.ChainId = 2
	IdSherpaX  msg.ChainId = 3
	IdKusama   msg.ChainId = 4
	IdPolkadot msg.ChainId = 5
	IdHeco     msg.ChainId = 6
)

type ChainInfo struct {
	Name string
	Id   msg.ChainId
}

var (
	ChainSets = [...]ChainInfo{
		{NameETH, IdETH},
		{NameBSC, IdBSC},
		{NameHeco, IdHeco},
		{NameKusama, IdKusama},
		{NamePolkadot, IdPolkadot},
		{NameChainX, IdChainX},
		{NameSherpaX, IdSherpaX},
	}
)
