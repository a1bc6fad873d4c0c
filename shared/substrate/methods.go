// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package utils

// An available method on the local chain
type Method string

var WhitelistChainMethod Method = BridgePalletName + ".whitelist_chain"
var TransferFungibleMethod Method = BridgePalletName + ".transfer_fungible"

var RegisterResourceIdMethod Method = HandlerPalletName + ".register_resource_id"
var RemoveResourceIdMethod Method = HandlerPalletName + ".remove_resource_id"
var TransferToBridgeMethod Method = HandlerPalletName + ".transfer_to_bridge"
var TransferFromBridgeMethod Method = HandlerPalletName + ".transfer_from_bridge"

/// ChainX Method
var XAssetsTransferMethod Method = AssetsPalletName + ".transfer"
var XAssetsDepositMethod Method = AssetsPalletName + ".deposit"

func (m Method) String() string {
	return string(m)
}
