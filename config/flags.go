// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package config

import (
	log "github.com/ChainSafe/log15"
	"github.com/urfave/cli/v2"
)

var (
	ConfigFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "JSON configuration file",
	}

	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Supports levels crit (silent) to trce (trace)",
		Value: log.LvlInfo.String(),
	}

	BlockstorePathFlag = &cli.StringFlag{
		Name:  "blockstore",
		Usage: "Specify path for blockstore",
		Value: DefaultBlockstorePath,
	}

	FreshStartFlag = &cli.BoolFlag{
		Name:  "fresh",
		Usage: "Disables loading from blockstore at start. Opts will still be used if specified.",
	}
)

// Metrics flags
var (
	MetricsFlag = &cli.BoolFlag{
		Name:  "metrics",
		Usage: "Enables metric server",
	}

	MetricsPort = &cli.IntFlag{
		Name:  "metricsPort",
		Usage: "Port to serve metrics on",
		Value: 8001,
	}
)

// Call flags
var (
	ChainFlag = &cli.StringFlag{
		Name:  "chain",
		Usage: "Name or id of the configured chain to act on",
	}

	SignerFlag = &cli.StringFlag{
		Name:  "signer",
		Usage: "Account (ss58 or hex) signing the call, root when empty",
	}

	ResourceIdFlag = &cli.StringFlag{
		Name:  "resourceId",
		Usage: "Hex encoded 32 byte resource id",
	}

	AssetFlag = &cli.StringFlag{
		Name:  "asset",
		Usage: "Asset id or currency name",
	}

	DestFlag = &cli.StringFlag{
		Name:  "dest",
		Usage: "Destination chain id or name",
	}

	RecipientFlag = &cli.StringFlag{
		Name:  "recipient",
		Usage: "Hex encoded recipient on the destination chain",
	}

	AccountFlag = &cli.StringFlag{
		Name:  "account",
		Usage: "Account (ss58 or hex)",
	}

	AmountFlag = &cli.StringFlag{
		Name:  "amount",
		Usage: "Amount in whole units of the asset, a trailing u reads raw units",
	}

	SrcFlag = &cli.StringFlag{
		Name:  "src",
		Usage: "Source chain id or name of an inbound deposit",
	}

	NonceFlag = &cli.Uint64Flag{
		Name:  "nonce",
		Usage: "Deposit nonce of an inbound transfer on its source chain",
	}

	FromNonceFlag = &cli.Uint64Flag{
		Name:  "from",
		Usage: "First deposit nonce to list",
		Value: 1,
	}
)

var TagFlag = &cli.StringFlag{
	Name:  "tag",
	Usage: "Chain tag of the resource id, the asset's home chain when empty",
}
