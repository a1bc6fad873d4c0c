// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"fmt"
	"io"
	"math/big"

	"github.com/ChainSafe/chainbridge-utils/msg"
	log "github.com/ChainSafe/log15"
	"github.com/chainx-org/AssetHandler/chainbridge"
	"github.com/chainx-org/AssetHandler/chains/chainset"
	"github.com/chainx-org/AssetHandler/chains/substrate"
	"github.com/chainx-org/AssetHandler/config"
	"github.com/chainx-org/AssetHandler/handler"
	"github.com/chainx-org/AssetHandler/origin"
	utils "github.com/chainx-org/AssetHandler/shared/substrate"
	"github.com/chainx-org/AssetHandler/store"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
)

var commands = []*cli.Command{
	{
		Name:   "register",
		Usage:  "bind an asset to a resource id",
		Flags:  []cli.Flag{config.ChainFlag, config.SignerFlag, config.ResourceIdFlag, config.AssetFlag},
		Action: wrapHandler(handleRegisterCmd),
	},
	{
		Name:   "unregister",
		Usage:  "remove the binding of a resource id",
		Flags:  []cli.Flag{config.ChainFlag, config.SignerFlag, config.ResourceIdFlag},
		Action: wrapHandler(handleUnregisterCmd),
	},
	{
		Name:   "resources",
		Usage:  "list registered resources",
		Flags:  []cli.Flag{config.ChainFlag},
		Action: wrapHandler(handleResourcesCmd),
	},
	{
		Name:   "lookup",
		Usage:  "resolve an asset to its resource id, or a resource id to its asset",
		Flags:  []cli.Flag{config.ChainFlag, config.ResourceIdFlag, config.AssetFlag},
		Action: wrapHandler(handleLookupCmd),
	},
	{
		Name:   "transfer",
		Usage:  "send an asset to another chain through the bridge",
		Flags:  []cli.Flag{config.ChainFlag, config.SignerFlag, config.AssetFlag, config.DestFlag, config.RecipientFlag, config.AmountFlag},
		Action: wrapHandler(handleTransferCmd),
	},
	{
		Name:   "receive",
		Usage:  "apply the inbound deposit src/nonce as the bridge account, once",
		Flags:  []cli.Flag{config.ChainFlag, config.SrcFlag, config.NonceFlag, config.ResourceIdFlag, config.AccountFlag, config.AmountFlag},
		Action: wrapHandler(handleReceiveCmd),
	},
	{
		Name:   "whitelist",
		Usage:  "enable a destination chain",
		Flags:  []cli.Flag{config.ChainFlag, config.SignerFlag, config.DestFlag},
		Action: wrapHandler(handleWhitelistCmd),
	},
	{
		Name:   "balance",
		Usage:  "show the usable and reserved balance of an account",
		Flags:  []cli.Flag{config.ChainFlag, config.AssetFlag, config.AccountFlag},
		Action: wrapHandler(handleBalanceCmd),
	},
	{
		Name:   "outbox",
		Usage:  "list transfers dispatched to a destination chain",
		Flags:  []cli.Flag{config.ChainFlag, config.DestFlag, config.FromNonceFlag},
		Action: wrapHandler(handleOutboxCmd),
	},
	{
		Name:   "resource-id",
		Usage:  "derive the resource id of an asset",
		Flags:  []cli.Flag{config.AssetFlag, config.TagFlag},
		Action: handleResourceIdCmd,
	},
}

// wrapHandler opens the selected chain for a single call and closes it afterwards.
func wrapHandler(hdl func(*cli.Context, *substrate.Chain) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		err := startLogger(ctx)
		if err != nil {
			return err
		}

		cfg, err := config.GetConfig(ctx)
		if err != nil {
			return err
		}
		raw, err := cfg.SelectChain(ctx.String(config.ChainFlag.Name))
		if err != nil {
			return err
		}
		chainConfig, err := newChainConfig(ctx, raw)
		if err != nil {
			return err
		}
		c, err := substrate.InitializeChain(chainConfig, raw.Genesis, log.Root().New("chain", raw.Name), make(chan error, 1), nil, nil)
		if err != nil {
			return err
		}
		defer c.Stop()
		return hdl(ctx, c)
	}
}

func signerOrigin(ctx *cli.Context) (origin.Origin, error) {
	s := ctx.String(config.SignerFlag.Name)
	if s == "" {
		return origin.NewRoot(), nil
	}
	who, err := utils.ParseAccountId(s)
	if err != nil {
		return origin.Origin{}, err
	}
	return origin.NewSigned(who), nil
}

func requireString(ctx *cli.Context, f *cli.StringFlag) (string, error) {
	v := ctx.String(f.Name)
	if v == "" {
		return "", fmt.Errorf("--%s is required", f.Name)
	}
	return v, nil
}

func parseResourceIdFlag(ctx *cli.Context) (msg.ResourceId, error) {
	v, err := requireString(ctx, config.ResourceIdFlag)
	if err != nil {
		return msg.ResourceId{}, err
	}
	return chainset.ConvertStringToResourceId(v)
}

func parseAssetFlag(ctx *cli.Context) (utils.AssetId, error) {
	v, err := requireString(ctx, config.AssetFlag)
	if err != nil {
		return 0, err
	}
	return chainset.ParseAssetId(v)
}

func parseAccountFlag(ctx *cli.Context) (utils.AccountId, error) {
	v, err := requireString(ctx, config.AccountFlag)
	if err != nil {
		return utils.AccountId{}, err
	}
	return utils.ParseAccountId(v)
}

func parseDestFlag(ctx *cli.Context) (msg.ChainId, error) {
	v, err := requireString(ctx, config.DestFlag)
	if err != nil {
		return 0, err
	}
	return chainset.ParseChainId(v)
}

// parseRecipient accepts a local style account (ss58 or 32 byte hex) or any hex encoded address.
func parseRecipient(s string) ([]byte, error) {
	if a, err := utils.ParseAccountId(s); err == nil {
		return a[:], nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient %s: %w", s, err)
	}
	return b, nil
}

func handleRegisterCmd(ctx *cli.Context, c *substrate.Chain) error {
	o, err := signerOrigin(ctx)
	if err != nil {
		return err
	}
	rId, err := parseResourceIdFlag(ctx)
	if err != nil {
		return err
	}
	assetId, err := parseAssetFlag(ctx)
	if err != nil {
		return err
	}
	return c.Handler().RegisterResourceId(o, rId, assetId)
}

func handleUnregisterCmd(ctx *cli.Context, c *substrate.Chain) error {
	o, err := signerOrigin(ctx)
	if err != nil {
		return err
	}
	rId, err := parseResourceIdFlag(ctx)
	if err != nil {
		return err
	}
	return c.Handler().RemoveResourceId(o, rId)
}

func handleResourcesCmd(ctx *cli.Context, c *substrate.Chain) error {
	res, err := c.Handler().Resources()
	if err != nil {
		return err
	}
	w := ctx.App.Writer
	for _, r := range res {
		fmt.Fprintf(w, "0x%s\t%d\t%s\t%s\n", r.ResourceId.Hex(), r.AssetId, currencyName(r.AssetId), r.Origin)
	}
	return nil
}

func handleLookupCmd(ctx *cli.Context, c *substrate.Chain) error {
	w := ctx.App.Writer
	if ctx.String(config.AssetFlag.Name) != "" {
		assetId, err := parseAssetFlag(ctx)
		if err != nil {
			return err
		}
		rId, ok, err := c.Handler().ResourceIds(assetId)
		if err != nil {
			return err
		}
		return printLookup(w, ok, "0x"+rId.Hex())
	}

	rId, err := parseResourceIdFlag(ctx)
	if err != nil {
		return fmt.Errorf("one of --%s or --%s is required", config.AssetFlag.Name, config.ResourceIdFlag.Name)
	}
	assetId, ok, err := c.Handler().CurrencyIds(rId)
	if err != nil {
		return err
	}
	return printLookup(w, ok, fmt.Sprintf("%d\t%s", assetId, currencyName(assetId)))
}

func printLookup(w io.Writer, ok bool, v string) error {
	if !ok {
		_, err := fmt.Fprintln(w, "not registered")
		return err
	}
	_, err := fmt.Fprintln(w, v)
	return err
}

func handleTransferCmd(ctx *cli.Context, c *substrate.Chain) error {
	o, err := signerOrigin(ctx)
	if err != nil {
		return err
	}
	assetId, err := parseAssetFlag(ctx)
	if err != nil {
		return err
	}
	dest, err := parseDestFlag(ctx)
	if err != nil {
		return err
	}
	r, err := requireString(ctx, config.RecipientFlag)
	if err != nil {
		return err
	}
	recipient, err := parseRecipient(r)
	if err != nil {
		return err
	}
	a, err := requireString(ctx, config.AmountFlag)
	if err != nil {
		return err
	}
	amount, err := chainset.ParseBalance(assetId, a)
	if err != nil {
		return err
	}
	return c.Handler().TransferToBridge(o, assetId, dest, recipient, amount)
}

func handleReceiveCmd(ctx *cli.Context, c *substrate.Chain) error {
	rId, err := parseResourceIdFlag(ctx)
	if err != nil {
		return err
	}
	to, err := parseAccountFlag(ctx)
	if err != nil {
		return err
	}
	assetId, ok, err := c.Handler().CurrencyIds(rId)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: 0x%s", handler.ErrResourceIdNotRegistered, rId.Hex())
	}
	a, err := requireString(ctx, config.AmountFlag)
	if err != nil {
		return err
	}
	amount, err := chainset.ParseBalance(assetId, a)
	if err != nil {
		return err
	}
	src, err := requireString(ctx, config.SrcFlag)
	if err != nil {
		return err
	}
	srcId, err := chainset.ParseChainId(src)
	if err != nil {
		return err
	}
	if !ctx.IsSet(config.NonceFlag.Name) {
		return fmt.Errorf("--%s is required", config.NonceFlag.Name)
	}
	nonce := msg.Nonce(ctx.Uint64(config.NonceFlag.Name))

	applied, err := c.Handler().TransferFromBridgeOnce(origin.NewSigned(c.Bridge().AccountId()), srcId, nonce, to, amount, rId)
	if err != nil {
		return err
	}
	if !applied {
		fmt.Fprintln(ctx.App.Writer, "already executed")
	}
	return nil
}

func handleWhitelistCmd(ctx *cli.Context, c *substrate.Chain) error {
	o, err := signerOrigin(ctx)
	if err != nil {
		return err
	}
	dest, err := parseDestFlag(ctx)
	if err != nil {
		return err
	}
	return c.Store().Update(func(txn store.Txn) error {
		return c.Bridge().WhitelistChain(txn, o, dest)
	})
}

func handleBalanceCmd(ctx *cli.Context, c *substrate.Chain) error {
	assetId, err := parseAssetFlag(ctx)
	if err != nil {
		return err
	}
	who, err := parseAccountFlag(ctx)
	if err != nil {
		return err
	}
	return c.Store().View(func(txn store.Txn) error {
		free, err := c.Ledger().UsableBalance(txn, assetId, who)
		if err != nil {
			return err
		}
		reserved, err := c.Ledger().ReservedBalance(txn, assetId, who)
		if err != nil {
			return err
		}
		issuance, err := c.Ledger().TotalIssuance(txn, assetId)
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "usable: %s\nreserved: %s\ntotal issuance: %s\n",
			chainset.FormatBalance(assetId, free),
			chainset.FormatBalance(assetId, reserved),
			chainset.FormatBalance(assetId, issuance))
		return nil
	})
}

func handleOutboxCmd(ctx *cli.Context, c *substrate.Chain) error {
	dest, err := parseDestFlag(ctx)
	if err != nil {
		return err
	}
	from := msg.Nonce(ctx.Uint64(config.FromNonceFlag.Name))
	var msgs []msg.Message
	err = c.Store().View(func(txn store.Txn) (err error) {
		msgs, err = c.Bridge().Messages(txn, dest, from, 0)
		return
	})
	if err != nil {
		return err
	}
	for _, m := range msgs {
		amount, _ := m.Payload[0].([]byte)
		recipient, _ := m.Payload[1].([]byte)
		fmt.Fprintf(ctx.App.Writer, "%d\t0x%s\t%d\t%s\n",
			m.DepositNonce, m.ResourceId.Hex(), chainbridge.FromWireBig(new(big.Int).SetBytes(amount)), hexutil.Encode(recipient))
	}
	return nil
}

func handleResourceIdCmd(ctx *cli.Context) error {
	assetId, err := parseAssetFlag(ctx)
	if err != nil {
		return err
	}
	var tag msg.ChainId
	if t := ctx.String(config.TagFlag.Name); t != "" {
		if tag, err = chainset.ParseChainId(t); err != nil {
			return err
		}
	} else {
		cur, err := chainset.GetCurrencyByAssetId(assetId)
		if err != nil {
			return fmt.Errorf("--%s is required for asset %d: %w", config.TagFlag.Name, assetId, err)
		}
		tag = cur.Home
	}
	_, err = fmt.Fprintf(ctx.App.Writer, "0x%s\n", chainset.NewResourceId(assetId, tag).Hex())
	return err
}

func currencyName(assetId utils.AssetId) string {
	if c, err := chainset.GetCurrencyByAssetId(assetId); err == nil {
		return c.Name
	}
	return "-"
}
