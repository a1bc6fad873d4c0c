// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package substrate

import (
	"fmt"

	"github.com/ChainSafe/chainbridge-utils/msg"
	"github.com/chainx-org/AssetHandler/chains/chainset"
	"github.com/chainx-org/AssetHandler/config"
	"github.com/chainx-org/AssetHandler/origin"
	utils "github.com/chainx-org/AssetHandler/shared/substrate"
	"github.com/chainx-org/AssetHandler/store"
)

var genesisKey = store.Key(utils.SystemStoragePrefix, "Genesis")

type genesisResource struct {
	rId     msg.ResourceId
	assetId utils.AssetId
}

type endowment struct {
	who     utils.AccountId
	assetId utils.AssetId
	amount  utils.Balance
}

// genesis is the parsed form of config.Genesis.
type genesis struct {
	registrars []utils.AccountId
	admins     []utils.AccountId
	whitelist  []msg.ChainId
	resources  []genesisResource
	endowments []endowment
	strict     bool
}

func parseGenesis(g *config.Genesis) (*genesis, error) {
	res := &genesis{strict: g.Strict()}
	if g == nil {
		return res, nil
	}

	accounts := func(field string, in []string) ([]utils.AccountId, error) {
		out := make([]utils.AccountId, 0, len(in))
		for _, s := range in {
			a, err := utils.ParseAccountId(s)
			if err != nil {
				return nil, fmt.Errorf("genesis %s: %w", field, err)
			}
			out = append(out, a)
		}
		return out, nil
	}
	var err error
	if res.registrars, err = accounts("registrars", g.Registrars); err != nil {
		return nil, err
	}
	if res.admins, err = accounts("admins", g.Admins); err != nil {
		return nil, err
	}

	for _, c := range g.Whitelist {
		id, err := chainset.ParseChainId(c)
		if err != nil {
			return nil, fmt.Errorf("genesis whitelist: %w", err)
		}
		res.whitelist = append(res.whitelist, id)
	}

	for _, r := range g.Resources {
		assetId, err := chainset.ParseAssetId(r.Asset)
		if err != nil {
			return nil, fmt.Errorf("genesis resources: %w", err)
		}
		var rId msg.ResourceId
		if r.ResourceId == "" {
			c, err := chainset.GetCurrencyByAssetId(assetId)
			if err != nil {
				return nil, fmt.Errorf("genesis resources: no resource id for asset %d: %w", assetId, err)
			}
			rId = chainset.ResourceIdOf(c)
		} else if rId, err = chainset.ConvertStringToResourceId(r.ResourceId); err != nil {
			return nil, fmt.Errorf("genesis resources: %w", err)
		}
		res.resources = append(res.resources, genesisResource{rId: rId, assetId: assetId})
	}

	for _, e := range g.Endowments {
		who, err := utils.ParseAccountId(e.Account)
		if err != nil {
			return nil, fmt.Errorf("genesis endowments: %w", err)
		}
		assetId, err := chainset.ParseAssetId(e.Asset)
		if err != nil {
			return nil, fmt.Errorf("genesis endowments: %w", err)
		}
		amount, err := chainset.ParseBalance(assetId, e.Amount)
		if err != nil {
			return nil, fmt.Errorf("genesis endowments: %w", err)
		}
		res.endowments = append(res.endowments, endowment{who: who, assetId: assetId, amount: amount})
	}
	return res, nil
}

// applyGenesis writes the genesis state once per store, in a single transaction.
func (c *Chain) applyGenesis(g *genesis) (bool, error) {
	applied := false
	err := c.store.Update(func(txn store.Txn) error {
		done, err := store.Has(txn, genesisKey)
		if err != nil || done {
			return err
		}
		for _, id := range g.whitelist {
			if err := c.bridge.WhitelistChain(txn, origin.NewRoot(), id); err != nil {
				return fmt.Errorf("genesis whitelist %d: %w", id, err)
			}
		}
		for _, r := range g.resources {
			if err := c.handler.InitResource(txn, r.rId, r.assetId); err != nil {
				return fmt.Errorf("genesis resource %s: %w", r.rId.Hex(), err)
			}
		}
		for _, e := range g.endowments {
			if err := c.ledger.Deposit(txn, e.assetId, e.who, e.amount); err != nil {
				return fmt.Errorf("genesis endowment %s: %w", e.who, err)
			}
		}
		applied = true
		return txn.Set(genesisKey, []byte{1})
	})
	return applied, err
}
