// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package substrate

import (
	"testing"

	"github.com/ChainSafe/chainbridge-utils/core"
	"github.com/ChainSafe/chainbridge-utils/msg"
	"github.com/ChainSafe/log15"
	"github.com/chainx-org/AssetHandler/chains/chainset"
	"github.com/chainx-org/AssetHandler/config"
	utils "github.com/chainx-org/AssetHandler/shared/substrate"
	"github.com/chainx-org/AssetHandler/store"
	"github.com/stretchr/testify/require"
)

var TestLogLevel = log15.LvlError

var (
	Alice = utils.AccountId{0xa1}
	Bob   = utils.AccountId{0xb0}
	Root  = utils.AccountId{0xee}
)

var (
	PcxResourceId  = chainset.ResourceIdOf(&chainset.Currency{AssetId: chainset.AssetPCX, Home: chainset.IdChainX})
	XethResourceId = chainset.ResourceIdOf(&chainset.Currency{AssetId: chainset.AssetXETH, Home: chainset.IdETH})
)

func newTestLogger(name string) log15.Logger {
	tLog := log15.Root().New("chain", name)
	tLog.SetHandler(log15.LvlFilterHandler(TestLogLevel, log15.StdoutHandler))
	return tLog
}

func newTestConfig(name string, id msg.ChainId, endpoint string) *core.ChainConfig {
	return &core.ChainConfig{
		Name:     name,
		Id:       id,
		Endpoint: endpoint,
		Opts:     map[string]string{PollIntervalOpt: "10ms"},
	}
}

// chainxGenesis endows Alice with PCX and binds PCX and XETH on the ChainX side.
func chainxGenesis() *config.Genesis {
	return &config.Genesis{
		Registrars: []string{Root.Hex()},
		Admins:     []string{Root.Hex()},
		Whitelist:  []string{chainset.NameETH},
		Resources: []config.GenesisResource{
			{Asset: "PCX"},
			{ResourceId: "0x" + XethResourceId.Hex(), Asset: "XETH"},
		},
		Endowments: []config.Endowment{{Account: Alice.Hex(), Asset: "PCX", Amount: "1000u"}},
	}
}

func ethGenesis() *config.Genesis {
	return &config.Genesis{
		Whitelist: []string{chainset.NameChainX},
		Resources: []config.GenesisResource{
			{Asset: "PCX"},
			{Asset: "XETH"},
		},
	}
}

func newTestChain(t *testing.T, cfg *core.ChainConfig, gen *config.Genesis) *Chain {
	t.Helper()
	c, err := InitializeChain(cfg, gen, newTestLogger(cfg.Name), make(chan error, 1), nil, nil)
	require.NoError(t, err)
	return c
}

func freeBalance(t *testing.T, c *Chain, asset utils.AssetId, who utils.AccountId) utils.Balance {
	var b utils.Balance
	require.NoError(t, c.Store().View(func(txn store.Txn) (err error) {
		b, err = c.Ledger().FreeBalance(txn, asset, who)
		return
	}))
	return b
}

func issuance(t *testing.T, c *Chain, asset utils.AssetId) utils.Balance {
	var b utils.Balance
	require.NoError(t, c.Store().View(func(txn store.Txn) (err error) {
		b, err = c.Ledger().TotalIssuance(txn, asset)
		return
	}))
	return b
}
