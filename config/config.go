// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/ChainSafe/log15"
	"github.com/urfave/cli/v2"
)

const DefaultConfigPath = "./config.json"
const DefaultBlockstorePath = "./blockstore"
const DefaultBlockTimeout = int64(180) // 3 minutes

// HealthBlockTimeout is the env var overriding DefaultBlockTimeout.
const HealthBlockTimeout = "BLOCK_TIMEOUT"

type Config struct {
	Chains []RawChainConfig `json:"chains"`
}

// RawChainConfig is parsed directly from the config file and should be using to construct the core.ChainConfig
type RawChainConfig struct {
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Id       string            `json:"id"`       // ChainID
	Endpoint string            `json:"endpoint"` // state directory, empty for in-memory state
	From     string            `json:"from"`     // relayer account
	Opts     map[string]string `json:"opts"`
	Genesis  *Genesis          `json:"genesis"`
}

// Genesis is applied once, the first time a chain's state is opened.
type Genesis struct {
	Registrars   []string          `json:"registrars"`
	Admins       []string          `json:"admins"`
	Whitelist    []string          `json:"whitelist"`
	Resources    []GenesisResource `json:"resources"`
	Endowments   []Endowment       `json:"endowments"`
	StrictOrigin *bool             `json:"strictOrigin"`
}

type GenesisResource struct {
	ResourceId string `json:"resourceId"`
	Asset      string `json:"asset"`
}

type Endowment struct {
	Account string `json:"account"`
	Asset   string `json:"asset"`
	Amount  string `json:"amount"`
}

// Strict reports whether registrations are checked against the currency table, on unless disabled.
func (g *Genesis) Strict() bool {
	return g == nil || g.StrictOrigin == nil || *g.StrictOrigin
}

func (c *Config) validate() error {
	seen := make(map[string]bool)
	for _, chain := range c.Chains {
		if chain.Type == "" {
			return fmt.Errorf("required field chain.Type empty for chain %s", chain.Id)
		}
		if chain.Name == "" {
			return fmt.Errorf("required field chain.Name empty for chain %s", chain.Id)
		}
		if chain.Id == "" {
			return fmt.Errorf("required field chain.Id empty for chain %s", chain.Name)
		}
		if seen[chain.Id] {
			return fmt.Errorf("duplicate chain id %s", chain.Id)
		}
		seen[chain.Id] = true
	}
	return nil
}

func GetConfig(ctx *cli.Context) (*Config, error) {
	var fig Config
	path := DefaultConfigPath
	if file := ctx.String(ConfigFileFlag.Name); file != "" {
		path = file
	}
	err := loadConfig(path, &fig)
	if err != nil {
		log.Warn("err loading json file", "err", err.Error())
		return &fig, err
	}
	log.Debug("Loaded config", "path", path)
	err = fig.validate()
	if err != nil {
		return nil, err
	}
	return &fig, nil
}

// SelectChain returns the chain whose name or id equals nameOrId, or the only chain when nameOrId is empty.
func (c *Config) SelectChain(nameOrId string) (*RawChainConfig, error) {
	if nameOrId == "" {
		if len(c.Chains) == 1 {
			return &c.Chains[0], nil
		}
		return nil, fmt.Errorf("config has %d chains, select one with --%s", len(c.Chains), ChainFlag.Name)
	}
	for i := range c.Chains {
		if c.Chains[i].Name == nameOrId || c.Chains[i].Id == nameOrId {
			return &c.Chains[i], nil
		}
	}
	return nil, fmt.Errorf("chain %s not found in config", nameOrId)
}

func loadConfig(file string, config *Config) error {
	ext := filepath.Ext(file)
	fp, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	log.Debug("Loading configuration", "path", filepath.Clean(fp))

	f, err := os.Open(filepath.Clean(fp))
	if err != nil {
		return err
	}
	defer f.Close()

	if ext == ".json" {
		if err = json.NewDecoder(f).Decode(&config); err != nil {
			return err
		}
	} else {
		return fmt.Errorf("unrecognized extention: %s", ext)
	}

	return nil
}
