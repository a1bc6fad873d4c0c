// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

/*
The chainset package holds the static knowledge shared by every chain: known chain ids, the
currency table, and the layout of bridge resource ids.
*/
package chainset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ChainSafe/chainbridge-utils/msg"
)

// GetChainInfo resolves a chain by name. Names may carry a suffix, "chainx_dev" resolves to chainx.
func GetChainInfo(name string) (*ChainInfo, bool) {
	prefix := GetChainPrefix(name)
	for i := range ChainSets {
		if ChainSets[i].Name == prefix {
			cs := ChainSets[i]
			return &cs, true
		}
	}
	return nil, false
}

func GetChainInfoById(id msg.ChainId) (*ChainInfo, bool) {
	for i := range ChainSets {
		if ChainSets[i].Id == id {
			cs := ChainSets[i]
			return &cs, true
		}
	}
	return nil, false
}

// GetChainPrefix returns the longest known chain name that prefixes name.
func GetChainPrefix(name string) string {
	best := NameUnimplemented
	for _, cs := range ChainSets {
		if strings.HasPrefix(strings.ToLower(name), cs.Name) && (best == NameUnimplemented || len(cs.Name) > len(best)) {
			best = cs.Name
		}
	}
	return best
}

// ParseChainId accepts a decimal chain id or a known chain name.
func ParseChainId(s string) (msg.ChainId, error) {
	if id, err := strconv.ParseUint(s, 10, 8); err == nil {
		return msg.ChainId(id), nil
	}
	if cs, ok := GetChainInfo(s); ok {
		return cs.Id, nil
	}
	return 0, fmt.Errorf("unknown chain %q", s)
}

// ChainName renders an id with its known name when there is one.
func ChainName(id msg.ChainId) string {
	if cs, ok := GetChainInfoById(id); ok {
		return cs.Name
	}
	return strconv.Itoa(int(id))
}
