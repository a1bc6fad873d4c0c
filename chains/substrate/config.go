// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package substrate

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ChainSafe/chainbridge-utils/core"
	"github.com/ChainSafe/chainbridge-utils/msg"
)

// Chain specific options
var (
	PollIntervalOpt = "pollInterval"
	BatchSizeOpt    = "batchSize"
	StartNonceOpt   = "startNonce"
)

const (
	DefaultPollInterval = time.Second
	DefaultBatchSize    = 50
)

func parsePollInterval(cfg *core.ChainConfig) (time.Duration, error) {
	if v, ok := cfg.Opts[PollIntervalOpt]; ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("unable to parse %s: %w", PollIntervalOpt, err)
		}
		if d <= 0 {
			return 0, fmt.Errorf("%s must be positive", PollIntervalOpt)
		}
		return d, nil
	}
	return DefaultPollInterval, nil
}

func parseBatchSize(cfg *core.ChainConfig) (int, error) {
	if v, ok := cfg.Opts[BatchSizeOpt]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("unable to parse %s: %q", BatchSizeOpt, v)
		}
		return n, nil
	}
	return DefaultBatchSize, nil
}

// parseStartNonce is the first outbound deposit nonce relayed to any destination.
func parseStartNonce(cfg *core.ChainConfig) (msg.Nonce, error) {
	if v, ok := cfg.Opts[StartNonceOpt]; ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("unable to parse %s: %w", StartNonceOpt, err)
		}
		return msg.Nonce(n), nil
	}
	return 1, nil
}
