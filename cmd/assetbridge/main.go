// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

/*
Provides the command-line interface for the asset handler.
*/
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/ChainSafe/chainbridge-utils/core"
	"github.com/ChainSafe/chainbridge-utils/metrics/health"
	metrics "github.com/ChainSafe/chainbridge-utils/metrics/types"
	"github.com/ChainSafe/chainbridge-utils/msg"
	log "github.com/ChainSafe/log15"
	"github.com/chainx-org/AssetHandler/chains/substrate"
	"github.com/chainx-org/AssetHandler/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

var app = cli.NewApp()

var cliFlags = []cli.Flag{
	config.ConfigFileFlag,
	config.VerbosityFlag,
	config.BlockstorePathFlag,
	config.FreshStartFlag,
	config.MetricsFlag,
	config.MetricsPort,
}

var (
	Version = "0.1.0"
)

// init initializes CLI
func init() {
	app.Action = run
	app.Copyright = "Copyright 2021 ChainX Authors"
	app.Name = "assetbridge"
	app.Usage = "AssetBridge resource handler"
	app.Authors = []*cli.Author{{Name: "AssetBridge 2021"}}
	app.Version = Version
	app.EnableBashCompletion = true
	app.Commands = commands
	app.Flags = append(app.Flags, cliFlags...)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func startLogger(ctx *cli.Context) error {
	logger := log.Root()
	handler := logger.GetHandler()
	var lvl log.Lvl

	if lvlToInt, err := strconv.Atoi(ctx.String(config.VerbosityFlag.Name)); err == nil {
		lvl = log.Lvl(lvlToInt)
	} else if lvl, err = log.LvlFromString(ctx.String(config.VerbosityFlag.Name)); err != nil {
		return err
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, handler))

	return nil
}

func newChainConfig(ctx *cli.Context, chain *config.RawChainConfig) (*core.ChainConfig, error) {
	chainId, err := strconv.Atoi(chain.Id)
	if err != nil {
		return nil, err
	}
	if chainId < 0 || chainId > 255 {
		return nil, fmt.Errorf("chain id %d out of range", chainId)
	}
	return &core.ChainConfig{
		Name:           chain.Name,
		Id:             msg.ChainId(chainId),
		Endpoint:       chain.Endpoint,
		From:           chain.From,
		BlockstorePath: ctx.String(config.BlockstorePathFlag.Name),
		FreshStart:     ctx.Bool(config.FreshStartFlag.Name),
		Opts:           chain.Opts,
	}, nil
}

func run(ctx *cli.Context) error {
	err := startLogger(ctx)
	if err != nil {
		return err
	}

	log.Info("Starting AssetBridge...")

	cfg, err := config.GetConfig(ctx)
	if err != nil {
		return err
	}

	// Used to signal core shutdown due to fatal error
	sysErr := make(chan error)
	c := core.NewCore(sysErr)

	for _, chain := range cfg.Chains {
		chainConfig, err := newChainConfig(ctx, &chain)
		if err != nil {
			return err
		}
		var m *metrics.ChainMetrics
		var reg prometheus.Registerer

		logger := log.Root().New("chain", chainConfig.Name)

		if ctx.Bool(config.MetricsFlag.Name) {
			m = metrics.NewChainMetrics(chain.Name)
			reg = prometheus.DefaultRegisterer
		}

		if chain.Type != "substrate" {
			return errors.New("unrecognized Chain Type")
		}
		newChain, err := substrate.InitializeChain(chainConfig, chain.Genesis, logger, sysErr, m, reg)
		if err != nil {
			return err
		}
		c.AddChain(newChain)
	}

	// Start prometheus and health server
	if ctx.Bool(config.MetricsFlag.Name) {
		port := ctx.Int(config.MetricsPort.Name)
		blockTimeoutStr := os.Getenv(config.HealthBlockTimeout)
		blockTimeout := config.DefaultBlockTimeout
		if blockTimeoutStr != "" {
			blockTimeout, err = strconv.ParseInt(blockTimeoutStr, 10, 0)
			if err != nil {
				return err
			}
		}
		h := health.NewHealthServer(port, c.Registry, int(blockTimeout))

		go func() {
			http.Handle("/metrics", promhttp.Handler())
			http.HandleFunc("/health", h.HealthStatus)
			err := http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
			if errors.Is(err, http.ErrServerClosed) {
				log.Info("Health status server is shutting down", err)
			} else {
				log.Error("Error serving metrics", "err", err)
			}
		}()
	}

	c.Start()

	return nil
}
