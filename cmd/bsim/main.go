// Copyright 2024 M. Baramia
// Licensed under the MIT license. See license text in the LICENSE file.

// Command bsim runs Black-Scholes pricing requests through the
// tick-synchronous Q16.16 pipeline and prints the results.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/MBaramia/Diss/internal/config"
	"github.com/MBaramia/Diss/pipeline"
	"github.com/MBaramia/Diss/sim"
)

func main() {
	cfgPath := flag.String("config", "bsim.yml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.LoadAndValidate(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	top := pipeline.NewTop(pipeline.TopConfig{
		D1D2: pipeline.D1D2Config{
			WatchdogBound: cfg.Watchdog.D1D2Bound,
			Logger:        logger,
		},
		WatchdogBound: cfg.Watchdog.TopBound,
		Logger:        logger,
	})
	runner, err := sim.New(top)
	if err != nil {
		logger.Fatal("build runner", zap.Error(err))
	}

	for i, rc := range cfg.Requests {
		req, err := rc.Request()
		if err != nil {
			logger.Fatal("bad request", zap.Int("index", i), zap.Error(err))
		}
		start := runner.Ticks()
		top.Start(req)
		if err := runner.RunUntil(func() bool { return top.Done }, cfg.Watchdog.TopBound+16); err != nil {
			logger.Fatal("pipeline stalled", zap.Stringer("id", req.ID), zap.Error(err))
		}
		fmt.Printf("%s  %s  price=%s  outcome=%s  ticks=%d\n",
			req.ID, rc.Type, top.Price, top.Outcome, runner.Ticks()-start)
	}
}

func buildLogger(lc config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if lc.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	lvl, err := zap.ParseAtomicLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = lvl
	return zcfg.Build()
}
