// Copyright 2024 M. Baramia
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads and validates the simulator configuration.
package config

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/MBaramia/Diss/fixed"
	"github.com/MBaramia/Diss/pipeline"
)

// Config is the root configuration for a bsim run.
type Config struct {
	Watchdog WatchdogConfig  `yaml:"watchdog"`
	Log      LogConfig       `yaml:"log"`
	Requests []RequestConfig `yaml:"requests"`
}

// WatchdogConfig holds the liveness tick budgets.
type WatchdogConfig struct {
	D1D2Bound int `yaml:"d1d2_bound"`
	TopBound  int `yaml:"top_bound"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// RequestConfig holds one pricing request. Scalars are decimal strings
// converted to Q16.16 during validation.
type RequestConfig struct {
	Spot       string `yaml:"spot"`
	Strike     string `yaml:"strike"`
	Time       string `yaml:"time"`
	Volatility string `yaml:"volatility"`
	Rate       string `yaml:"rate"`
	Type       string `yaml:"type"` // call or put
}

// Request converts rc to a pipeline request with a fresh correlation id.
func (rc RequestConfig) Request() (pipeline.Request, error) {
	req := pipeline.Request{ID: uuid.New(), Put: rc.Type == "put"}
	var err error
	if req.Spot, err = fixed.Parse(rc.Spot); err != nil {
		return pipeline.Request{}, errors.Wrap(err, "spot")
	}
	if req.Strike, err = fixed.Parse(rc.Strike); err != nil {
		return pipeline.Request{}, errors.Wrap(err, "strike")
	}
	if req.Time, err = fixed.Parse(rc.Time); err != nil {
		return pipeline.Request{}, errors.Wrap(err, "time")
	}
	if req.Vol, err = fixed.Parse(rc.Volatility); err != nil {
		return pipeline.Request{}, errors.Wrap(err, "volatility")
	}
	if req.Rate, err = fixed.Parse(rc.Rate); err != nil {
		return pipeline.Request{}, errors.Wrap(err, "rate")
	}
	return req, nil
}

func (c *Config) applyDefaults() {
	if c.Watchdog.D1D2Bound == 0 {
		c.Watchdog.D1D2Bound = pipeline.DefaultWatchdogBound
	}
	if c.Watchdog.TopBound == 0 {
		c.Watchdog.TopBound = pipeline.DefaultTopBound
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	for i := range c.Requests {
		if c.Requests[i].Type == "" {
			c.Requests[i].Type = "call"
		}
	}
}

// Validate checks bounds and request scalars.
func (c *Config) Validate() error {
	if c.Watchdog.D1D2Bound < 0 || c.Watchdog.TopBound < 0 {
		return errors.New("watchdog bounds must be positive")
	}
	for i, rc := range c.Requests {
		if rc.Type != "call" && rc.Type != "put" {
			return errors.Errorf("request %d: unknown option type %q", i, rc.Type)
		}
		if _, err := rc.Request(); err != nil {
			return errors.Wrapf(err, "request %d", i)
		}
	}
	return nil
}
