// Copyright (c) 2018 NEC Laboratories Europe GmbH.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads and validates the replica/client deployment
// configuration: `replica_id, n, f, prepare_timeout, commit_timeout,
// retry_tick, max_retries`. TOML is the on-disk format
// (github.com/BurntSushi/toml),
// with flag/environment overrides bound through viper/pflag in the cmd
// entrypoints; Validate aggregates every violation with go-multierror
// instead of failing fast on the first one, so a misconfigured deployment
// is reported completely in one pass.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"

	"github.com/neclab/pbft-core/api"
)

// Config implements api.Configer.
type Config struct {
	ReplicaID_     uint32        `toml:"replica_id"`
	N_             uint32        `toml:"n"`
	F_             uint32        `toml:"f"`
	PrepareTimeout_ time.Duration `toml:"prepare_timeout"`
	CommitTimeout_ time.Duration `toml:"commit_timeout"`
	RetryTick_     time.Duration `toml:"retry_tick"`
	MaxRetries_    uint32        `toml:"max_retries"`
}

var _ api.Configer = (*Config)(nil)

func (c *Config) ReplicaID() uint32             { return c.ReplicaID_ }
func (c *Config) N() uint32                     { return c.N_ }
func (c *Config) F() uint32                     { return c.F_ }
func (c *Config) PrepareTimeout() time.Duration { return c.PrepareTimeout_ }
func (c *Config) CommitTimeout() time.Duration  { return c.CommitTimeout_ }
func (c *Config) RetryTick() time.Duration      { return c.RetryTick_ }
func (c *Config) MaxRetries() uint32            { return c.MaxRetries_ }

// Default returns a Config with a conservative timeout/retry policy,
// before any file or flag overrides are applied.
func Default() *Config {
	return &Config{
		PrepareTimeout_: 2 * time.Second,
		CommitTimeout_:  2 * time.Second,
		RetryTick_:      500 * time.Millisecond,
		MaxRetries_:     5,
	}
}

// Load reads and parses a TOML file at path into a fresh Config seeded
// from Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the invariants §3/§6 require of a deployment:
// N >= 3F+1, N >= 2, and every duration strictly positive. All violations
// are returned together via go-multierror rather than one at a time.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.N_ < 3*c.F_+1 {
		result = multierror.Append(result, fmt.Errorf("config: n=%d must be >= 3f+1 (f=%d)", c.N_, c.F_))
	}
	if c.N_ < 2 {
		result = multierror.Append(result, fmt.Errorf("config: n=%d must be >= 2", c.N_))
	}
	if c.ReplicaID_ >= c.N_ {
		result = multierror.Append(result, fmt.Errorf("config: replica_id=%d must be < n=%d", c.ReplicaID_, c.N_))
	}
	if c.PrepareTimeout_ <= 0 {
		result = multierror.Append(result, fmt.Errorf("config: prepare_timeout must be positive, got %s", c.PrepareTimeout_))
	}
	if c.CommitTimeout_ <= 0 {
		result = multierror.Append(result, fmt.Errorf("config: commit_timeout must be positive, got %s", c.CommitTimeout_))
	}
	if c.RetryTick_ <= 0 {
		result = multierror.Append(result, fmt.Errorf("config: retry_tick must be positive, got %s", c.RetryTick_))
	}
	return result.ErrorOrNil()
}
