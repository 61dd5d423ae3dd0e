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

package config_test

import (
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"

	"github.com/neclab/pbft-core/config"
)

func valid() *config.Config {
	cfg := config.Default()
	cfg.N_ = 4
	cfg.F_ = 1
	cfg.ReplicaID_ = 0
	return cfg
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	require.NoError(t, valid().Validate())
}

func TestValidateRejectsNTooSmallForF(t *testing.T) {
	cfg := valid()
	cfg.N_ = 3 // needs >= 3*1+1 = 4
	err := cfg.Validate()
	require.Error(t, err)

	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	require.Len(t, merr.Errors, 1)
}

func TestValidateAggregatesMultipleViolations(t *testing.T) {
	cfg := valid()
	cfg.N_ = 1
	cfg.F_ = 1
	cfg.PrepareTimeout_ = -time.Second
	cfg.CommitTimeout_ = 0
	cfg.RetryTick_ = 0

	err := cfg.Validate()
	require.Error(t, err)
	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	require.GreaterOrEqual(t, len(merr.Errors), 4)
}

func TestValidateRejectsReplicaIDOutOfRange(t *testing.T) {
	cfg := valid()
	cfg.ReplicaID_ = 4
	require.Error(t, cfg.Validate())
}
