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

package config

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// BindFlags registers the config option set on fs and binds it into v, so
// a cmd entrypoint can layer "flag > environment > TOML file > Default"
// precedence the way viper/pflag deployments conventionally do.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) {
	fs.Uint32("replica-id", 0, "this replica's index")
	fs.Uint32("n", 0, "total number of replicas")
	fs.Uint32("f", 0, "maximum tolerated faulty replicas")
	fs.Duration("prepare-timeout", 2*time.Second, "prepare phase timeout")
	fs.Duration("commit-timeout", 2*time.Second, "commit phase timeout")
	fs.Duration("retry-tick", 500*time.Millisecond, "client retry tick interval")
	fs.Uint32("max-retries", 5, "client request retry budget")

	v.BindPFlag("replica_id", fs.Lookup("replica-id"))
	v.BindPFlag("n", fs.Lookup("n"))
	v.BindPFlag("f", fs.Lookup("f"))
	v.BindPFlag("prepare_timeout", fs.Lookup("prepare-timeout"))
	v.BindPFlag("commit_timeout", fs.Lookup("commit-timeout"))
	v.BindPFlag("retry_tick", fs.Lookup("retry-tick"))
	v.BindPFlag("max_retries", fs.Lookup("max-retries"))

	v.SetEnvPrefix("pbft")
	v.AutomaticEnv()
}

// FromViper builds a Config from a Viper instance populated by BindFlags
// (and, optionally, a TOML file merged in via v.ReadInConfig).
func FromViper(v *viper.Viper) *Config {
	return &Config{
		ReplicaID_:      v.GetUint32("replica_id"),
		N_:              v.GetUint32("n"),
		F_:              v.GetUint32("f"),
		PrepareTimeout_: v.GetDuration("prepare_timeout"),
		CommitTimeout_:  v.GetDuration("commit_timeout"),
		RetryTick_:      v.GetDuration("retry_tick"),
		MaxRetries_:     v.GetUint32("max_retries"),
	}
}
