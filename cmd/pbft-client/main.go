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

// Command pbft-client wires a client engine to a TOML/flag configuration
// and an in-process loopback transport, broadcasting one Invoke and
// printing the Outcome. Like pbft-replica, real network transports are
// out of scope; this exercises the same wiring a production deployment
// would use with a real Transport substituted in.
package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/raulk/clock"

	"github.com/neclab/pbft-core/client"
	"github.com/neclab/pbft-core/config"
	"github.com/neclab/pbft-core/crypto"
	"github.com/neclab/pbft-core/messages"
	"github.com/neclab/pbft-core/routing"
	"github.com/neclab/pbft-core/telemetry"
	"github.com/neclab/pbft-core/timer"
	"github.com/neclab/pbft-core/transport"
)

func main() {
	fs := pflag.NewFlagSet("pbft-client", pflag.ExitOnError)
	cfgPath := fs.String("config", "", "path to a TOML config file")
	clientID := fs.Uint32("client-id", 0, "this client's id")
	op := fs.String("op", "", "operation payload to invoke")
	fs.Parse(os.Args[1:])

	v := viper.New()
	config.BindFlags(fs, v)
	if *cfgPath != "" {
		v.SetConfigFile(*cfgPath)
		if err := v.ReadInConfig(); err != nil {
			zap.S().Fatalw("reading config file", "error", err)
		}
	}
	cfg := config.FromViper(v)
	if err := cfg.Validate(); err != nil {
		zap.S().Fatalw("invalid configuration", "error", err)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	logger := telemetry.NewZapLogger(zapLogger)
	metrics := telemetry.NewMetrics(prometheus.NewRegistry())

	hmacKey := []byte("demo-shared-hmac-key-replace-me")
	verifier := crypto.NewVerifier(hmacKey)

	hub := transport.NewHub(nil)
	addrs := make(map[uint32]transport.Address, cfg.N())
	for i := uint32(0); i < cfg.N(); i++ {
		addrs[i] = transport.Address("replica-client-demo")
	}
	table := routing.NewReplicaTable(addrs)
	self := hub.Endpoint(transport.Address("client-demo"))
	timers := timer.New(clock.New())

	done := make(chan client.Outcome, 1)
	c := client.New(*clientID, cfg.F(), cfg.MaxRetries(), cfg.RetryTick(), timers, verifier,
		func(req *messages.Request) {
			frame, err := transport.Encode(messages.WrapRequest(req))
			if err != nil {
				logger.Warnw("encoding request", "error", err)
				return
			}
			table.Each(cfg.N(), func(id uint32, addr transport.Address) {
				if err := self.Send(context.Background(), addr, frame); err != nil {
					logger.Warnw("sending request", "replica_id", id, "error", err)
				}
			})
		},
		func(outcome client.Outcome) { done <- outcome },
		logger, metrics,
	)

	if err := c.Invoke([]byte(*op)); err != nil {
		zap.S().Fatalw("invoke failed", "error", err)
	}

	for {
		select {
		case env := <-self.Inbound():
			reply, err := transport.DecodeReply(env.Payload)
			if err != nil {
				logger.Debugw("discarding malformed reply", "error", err)
				continue
			}
			c.OnReply(reply)
		case ev := <-timers.Events:
			c.HandleTimeoutEvent(ev)
		case outcome := <-done:
			if outcome.Err != nil {
				zap.S().Fatalw("request failed", "error", outcome.Err)
			}
			logger.Infow("request completed", "result", string(outcome.Result))
			return
		}
	}
}
