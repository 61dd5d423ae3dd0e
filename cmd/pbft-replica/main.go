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

// Command pbft-replica wires one replica's engine to a TOML/flag
// configuration and an in-process loopback transport, mirroring the
// spirit of the original neat/pbft/src/main.rs without importing any of
// its actor/effect combinator tower: this is plain construction and a
// blocking receive loop.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/raulk/clock"

	"github.com/neclab/pbft-core/app"
	"github.com/neclab/pbft-core/config"
	"github.com/neclab/pbft-core/crypto"
	"github.com/neclab/pbft-core/messages"
	"github.com/neclab/pbft-core/replica"
	"github.com/neclab/pbft-core/routing"
	"github.com/neclab/pbft-core/telemetry"
	"github.com/neclab/pbft-core/timer"
	"github.com/neclab/pbft-core/transport"
)

func main() {
	fs := pflag.NewFlagSet("pbft-replica", pflag.ExitOnError)
	cfgPath := fs.String("config", "", "path to a TOML config file")
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
	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	key, err := crypto.GenerateKey()
	if err != nil {
		zap.S().Fatalw("generating replica key", "error", err)
	}
	// A real deployment distributes public keys out of band and loads
	// the shared HMAC key from a secret store; the demo entrypoint only
	// exercises the wiring, so both are placeholders.
	hmacKey := []byte("demo-shared-hmac-key-replace-me")
	signer := crypto.NewSigner(cfg.ReplicaID(), key, hmacKey)
	verifier := crypto.NewVerifier(hmacKey)

	adapter := app.NewAdapter(cfg.ReplicaID(), app.Null{})
	timers := timer.New(clock.New())

	// A loopback hub stands in for a real network. It lives inside this
	// process and only this replica's own endpoint is registered on it, so
	// sends addressed to other replicas are dropped by the hub as unknown
	// destinations. A production deployment would swap this Transport
	// implementation for one carrying real sockets without touching
	// replica or client.
	hub := transport.NewHub(nil)
	addrs := make(map[uint32]transport.Address, cfg.N())
	for i := uint32(0); i < cfg.N(); i++ {
		addrs[i] = transport.Address(replicaAddr(i))
	}
	table := routing.NewReplicaTable(addrs)
	self := hub.Endpoint(transport.Address(replicaAddr(cfg.ReplicaID())))
	ingress := transport.NewIngress(verifier, cfg.N(), logger, metrics)

	egress := func(eg replica.Egress) {
		frame, err := encodeOutMessage(eg.Message())
		if err != nil {
			logger.Warnw("encoding egress message", "error", err)
			return
		}
		if dest, isToOne := eg.Dest(); isToOne {
			sendTo(self, table, dest, frame, logger)
			return
		}
		table.Each(cfg.ReplicaID(), func(id uint32, addr transport.Address) {
			sendTo(self, table, id, frame, logger)
		})
	}

	engine := replica.New(
		replica.Config{
			ID:             cfg.ReplicaID(),
			N:              cfg.N(),
			F:              cfg.F(),
			PrepareTimeout: cfg.PrepareTimeout(),
			CommitTimeout:  cfg.CommitTimeout(),
		},
		adapter,
		signer,
		timers,
		egress,
		func(clientID uint32, reply *messages.Reply) {
			// A real deployment resolves clientID via a routing.ClientTable
			// and sends the reply over the same Transport as replica
			// messages; out of scope for this demo entrypoint.
			logger.Debugw("reply ready", "client_id", clientID)
		},
		logger,
		metrics,
	)

	logger.Infow("replica constructed", "id", cfg.ReplicaID(), "n", cfg.N(), "f", cfg.F())

	for {
		select {
		case env := <-self.Inbound():
			if msg, ok := ingress.Accept(env.Payload); ok {
				engine.Handle(msg)
			}
		case ev := <-timers.Events:
			if to, ok := ev.(replica.TimeoutEvent); ok {
				engine.HandleTimeout(to)
			}
		}
	}
}

func replicaAddr(id uint32) string {
	return "replica-" + string(rune('0'+id))
}

func sendTo(self transport.Transport, table *routing.ReplicaTable, id uint32, frame []byte, logger telemetry.Logger) {
	addr, err := table.Address(id)
	if err != nil {
		logger.Warnw("unknown replica address", "id", id)
		return
	}
	if err := self.Send(context.Background(), addr, frame); err != nil {
		logger.Warnw("sending to replica", "id", id, "error", err)
	}
}

func encodeOutMessage(m replica.OutMessage) ([]byte, error) {
	switch {
	case m.PrePrepare != nil:
		return transport.Encode(messages.WrapPrePrepare(m.PrePrepare))
	case m.Prepare != nil:
		return transport.Encode(messages.WrapPrepare(m.Prepare))
	case m.Commit != nil:
		return transport.Encode(messages.WrapCommit(m.Commit))
	default:
		return nil, errEmptyOutMessage
	}
}

var errEmptyOutMessage = errors.New("cmd/pbft-replica: empty OutMessage")
