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

package transport

import (
	"context"
	"sync"
)

// DropFunc decides whether a send from one endpoint to another should be
// dropped, letting tests exercise the "possibly lossy" clause of the
// transport contract deterministically.
type DropFunc func(from, to Address) bool

// Hub wires a fixed set of named endpoints together in-process, for the
// scenario tests that need a real Transport without real sockets.
type Hub struct {
	mu     sync.Mutex
	inbox  map[Address]chan Envelope
	drop   DropFunc
}

// NewHub builds an empty Hub. Call Endpoint for each participant before
// any Send.
func NewHub(drop DropFunc) *Hub {
	if drop == nil {
		drop = func(Address, Address) bool { return false }
	}
	return &Hub{inbox: make(map[Address]chan Envelope), drop: drop}
}

// Endpoint registers addr and returns a Transport bound to it. Inbound
// buffers up to 256 envelopes before Send blocks, matching the bound a
// real best-effort transport would impose rather than growing unbounded.
func (h *Hub) Endpoint(addr Address) Transport {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.inbox[addr]
	if !ok {
		ch = make(chan Envelope, 256)
		h.inbox[addr] = ch
	}
	return &loopbackEndpoint{hub: h, self: addr}
}

type loopbackEndpoint struct {
	hub  *Hub
	self Address
}

func (e *loopbackEndpoint) Send(ctx context.Context, addr Address, payload []byte) error {
	if e.hub.drop(e.self, addr) {
		return nil
	}
	e.hub.mu.Lock()
	ch, ok := e.hub.inbox[addr]
	e.hub.mu.Unlock()
	if !ok {
		return nil // unknown destination: best-effort, silently dropped
	}
	select {
	case ch <- Envelope{From: e.self, Payload: payload}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *loopbackEndpoint) Inbound() <-chan Envelope {
	e.hub.mu.Lock()
	defer e.hub.mu.Unlock()
	return e.hub.inbox[e.self]
}

func (e *loopbackEndpoint) Close() error { return nil }

var _ Transport = (*loopbackEndpoint)(nil)
