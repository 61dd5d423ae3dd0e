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

// Package transport defines the contract the replica/client engines
// expect from a message transport: outbound send is best-effort and may
// be lossy or reorder across destinations (FIFO per destination is not
// required); inbound delivery
// is a stream of (remote address, bytes) the edge is responsible for
// deserializing and verifying before the engine ever sees it. Real
// UDP/TCP/TLS/QUIC transports are out of scope; only the interface and an
// in-process loopback fake for tests are implemented here.
package transport

import "context"

// Address identifies a transport endpoint. routing.ReplicaTable and
// routing.ClientTable both resolve ids to an Address.
type Address string

// Envelope is one inbound delivery: the sender's address and the raw
// bytes it sent.
type Envelope struct {
	From    Address
	Payload []byte
}

// Transport is the network edge a replica or client is wired to.
type Transport interface {
	// Send delivers payload to addr. It is best-effort: a Transport may
	// silently drop or reorder sends. It may block while the destination
	// cannot take the payload, and returns ctx.Err() once ctx is done.
	Send(ctx context.Context, addr Address, payload []byte) error

	// Inbound is the stream of envelopes arriving at this endpoint.
	Inbound() <-chan Envelope

	// Close releases any resources held by the transport.
	Close() error
}
