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

// Package app wraps a deterministic replicated state machine with the
// per-client "most recent reply" cache the replica engine drives through
// a single upcall, per §4.3 of the design.
package app

import (
	"math"

	"github.com/neclab/pbft-core/messages"
)

// App is the deterministic state machine the replica executes committed
// requests against. Execute must be a pure function of opNum and op given
// the prefix of operations already applied; the replica invokes it
// strictly in increasing opNum order (§4.3, §5).
type App interface {
	Execute(opNum uint64, op []byte) []byte
}

// Null is a no-op App useful in tests that only exercise the protocol,
// not application semantics.
type Null struct{}

// Execute always returns an empty result.
func (Null) Execute(uint64, []byte) []byte { return nil }

// Upcall carries everything the adapter needs to decide whether to
// execute, replay a cached reply, or suppress a stale request.
type Upcall struct {
	ViewNum    uint32
	OpNum      uint64
	ClientID   uint32
	RequestNum uint32
	Op         []byte
}

// NoView and NoOp are the sentinel values of §3 ("ViewNum ∈ N0; OpNum ∈
// N1, 0 is reserved for 'no slot'"): an Upcall built for a stale request
// carries these so Adapter.Execute can recognize and suppress it without
// an out-of-band error channel.
const (
	NoView = math.MaxUint32
	NoOp   = 0
)

// Adapter wraps an App and maintains the per-client most-recent-reply
// cache. It is owned exclusively by one replica and must only be driven
// from that replica's single-threaded reduction loop (§5).
type Adapter struct {
	replicaID uint32
	app       App
	replies   map[uint32]*messages.Reply
}

// NewAdapter builds an Adapter for replicaID wrapping app.
func NewAdapter(replicaID uint32, app App) *Adapter {
	return &Adapter{replicaID: replicaID, app: app, replies: make(map[uint32]*messages.Reply)}
}

// Execute implements the §4.3 algorithm:
//
//  1. If the cached reply for the client is newer than this request,
//     return nil (stale, suppress).
//  2. If it matches exactly, return the cached reply (idempotent resend).
//  3. Otherwise require ViewNum != NoView and OpNum != NoOp, execute the
//     operation, cache and return the fresh reply.
func (a *Adapter) Execute(u Upcall) *messages.Reply {
	if cached, ok := a.replies[u.ClientID]; ok {
		if cached.GetRequestNum() > u.RequestNum {
			return nil
		}
		if cached.GetRequestNum() == u.RequestNum {
			return cached
		}
	}
	if u.ViewNum == NoView || u.OpNum == NoOp {
		panic("app: execute upcall with sentinel view_num or op_num")
	}
	result := a.app.Execute(u.OpNum, u.Op)
	reply := &messages.Reply{
		RequestNum: u.RequestNum,
		Result:     result,
		ReplicaId:  a.replicaID,
		ViewNum:    u.ViewNum,
	}
	a.replies[u.ClientID] = reply
	return reply
}
