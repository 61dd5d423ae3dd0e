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

// Package replica implements the three-phase agreement engine: one
// function per event kind, an explicit state struct, and an explicit
// outbound-directive enum (Egress), run from a single-threaded reduction
// loop the caller owns. There is no actor tower and no internal
// goroutine: every exported method on *Replica must be called from the
// same goroutine (§5).
package replica

import (
	"time"

	"github.com/neclab/pbft-core/api"
	"github.com/neclab/pbft-core/app"
	"github.com/neclab/pbft-core/crypto"
	"github.com/neclab/pbft-core/messages"
	"github.com/neclab/pbft-core/telemetry"
)

// Replica holds the full state of one PBFT replica: view, log position,
// per-slot certificates, and the collaborators (app adapter, signer,
// timer service, egress sinks) it drives them through.
type Replica struct {
	id uint32
	n  uint32
	f  uint32

	viewNum uint32
	opNum   uint64

	clientTable map[uint32]uint32 // client_id -> highest request_num accepted
	slots       map[uint64]*slot
	log         [][]*messages.Request
	execNum     uint64

	app    *app.Adapter
	signer *crypto.Signer
	timers api.TimerService

	prepareTimeout time.Duration
	commitTimeout  time.Duration

	egress  EgressFunc
	replyFn ReplyFunc

	log_ telemetry.Logger // named log_ to avoid colliding with the op log field
	mx   *telemetry.Metrics
}

// Config bundles the constructor arguments that aren't wiring
// collaborators, mirroring how api.Configer groups them.
type Config struct {
	ID             uint32
	N              uint32
	F              uint32
	PrepareTimeout time.Duration
	CommitTimeout  time.Duration
}

// New builds a Replica. It panics if the configuration violates the
// protocol's safety precondition N >= 3F+1 (§3) — this is a fatal
// programmer/deployment error, not a runtime condition to recover from.
func New(cfg Config, adapter *app.Adapter, signer *crypto.Signer, timers api.TimerService, egress EgressFunc, replyFn ReplyFunc, logger telemetry.Logger, metrics *telemetry.Metrics) *Replica {
	if cfg.N < 3*cfg.F+1 {
		panic("replica: N must be >= 3F+1")
	}
	if cfg.N < 2 {
		panic("replica: N must be >= 2")
	}
	if logger == nil {
		logger = telemetry.DiscardLogger{}
	}
	return &Replica{
		id:             cfg.ID,
		n:              cfg.N,
		f:              cfg.F,
		clientTable:    make(map[uint32]uint32),
		slots:          make(map[uint64]*slot),
		app:            adapter,
		signer:         signer,
		timers:         timers,
		prepareTimeout: cfg.PrepareTimeout,
		commitTimeout:  cfg.CommitTimeout,
		egress:         egress,
		replyFn:        replyFn,
		log_:           logger,
		mx:             metrics,
	}
}

// ID returns this replica's index.
func (r *Replica) ID() uint32 { return r.id }

// ViewNum returns the current view number.
func (r *Replica) ViewNum() uint32 { return r.viewNum }

// ExecNum returns the highest executed op_num (0 if none yet).
func (r *Replica) ExecNum() uint64 { return r.execNum }

// primaryID returns the primary of the current view, per §3: view_num mod N.
func (r *Replica) primaryID() uint32 { return r.viewNum % r.n }

// Handle dispatches an inbound replica-to-replica message to the matching
// handler, per §4.4.
func (r *Replica) Handle(msg messages.ToReplica) {
	switch {
	case msg.Request != nil:
		r.handleRequest(msg.Request)
	case msg.PrePrepare != nil:
		r.handlePrePrepare(msg.PrePrepare)
	case msg.Prepare != nil:
		r.handlePrepare(msg.Prepare)
	case msg.Commit != nil:
		r.handleCommit(msg.Commit)
	}
}

func (r *Replica) slotFor(opNum uint64) *slot {
	s, ok := r.slots[opNum]
	if !ok {
		s = newSlot()
		r.slots[opNum] = s
	}
	return s
}
