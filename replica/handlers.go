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

package replica

import (
	"bytes"

	"github.com/neclab/pbft-core/app"
	"github.com/neclab/pbft-core/crypto"
	"github.com/neclab/pbft-core/messages"
)

// handleRequest implements §4.4 "on Request(r)": only the primary of the
// current view acts on a client request; the client table dedups against
// requests already accepted (not necessarily executed).
func (r *Replica) handleRequest(req *messages.Request) {
	if r.id != r.primaryID() {
		r.log_.Debugw("dropping request, not primary", "client_id", req.GetClientId())
		r.mx.MessageDropped("request", "not_primary")
		return
	}

	last, seen := r.clientTable[req.GetClientId()]
	switch {
	case seen && last > req.GetRequestNum():
		// Stale: older than what we've already accepted. Feed the adapter
		// a sentinel upcall so it can suppress the reply via its own
		// cache rather than via an out-of-band error path (§4.3).
		r.app.Execute(app.Upcall{
			ViewNum:    app.NoView,
			OpNum:      app.NoOp,
			ClientID:   req.GetClientId(),
			RequestNum: req.GetRequestNum(),
		})
		r.mx.MessageDropped("request", "stale")
		return
	case seen && last == req.GetRequestNum():
		// Duplicate of the request currently in flight (or already
		// executed): replay the cached reply without minting a new
		// op_num (§8 S2). A request still in flight has no cached reply
		// yet, so nothing is sent; its reply goes out when its slot
		// executes.
		for _, s := range r.slots {
			if s.executed {
				continue
			}
			for _, q := range s.requests {
				if q.GetClientId() == req.GetClientId() && q.GetRequestNum() == req.GetRequestNum() {
					return
				}
			}
		}
		if reply := r.app.Execute(app.Upcall{ClientID: req.GetClientId(), RequestNum: req.GetRequestNum()}); reply != nil {
			r.deliverReply(req.GetClientId(), reply)
		}
		return
	}

	r.clientTable[req.GetClientId()] = req.GetRequestNum()
	r.opNum++
	requests := []*messages.Request{req}
	digest := crypto.DigestRequests(requests)

	pp := &messages.PrePrepare{ViewNum: r.viewNum, OpNum: r.opNum, Digest: digest[:], Requests: requests}
	r.signer.SignPublic(pp)

	s := r.slotFor(r.opNum)
	s.prePrepare = pp
	s.requests = requests
	s.prePreparedAt = r.timers.Now()

	r.mx.MessageAccepted("request")
	r.sendPrePrepare(r.opNum)
	r.armPrepareTimer(r.opNum)
}

// handlePrePrepare implements §4.4 "on PrePrepare(pp)". A view named by an
// incoming PrePrepare higher than ours is adopted outright; full view
// change is out of scope (§4, Non-goals) so this is a one-way ratchet.
func (r *Replica) handlePrePrepare(pp *messages.PrePrepare) {
	if pp.GetViewNum() < r.viewNum {
		r.mx.MessageDropped("pre_prepare", "stale_view")
		return
	}
	if pp.GetViewNum() > r.viewNum {
		r.viewNum = pp.GetViewNum()
	}

	if existing, ok := r.slots[pp.GetOpNum()]; ok && existing.prePrepare != nil {
		// Already have a PrePrepare for this slot: the sender is late or
		// retransmitting. Reply with our own vote instead of re-accepting.
		r.sendPrepareTo(pp.GetOpNum(), r.primaryID())
		return
	}

	s := r.slotFor(pp.GetOpNum())
	s.prePrepare = pp
	s.requests = pp.GetRequests()
	s.prePreparedAt = r.timers.Now()
	s.pruneMismatched(pp.GetDigest())

	r.mx.MessageAccepted("pre_prepare")
	r.sendPrepare(pp.GetOpNum())
	r.armPrepareTimer(pp.GetOpNum())

	// Pruning may leave enough already-buffered Prepares (and, in turn,
	// Commits) standing to cross both thresholds right here, in the same
	// handler invocation that installed the PrePrepare (§8 S6).
	r.advanceFromPrepared(s, pp.GetOpNum())
}

// handlePrepare implements §4.4 "on Prepare(p)".
func (r *Replica) handlePrepare(p *messages.Prepare) {
	if p.GetViewNum() < r.viewNum {
		r.mx.MessageDropped("prepare", "stale_view")
		return
	}
	if p.GetViewNum() > r.viewNum {
		r.viewNum = p.GetViewNum()
	}

	if existing, ok := r.slots[p.GetOpNum()]; ok {
		if existing.prepared(r.n, r.f) {
			// Already quorum-prepared: this is a late or duplicate vote.
			// Answer the sender directly rather than recount it.
			r.sendPrepareTo(p.GetOpNum(), p.GetReplicaId())
			return
		}
		if existing.prePrepare != nil && !bytes.Equal(existing.prePrepare.GetDigest(), p.GetDigest()) {
			r.mx.MessageDropped("prepare", "digest_mismatch")
			return
		}
	}

	s := r.slotFor(p.GetOpNum())
	s.prepares[p.GetReplicaId()] = p
	r.mx.MessageAccepted("prepare")

	r.advanceFromPrepared(s, p.GetOpNum())
}

// advanceFromPrepared checks whether s just crossed the prepared
// threshold and, if so, sends Commit and checks whether that in turn
// already crosses the committed threshold too — both can happen in a
// single handler invocation when votes were buffered ahead of the
// PrePrepare that unblocks them (§8 S6).
func (r *Replica) advanceFromPrepared(s *slot, opNum uint64) {
	if !s.prepared(r.n, r.f) {
		return
	}
	s.preparedAt = r.timers.Now()
	r.mx.SlotTransition("prepared")
	r.mx.ObserveQuorumLatency("pre_prepare", "prepared", s.preparedAt.Sub(s.prePreparedAt))
	r.unsetPrepareTimer(s)
	r.sendCommit(opNum)
	r.armCommitTimer(opNum)
	r.advanceFromCommitted(s, opNum)
}

// advanceFromCommitted checks whether s just crossed the committed
// threshold and, if so, drives execution.
func (r *Replica) advanceFromCommitted(s *slot, opNum uint64) {
	if !s.committed(r.n, r.f) {
		return
	}
	r.mx.SlotTransition("committed")
	r.mx.ObserveQuorumLatency("prepared", "committed", r.timers.Now().Sub(s.preparedAt))
	r.unsetCommitTimer(s)
	r.execute()
}

// handleCommit implements §4.4 "on Commit(c)".
func (r *Replica) handleCommit(c *messages.Commit) {
	if c.GetViewNum() < r.viewNum {
		r.mx.MessageDropped("commit", "stale_view")
		return
	}
	if c.GetViewNum() > r.viewNum {
		r.viewNum = c.GetViewNum()
	}

	if existing, ok := r.slots[c.GetOpNum()]; ok {
		if existing.committed(r.n, r.f) {
			r.sendCommitTo(c.GetOpNum(), c.GetReplicaId())
			return
		}
		if existing.prePrepare != nil && !bytes.Equal(existing.prePrepare.GetDigest(), c.GetDigest()) {
			r.mx.MessageDropped("commit", "digest_mismatch")
			return
		}
	}

	s := r.slotFor(c.GetOpNum())
	s.commits[c.GetReplicaId()] = c
	r.mx.MessageAccepted("commit")

	r.advanceFromCommitted(s, c.GetOpNum())
}

func (r *Replica) deliverReply(clientID uint32, reply *messages.Reply) {
	r.signer.SignPrivate(reply)
	if r.replyFn != nil {
		r.replyFn(clientID, reply)
	}
}

func (r *Replica) sendPrePrepare(opNum uint64) {
	s := r.slots[opNum]
	r.egress(messages.ToAll(OutMessage{PrePrepare: s.prePrepare, Requests: s.requests}))
}

func (r *Replica) sendPrepare(opNum uint64) {
	s := r.slots[opNum]
	p := &messages.Prepare{ViewNum: r.viewNum, OpNum: opNum, Digest: s.prePrepare.GetDigest(), ReplicaId: r.id}
	r.signer.SignPublic(p)
	r.egress(messages.ToAll(OutMessage{Prepare: p}))
}

func (r *Replica) sendPrepareTo(opNum uint64, dest uint32) {
	s, ok := r.slots[opNum]
	if !ok || s.prePrepare == nil {
		return
	}
	p := &messages.Prepare{ViewNum: r.viewNum, OpNum: opNum, Digest: s.prePrepare.GetDigest(), ReplicaId: r.id}
	r.signer.SignPublic(p)
	r.egress(messages.ToOne(dest, OutMessage{Prepare: p}))
}

func (r *Replica) sendCommit(opNum uint64) {
	s := r.slots[opNum]
	c := &messages.Commit{ViewNum: r.viewNum, OpNum: opNum, Digest: s.prePrepare.GetDigest(), ReplicaId: r.id}
	r.signer.SignPublic(c)
	r.egress(messages.ToAll(OutMessage{Commit: c}))
}

func (r *Replica) sendCommitTo(opNum uint64, dest uint32) {
	s, ok := r.slots[opNum]
	if !ok || s.prePrepare == nil {
		return
	}
	c := &messages.Commit{ViewNum: r.viewNum, OpNum: opNum, Digest: s.prePrepare.GetDigest(), ReplicaId: r.id}
	r.signer.SignPublic(c)
	r.egress(messages.ToOne(dest, OutMessage{Commit: c}))
}
