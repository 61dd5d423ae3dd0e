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
	"time"

	"github.com/neclab/pbft-core/api"
	"github.com/neclab/pbft-core/messages"
)

// slot holds the certificate under construction for one op_num: a
// PrePrepare plus the requests it certifies, and the Prepare/Commit votes
// collected so far. States, per §4.4: Empty -> HavePrePrepare -> Prepared
// -> Committed -> Executed. A slot is created lazily on the first message
// naming its op_num, so a slot with a nil prePrepare can already hold
// buffered (not yet countable) Prepares/Commits, per §8 scenario S6.
type slot struct {
	prePrepare *messages.PrePrepare
	requests   []*messages.Request

	prepares map[uint32]*messages.Prepare
	commits  map[uint32]*messages.Commit

	hasPrepareTimer bool
	prepareTimer    api.TimerID
	hasCommitTimer  bool
	commitTimer     api.TimerID

	// prePreparedAt/preparedAt mark when this slot installed its
	// PrePrepare and crossed the prepared threshold, so the latency
	// between consecutive transitions can be reported (Metrics.
	// ObserveQuorumLatency). Zero until the corresponding transition
	// happens.
	prePreparedAt time.Time
	preparedAt    time.Time

	executed bool
}

func newSlot() *slot {
	return &slot{
		prepares: make(map[uint32]*messages.Prepare),
		commits:  make(map[uint32]*messages.Commit),
	}
}

// prepared reports whether the slot has a PrePrepare and has collected
// enough matching Prepares. The "+1" accounts for the implicit self vote:
// the presence of the (self-originated-or-adopted) PrePrepare already
// counts as this replica's own prepare (§3, §9 "self-vote implicit in
// quorum counting" — callers must never also insert a self entry into
// prepares, or the count doubles).
func (s *slot) prepared(n, f uint32) bool {
	if s.prePrepare == nil {
		return false
	}
	return uint32(len(s.prepares))+1 >= n-f
}

// committed reports whether the slot is prepared and has collected enough
// matching Commits, with the same implicit self-vote accounting as
// prepared.
func (s *slot) committed(n, f uint32) bool {
	if !s.prepared(n, f) {
		return false
	}
	return uint32(len(s.commits))+1 >= n-f
}

// pruneMismatched drops any buffered Prepare/Commit whose digest
// disagrees with the slot's installed PrePrepare. Called when a
// PrePrepare is (re)installed for a slot that already had buffered votes
// (§4.4 "on PrePrepare", §8 S6).
func (s *slot) pruneMismatched(digest []byte) {
	for id, p := range s.prepares {
		if string(p.GetDigest()) != string(digest) {
			delete(s.prepares, id)
		}
	}
	for id, c := range s.commits {
		if string(c.GetDigest()) != string(digest) {
			delete(s.commits, id)
		}
	}
}
