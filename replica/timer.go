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

// timeoutKind distinguishes the two timers a slot can carry.
type timeoutKind int

const (
	prepareTimeout timeoutKind = iota
	commitTimeout
)

// TimeoutEvent is what a Replica arms on its api.TimerService and expects
// back on the timer service's event channel. It is tagged with the view
// and op_num it was armed under so a fire that outlived its relevance
// (the slot advanced, or the view moved on) is recognized and dropped
// rather than acted on (§5 "spurious fire tolerance").
type TimeoutEvent struct {
	Kind    timeoutKind
	ViewNum uint32
	OpNum   uint64
}

// HandleTimeout implements the Prepare/Commit timer fire policy of §4.4:
// on a Prepare timeout, the primary resends its PrePrepare and a backup
// resends its Prepare vote; on a Commit timeout, the replica resends its
// Commit vote. Either way the timer is re-armed. A fire for a slot that
// has already advanced past the phase it was armed for, or that named a
// view we've since left, is a no-op — the timer service can race a fire
// against a cancel, and the consumer is the side that absorbs it (§5).
func (r *Replica) HandleTimeout(ev TimeoutEvent) {
	if ev.ViewNum != r.viewNum {
		return
	}
	s, ok := r.slots[ev.OpNum]
	if !ok {
		return
	}

	switch ev.Kind {
	case prepareTimeout:
		if s.prepared(r.n, r.f) {
			return
		}
		r.log_.Debugw("prepare timeout, resending", "op_num", ev.OpNum)
		if r.id == r.primaryID() {
			r.sendPrePrepare(ev.OpNum)
		} else {
			r.sendPrepare(ev.OpNum)
		}
		r.armPrepareTimer(ev.OpNum)
	case commitTimeout:
		if s.committed(r.n, r.f) {
			return
		}
		r.log_.Debugw("commit timeout, resending", "op_num", ev.OpNum)
		r.sendCommit(ev.OpNum)
		r.armCommitTimer(ev.OpNum)
	}
}

func (r *Replica) armPrepareTimer(opNum uint64) {
	s := r.slots[opNum]
	id := r.timers.Set(TimeoutEvent{Kind: prepareTimeout, ViewNum: r.viewNum, OpNum: opNum}, r.prepareTimeout)
	s.hasPrepareTimer = true
	s.prepareTimer = id
}

func (r *Replica) unsetPrepareTimer(s *slot) {
	if !s.hasPrepareTimer {
		return
	}
	r.timers.Unset(s.prepareTimer)
	s.hasPrepareTimer = false
}

func (r *Replica) armCommitTimer(opNum uint64) {
	s := r.slots[opNum]
	id := r.timers.Set(TimeoutEvent{Kind: commitTimeout, ViewNum: r.viewNum, OpNum: opNum}, r.commitTimeout)
	s.hasCommitTimer = true
	s.commitTimer = id
}

func (r *Replica) unsetCommitTimer(s *slot) {
	if !s.hasCommitTimer {
		return
	}
	r.timers.Unset(s.commitTimer)
	s.hasCommitTimer = false
}
