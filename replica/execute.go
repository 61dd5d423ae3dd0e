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

import "github.com/neclab/pbft-core/app"

// execute drains every consecutively-committed slot starting right after
// the last executed op_num, in strict op_num order, per §4.4/§5
// ("executions occur in strictly increasing op_num with no gaps"). It is
// called every time a slot newly reaches committed, and is a no-op past
// the first gap.
func (r *Replica) execute() {
	for {
		next := r.execNum + 1
		s, ok := r.slots[next]
		if !ok || !s.committed(r.n, r.f) || s.executed {
			return
		}

		r.log = append(r.log, s.requests)
		for _, req := range s.requests {
			reply := r.app.Execute(app.Upcall{
				ViewNum:    r.viewNum,
				OpNum:      next,
				ClientID:   req.GetClientId(),
				RequestNum: req.GetRequestNum(),
				Op:         req.GetOp(),
			})
			if reply != nil {
				r.deliverReply(req.GetClientId(), reply)
			}
		}

		s.executed = true
		r.execNum = next
		r.mx.SlotTransition("executed")
		r.log_.Debugw("executed slot", "op_num", next)
	}
}
