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

import "github.com/neclab/pbft-core/messages"

// OutMessage is the oneof a replica ever sends to another replica: a
// PrePrepare (carrying the batch it certifies), a Prepare, or a Commit.
// Exactly one field is set.
type OutMessage struct {
	PrePrepare *messages.PrePrepare
	Requests   []*messages.Request
	Prepare    *messages.Prepare
	Commit     *messages.Commit
}

// Egress is the directive type the replica engine emits; the transport
// edge resolves ToOne's destination and, for ToAll, excludes the sender.
type Egress = messages.Egress[OutMessage]

// EgressFunc is invoked once per outbound directive, in the order the
// handler that produced it issued them (§5 "Ordering guarantees").
type EgressFunc func(Egress)

// ReplyFunc delivers a reply to a specific client. It is distinct from
// EgressFunc because replies never go to other replicas.
type ReplyFunc func(clientID uint32, reply *messages.Reply)
