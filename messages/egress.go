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

package messages

// Egress is the outbound directive the replica and client engines emit.
// The transport edge resolves ToOne's replica id to an address and, for
// ToAll, excludes the sender's own id.
type Egress[M any] struct {
	message  M
	dest     uint32
	toAll    bool
	isToOne  bool
}

// ToOne addresses a message to a single replica.
func ToOne[M any](dest uint32, message M) Egress[M] {
	return Egress[M]{message: message, dest: dest, isToOne: true}
}

// ToAll broadcasts a message to every replica (other than the sender,
// which the transport edge excludes).
func ToAll[M any](message M) Egress[M] {
	return Egress[M]{message: message, toAll: true}
}

// Message returns the egress payload.
func (e Egress[M]) Message() M {
	return e.message
}

// Dest returns the destination replica id and true if this is a ToOne
// directive.
func (e Egress[M]) Dest() (uint32, bool) {
	return e.dest, e.isToOne
}

// IsToAll reports whether this is a broadcast directive.
func (e Egress[M]) IsToAll() bool {
	return e.toAll
}
