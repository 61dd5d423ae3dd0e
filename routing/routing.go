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

// Package routing maps replica and client identities to transport
// addresses, the way the original neat-core's route.rs ReplicaTable and
// ClientTable map indices to a SocketAddr. Identities here must stay
// index-consistent with crypto.Verifier's key map: replica id 3's address
// in a ReplicaTable and replica id 3's public key in a Verifier had
// better name the same physical replica (§6).
package routing

import (
	"fmt"

	"github.com/neclab/pbft-core/transport"
)

// ReplicaTable resolves a replica id to its transport address.
type ReplicaTable struct {
	addrs map[uint32]transport.Address
}

// NewReplicaTable builds a table from an id -> address map.
func NewReplicaTable(addrs map[uint32]transport.Address) *ReplicaTable {
	cp := make(map[uint32]transport.Address, len(addrs))
	for k, v := range addrs {
		cp[k] = v
	}
	return &ReplicaTable{addrs: cp}
}

// Address returns the address of replica id.
func (t *ReplicaTable) Address(id uint32) (transport.Address, error) {
	a, ok := t.addrs[id]
	if !ok {
		return "", fmt.Errorf("routing: no address for replica %d", id)
	}
	return a, nil
}

// N reports how many replicas the table knows about.
func (t *ReplicaTable) N() uint32 { return uint32(len(t.addrs)) }

// Each calls fn once per replica id in [0, N()) other than except, in
// ascending id order, for resolving a ToAll broadcast. Ids at or above
// N() (present only when the ids are not dense from 0) are not visited.
func (t *ReplicaTable) Each(except uint32, fn func(id uint32, addr transport.Address)) {
	for id := uint32(0); id < uint32(len(t.addrs)); id++ {
		if id == except {
			continue
		}
		if a, ok := t.addrs[id]; ok {
			fn(id, a)
		}
	}
}

// ClientTable resolves a client id to its transport address.
type ClientTable struct {
	addrs map[uint32]transport.Address
}

// NewClientTable builds a table from an id -> address map.
func NewClientTable(addrs map[uint32]transport.Address) *ClientTable {
	cp := make(map[uint32]transport.Address, len(addrs))
	for k, v := range addrs {
		cp[k] = v
	}
	return &ClientTable{addrs: cp}
}

// Address returns the address of client id.
func (t *ClientTable) Address(id uint32) (transport.Address, error) {
	a, ok := t.addrs[id]
	if !ok {
		return "", fmt.Errorf("routing: no address for client %d", id)
	}
	return a, nil
}
