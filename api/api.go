// Copyright (c) 2018 NEC Laboratories Europe GmbH.
//
// Authors: Wenting Li <wenting.li@neclab.eu>
//          Sergey Fedorov <sergey.fedorov@neclab.eu>
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

package api

import (
	"fmt"
	"time"
)

//======= Interface for module 'config' =======

// Configer defines the interface to obtain the protocol parameters from
// the configuration.
type Configer interface {
	// ReplicaID is this replica's index in [0, N).
	ReplicaID() uint32
	// N is the number of replicas in the network.
	N() uint32
	// F is the number of Byzantine replicas the network can tolerate.
	// N must satisfy N >= 3*F+1.
	F() uint32

	// PrepareTimeout starts when a slot has a PrePrepare but has not yet
	// reached the prepared state, and fires a Prepare resend.
	PrepareTimeout() time.Duration
	// CommitTimeout starts when a slot enters the prepared state, and
	// fires a Commit resend.
	CommitTimeout() time.Duration

	// RetryTick is the period of the client's retry ticker.
	RetryTick() time.Duration
	// MaxRetries bounds the number of request retransmissions a client
	// will attempt before reporting the operation as timed out.
	MaxRetries() uint32
}

//======= Interface for module 'authentication' ========

// AuthenticationRole defines the authentication roles. Unlike the
// tamper-proof-hardware design this package is adapted from, there is no
// USIG role here: replica-to-replica protocol messages are authenticated
// with plain ECDSA, and replica-to-client replies with a shared HMAC key
// (see crypto.Signer).
type AuthenticationRole int

const (
	// ReplicaAuthen specifies ECDSA authentication of replica-to-replica
	// protocol messages (PrePrepare, Prepare, Commit).
	ReplicaAuthen AuthenticationRole = 1 + iota

	// ClientAuthen specifies HMAC authentication of replica-to-client
	// replies under a key shared across all replicas.
	ClientAuthen
)

func (r AuthenticationRole) String() string {
	switch r {
	case ReplicaAuthen:
		return "replica"
	case ClientAuthen:
		return "client"
	}
	return fmt.Sprintf("AuthenticationRole(%d)", r)
}

// Authenticator manages the identities of the replicas and clients and
// provides an interface to authenticate message senders and to generate
// authentication tags for outgoing messages. Methods of this interface
// may be invoked from spawned goroutines (e.g. an upstream verification
// worker pool, per §5 of the design).
type Authenticator interface {
	// VerifyMessageAuthenTag verifies authenticity of a message, given an
	// authentication tag, the id of the replica/client that purportedly
	// signed the message, and the role used to generate the tag.
	VerifyMessageAuthenTag(role AuthenticationRole, id uint32, msg []byte, tag []byte) error

	// GenerateMessageAuthenTag generates an authentication tag for the
	// message using the credentials selected by the given role.
	GenerateMessageAuthenTag(role AuthenticationRole, msg []byte) ([]byte, error)
}

//======= Interface for module 'timer' =======

// TimerID identifies a previously armed timer.
type TimerID uint64

// TimerService arms, cancels, and resets deadline-driven events. Fires are
// delivered back to the caller as ordinary engine events; the service
// itself carries no protocol knowledge.
type TimerService interface {
	// Set arms a timer for the given event and returns its id.
	Set(event interface{}, d time.Duration) TimerID
	// Unset cancels a previously armed timer. A service that cannot
	// cancel synchronously must still guarantee that the engine can
	// treat any fire that arrives after Unset as a no-op (see §5).
	Unset(id TimerID)
	// Reset rearms a timer with a fresh deadline; equivalent to
	// Unset+Set but may be implemented more efficiently.
	Reset(id TimerID, d time.Duration)
	// Now returns the service's current time, so callers can measure
	// elapsed time against the same clock Set/Reset schedule against
	// (real wall-clock time in production, a fake clock in tests).
	Now() time.Time
}
