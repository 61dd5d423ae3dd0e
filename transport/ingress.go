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

package transport

import (
	"github.com/neclab/pbft-core/crypto"
	"github.com/neclab/pbft-core/messages"
	"github.com/neclab/pbft-core/telemetry"
)

// Ingress decodes and authenticates inbound frames before they ever
// reach the replica engine: a verification failure silently drops the
// message — it is equivalent to a lost packet. Client Requests carry no
// signature in this protocol (§4.1) and pass through unauthenticated;
// PrePrepare/Prepare/Commit are ECDSA verified against the purported
// signer recovered per §4.1's rule.
type Ingress struct {
	verifier *crypto.Verifier
	n        uint32
	logger   telemetry.Logger
	metrics  *telemetry.Metrics
}

// NewIngress builds an Ingress that verifies protocol messages against
// verifier, for a deployment of n replicas (needed to recover a
// PrePrepare's purported signer from its view_num).
func NewIngress(verifier *crypto.Verifier, n uint32, logger telemetry.Logger, metrics *telemetry.Metrics) *Ingress {
	if logger == nil {
		logger = telemetry.DiscardLogger{}
	}
	return &Ingress{verifier: verifier, n: n, logger: logger, metrics: metrics}
}

// Accept decodes frame and verifies its signature. The second return
// value is false when the frame was malformed or failed verification; the
// caller must treat that exactly like a lost packet, not an error.
func (in *Ingress) Accept(frame []byte) (messages.ToReplica, bool) {
	msg, err := Decode(frame)
	if err != nil {
		in.logger.Debugw("ingress: decode failed", "error", err)
		in.metrics.MessageDropped("unknown", "decode_error")
		return messages.ToReplica{}, false
	}

	switch {
	case msg.Request != nil:
		return msg, true
	case msg.PrePrepare != nil:
		signer := crypto.PrePrepareSigner(msg.PrePrepare.GetViewNum(), in.n)
		if err := in.verifier.VerifyPublic(msg.PrePrepare, signer); err != nil {
			in.logger.Debugw("ingress: pre_prepare failed verification", "purported_signer", signer)
			in.metrics.MessageDropped("pre_prepare", "bad_signature")
			return messages.ToReplica{}, false
		}
		return msg, true
	case msg.Prepare != nil:
		if err := in.verifier.VerifyPublic(msg.Prepare, msg.Prepare.GetReplicaId()); err != nil {
			in.logger.Debugw("ingress: prepare failed verification", "replica_id", msg.Prepare.GetReplicaId())
			in.metrics.MessageDropped("prepare", "bad_signature")
			return messages.ToReplica{}, false
		}
		return msg, true
	case msg.Commit != nil:
		if err := in.verifier.VerifyPublic(msg.Commit, msg.Commit.GetReplicaId()); err != nil {
			in.logger.Debugw("ingress: commit failed verification", "replica_id", msg.Commit.GetReplicaId())
			in.metrics.MessageDropped("commit", "bad_signature")
			return messages.ToReplica{}, false
		}
		return msg, true
	default:
		return messages.ToReplica{}, false
	}
}
