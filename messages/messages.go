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

package messages

import (
	proto "github.com/golang/protobuf/proto"
)

// ClientMessage represents any message generated by a client.
type ClientMessage interface {
	ClientID() uint32
}

// ReplicaMessage represents a message that carries the id of the replica
// that sent it (Prepare, Commit).
//
// ReplicaID returns the id of the replica the message is signed by.
// PrePrepare does not implement it: its signer is recovered from the view
// number, not carried explicitly on the wire (see crypto.PrePrepareSigner).
type ReplicaMessage interface {
	ReplicaID() uint32
}

// Signable represents any message with a detachable signature.
//
// Payload returns the serialized message data, excluding the signature
// field, i.e. exactly the bytes that were/are signed.
//
// SignatureBytes returns the signature currently attached to the message.
//
// AttachSignature attaches a signature to the message.
type Signable interface {
	Payload() []byte
	SignatureBytes() []byte
	AttachSignature(signature []byte)
}

var (
	_ ClientMessage  = (*Request)(nil)
	_ Signable       = (*Reply)(nil)
	_ Signable       = (*PrePrepare)(nil)
	_ ReplicaMessage = (*Prepare)(nil)
	_ Signable       = (*Prepare)(nil)
	_ ReplicaMessage = (*Commit)(nil)
	_ Signable       = (*Commit)(nil)
)

// ClientID returns the id of the client that created the request.
func (m *Request) ClientID() uint32 {
	return m.GetClientId()
}

// Payload returns the serialized Reply, excluding the signature.
func (m *Reply) Payload() []byte {
	clone := *m
	clone.Signature = nil
	mBytes, err := proto.Marshal(&clone)
	if err != nil {
		panic(err)
	}
	return mBytes
}

// SignatureBytes returns the HMAC tag attached to the reply.
func (m *Reply) SignatureBytes() []byte {
	return m.GetSignature()
}

// AttachSignature attaches an HMAC tag to the reply.
func (m *Reply) AttachSignature(signature []byte) {
	m.Signature = signature
}

// Payload returns the serialized PrePrepare, excluding the signature and
// the carried requests (the digest already commits to the requests; the
// signature covers view_num, op_num and digest only).
func (m *PrePrepare) Payload() []byte {
	clone := &PrePrepare{ViewNum: m.ViewNum, OpNum: m.OpNum, Digest: m.Digest}
	mBytes, err := proto.Marshal(clone)
	if err != nil {
		panic(err)
	}
	return mBytes
}

// SignatureBytes returns the ECDSA signature attached to the PrePrepare.
func (m *PrePrepare) SignatureBytes() []byte {
	return m.GetSignature()
}

// AttachSignature attaches an ECDSA signature to the PrePrepare.
func (m *PrePrepare) AttachSignature(signature []byte) {
	m.Signature = signature
}

// ReplicaID returns the id of the replica that sent the Prepare.
func (m *Prepare) ReplicaID() uint32 {
	return m.GetReplicaId()
}

// Payload returns the serialized Prepare, excluding the signature.
func (m *Prepare) Payload() []byte {
	clone := *m
	clone.Signature = nil
	mBytes, err := proto.Marshal(&clone)
	if err != nil {
		panic(err)
	}
	return mBytes
}

// SignatureBytes returns the ECDSA signature attached to the Prepare.
func (m *Prepare) SignatureBytes() []byte {
	return m.GetSignature()
}

// AttachSignature attaches an ECDSA signature to the Prepare.
func (m *Prepare) AttachSignature(signature []byte) {
	m.Signature = signature
}

// ReplicaID returns the id of the replica that sent the Commit.
func (m *Commit) ReplicaID() uint32 {
	return m.GetReplicaId()
}

// Payload returns the serialized Commit, excluding the signature.
func (m *Commit) Payload() []byte {
	clone := *m
	clone.Signature = nil
	mBytes, err := proto.Marshal(&clone)
	if err != nil {
		panic(err)
	}
	return mBytes
}

// SignatureBytes returns the ECDSA signature attached to the Commit.
func (m *Commit) SignatureBytes() []byte {
	return m.GetSignature()
}

// AttachSignature attaches an ECDSA signature to the Commit.
func (m *Commit) AttachSignature(signature []byte) {
	m.Signature = signature
}

// BatchPayload returns the canonical encoding of a request batch, used by
// crypto.DigestRequests to compute the batch digest a PrePrepare commits
// to.
func BatchPayload(requests []*Request) []byte {
	holder := &PrePrepare{Requests: requests}
	mBytes, err := proto.Marshal(holder)
	if err != nil {
		panic(err)
	}
	return mBytes
}

// ToReplica is the inbound stream a replica consumes: a client Request, a
// primary's PrePrepare (carrying the batch it certifies), or a peer's
// Prepare/Commit vote. Exactly one field is set.
type ToReplica struct {
	Request    *Request
	PrePrepare *PrePrepare
	Prepare    *Prepare
	Commit     *Commit
}

// WrapRequest, WrapPrePrepare, WrapPrepare and WrapCommit build a
// ToReplica envelope around a concrete inbound message.
func WrapRequest(m *Request) ToReplica       { return ToReplica{Request: m} }
func WrapPrePrepare(m *PrePrepare) ToReplica { return ToReplica{PrePrepare: m} }
func WrapPrepare(m *Prepare) ToReplica       { return ToReplica{Prepare: m} }
func WrapCommit(m *Commit) ToReplica         { return ToReplica{Commit: m} }
