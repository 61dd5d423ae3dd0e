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

// Package crypto implements the two authentication modes the protocol
// uses: ECDSA (secp256k1, over a SHA-256 digest) for replica-to-replica
// protocol messages, and HMAC-SHA256 for replica-to-client replies. A
// single HMAC key is shared across all replicas so that a client can
// verify a reply without per-replica key material; this is a deliberate
// simplification (it does not weaken agreement, but it does mean reply
// authenticity degrades to "signed by some replica" if any one replica
// is compromised).
package crypto

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/neclab/pbft-core/api"
	"github.com/neclab/pbft-core/messages"
)

// ErrInvalidPublic is returned when an ECDSA signature fails to verify.
var ErrInvalidPublic = errors.New("crypto: invalid public-key signature")

// ErrInvalidPrivate is returned when an HMAC tag fails to verify.
var ErrInvalidPrivate = errors.New("crypto: invalid private-key authentication tag")

// Digest is a SHA-256 digest of a canonically encoded request batch.
type Digest [32]byte

// DigestRequests computes the digest of a request batch per §4.1: SHA-256
// of the canonical (protobuf, deterministic) encoding of the batch.
func DigestRequests(requests []*messages.Request) Digest {
	return sha256.Sum256(messages.BatchPayload(requests))
}

// GenerateKey produces a fresh secp256k1 keypair for a replica.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return gethcrypto.GenerateKey()
}

// Signer holds one replica's ECDSA private key (for signing outgoing
// protocol messages) and the HMAC key shared by all replicas (for
// signing outgoing replies).
type Signer struct {
	id         uint32
	privateKey *ecdsa.PrivateKey
	hmacKey    []byte
}

// NewSigner builds a Signer for replica id, using privateKey for ECDSA
// signatures and hmacKey for HMAC tags.
func NewSigner(id uint32, privateKey *ecdsa.PrivateKey, hmacKey []byte) *Signer {
	return &Signer{id: id, privateKey: privateKey, hmacKey: hmacKey}
}

// SignPublic computes the ECDSA signature over the SHA-256 digest of m's
// canonical payload and attaches it to m.
func (s *Signer) SignPublic(m messages.Signable) {
	digest := sha256.Sum256(m.Payload())
	sig, err := gethcrypto.Sign(digest[:], s.privateKey)
	if err != nil {
		// A secp256k1 private key signing a 32-byte digest cannot fail;
		// treat a failure here as a fatal programmer error (§7.2).
		panic(fmt.Sprintf("crypto: sign_public: %v", err))
	}
	// Drop the recovery id: verification is keyed by replica index, not
	// by public-key recovery.
	m.AttachSignature(sig[:64])
}

// SignPrivate computes an HMAC-SHA256 tag over m's canonical payload and
// attaches it to m.
func (s *Signer) SignPrivate(m messages.Signable) {
	mac := hmac.New(sha256.New, s.hmacKey)
	mac.Write(m.Payload())
	m.AttachSignature(mac.Sum(nil))
}

// Verifier holds the replica index -> public key map used to verify
// ECDSA-signed protocol messages, and the HMAC key used to verify
// replies.
type Verifier struct {
	publicKeys map[uint32]*ecdsa.PublicKey
	hmacKey    []byte
}

// NewVerifier builds a Verifier that checks HMAC tags under hmacKey. It
// starts with no public keys: keys must be inserted via SetPublicKey
// before verification of messages signed by the corresponding replica.
func NewVerifier(hmacKey []byte) *Verifier {
	return &Verifier{publicKeys: make(map[uint32]*ecdsa.PublicKey), hmacKey: hmacKey}
}

// SetPublicKey installs the public key of replica id.
func (v *Verifier) SetPublicKey(id uint32, key *ecdsa.PublicKey) {
	v.publicKeys[id] = key
}

// VerifyPublic verifies an ECDSA-signed message against the key of
// purportedSigner. The signer identity must already have been recovered
// by the caller per the rule in §4.1: PrePrepare -> view_num mod N;
// Prepare/Commit -> replica_id field.
func (v *Verifier) VerifyPublic(m messages.Signable, purportedSigner uint32) error {
	key, ok := v.publicKeys[purportedSigner]
	if !ok {
		return ErrInvalidPublic
	}
	sig := m.SignatureBytes()
	if len(sig) != 64 {
		return ErrInvalidPublic
	}
	digest := sha256.Sum256(m.Payload())
	pubBytes := gethcrypto.FromECDSAPub(key)
	if !gethcrypto.VerifySignature(pubBytes, digest[:], sig) {
		return ErrInvalidPublic
	}
	return nil
}

// VerifyPrivate verifies an HMAC-tagged message (a Reply) under the
// shared key.
func (v *Verifier) VerifyPrivate(m messages.Signable) error {
	mac := hmac.New(sha256.New, v.hmacKey)
	mac.Write(m.Payload())
	expected := mac.Sum(nil)
	if !hmac.Equal(expected, m.SignatureBytes()) {
		return ErrInvalidPrivate
	}
	return nil
}

// SignerOf returns the identity a Prepare/Commit is purportedly signed
// by, per §4.1: its own replica_id field. n is not used. A PrePrepare
// carries no replica_id; its signer is recovered with PrePrepareSigner.
func SignerOf(m interface{ ReplicaID() uint32 }, n uint32) uint32 {
	return m.ReplicaID()
}

// PrePrepareSigner recovers the purported signer of a PrePrepare: the
// primary of the view it names.
func PrePrepareSigner(viewNum uint32, n uint32) uint32 {
	return viewNum % n
}

// Authenticator pairs a Signer and a Verifier behind api.Authenticator's
// role-based, raw-bytes tagging methods, for callers that want a single
// collaborator rather than the typed Signable-based Sign*/Verify* methods
// used elsewhere in this package.
type Authenticator struct {
	signer   *Signer
	verifier *Verifier
}

var _ api.Authenticator = (*Authenticator)(nil)

// NewAuthenticator builds an Authenticator backed by signer and verifier.
func NewAuthenticator(signer *Signer, verifier *Verifier) *Authenticator {
	return &Authenticator{signer: signer, verifier: verifier}
}

// GenerateMessageAuthenTag tags msg under role: ECDSA over its SHA-256
// digest for ReplicaAuthen, HMAC-SHA256 for ClientAuthen.
func (a *Authenticator) GenerateMessageAuthenTag(role api.AuthenticationRole, msg []byte) ([]byte, error) {
	switch role {
	case api.ReplicaAuthen:
		digest := sha256.Sum256(msg)
		sig, err := gethcrypto.Sign(digest[:], a.signer.privateKey)
		if err != nil {
			return nil, fmt.Errorf("crypto: generate_message_authen_tag: %w", err)
		}
		return sig[:64], nil
	case api.ClientAuthen:
		mac := hmac.New(sha256.New, a.signer.hmacKey)
		mac.Write(msg)
		return mac.Sum(nil), nil
	default:
		return nil, fmt.Errorf("crypto: unknown authentication role %v", role)
	}
}

// VerifyMessageAuthenTag verifies tag against msg under role, attributed
// to id. id is ignored for ClientAuthen: the HMAC key is shared across all
// replicas, so any replica's tag verifies the same way.
func (a *Authenticator) VerifyMessageAuthenTag(role api.AuthenticationRole, id uint32, msg []byte, tag []byte) error {
	switch role {
	case api.ReplicaAuthen:
		key, ok := a.verifier.publicKeys[id]
		if !ok {
			return ErrInvalidPublic
		}
		if len(tag) != 64 {
			return ErrInvalidPublic
		}
		digest := sha256.Sum256(msg)
		pubBytes := gethcrypto.FromECDSAPub(key)
		if !gethcrypto.VerifySignature(pubBytes, digest[:], tag) {
			return ErrInvalidPublic
		}
		return nil
	case api.ClientAuthen:
		mac := hmac.New(sha256.New, a.verifier.hmacKey)
		mac.Write(msg)
		if !hmac.Equal(mac.Sum(nil), tag) {
			return ErrInvalidPrivate
		}
		return nil
	default:
		return fmt.Errorf("crypto: unknown authentication role %v", role)
	}
}
