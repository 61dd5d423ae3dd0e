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
	"encoding/binary"
	"fmt"

	proto "github.com/golang/protobuf/proto"

	"github.com/neclab/pbft-core/messages"
)

// kind tags which of the four protocol message types a frame carries.
// messages.ToReplica has no wire representation of its own (it's a Go
// oneof over already-generated proto types, the same shape as the
// teacher's WrapMessage/UnwrapMessage pair), so the codec supplies one
// tag byte in front of the proto.Marshal'd payload.
type kind byte

const (
	kindRequest kind = iota + 1
	kindPrePrepare
	kindPrepare
	kindCommit
)

// Encode serializes a ToReplica envelope as: 1 tag byte, 4-byte
// big-endian length, then the proto.Marshal'd inner message.
func Encode(msg messages.ToReplica) ([]byte, error) {
	var k kind
	var inner proto.Message
	switch {
	case msg.Request != nil:
		k, inner = kindRequest, msg.Request
	case msg.PrePrepare != nil:
		k, inner = kindPrePrepare, msg.PrePrepare
	case msg.Prepare != nil:
		k, inner = kindPrepare, msg.Prepare
	case msg.Commit != nil:
		k, inner = kindCommit, msg.Commit
	default:
		return nil, fmt.Errorf("transport: encode: empty ToReplica envelope")
	}

	body, err := proto.Marshal(inner)
	if err != nil {
		return nil, fmt.Errorf("transport: encode: %w", err)
	}

	out := make([]byte, 5+len(body))
	out[0] = byte(k)
	binary.BigEndian.PutUint32(out[1:5], uint32(len(body)))
	copy(out[5:], body)
	return out, nil
}

// EncodeReply serializes a Reply, the one message kind that never flows
// through ToReplica (replies go client-ward, not replica-ward).
func EncodeReply(reply *messages.Reply) ([]byte, error) {
	body, err := proto.Marshal(reply)
	if err != nil {
		return nil, fmt.Errorf("transport: encode reply: %w", err)
	}
	return body, nil
}

// DecodeReply is the inverse of EncodeReply.
func DecodeReply(frame []byte) (*messages.Reply, error) {
	reply := &messages.Reply{}
	if err := proto.Unmarshal(frame, reply); err != nil {
		return nil, fmt.Errorf("transport: decode reply: %w", err)
	}
	return reply, nil
}

// Decode is the inverse of Encode.
func Decode(frame []byte) (messages.ToReplica, error) {
	if len(frame) < 5 {
		return messages.ToReplica{}, fmt.Errorf("transport: decode: frame too short")
	}
	k := kind(frame[0])
	n := binary.BigEndian.Uint32(frame[1:5])
	if int(n) != len(frame)-5 {
		return messages.ToReplica{}, fmt.Errorf("transport: decode: length mismatch")
	}
	body := frame[5:]

	switch k {
	case kindRequest:
		m := &messages.Request{}
		if err := proto.Unmarshal(body, m); err != nil {
			return messages.ToReplica{}, fmt.Errorf("transport: decode request: %w", err)
		}
		return messages.WrapRequest(m), nil
	case kindPrePrepare:
		m := &messages.PrePrepare{}
		if err := proto.Unmarshal(body, m); err != nil {
			return messages.ToReplica{}, fmt.Errorf("transport: decode pre_prepare: %w", err)
		}
		return messages.WrapPrePrepare(m), nil
	case kindPrepare:
		m := &messages.Prepare{}
		if err := proto.Unmarshal(body, m); err != nil {
			return messages.ToReplica{}, fmt.Errorf("transport: decode prepare: %w", err)
		}
		return messages.WrapPrepare(m), nil
	case kindCommit:
		m := &messages.Commit{}
		if err := proto.Unmarshal(body, m); err != nil {
			return messages.ToReplica{}, fmt.Errorf("transport: decode commit: %w", err)
		}
		return messages.WrapCommit(m), nil
	default:
		return messages.ToReplica{}, fmt.Errorf("transport: decode: unknown kind %d", k)
	}
}
