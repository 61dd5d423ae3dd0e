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

package transport_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neclab/pbft-core/messages"
	"github.com/neclab/pbft-core/transport"
)

func TestEncodeDecodeRoundTripsRequest(t *testing.T) {
	req := &messages.Request{ClientId: 1, RequestNum: 2, Op: []byte("set x=1")}
	frame, err := transport.Encode(messages.WrapRequest(req))
	require.NoError(t, err)

	decoded, err := transport.Decode(frame)
	require.NoError(t, err)
	require.NotNil(t, decoded.Request)
	require.Equal(t, req.GetClientId(), decoded.Request.GetClientId())
	require.Equal(t, req.GetOp(), decoded.Request.GetOp())
}

func TestEncodeDecodeRoundTripsPrePrepare(t *testing.T) {
	pp := &messages.PrePrepare{
		ViewNum: 1, OpNum: 2, Digest: []byte("digest"),
		Requests: []*messages.Request{{ClientId: 1, RequestNum: 1, Op: []byte("x")}},
		Signature: []byte("sig"),
	}
	frame, err := transport.Encode(messages.WrapPrePrepare(pp))
	require.NoError(t, err)

	decoded, err := transport.Decode(frame)
	require.NoError(t, err)
	require.NotNil(t, decoded.PrePrepare)
	require.Equal(t, pp.GetOpNum(), decoded.PrePrepare.GetOpNum())
	require.Len(t, decoded.PrePrepare.GetRequests(), 1)
}

func TestDecodeRejectsTruncatedFrame(t *testing.T) {
	_, err := transport.Decode([]byte{1, 2})
	require.Error(t, err)
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	frame := []byte{99, 0, 0, 0, 0}
	_, err := transport.Decode(frame)
	require.Error(t, err)
}

func TestEncodeDecodeReplyRoundTrips(t *testing.T) {
	reply := &messages.Reply{RequestNum: 1, Result: []byte("ok"), ReplicaId: 2, ViewNum: 3, Signature: []byte("sig")}
	frame, err := transport.EncodeReply(reply)
	require.NoError(t, err)

	decoded, err := transport.DecodeReply(frame)
	require.NoError(t, err)
	require.Equal(t, reply.GetResult(), decoded.GetResult())
	require.Equal(t, reply.GetReplicaId(), decoded.GetReplicaId())
}
