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

package messages_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neclab/pbft-core/messages"
)

func TestReplyPayloadExcludesSignature(t *testing.T) {
	r := &messages.Reply{RequestNum: 1, Result: []byte("ok"), ReplicaId: 2, ViewNum: 3}
	before := r.Payload()

	r.AttachSignature([]byte("sig"))
	after := r.Payload()

	require.Equal(t, before, after, "payload must exclude the signature field")
	require.Equal(t, []byte("sig"), r.SignatureBytes())
}

func TestPrePreparePayloadExcludesRequestsAndSignature(t *testing.T) {
	pp := &messages.PrePrepare{ViewNum: 1, OpNum: 2, Digest: []byte("d")}
	withoutRequests := pp.Payload()

	pp.Requests = []*messages.Request{{ClientId: 1, RequestNum: 1, Op: []byte("x")}}
	pp.AttachSignature([]byte("sig"))
	withRequestsAndSig := pp.Payload()

	require.Equal(t, withoutRequests, withRequestsAndSig)
}

func TestBatchPayloadDiffersByContent(t *testing.T) {
	a := messages.BatchPayload([]*messages.Request{{ClientId: 1, RequestNum: 1, Op: []byte("x")}})
	b := messages.BatchPayload([]*messages.Request{{ClientId: 1, RequestNum: 2, Op: []byte("x")}})
	require.NotEqual(t, a, b)
}

func TestWrapHelpersSetExactlyOneField(t *testing.T) {
	req := &messages.Request{ClientId: 1}
	wrapped := messages.WrapRequest(req)
	require.Same(t, req, wrapped.Request)
	require.Nil(t, wrapped.PrePrepare)
	require.Nil(t, wrapped.Prepare)
	require.Nil(t, wrapped.Commit)
}
