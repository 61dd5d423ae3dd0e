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

// Package messages holds the protocol's wire types. These are maintained
// by hand in the legacy github.com/golang/protobuf struct-tag style
// (Reset/String/ProtoMessage plus `protobuf:"..."` tags) rather than run
// through protoc, so that proto.Marshal's deterministic mode gives the
// canonical encoding the crypto package signs over without pulling in a
// build-time codegen step. See messages.proto for the schema these
// mirror.
package messages

import (
	fmt "fmt"

	proto "github.com/golang/protobuf/proto"
)

type Request struct {
	ClientId             uint32   `protobuf:"varint,1,opt,name=client_id,json=clientId,proto3" json:"client_id,omitempty"`
	RequestNum           uint32   `protobuf:"varint,2,opt,name=request_num,json=requestNum,proto3" json:"request_num,omitempty"`
	Op                   []byte   `protobuf:"bytes,3,opt,name=op,proto3" json:"op,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *Request) Reset()         { *m = Request{} }
func (m *Request) String() string { return fmt.Sprintf("%+v", *m) }
func (*Request) ProtoMessage()    {}

func (m *Request) GetClientId() uint32 {
	if m != nil {
		return m.ClientId
	}
	return 0
}

func (m *Request) GetRequestNum() uint32 {
	if m != nil {
		return m.RequestNum
	}
	return 0
}

func (m *Request) GetOp() []byte {
	if m != nil {
		return m.Op
	}
	return nil
}

type Reply struct {
	RequestNum           uint32   `protobuf:"varint,1,opt,name=request_num,json=requestNum,proto3" json:"request_num,omitempty"`
	Result               []byte   `protobuf:"bytes,2,opt,name=result,proto3" json:"result,omitempty"`
	ReplicaId            uint32   `protobuf:"varint,3,opt,name=replica_id,json=replicaId,proto3" json:"replica_id,omitempty"`
	ViewNum              uint32   `protobuf:"varint,4,opt,name=view_num,json=viewNum,proto3" json:"view_num,omitempty"`
	Signature            []byte   `protobuf:"bytes,5,opt,name=signature,proto3" json:"signature,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *Reply) Reset()         { *m = Reply{} }
func (m *Reply) String() string { return fmt.Sprintf("%+v", *m) }
func (*Reply) ProtoMessage()    {}

func (m *Reply) GetRequestNum() uint32 {
	if m != nil {
		return m.RequestNum
	}
	return 0
}

func (m *Reply) GetResult() []byte {
	if m != nil {
		return m.Result
	}
	return nil
}

func (m *Reply) GetReplicaId() uint32 {
	if m != nil {
		return m.ReplicaId
	}
	return 0
}

func (m *Reply) GetViewNum() uint32 {
	if m != nil {
		return m.ViewNum
	}
	return 0
}

func (m *Reply) GetSignature() []byte {
	if m != nil {
		return m.Signature
	}
	return nil
}

type PrePrepare struct {
	ViewNum              uint32     `protobuf:"varint,1,opt,name=view_num,json=viewNum,proto3" json:"view_num,omitempty"`
	OpNum                uint64     `protobuf:"varint,2,opt,name=op_num,json=opNum,proto3" json:"op_num,omitempty"`
	Digest               []byte     `protobuf:"bytes,3,opt,name=digest,proto3" json:"digest,omitempty"`
	Requests             []*Request `protobuf:"bytes,4,rep,name=requests,proto3" json:"requests,omitempty"`
	Signature            []byte     `protobuf:"bytes,5,opt,name=signature,proto3" json:"signature,omitempty"`
	XXX_NoUnkeyedLiteral struct{}   `json:"-"`
	XXX_unrecognized     []byte     `json:"-"`
	XXX_sizecache        int32      `json:"-"`
}

func (m *PrePrepare) Reset()         { *m = PrePrepare{} }
func (m *PrePrepare) String() string { return fmt.Sprintf("%+v", *m) }
func (*PrePrepare) ProtoMessage()    {}

func (m *PrePrepare) GetViewNum() uint32 {
	if m != nil {
		return m.ViewNum
	}
	return 0
}

func (m *PrePrepare) GetOpNum() uint64 {
	if m != nil {
		return m.OpNum
	}
	return 0
}

func (m *PrePrepare) GetDigest() []byte {
	if m != nil {
		return m.Digest
	}
	return nil
}

func (m *PrePrepare) GetRequests() []*Request {
	if m != nil {
		return m.Requests
	}
	return nil
}

func (m *PrePrepare) GetSignature() []byte {
	if m != nil {
		return m.Signature
	}
	return nil
}

type Prepare struct {
	ViewNum              uint32   `protobuf:"varint,1,opt,name=view_num,json=viewNum,proto3" json:"view_num,omitempty"`
	OpNum                uint64   `protobuf:"varint,2,opt,name=op_num,json=opNum,proto3" json:"op_num,omitempty"`
	Digest               []byte   `protobuf:"bytes,3,opt,name=digest,proto3" json:"digest,omitempty"`
	ReplicaId            uint32   `protobuf:"varint,4,opt,name=replica_id,json=replicaId,proto3" json:"replica_id,omitempty"`
	Signature            []byte   `protobuf:"bytes,5,opt,name=signature,proto3" json:"signature,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *Prepare) Reset()         { *m = Prepare{} }
func (m *Prepare) String() string { return fmt.Sprintf("%+v", *m) }
func (*Prepare) ProtoMessage()    {}

func (m *Prepare) GetViewNum() uint32 {
	if m != nil {
		return m.ViewNum
	}
	return 0
}

func (m *Prepare) GetOpNum() uint64 {
	if m != nil {
		return m.OpNum
	}
	return 0
}

func (m *Prepare) GetDigest() []byte {
	if m != nil {
		return m.Digest
	}
	return nil
}

func (m *Prepare) GetReplicaId() uint32 {
	if m != nil {
		return m.ReplicaId
	}
	return 0
}

func (m *Prepare) GetSignature() []byte {
	if m != nil {
		return m.Signature
	}
	return nil
}

type Commit struct {
	ViewNum              uint32   `protobuf:"varint,1,opt,name=view_num,json=viewNum,proto3" json:"view_num,omitempty"`
	OpNum                uint64   `protobuf:"varint,2,opt,name=op_num,json=opNum,proto3" json:"op_num,omitempty"`
	Digest               []byte   `protobuf:"bytes,3,opt,name=digest,proto3" json:"digest,omitempty"`
	ReplicaId            uint32   `protobuf:"varint,4,opt,name=replica_id,json=replicaId,proto3" json:"replica_id,omitempty"`
	Signature            []byte   `protobuf:"bytes,5,opt,name=signature,proto3" json:"signature,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *Commit) Reset()         { *m = Commit{} }
func (m *Commit) String() string { return fmt.Sprintf("%+v", *m) }
func (*Commit) ProtoMessage()    {}

func (m *Commit) GetViewNum() uint32 {
	if m != nil {
		return m.ViewNum
	}
	return 0
}

func (m *Commit) GetOpNum() uint64 {
	if m != nil {
		return m.OpNum
	}
	return 0
}

func (m *Commit) GetDigest() []byte {
	if m != nil {
		return m.Digest
	}
	return nil
}

func (m *Commit) GetReplicaId() uint32 {
	if m != nil {
		return m.ReplicaId
	}
	return 0
}

func (m *Commit) GetSignature() []byte {
	if m != nil {
		return m.Signature
	}
	return nil
}

func init() {
	proto.RegisterType((*Request)(nil), "messages.Request")
	proto.RegisterType((*Reply)(nil), "messages.Reply")
	proto.RegisterType((*PrePrepare)(nil), "messages.PrePrepare")
	proto.RegisterType((*Prepare)(nil), "messages.Prepare")
	proto.RegisterType((*Commit)(nil), "messages.Commit")
}
