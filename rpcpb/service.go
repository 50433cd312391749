package rpcpb

import (
	"context"

	"google.golang.org/grpc"
)

// The two service descriptors below stand in for protoc-generated
// *_grpc.pb.go output. The teacher generates raftypb's ServiceDesc
// with protoc-gen-go-grpc (raftypb.go); doing that by hand for this
// module's three RPCs is a direct, mechanical translation of the same
// shape grpc-go expects, without requiring the protoc toolchain.

const (
	metaServiceName = "repcore.MetaService"
	peerServiceName = "repcore.PeerService"
)

// MetaServer is implemented by the meta-service side of
// CM_UPDATE_PARTITION_CONFIGURATION.
type MetaServer interface {
	UpdatePartitionConfiguration(context.Context, *ConfigurationUpdateRequest) (*ConfigurationUpdateResponse, error)
}

// PeerServer is implemented by the replica side of the two one-way
// peer RPCs.
type PeerServer interface {
	LearnAddLearner(context.Context, *GroupCheckRequest) (*Ack, error)
	RemoveReplica(context.Context, *ReplicaConfiguration) (*Ack, error)
}

func metaUpdateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ConfigurationUpdateRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MetaServer).UpdatePartitionConfiguration(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: metaServiceName + "/UpdatePartitionConfiguration"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MetaServer).UpdatePartitionConfiguration(ctx, req.(*ConfigurationUpdateRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func peerLearnAddLearnerHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(GroupCheckRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PeerServer).LearnAddLearner(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: peerServiceName + "/LearnAddLearner"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PeerServer).LearnAddLearner(ctx, req.(*GroupCheckRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func peerRemoveReplicaHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ReplicaConfiguration)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PeerServer).RemoveReplica(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: peerServiceName + "/RemoveReplica"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PeerServer).RemoveReplica(ctx, req.(*ReplicaConfiguration))
	}
	return interceptor(ctx, req, info, handler)
}

// MetaServiceDesc is registered by the meta-service side; production
// code under this module only dials it (see transport.go), but it is
// exported so a fake meta service can be stood up in tests.
var MetaServiceDesc = grpc.ServiceDesc{
	ServiceName: metaServiceName,
	HandlerType: (*MetaServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "UpdatePartitionConfiguration", Handler: metaUpdateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "repcore/rpcpb/service.proto",
}

// PeerServiceDesc is registered by every replica process so peers can
// reach it for the two one-way group-membership RPCs.
var PeerServiceDesc = grpc.ServiceDesc{
	ServiceName: peerServiceName,
	HandlerType: (*PeerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "LearnAddLearner", Handler: peerLearnAddLearnerHandler},
		{MethodName: "RemoveReplica", Handler: peerRemoveReplicaHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "repcore/rpcpb/service.proto",
}

// MetaClient is a thin typed wrapper over grpc.ClientConnInterface for
// the meta service, mirroring the Client type protoc-gen-go-grpc would
// emit.
type MetaClient struct {
	cc grpc.ClientConnInterface
}

func NewMetaClient(cc grpc.ClientConnInterface) *MetaClient {
	return &MetaClient{cc: cc}
}

func (c *MetaClient) UpdatePartitionConfiguration(ctx context.Context, req *ConfigurationUpdateRequest, opts ...grpc.CallOption) (*ConfigurationUpdateResponse, error) {
	reply := new(ConfigurationUpdateResponse)
	if err := c.cc.Invoke(ctx, "/"+metaServiceName+"/UpdatePartitionConfiguration", req, reply, opts...); err != nil {
		return nil, err
	}
	return reply, nil
}

// PeerClient is the equivalent typed wrapper for the peer service.
type PeerClient struct {
	cc grpc.ClientConnInterface
}

func NewPeerClient(cc grpc.ClientConnInterface) *PeerClient {
	return &PeerClient{cc: cc}
}

func (c *PeerClient) LearnAddLearner(ctx context.Context, req *GroupCheckRequest, opts ...grpc.CallOption) (*Ack, error) {
	reply := new(Ack)
	if err := c.cc.Invoke(ctx, "/"+peerServiceName+"/LearnAddLearner", req, reply, opts...); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *PeerClient) RemoveReplica(ctx context.Context, req *ReplicaConfiguration, opts ...grpc.CallOption) (*Ack, error) {
	reply := new(Ack)
	if err := c.cc.Invoke(ctx, "/"+peerServiceName+"/RemoveReplica", req, reply, opts...); err != nil {
		return nil, err
	}
	return reply, nil
}
