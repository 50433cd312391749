package repcore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/replikv/repcore/rpcpb"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// connectionManager caches one grpc.ClientConn per remote address,
// following the teacher's connectionManager (grpc_connection.go). It
// backs both grpcPeerTransport and grpcMetaClient below, since a meta
// server and a peer replica are addressed the same way on the wire.
type connectionManager struct {
	mu          sync.Mutex
	connections map[string]*grpc.ClientConn
	logger      *zerolog.Logger
}

func newConnectionManager(logger *zerolog.Logger) *connectionManager {
	return &connectionManager{
		connections: make(map[string]*grpc.ClientConn),
		logger:      logger,
	}
}

func (c *connectionManager) getConn(address string) (*grpc.ClientConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn, ok := c.connections[address]; ok {
		return conn, nil
	}
	conn, err := grpc.NewClient(
		address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(jsonSubtype)),
	)
	if err != nil {
		return nil, err
	}
	c.connections[address] = conn
	return conn, nil
}

func (c *connectionManager) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for address, conn := range c.connections {
		_ = conn.Close()
		delete(c.connections, address)
	}
}

// jsonSubtype names the codec registered by rpcpb's init(), selected
// per call via grpc.CallContentSubtype rather than globally, so a
// process embedding this module alongside other grpc services never
// has its default codec silently swapped out from under it.
const jsonSubtype = "json"

// grpcPeerTransport implements PeerTransport over grpc, grounded on
// the teacher's rpc-client shape in grpc_connection.go plus the
// fire-and-forget request handling in handlers.go.
type grpcPeerTransport struct {
	conns  *connectionManager
	logger *zerolog.Logger
}

func newGRPCPeerTransport(logger *zerolog.Logger) *grpcPeerTransport {
	return &grpcPeerTransport{
		conns:  newConnectionManager(logger),
		logger: logger,
	}
}

func (t *grpcPeerTransport) peerClient(address NodeAddress) (*rpcpb.PeerClient, error) {
	conn, err := t.conns.getConn(address.String())
	if err != nil {
		return nil, err
	}
	return rpcpb.NewPeerClient(conn), nil
}

// SendLearnAddLearner is fire-and-forget: the actual admission
// decision reaches the learner asynchronously through its own
// on_config_proposal handling, so a transport failure here is logged
// and swallowed rather than surfaced to the caller (replica_config.cpp
// group_check does not block on delivery either).
func (t *grpcPeerTransport) SendLearnAddLearner(ctx context.Context, target NodeAddress, req GroupCheckRequest) {
	client, err := t.peerClient(target)
	if err != nil {
		t.logger.Debug().Err(err).Str("node", target.String()).Msg("fail to dial peer for LearnAddLearner")
		return
	}
	wire := &rpcpb.GroupCheckRequest{
		RequestID:           uuid.NewString(),
		App:                 rpcpb.AppInfo{AppID: req.App.AppID, AppName: req.App.AppName, AppType: req.App.AppType},
		Node:                rpcpb.NodeAddress{Host: req.Node.Host, Port: req.Node.Port},
		Config:              rpcpb.ReplicaConfiguration{Pid: rpcpb.PartitionId{AppID: req.Config.Pid.AppID, Partition: req.Config.Pid.Partition}, Ballot: uint64(req.Config.Ballot), Status: uint32(req.Config.Status)},
		Signature:           uint64(req.Signature),
		LastCommittedDecree: uint64(req.LastCommittedDecree),
	}
	go func() {
		if _, err := client.LearnAddLearner(ctx, wire); err != nil {
			t.logger.Debug().Err(err).Str("node", target.String()).Msg("LearnAddLearner rpc failed")
		}
	}()
}

func (t *grpcPeerTransport) SendRemoveReplica(ctx context.Context, target NodeAddress, cfg ReplicaConfiguration) {
	client, err := t.peerClient(target)
	if err != nil {
		t.logger.Debug().Err(err).Str("node", target.String()).Msg("fail to dial peer for RemoveReplica")
		return
	}
	wire := &rpcpb.ReplicaConfiguration{
		Pid:    rpcpb.PartitionId{AppID: cfg.Pid.AppID, Partition: cfg.Pid.Partition},
		Ballot: uint64(cfg.Ballot),
		Status: uint32(cfg.Status),
	}
	go func() {
		if _, err := client.RemoveReplica(ctx, wire); err != nil {
			t.logger.Debug().Err(err).Str("node", target.String()).Msg("RemoveReplica rpc failed")
		}
	}()
}

// grpcMetaClient implements MetaServiceClient over grpc.
type grpcMetaClient struct {
	conns  *connectionManager
	logger *zerolog.Logger
}

func newGRPCMetaClient(logger *zerolog.Logger) *grpcMetaClient {
	return &grpcMetaClient{
		conns:  newConnectionManager(logger),
		logger: logger,
	}
}

func (m *grpcMetaClient) UpdatePartitionConfiguration(ctx context.Context, metaAddr NodeAddress, req ConfigurationUpdateRequest) (ConfigurationUpdateResponse, error) {
	conn, err := m.conns.getConn(metaAddr.String())
	if err != nil {
		return ConfigurationUpdateResponse{}, err
	}
	client := rpcpb.NewMetaClient(conn)

	wire := &rpcpb.ConfigurationUpdateRequest{
		RequestID: uuid.NewString(),
		Info:      rpcpb.AppInfo{AppID: req.Info.AppID, AppName: req.Info.AppName, AppType: req.Info.AppType},
		Config: rpcpb.PartitionConfiguration{
			Pid:                 rpcpb.PartitionId{AppID: req.Config.Pid.AppID, Partition: req.Config.Pid.Partition},
			Ballot:              uint64(req.Config.Ballot),
			Primary:             rpcpb.NodeAddress{Host: req.Config.Primary.Host, Port: req.Config.Primary.Port},
			Secondaries:         wireAddresses(req.Config.Secondaries),
			MaxReplicaCount:     req.Config.MaxReplicaCount,
			LastCommittedDecree: uint64(req.Config.LastCommittedDecree),
		},
		Type: uint32(req.Type),
		Node: rpcpb.NodeAddress{Host: req.Node.Host, Port: req.Node.Port},
	}

	reply, err := client.UpdatePartitionConfiguration(ctx, wire)
	if err != nil {
		return ConfigurationUpdateResponse{}, err
	}

	resp := ConfigurationUpdateResponse{
		Config: PartitionConfiguration{
			Pid:                 PartitionId{AppID: reply.Config.Pid.AppID, Partition: reply.Config.Pid.Partition},
			Ballot:              Ballot(reply.Config.Ballot),
			Primary:             NodeAddress{Host: reply.Config.Primary.Host, Port: reply.Config.Primary.Port},
			Secondaries:         coreAddresses(reply.Config.Secondaries),
			MaxReplicaCount:     reply.Config.MaxReplicaCount,
			LastCommittedDecree: Decree(reply.Config.LastCommittedDecree),
		},
	}
	if reply.ErrCode == rpcpb.ErrCodeInvalidVersion {
		resp.Err = ErrInvalidVersion
	} else if reply.ErrCode != rpcpb.ErrCodeOK {
		resp.Err = errTransientMetaError
	}
	return resp, nil
}

func wireAddresses(addrs []NodeAddress) []rpcpb.NodeAddress {
	out := make([]rpcpb.NodeAddress, len(addrs))
	for i, a := range addrs {
		out[i] = rpcpb.NodeAddress{Host: a.Host, Port: a.Port}
	}
	return out
}

func coreAddresses(addrs []rpcpb.NodeAddress) []NodeAddress {
	out := make([]NodeAddress, len(addrs))
	for i, a := range addrs {
		out[i] = NodeAddress{Host: a.Host, Port: a.Port}
	}
	return out
}
