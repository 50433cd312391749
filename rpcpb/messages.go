// Package rpcpb defines the wire messages exchanged between replicas
// and the meta service. The teacher (Lord-Y/rafty) carries its wire
// types in a protoc-generated raftypb package consumed by hand-written
// grpc handlers (raftypb.go, rpcs_types.go); generating real protobuf
// stubs is outside this exercise's boundary, so these are the same
// plain, semantic message shapes the teacher's handlers work with,
// carried over grpc with the JSON codec in codec.go instead of
// protoc-generated marshaling.
package rpcpb

// NodeAddress mirrors repcore.NodeAddress on the wire.
type NodeAddress struct {
	Host string `json:"host"`
	Port uint16 `json:"port"`
}

// PartitionId mirrors repcore.PartitionId on the wire.
type PartitionId struct {
	AppID     uint32 `json:"appId"`
	Partition uint32 `json:"partition"`
}

// AppInfo mirrors repcore.AppInfo on the wire.
type AppInfo struct {
	AppID   uint32 `json:"appId"`
	AppName string `json:"appName"`
	AppType string `json:"appType"`
}

// PartitionConfiguration mirrors repcore.PartitionConfiguration on the
// wire.
type PartitionConfiguration struct {
	Pid                 PartitionId   `json:"pid"`
	Ballot              uint64        `json:"ballot"`
	Primary             NodeAddress   `json:"primary"`
	Secondaries         []NodeAddress `json:"secondaries"`
	MaxReplicaCount     uint32        `json:"maxReplicaCount"`
	LastCommittedDecree uint64        `json:"lastCommittedDecree"`
}

// ReplicaConfiguration mirrors repcore.ReplicaConfiguration on the
// wire.
type ReplicaConfiguration struct {
	Pid    PartitionId `json:"pid"`
	Ballot uint64      `json:"ballot"`
	Status uint32      `json:"status"`
}

// ConfigurationUpdateRequest is the meta-service request payload
// (spec §6, CM_UPDATE_PARTITION_CONFIGURATION).
type ConfigurationUpdateRequest struct {
	RequestID string                 `json:"requestId"`
	Info      AppInfo                `json:"info"`
	Config    PartitionConfiguration `json:"config"`
	Type      uint32                 `json:"type"`
	Node      NodeAddress            `json:"node"`
}

// ConfigurationUpdateResponse is the meta-service reply payload.
type ConfigurationUpdateResponse struct {
	ErrCode uint32                 `json:"errCode"`
	ErrMsg  string                 `json:"errMsg"`
	Config  PartitionConfiguration `json:"config"`
}

// Error codes carried in ConfigurationUpdateResponse.ErrCode. Only OK
// and InvalidVersion are distinguished by the core (spec §6); any
// other non-zero value is treated as a non-terminal transport/server
// error eligible for retry.
const (
	ErrCodeOK             uint32 = 0
	ErrCodeInvalidVersion uint32 = 1
	ErrCodeOther          uint32 = 2
)

// GroupCheckRequest is the one-way LEARN_ADD_LEARNER payload (spec §6).
type GroupCheckRequest struct {
	RequestID           string               `json:"requestId"`
	App                 AppInfo              `json:"app"`
	Node                NodeAddress          `json:"node"`
	Config              ReplicaConfiguration `json:"config"`
	Signature           uint64               `json:"signature"`
	LastCommittedDecree uint64               `json:"lastCommittedDecree"`
}

// Ack is the empty acknowledgement used by the two one-way peer RPCs;
// the core never inspects it, but grpc's unary-only ServiceDesc needs
// a response type to complete the round trip transport-side.
type Ack struct{}
