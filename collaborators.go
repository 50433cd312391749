package repcore

import "context"

// PrepareList is the write-path's in-flight mutation window. The core
// only replays and truncates it around reconfiguration; the mutation
// log and two-phase commit protocol themselves are out of scope (spec
// §1) and live behind this interface.
type PrepareList interface {
	// MaxDecree returns the highest decree currently prepared.
	MaxDecree() Decree

	// LastCommittedDecree returns the highest decree known committed.
	LastCommittedDecree() Decree

	// Truncate drops every prepared entry above decree.
	Truncate(decree Decree)

	// Reset discards every prepared entry and rearms the list at
	// decree.
	Reset(decree Decree)

	// GetMutationByDecree returns the mutation prepared at decree, or
	// nil if none is held.
	GetMutationByDecree(decree Decree) *Mutation
}

// App is the replicated state machine. Only the two accessors the
// reconfiguration core needs are exposed; snapshotting, checkpointing
// and command application are out of scope (spec §1).
type App interface {
	LastCommittedDecree() Decree
	LastDurableDecree() Decree
}

// Mutation is an opaque write, as returned by the write queue and
// prepare list. Its fields are not interpreted by this package beyond
// carrying a decree.
type Mutation struct {
	Decree Decree
	Data   []byte
}

// WriteQueue is the externally owned write-admission queue. It is
// consulted once a replica transitions into Primary (spec §4.3 step
// 6) so pending writes resume as soon as 2PC is re-enabled.
type WriteQueue interface {
	// CheckPossibleWork returns the next mutation ready to prepare
	// given the current window size (max_decree - last_committed),
	// or nil if none is ready.
	CheckPossibleWork(window int64) *Mutation
}

// GroupCheckRequest is the one-way payload sent to a candidate replica
// to start a learning session.
type GroupCheckRequest struct {
	App                  AppInfo
	Node                 NodeAddress
	Config               ReplicaConfiguration
	Signature            LearnerSignature
	LastCommittedDecree  Decree
}

// PeerTransport sends the two one-way RPCs a primary issues to peers.
// Both are fire-and-forget from the caller's point of view: neither
// reply nor delivery is awaited by the reconfiguration core.
type PeerTransport interface {
	// SendLearnAddLearner tells node to begin learning.
	SendLearnAddLearner(ctx context.Context, node NodeAddress, req GroupCheckRequest)

	// SendRemoveReplica tells node to enter Inactive.
	SendRemoveReplica(ctx context.Context, node NodeAddress, cfg ReplicaConfiguration)
}

// MetaServiceClient sends CM_UPDATE_PARTITION_CONFIGURATION to the
// meta service and returns its reply.
type MetaServiceClient interface {
	UpdatePartitionConfiguration(ctx context.Context, metaAddr NodeAddress, req ConfigurationUpdateRequest) (ConfigurationUpdateResponse, error)
}

// Stub is the process-wide collaborator shared across every partition
// on this node: address lookups, connectivity, and lifecycle
// notifications.
type Stub interface {
	// PrimaryAddress returns this process's own address, as the
	// primary-side edits need to compare proposals against self.
	PrimaryAddress() NodeAddress

	// IsConnected reports whether this process currently has a live
	// failure-detector session (used to discard superseded meta
	// replies, spec §4.4).
	IsConnected() bool

	// CurrentMetaServer returns the address of the meta service this
	// process currently believes is the leader.
	CurrentMetaServer() NodeAddress

	// NotifyReplicaStateUpdate is called after every accepted local
	// transition, closing or not.
	NotifyReplicaStateUpdate(cfg ReplicaConfiguration, isClosing bool)

	// BeginCloseReplica is called once a replica has been marked
	// closing (transition to Error, or to Inactive at a higher
	// ballot).
	BeginCloseReplica(pid PartitionId)

	// RemoveReplicaOnMetaServer asks the meta service to evict this
	// replica, used by the config-sync self-eviction path.
	RemoveReplicaOnMetaServer(info AppInfo, cfg PartitionConfiguration)
}
