package repcore

import "sync/atomic"

// localStub is the default Stub collaborator: a single-process stand-in
// for the node-wide state a real deployment shares across every
// partition (connectivity to the failure detector, the currently known
// meta server leader). Grounded on the teacher's Rafty struct holding
// this kind of process-wide state directly (rafty_types.go); here it is
// split out behind the Stub interface since this package only owns one
// partition's worth of state, not the whole node.
type localStub struct {
	address    NodeAddress
	connected  atomic.Bool
	metaServer atomic.Value // NodeAddress
}

func newLocalStub(address NodeAddress) *localStub {
	s := &localStub{address: address}
	s.connected.Store(true)
	s.metaServer.Store(InvalidNodeAddress)
	return s
}

func (s *localStub) PrimaryAddress() NodeAddress {
	return s.address
}

func (s *localStub) IsConnected() bool {
	return s.connected.Load()
}

func (s *localStub) SetConnected(connected bool) {
	s.connected.Store(connected)
}

func (s *localStub) CurrentMetaServer() NodeAddress {
	return s.metaServer.Load().(NodeAddress)
}

func (s *localStub) SetCurrentMetaServer(addr NodeAddress) {
	s.metaServer.Store(addr)
}

// NotifyReplicaStateUpdate, BeginCloseReplica and RemoveReplicaOnMetaServer
// are no-ops on the default stub; a host process that actually manages
// a replica table overrides Stub entirely rather than composing with
// this one.
func (s *localStub) NotifyReplicaStateUpdate(cfg ReplicaConfiguration, isClosing bool) {}

func (s *localStub) BeginCloseReplica(pid PartitionId) {}

func (s *localStub) RemoveReplicaOnMetaServer(info AppInfo, cfg PartitionConfiguration) {}
