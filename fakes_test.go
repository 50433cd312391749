package repcore

import (
	"context"
	"sync"
	"time"
)

// fakeMetaClient is a scripted MetaServiceClient: each call to
// UpdatePartitionConfiguration pops the next queued response, or
// blocks until its context is cancelled if the queue is empty,
// mirroring a meta server that
// hasn't been reached yet.
type fakeMetaClient struct {
	mu        sync.Mutex
	responses []fakeMetaResponse
	calls     []ConfigurationUpdateRequest
}

type fakeMetaResponse struct {
	resp ConfigurationUpdateResponse
	err  error
}

func (f *fakeMetaClient) enqueue(resp ConfigurationUpdateResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeMetaResponse{resp: resp, err: err})
}

func (f *fakeMetaClient) UpdatePartitionConfiguration(ctx context.Context, metaAddr NodeAddress, req ConfigurationUpdateRequest) (ConfigurationUpdateResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	if len(f.responses) == 0 {
		f.mu.Unlock()
		<-ctx.Done()
		return ConfigurationUpdateResponse{}, ctx.Err()
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	f.mu.Unlock()
	return next.resp, next.err
}

func (f *fakeMetaClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeMetaClient) lastCall() ConfigurationUpdateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// fakePeerTransport records every one-way RPC sent, for assertions.
type fakePeerTransport struct {
	mu             sync.Mutex
	learnAddCalls  []GroupCheckRequest
	removeCalls    []ReplicaConfiguration
}

func (f *fakePeerTransport) SendLearnAddLearner(ctx context.Context, node NodeAddress, req GroupCheckRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.learnAddCalls = append(f.learnAddCalls, req)
}

func (f *fakePeerTransport) SendRemoveReplica(ctx context.Context, node NodeAddress, cfg ReplicaConfiguration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls = append(f.removeCalls, cfg)
}

func (f *fakePeerTransport) learnAddCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.learnAddCalls)
}

// fakeStub is a controllable Stub for tests.
type fakeStub struct {
	mu          sync.Mutex
	address     NodeAddress
	connected   bool
	metaServer  NodeAddress
	closingSeen []PartitionId
	selfEvicts  []PartitionConfiguration
}

func newFakeStub(address NodeAddress) *fakeStub {
	return &fakeStub{address: address, connected: true, metaServer: NodeAddress{Host: "meta", Port: 1}}
}

func (s *fakeStub) PrimaryAddress() NodeAddress { return s.address }

func (s *fakeStub) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeStub) setConnected(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = v
}

func (s *fakeStub) CurrentMetaServer() NodeAddress { return s.metaServer }

func (s *fakeStub) NotifyReplicaStateUpdate(cfg ReplicaConfiguration, isClosing bool) {}

func (s *fakeStub) BeginCloseReplica(pid PartitionId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closingSeen = append(s.closingSeen, pid)
}

func (s *fakeStub) RemoveReplicaOnMetaServer(info AppInfo, cfg PartitionConfiguration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selfEvicts = append(s.selfEvicts, cfg)
}

func (s *fakeStub) evictCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.selfEvicts)
}

// newTestReplica builds a Replica wired with fakes and a temp metadata
// store, ready for tests to drive through its exported OnXxx entry
// points.
func newTestReplica(t testingT, pid PartitionId, self NodeAddress) (*Replica, *fakeMetaClient, *fakePeerTransport, *fakeStub) {
	t.Helper()

	r, err := NewReplica(pid, self, Options{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewReplica: %v", err)
	}

	meta := &fakeMetaClient{}
	peers := &fakePeerTransport{}
	stub := newFakeStub(self)
	r.WithCollaborators(nil, nil, nil, peers, meta, stub)

	t.Cleanup(func() { _ = r.Close() })
	return r, meta, peers, stub
}

// becomePrimary drives r through the same assign-primary handshake
// TestOnConfigProposal_AssignPrimaryBootstrap exercises, then blocks
// until the local status has actually flipped, so other tests can
// start from a stable PRIMARY replica without repeating the handshake.
func becomePrimary(t testingT, r *Replica, meta *fakeMetaClient, pid PartitionId, self NodeAddress, secondaries []NodeAddress, maxReplicaCount uint32) {
	t.Helper()

	meta.enqueue(ConfigurationUpdateResponse{
		Config: PartitionConfiguration{
			Pid:             pid,
			Ballot:          2,
			Primary:         self,
			Secondaries:     secondaries,
			MaxReplicaCount: maxReplicaCount,
		},
	}, nil)

	err := r.OnConfigProposal(context.Background(), ConfigurationUpdateRequest{
		Config: PartitionConfiguration{Pid: pid, Ballot: 1, MaxReplicaCount: maxReplicaCount},
		Type:   AssignPrimary,
		Node:   self,
	})
	if err != nil {
		t.Fatalf("OnConfigProposal: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		cfg, err := r.LocalConfiguration(context.Background())
		if err != nil {
			t.Fatalf("LocalConfiguration: %v", err)
		}
		if cfg.Status == Primary {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("replica never became primary")
}

// testingT is the minimal subset of *testing.T used by newTestReplica,
// declared locally so this file doesn't need to import "testing"
// itself for the helper signature.
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
	TempDir() string
	Cleanup(func())
}
