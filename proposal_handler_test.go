package repcore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOnConfigProposal_StaleBallotDropped(t *testing.T) {
	assert := assert.New(t)

	self := NodeAddress{Host: "self", Port: 1}
	pid := PartitionId{AppID: 1, Partition: 0}
	r, meta, _, _ := newTestReplica(t, pid, self)

	err := r.postWait(context.Background(), func() error {
		r.config.Ballot = 5
		return nil
	})
	assert.Nil(err)

	err = r.OnConfigProposal(context.Background(), ConfigurationUpdateRequest{
		Config: PartitionConfiguration{Pid: pid, Ballot: 3},
		Type:   AssignPrimary,
		Node:   self,
	})
	assert.Nil(err)

	cfg, err := r.LocalConfiguration(context.Background())
	assert.Nil(err)
	assert.Equal(Inactive, cfg.Status)
	assert.Equal(Ballot(5), cfg.Ballot)
	assert.Equal(0, meta.callCount())
}

func TestOnConfigProposal_DroppedWhileReconfigurationInFlight(t *testing.T) {
	assert := assert.New(t)

	self := NodeAddress{Host: "self", Port: 1}
	pid := PartitionId{AppID: 1, Partition: 0}
	r, meta, _, _ := newTestReplica(t, pid, self)

	// no response queued: the meta RPC blocks until ctx.Done(), keeping
	// reconfiguration_task set for the duration of this test.
	err := r.OnConfigProposal(context.Background(), ConfigurationUpdateRequest{
		Config: PartitionConfiguration{Pid: pid, Ballot: 1, Secondaries: nil},
		Type:   AssignPrimary,
		Node:   self,
	})
	assert.Nil(err)

	err = r.OnConfigProposal(context.Background(), ConfigurationUpdateRequest{
		Config: PartitionConfiguration{Pid: pid, Ballot: 5, Secondaries: nil},
		Type:   DowngradeToInactive,
		Node:   self,
	})
	assert.Nil(err)

	// the meta RPC is issued from a background goroutine; wait for the
	// first one to land before counting.
	assert.Eventually(func() bool { return meta.callCount() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(1, meta.callCount())
}

func TestOnConfigProposal_AssignPrimaryBootstrap(t *testing.T) {
	assert := assert.New(t)

	self := NodeAddress{Host: "self", Port: 1}
	pid := PartitionId{AppID: 1, Partition: 0}
	r, meta, _, _ := newTestReplica(t, pid, self)

	meta.enqueue(ConfigurationUpdateResponse{
		Config: PartitionConfiguration{Pid: pid, Ballot: 2, Primary: self},
	}, nil)

	err := r.OnConfigProposal(context.Background(), ConfigurationUpdateRequest{
		Config: PartitionConfiguration{Pid: pid, Ballot: 1},
		Type:   AssignPrimary,
		Node:   self,
	})
	assert.Nil(err)

	cfg, err := r.LocalConfiguration(context.Background())
	assert.Nil(err)
	assert.Equal(Inactive, cfg.Status)
	assert.Eventually(func() bool { return meta.callCount() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(1, meta.callCount())
	assert.Equal(Ballot(2), meta.lastCall().Config.Ballot)
	assert.Equal(AssignPrimary, meta.lastCall().Type)

	assert.Eventually(func() bool {
		cfg, _ := r.LocalConfiguration(context.Background())
		return cfg.Status == Primary
	}, 2*time.Second, 10*time.Millisecond)

	cfg, err = r.LocalConfiguration(context.Background())
	assert.Nil(err)
	assert.Equal(Ballot(2), cfg.Ballot)
}
