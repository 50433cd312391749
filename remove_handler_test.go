package repcore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOnRemove_AppliesInactiveTransition(t *testing.T) {
	assert := assert.New(t)

	self := NodeAddress{Host: "self", Port: 1}
	pid := PartitionId{AppID: 1, Partition: 0}
	r, _, _, _ := newTestReplica(t, pid, self)

	err := r.postWait(context.Background(), func() error {
		r.config = ReplicaConfiguration{Pid: pid, Ballot: 4, Status: Secondary}
		return nil
	})
	assert.Nil(err)

	err = r.OnRemove(context.Background(), ReplicaConfiguration{Pid: pid, Ballot: 5, Status: Inactive})
	assert.Nil(err)

	cfg, err := r.LocalConfiguration(context.Background())
	assert.Nil(err)
	assert.Equal(Inactive, cfg.Status)
	assert.Equal(Ballot(5), cfg.Ballot)
}

func TestOnRemove_StaleBallotDropped(t *testing.T) {
	assert := assert.New(t)

	self := NodeAddress{Host: "self", Port: 1}
	pid := PartitionId{AppID: 1, Partition: 0}
	r, _, _, _ := newTestReplica(t, pid, self)

	err := r.postWait(context.Background(), func() error {
		r.config = ReplicaConfiguration{Pid: pid, Ballot: 4, Status: Secondary}
		return nil
	})
	assert.Nil(err)

	err = r.OnRemove(context.Background(), ReplicaConfiguration{Pid: pid, Ballot: 3, Status: Inactive})
	assert.Nil(err)

	cfg, err := r.LocalConfiguration(context.Background())
	assert.Nil(err)
	assert.Equal(Secondary, cfg.Status)
	assert.Equal(Ballot(4), cfg.Ballot)
}

func TestOnRemove_EqualBallotWhilePotentialSecondaryIgnored(t *testing.T) {
	assert := assert.New(t)

	self := NodeAddress{Host: "self", Port: 1}
	pid := PartitionId{AppID: 1, Partition: 0}
	r, _, _, _ := newTestReplica(t, pid, self)

	err := r.postWait(context.Background(), func() error {
		r.config = ReplicaConfiguration{Pid: pid, Ballot: 6, Status: PotentialSecondary}
		return nil
	})
	assert.Nil(err)

	err = r.OnRemove(context.Background(), ReplicaConfiguration{Pid: pid, Ballot: 6, Status: Inactive})
	assert.Nil(err)

	cfg, err := r.LocalConfiguration(context.Background())
	assert.Nil(err)
	assert.Equal(PotentialSecondary, cfg.Status)
	assert.Equal(Ballot(6), cfg.Ballot)
}
