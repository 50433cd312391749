package repcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNodeAddress(t *testing.T) {
	assert := assert.New(t)

	assert.False(InvalidNodeAddress.IsValid())
	assert.Equal("invalid", InvalidNodeAddress.String())

	a := NodeAddress{Host: "10.0.0.1", Port: 4000}
	assert.True(a.IsValid())
	assert.Equal("10.0.0.1:4000", a.String())
}

func TestPartitionConfigurationCloneAndSameMembership(t *testing.T) {
	assert := assert.New(t)

	a := PartitionConfiguration{
		Pid:         PartitionId{AppID: 1, Partition: 2},
		Ballot:      3,
		Primary:     NodeAddress{Host: "p", Port: 1},
		Secondaries: []NodeAddress{{Host: "s1", Port: 1}, {Host: "s2", Port: 1}},
	}

	clone := a.clone()
	clone.Secondaries[0] = NodeAddress{Host: "mutated", Port: 1}
	assert.Equal("s1", a.Secondaries[0].Host)
	assert.True(a.sameMembership(a))
	assert.False(a.sameMembership(clone))
}

func TestRemoveSecondary(t *testing.T) {
	assert := assert.New(t)

	secondaries := []NodeAddress{{Host: "a", Port: 1}, {Host: "b", Port: 1}}
	updated, found := removeSecondary(secondaries, NodeAddress{Host: "a", Port: 1})
	assert.True(found)
	assert.Equal(1, len(updated))
	assert.Equal("b", updated[0].Host)

	_, found = removeSecondary(updated, NodeAddress{Host: "z", Port: 1})
	assert.False(found)
}

func TestPrimaryStateResetMembershipAndStatuses(t *testing.T) {
	assert := assert.New(t)

	p := &PrimaryState{}
	cfg := PartitionConfiguration{
		Primary:     NodeAddress{Host: "primary", Port: 1},
		Secondaries: []NodeAddress{{Host: "s1", Port: 1}},
	}
	p.resetMembership(cfg, false)

	assert.Equal(Primary, p.nodeStatus(cfg.Primary))
	assert.Equal(Secondary, p.nodeStatus(cfg.Secondaries[0]))
	assert.Equal(Inactive, p.nodeStatus(NodeAddress{Host: "unknown", Port: 1}))
	assert.True(p.checkExist(cfg.Primary, Primary))
}

func TestPrimaryStateCleanup(t *testing.T) {
	assert := assert.New(t)

	p := &PrimaryState{ReconfigurationInFlight: &reconfigurationTask{}}
	assert.False(p.cleanup(false))
	assert.True(p.cleanup(true))
	assert.Nil(p.ReconfigurationInFlight)
}

func TestOptionsWithDefaults(t *testing.T) {
	assert := assert.New(t)

	opts := (&Options{}).withDefaults()
	assert.Equal(1000*time.Millisecond, opts.MetaRetryInterval)
	assert.Equal(uint32(3), opts.DefaultMaxReplicaCount)
	assert.Equal(30*time.Second, opts.LearnerTimeout)

	custom := (&Options{MetaRetryInterval: 5 * time.Second, DefaultMaxReplicaCount: 5, LearnerTimeout: time.Minute}).withDefaults()
	assert.Equal(5*time.Second, custom.MetaRetryInterval)
	assert.Equal(uint32(5), custom.DefaultMaxReplicaCount)
	assert.Equal(time.Minute, custom.LearnerTimeout)
}
