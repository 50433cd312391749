package repcore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReplica_DefaultsAndClose(t *testing.T) {
	assert := assert.New(t)

	pid := PartitionId{AppID: 1, Partition: 0}
	self := NodeAddress{Host: "self", Port: 1}

	r, err := NewReplica(pid, self, Options{DataDir: t.TempDir()})
	assert.Nil(err)

	cfg, err := r.LocalConfiguration(context.Background())
	assert.Nil(err)
	assert.Equal(Inactive, cfg.Status)
	assert.Equal(Ballot(0), cfg.Ballot)

	assert.Nil(r.Close())
	assert.Nil(r.Close())
}

func TestNewReplica_LoadsPersistedState(t *testing.T) {
	assert := assert.New(t)

	pid := PartitionId{AppID: 2, Partition: 3}
	self := NodeAddress{Host: "self", Port: 1}
	dataDir := t.TempDir()

	r1, err := NewReplica(pid, self, Options{DataDir: dataDir})
	assert.Nil(err)
	err = r1.postWait(context.Background(), func() error {
		r1.config = ReplicaConfiguration{Pid: pid, Ballot: 12, Status: Secondary}
		r1.inactiveIsTransient = false
		r1.persistLocked()
		return nil
	})
	assert.Nil(err)
	assert.Nil(r1.Close())

	r2, err := NewReplica(pid, self, Options{DataDir: dataDir})
	assert.Nil(err)
	defer r2.Close()

	cfg, err := r2.LocalConfiguration(context.Background())
	assert.Nil(err)
	assert.Equal(Ballot(12), cfg.Ballot)
	assert.Equal(Secondary, cfg.Status)
}
