package repcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLearnerTimeoutIndex(t *testing.T) {
	assert := assert.New(t)

	idx := newLearnerTimeoutIndex()
	base := time.Unix(1000, 0)

	nodeA := NodeAddress{Host: "a", Port: 1}
	nodeB := NodeAddress{Host: "b", Port: 1}

	idx.schedule(nodeA, 1, base.Add(time.Second))
	idx.schedule(nodeB, 2, base.Add(2*time.Second))

	assert.Empty(idx.expired(base))

	expired := idx.expired(base.Add(time.Second))
	assert.Len(expired, 1)
	assert.Equal(nodeA, expired[0].node)

	expired = idx.expired(base.Add(3 * time.Second))
	assert.Len(expired, 2)
	assert.Equal(nodeA, expired[0].node)
	assert.Equal(nodeB, expired[1].node)

	idx.cancel(nodeA, 1)
	expired = idx.expired(base.Add(3 * time.Second))
	assert.Len(expired, 1)
	assert.Equal(nodeB, expired[0].node)
}
