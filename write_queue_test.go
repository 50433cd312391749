package repcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryWriteQueue(t *testing.T) {
	assert := assert.New(t)

	q := newMemoryWriteQueue()
	assert.Nil(q.CheckPossibleWork(10))

	q.enqueue(&Mutation{Decree: 1})
	assert.Nil(q.CheckPossibleWork(0))
	assert.Nil(q.CheckPossibleWork(-1))

	m := q.CheckPossibleWork(1)
	assert.NotNil(m)
	assert.Equal(Decree(1), m.Decree)
	assert.Nil(q.CheckPossibleWork(1))
}
