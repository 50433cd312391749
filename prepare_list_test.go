package repcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryPrepareList(t *testing.T) {
	assert := assert.New(t)

	t.Run("put_and_get", func(t *testing.T) {
		l := newMemoryPrepareList(0)
		l.put(&Mutation{Decree: 1, Data: []byte("a")})
		l.put(&Mutation{Decree: 3, Data: []byte("b")})

		assert.Equal(Decree(3), l.MaxDecree())
		assert.Equal(Decree(0), l.LastCommittedDecree())
		assert.NotNil(l.GetMutationByDecree(1))
		assert.Nil(l.GetMutationByDecree(2))
	})

	t.Run("truncate", func(t *testing.T) {
		l := newMemoryPrepareList(0)
		l.put(&Mutation{Decree: 1})
		l.put(&Mutation{Decree: 2})
		l.put(&Mutation{Decree: 3})

		l.Truncate(1)
		assert.Equal(Decree(1), l.MaxDecree())
		assert.Equal(Decree(1), l.LastCommittedDecree())
		assert.Nil(l.GetMutationByDecree(2))
		assert.Nil(l.GetMutationByDecree(3))
		assert.NotNil(l.GetMutationByDecree(1))
	})

	t.Run("reset", func(t *testing.T) {
		l := newMemoryPrepareList(5)
		l.put(&Mutation{Decree: 6})
		l.Reset(10)

		assert.Equal(Decree(10), l.MaxDecree())
		assert.Equal(Decree(10), l.LastCommittedDecree())
		assert.Nil(l.GetMutationByDecree(6))
	})
}
