package sync

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func delMut(id string) Mutation {
	return Mutation{Kind: MutationDeleteRequest, ID: id}
}

func TestPendingQueue_FIFO(t *testing.T) {
	q := newPendingQueue(10)
	q.Enqueue(delMut("a"))
	q.Enqueue(delMut("b"))
	q.Enqueue(delMut("c"))

	got := q.DequeueAll()
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[2].ID)
	assert.Zero(t, q.Len())
}

func TestPendingQueue_DropsOldestAtCapacity(t *testing.T) {
	q := newPendingQueue(3)
	for i := 0; i < 5; i++ {
		q.Enqueue(delMut(fmt.Sprintf("m%d", i)))
	}

	assert.Equal(t, 3, q.Len())
	assert.Equal(t, int64(2), q.Dropped())

	got := q.DequeueAll()
	require.Len(t, got, 3)
	assert.Equal(t, "m2", got[0].ID, "the two oldest were dropped")
	assert.Equal(t, "m4", got[2].ID)
}

func TestPendingQueue_RequeuePreservesOrder(t *testing.T) {
	q := newPendingQueue(10)
	q.Enqueue(delMut("a"))
	q.Enqueue(delMut("b"))
	q.Enqueue(delMut("c"))

	pending := q.DequeueAll()
	// Simulate a replay that sent "a" then failed.
	q.Requeue(pending[1:])
	q.Enqueue(delMut("d"))

	got := q.DequeueAll()
	require.Len(t, got, 3)
	assert.Equal(t, []string{got[0].ID, got[1].ID, got[2].ID}, []string{"b", "c", "d"})
}

func TestPendingQueue_DequeueEmpty(t *testing.T) {
	q := newPendingQueue(4)
	assert.Nil(t, q.DequeueAll())
}
