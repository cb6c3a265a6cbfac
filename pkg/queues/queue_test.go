package queues

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueOrder(t *testing.T) {
	q := NewQueue[string]()
	q.Push("a")
	q.Push("b")

	x, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "a", x)

	x, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", x)

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestDrain(t *testing.T) {
	q := NewQueue[int]()
	q.Push(1)
	q.Push(2)
	q.Push(3)

	assert.Equal(t, []int{1, 2, 3}, q.Drain())
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.Drain())
}

func TestConcurrentPush(t *testing.T) {
	q := NewQueue[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			q.Push(n)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, q.Len())
}
