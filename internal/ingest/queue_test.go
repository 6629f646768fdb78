package ingest

import (
	"testing"

	"github.com/sentrytypes/sentrytypes/dsn"
	"github.com/stretchr/testify/require"
)

func TestFairQueueRoundRobin(t *testing.T) {
	q := newFairQueue(0)
	push := func(project dsn.ProjectID, n int) {
		for i := 0; i < n; i++ {
			_, err := q.Push(&job{projectID: project})
			require.NoError(t, err)
		}
	}
	push(1, 3)
	push(2, 1)
	push(3, 2)
	require.Equal(t, 6, q.Len())

	var order []dsn.ProjectID
	for q.Len() != 0 {
		j, ok := q.Pop()
		require.True(t, ok)
		order = append(order, j.projectID)
	}
	require.Equal(t, []dsn.ProjectID{1, 2, 3, 1, 3, 1}, order)
}

func TestFairQueueLimit(t *testing.T) {
	q := newFairQueue(2)
	_, err := q.Push(&job{projectID: 1})
	require.NoError(t, err)
	n, err := q.Push(&job{projectID: 2})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	_, err = q.Push(&job{projectID: 3})
	require.ErrorIs(t, err, ErrQueueFull)
}

func TestFairQueueCloseDrains(t *testing.T) {
	q := newFairQueue(0)
	_, err := q.Push(&job{projectID: 1})
	require.NoError(t, err)
	q.Close()

	_, err = q.Push(&job{projectID: 1})
	require.ErrorIs(t, err, ErrClosed)

	j, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, dsn.ProjectID(1), j.projectID)
	_, ok = q.Pop()
	require.False(t, ok)
}

func TestFairQueuePopWaits(t *testing.T) {
	q := newFairQueue(0)
	done := make(chan dsn.ProjectID)
	go func() {
		j, ok := q.Pop()
		if ok {
			done <- j.projectID
		}
		close(done)
	}()
	_, err := q.Push(&job{projectID: 9})
	require.NoError(t, err)
	require.Equal(t, dsn.ProjectID(9), <-done)
}
