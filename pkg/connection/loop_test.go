package connection

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsTasksInOrder(t *testing.T) {
	l := NewLoop()
	defer l.Stop()

	var order []int
	done := make(chan struct{})

	for i := 1; i <= 3; i++ {
		i := i
		require.NoError(t, l.Post(func() {
			order = append(order, i)
			if i == 3 {
				close(done)
			}
		}))
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tasks did not run")
	}
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestLoop_InLoop(t *testing.T) {
	l := NewLoop()
	defer l.Stop()

	assert.False(t, l.InLoop(), "caller goroutine must not count as the loop")

	result := make(chan bool, 1)
	require.NoError(t, l.Post(func() {
		result <- l.InLoop()
	}))

	select {
	case inLoop := <-result:
		assert.True(t, inLoop, "tasks must observe loop affinity")
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
}

func TestLoop_PostDelayed(t *testing.T) {
	l := NewLoop()
	defer l.Stop()

	fired := make(chan time.Time, 1)
	start := time.Now()
	l.PostDelayed(20*time.Millisecond, func() {
		fired <- time.Now()
	})

	select {
	case at := <-fired:
		assert.GreaterOrEqual(t, at.Sub(start), 20*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("delayed task did not run")
	}
}

func TestLoop_PostDelayedCancel(t *testing.T) {
	l := NewLoop()
	defer l.Stop()

	var fired atomic.Bool
	timer := l.PostDelayed(30*time.Millisecond, func() {
		fired.Store(true)
	})
	timer.Stop()

	time.Sleep(80 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestLoop_PostAfterStop(t *testing.T) {
	l := NewLoop()
	l.Stop()

	err := l.Post(func() {
		t.Error("task ran after stop")
	})
	assert.ErrorIs(t, err, ErrLoopStopped)
}

func TestLoop_StopDrainsQueuedTasks(t *testing.T) {
	l := NewLoop()

	var ran atomic.Int32
	block := make(chan struct{})
	require.NoError(t, l.Post(func() { <-block }))
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Post(func() { ran.Add(1) }))
	}

	close(block)
	l.Stop()
	assert.Equal(t, int32(5), ran.Load())
}

func TestLoop_StopFromLoopTaskDoesNotDeadlock(t *testing.T) {
	l := NewLoop()

	done := make(chan struct{})
	require.NoError(t, l.Post(func() {
		l.Stop()
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop from loop task deadlocked")
	}
}

func TestLoop_PostFromLoopTask(t *testing.T) {
	l := NewLoop()
	defer l.Stop()

	// A task fanning out follow-up work must stay below the buffer
	// size; within that envelope in-loop posting completes without
	// blocking and preserves order.
	var order []int
	var postErr error
	done := make(chan struct{})

	require.NoError(t, l.Post(func() {
		for i := 1; i <= taskBuffer/2; i++ {
			i := i
			if err := l.Post(func() {
				order = append(order, i)
				if i == taskBuffer/2 {
					close(done)
				}
			}); err != nil {
				postErr = err
				close(done)
				return
			}
		}
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("in-loop posted tasks did not run")
	}
	require.NoError(t, postErr)
	require.Len(t, order, taskBuffer/2)
	assert.Equal(t, 1, order[0])
	assert.Equal(t, taskBuffer/2, order[len(order)-1])
}
