package interview

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-coach-go/internal/model"
)

func TestConnInitTrackerOnce(t *testing.T) {
	c := NewConn("c1", 1, nil)
	calls := 0
	var mu sync.Mutex
	gen := func() ([]string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return []string{"q1"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.InitTracker(gen)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
	assert.NotNil(t, c.Tracker())
}

func TestConnTimestampsIncrease(t *testing.T) {
	c := NewConn("c1", 1, nil)
	prev := c.NextTimestamp()
	for i := 0; i < 100; i++ {
		next := c.NextTimestamp()
		require.True(t, next.After(prev))
		prev = next
	}
}

func TestConnClearAndOwnership(t *testing.T) {
	c := NewConn("c1", 1, nil)
	s := &model.InterviewSession{ID: "s1"}
	require.NoError(t, c.Bind(s, nil, StateCreated))
	require.NoError(t, c.Transition(StateAwaitingGreeting))
	assert.Equal(t, 1, c.RecordAnswer(true))
	assert.True(t, c.Owns("s1"))

	assert.Error(t, c.Transition(StateExitOfferPending))

	prev := c.Clear()
	assert.Equal(t, s, prev)
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 0, c.NonAnswers())
	assert.Nil(t, c.Tracker())

	require.NoError(t, c.Bind(s, nil, StatePaused))
	c.Close()
	assert.False(t, c.Owns("s1"))
	assert.Error(t, c.Bind(s, nil, StateCreated))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := NewConn("a", 1, nil)
	b := NewConn("b", 1, nil)
	require.True(t, r.Add(a))
	require.False(t, r.Add(NewConn("a", 2, nil)))
	require.True(t, r.Add(b))

	require.NoError(t, a.Bind(&model.InterviewSession{ID: "s1"}, nil, StatePaused))
	owner, ok := r.SessionOwner("s1", "b")
	assert.True(t, ok)
	assert.Equal(t, a, owner)
	_, ok = r.SessionOwner("s1", "a")
	assert.False(t, ok)

	got, ok := r.Remove("a")
	assert.True(t, ok)
	assert.Equal(t, a, got)
	assert.Equal(t, 1, r.Len())
}

func TestConnRestoreNonAnswersOnlyForBoundSession(t *testing.T) {
	c := NewConn("c1", 1, nil)
	require.NoError(t, c.Bind(&model.InterviewSession{ID: "s1"}, nil, StateCreated))
	c.RecordAnswer(true)
	c.RecordAnswer(true)

	c.RestoreNonAnswers("s1", 1)
	assert.Equal(t, 1, c.NonAnswers())

	c.RestoreNonAnswers("other", 5)
	assert.Equal(t, 1, c.NonAnswers())

	c.Clear()
	c.RestoreNonAnswers("s1", 3)
	assert.Equal(t, 0, c.NonAnswers())
}
