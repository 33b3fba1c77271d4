package turn

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowIdleSink takes a while to handle the idle notification, leaving room for
// the next exchange to start while it is still being delivered.
type slowIdleSink struct {
	fakeSink
	delay time.Duration
}

func (s *slowIdleSink) StateChanged(state State, inputEnabled bool) {
	if state == StateIdle {
		time.Sleep(s.delay)
	}
	s.fakeSink.StateChanged(state, inputEnabled)
}

func TestSession_BeginRejectsWhileBusy(t *testing.T) {
	s := NewSession(nil)

	require.True(t, s.begin())
	assert.False(t, s.begin())
	assert.Equal(t, StateAwaitingInput, s.State())

	s.setState(StateIdle)
	assert.True(t, s.begin())
}

func TestSession_NotificationsFollowTransitionOrder(t *testing.T) {
	sink := &slowIdleSink{delay: 50 * time.Millisecond}
	s := NewSession(sink)
	require.True(t, s.begin())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.setState(StateIdle)
	}()

	require.Eventually(t, func() bool { return s.State() == StateIdle }, time.Second, time.Millisecond)
	require.True(t, s.begin())
	wg.Wait()

	assert.Equal(t, []stateChange{
		{StateAwaitingInput, true},
		{StateIdle, true},
		{StateAwaitingInput, true},
	}, sink.snapshot())
}
