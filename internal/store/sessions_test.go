package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nubank/doc-ia/internal"
)

func newTestSessions() *Sessions[*MemoryStore] {
	return NewSessions(NewMemoryStore, time.Hour, 0)
}

func TestSessions_OpenReusesKnownID(t *testing.T) {
	sessions := newTestSessions()

	id, first := sessions.Open("")
	require.NotEmpty(t, id)
	require.NoError(t, first.Append(internal.Message{Role: internal.RoleUser, Content: "hello"}))

	sameID, again := sessions.Open(id)
	assert.Equal(t, id, sameID)
	assert.Same(t, first, again)
	assert.Equal(t, 1, again.Len())
}

func TestSessions_OpenUnknownIDIssuesNewOne(t *testing.T) {
	sessions := newTestSessions()

	id, s := sessions.Open("made-up-by-client")
	assert.NotEqual(t, "made-up-by-client", id)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, sessions.Len())
}

func TestSessions_LookupNeverCreates(t *testing.T) {
	sessions := newTestSessions()

	_, ok := sessions.Lookup("")
	assert.False(t, ok)
	_, ok = sessions.Lookup("made-up-by-client")
	assert.False(t, ok)
	assert.Equal(t, 0, sessions.Len())

	id, opened := sessions.Open("")
	found, ok := sessions.Lookup(id)
	require.True(t, ok)
	assert.Same(t, opened, found)
}

func TestSessions_FreshDropsPrevious(t *testing.T) {
	sessions := newTestSessions()

	oldID, old := sessions.Open("")
	require.NoError(t, old.Append(internal.Message{Role: internal.RoleUser, Content: "hello"}))

	newID, fresh := sessions.Fresh(oldID)
	assert.NotEqual(t, oldID, newID)
	assert.Equal(t, 0, fresh.Len())
	assert.Equal(t, 1, sessions.Len())

	reopenedID, reopened := sessions.Open(oldID)
	assert.NotEqual(t, oldID, reopenedID)
	assert.Equal(t, 0, reopened.Len())
}

func TestSessions_Drop(t *testing.T) {
	sessions := newTestSessions()
	id, _ := sessions.Open("")
	sessions.Drop(id)
	assert.Equal(t, 0, sessions.Len())
}

func TestSessions_IdleSessionsExpire(t *testing.T) {
	sessions := NewSessions(NewMemoryStore, 100*time.Millisecond, 0)

	idle, _ := sessions.Open("")
	active, _ := sessions.Open("")

	time.Sleep(60 * time.Millisecond)
	_, ok := sessions.Lookup(active)
	require.True(t, ok)
	time.Sleep(60 * time.Millisecond)

	_, ok = sessions.Lookup(idle)
	assert.False(t, ok, "idle session should have expired")
	_, ok = sessions.Lookup(active)
	assert.True(t, ok, "use should extend a session's lifetime")
	assert.Equal(t, 1, sessions.Len())

	reopened, _ := sessions.Open(idle)
	assert.NotEqual(t, idle, reopened)
}

func TestSessions_ExpiryLoopReclaimsMemory(t *testing.T) {
	sessions := NewSessions(NewMemoryStore, 20*time.Millisecond, 0)
	go sessions.Start()
	defer sessions.Stop()

	for i := 0; i < 100; i++ {
		sessions.Open("")
	}
	assert.Eventually(t, func() bool { return sessions.items.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestSessions_CapacityEvictsLeastRecentlyUsed(t *testing.T) {
	sessions := NewSessions(NewMemoryStore, time.Hour, 2)

	first, _ := sessions.Open("")
	second, _ := sessions.Open("")
	_, ok := sessions.Lookup(first)
	require.True(t, ok)
	sessions.Open("")

	assert.Equal(t, 2, sessions.Len())
	_, ok = sessions.Lookup(second)
	assert.False(t, ok)
	_, ok = sessions.Lookup(first)
	assert.True(t, ok)
}
