package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nubank/doc-ia/internal"
)

func TestMemoryStore_AppendKeepsOrder(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Append(internal.Message{Role: internal.RoleUser, Content: "I have a headache"}))
	require.NoError(t, s.Append(internal.Message{Role: internal.RoleAssistant, Content: "How long?"}))
	require.NoError(t, s.Append(internal.Message{Role: internal.RoleUser, Content: "Two days"}))

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "I have a headache", all[0].Content)
	assert.Equal(t, internal.RoleAssistant, all[1].Role)
	assert.Equal(t, "Two days", all[2].Content)
	assert.False(t, all[0].CreatedAt.IsZero())
}

func TestMemoryStore_RejectsEmptyContent(t *testing.T) {
	s := NewMemoryStore()

	for _, content := range []string{"", "   ", "\n\t"} {
		err := s.Append(internal.Message{Role: internal.RoleUser, Content: content})
		assert.ErrorIs(t, err, ErrEmptyContent)
	}
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_AllReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Append(internal.Message{Role: internal.RoleUser, Content: "original"}))

	snapshot := s.All()
	snapshot[0].Content = "edited"

	assert.Equal(t, "original", s.All()[0].Content)
}

func TestMemoryStore_ConsecutiveUserTurnsAllowed(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Append(internal.Message{Role: internal.RoleUser, Content: "one"}))
	require.NoError(t, s.Append(internal.Message{Role: internal.RoleUser, Content: "two"}))
	assert.Equal(t, 2, s.Len())
}

func TestMemoryStore_ConcurrentAppends(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Append(internal.Message{Role: internal.RoleUser, Content: "hi"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}
