package turn

import (
	"sync"

	"github.com/nubank/doc-ia/internal/store"
)

// State models one exchange of a session.
type State string

const (
	StateIdle          State = "idle"
	StateAwaitingInput State = "awaiting_input"
	StateBuilding      State = "building"
	StateGenerating    State = "generating"
	StateCompleting    State = "completing"
)

// InputEnabled reports whether the front-end may accept a new event in state s.
// The input surface stays disabled from building until the exchange is idle again.
func (s State) InputEnabled() bool {
	return s == StateIdle || s == StateAwaitingInput
}

// StateSink is told about every state change of a session.
type StateSink interface {
	StateChanged(state State, inputEnabled bool)
}

// Session owns one conversation: its history and the state of the exchange
// running against it. At most one exchange runs per session.
type Session struct {
	History *store.MemoryStore

	sink StateSink
	// notifyMu orders sink calls the same way as the transitions they report.
	notifyMu sync.Mutex

	mu    sync.Mutex
	state State
}

// NewSession starts an empty conversation. sink may be nil.
func NewSession(sink StateSink) *Session {
	return &Session{
		History: store.NewMemoryStore(),
		sink:    sink,
		state:   StateIdle,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// begin claims the session for a new exchange.
func (s *Session) begin() bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return false
	}
	s.state = StateAwaitingInput
	s.mu.Unlock()

	s.notify(StateAwaitingInput)
	return true
}

func (s *Session) setState(state State) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.notify(state)
}

func (s *Session) notify(state State) {
	if s.sink != nil {
		s.sink.StateChanged(state, state.InputEnabled())
	}
}
