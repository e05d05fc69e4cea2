package chat

import "sync"

// SessionState is what the router expects the next customer message to be
type SessionState int

const (
	// SessionIdle means the next message is a menu command
	SessionIdle SessionState = iota
	// SessionAwaitingOrderID means the next message is an order id to look up
	SessionAwaitingOrderID
	// SessionAwaitingNewOrder means the next message is "product,quantity"
	SessionAwaitingNewOrder
)

// String returns a readable name for logs
func (s SessionState) String() string {
	switch s {
	case SessionAwaitingOrderID:
		return "awaiting_order_id"
	case SessionAwaitingNewOrder:
		return "awaiting_new_order"
	default:
		return "idle"
	}
}

// SessionStore holds the pending prompt of each customer.
// A state is single-use: Take returns it and resets the customer to idle.
type SessionStore struct {
	mu     sync.Mutex
	states map[string]SessionState
}

// NewSessionStore creates an empty store
func NewSessionStore() *SessionStore {
	return &SessionStore{states: make(map[string]SessionState)}
}

// Set records the prompt a customer is answering next
func (s *SessionStore) Set(identity string, state SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state == SessionIdle {
		delete(s.states, identity)
		return
	}
	s.states[identity] = state
}

// Take returns the pending state and clears it
func (s *SessionStore) Take(identity string) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.states[identity]
	delete(s.states, identity)
	return state
}

// Peek returns the pending state without clearing it
func (s *SessionStore) Peek(identity string) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[identity]
}
