package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/chatconsole/chatconsole/internal/bus"
)

// State is the state of the conversation list refresh.
type State string

const (
	Idle    State = "IDLE"
	Loading State = "LOADING"
	Ready   State = "READY"
	Failed  State = "FAILED"
)

// Loading -> Loading happens when a refresh supersedes one still in flight.
var validTransitions = map[State][]State{
	Idle:    {Loading},
	Loading: {Loading, Ready, Failed},
	Ready:   {Loading},
	Failed:  {Loading},
}

// Machine tracks and enforces refresh state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	lastErr error
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Idle state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Idle,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// LastError returns the error that caused the latest Failed state, or nil
// once a later refresh has started.
func (m *Machine) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	return m.transition(to, nil)
}

// Fail moves to Failed and records cause.
func (m *Machine) Fail(cause error) error {
	return m.transition(Failed, cause)
}

func (m *Machine) transition(to State, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	m.lastErr = cause
	if m.bus != nil {
		change := StatusChange{From: from, To: to}
		if cause != nil {
			change.Err = cause.Error()
		}
		m.bus.Publish(bus.Event{
			Kind:      bus.KindRefreshStatus,
			Timestamp: time.Now(),
			Payload:   change,
		})
	}
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
	Err  string
}
