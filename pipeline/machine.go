package pipeline

import (
	"fmt"
	"sync"
)

// Phase is the coarse position of a run.
type Phase string

const (
	PhaseNotStarted  Phase = "not_started"
	PhaseValidating  Phase = "validating"
	PhaseRunning     Phase = "running"
	PhaseAggregating Phase = "aggregating"
	PhaseSucceeded   Phase = "succeeded"
	PhaseFailed      Phase = "failed"
)

// State is a position in the run state machine. Stage is only meaningful
// while Running.
type State struct {
	Phase Phase
	Stage int
}

var (
	NotStarted  = State{Phase: PhaseNotStarted}
	Validating  = State{Phase: PhaseValidating}
	Aggregating = State{Phase: PhaseAggregating}
	Succeeded   = State{Phase: PhaseSucceeded}
	Failed      = State{Phase: PhaseFailed}
)

// Running is the state of executing stage i.
func Running(i int) State { return State{Phase: PhaseRunning, Stage: i} }

func (s State) String() string {
	if s.Phase == PhaseRunning {
		return fmt.Sprintf("running(%d)", s.Stage)
	}
	return string(s.Phase)
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s.Phase == PhaseSucceeded || s.Phase == PhaseFailed
}

// Machine tracks the state of one run and rejects transitions the pipeline
// does not allow.
type Machine struct {
	mu      sync.Mutex
	stages  int
	current State
	history []State
}

// NewMachine creates a machine for a pipeline of the given number of stages.
func NewMachine(stages int) *Machine {
	return &Machine{stages: stages, current: NotStarted, history: []State{NotStarted}}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// History returns every state visited, starting with NotStarted.
func (m *Machine) History() []State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]State(nil), m.history...)
}

// Transition moves the machine from one state to another. The caller passes
// the state it expects to leave so that a stale view is reported instead of
// silently overwritten.
func (m *Machine) Transition(from, to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != from {
		return fmt.Errorf("invalid transition: expected %s, got %s", from, m.current)
	}
	if !m.allowed(from, to) {
		return fmt.Errorf("disallowed transition: %s -> %s", from, to)
	}
	m.current = to
	m.history = append(m.history, to)
	return nil
}

func (m *Machine) allowed(from, to State) bool {
	switch from.Phase {
	case PhaseNotStarted:
		return to == Validating
	case PhaseValidating:
		return to == Failed || (m.stages > 0 && to == Running(0)) || (m.stages == 0 && to == Aggregating)
	case PhaseRunning:
		switch {
		case to == Failed:
			return true
		case from.Stage == m.stages-1:
			return to == Aggregating
		default:
			return to == Running(from.Stage+1)
		}
	case PhaseAggregating:
		return to == Succeeded || to == Failed
	default:
		return false
	}
}
