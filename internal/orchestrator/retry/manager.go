// Package retry tracks re-execution attempts for analyzers within one run.
//
// The executor never retries on its own. The orchestrator consults a Manager
// after each round to decide which failed analyzers get another attempt:
// only failures marked retriable, and only while attempts remain.
package retry

import (
	"slices"
	"sync"
	"time"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
)

// Policy bounds retries for a run.
type Policy struct {
	// MaxRetries is the number of extra attempts after the first. 0 disables retry.
	MaxRetries int
	// Backoff is the wait before each retry round, doubled every round.
	Backoff time.Duration
}

// Enabled reports whether the policy allows any retry.
func (p Policy) Enabled() bool { return p.MaxRetries > 0 }

// Delay returns the wait before retry round n (1-based).
func (p Policy) Delay(round int) time.Duration {
	if p.Backoff <= 0 || round < 1 {
		return 0
	}
	d := p.Backoff
	for i := 1; i < round && d < time.Minute; i++ {
		d *= 2
	}
	return min(d, time.Minute)
}

// TaskState tracks retry attempts for one analyzer.
type TaskState struct {
	AnalyzerID analysis.AnalyzerID `json:"analyzer_id"`
	Attempts   int                 `json:"attempts"`
	MaxRetries int                 `json:"max_retries"`
	LastError  string              `json:"last_error,omitempty"`
	Retriable  bool                `json:"retriable"`
	Succeeded  bool                `json:"succeeded,omitempty"`
}

// Manager manages retry state for analyzers.
// It is thread-safe and can be used concurrently.
type Manager struct {
	mu         sync.RWMutex
	maxRetries int
	states     map[analysis.AnalyzerID]*TaskState
}

// NewManager creates a Manager allowing maxRetries extra attempts per analyzer.
func NewManager(maxRetries int) *Manager {
	return &Manager{
		maxRetries: max(0, maxRetries),
		states:     make(map[analysis.AnalyzerID]*TaskState),
	}
}

func (m *Manager) stateLocked(id analysis.AnalyzerID) *TaskState {
	state, exists := m.states[id]
	if !exists {
		state = &TaskState{AnalyzerID: id, MaxRetries: m.maxRetries}
		m.states[id] = state
	}
	return state
}

// RecordSuccess records a successful attempt. No further retries are allowed.
func (m *Manager) RecordSuccess(id analysis.AnalyzerID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.stateLocked(id)
	state.Attempts++
	state.Succeeded = true
	state.LastError = ""
}

// RecordFailure records a failed attempt.
func (m *Manager) RecordFailure(id analysis.AnalyzerID, f analysis.Failure) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.stateLocked(id)
	state.Attempts++
	state.LastError = f.Message
	state.Retriable = f.Retriable
}

// RecordSkip records an attempt that was interrupted. Skipped tasks are never retried.
func (m *Manager) RecordSkip(id analysis.AnalyzerID, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.stateLocked(id)
	state.Attempts++
	state.LastError = reason
	state.Retriable = false
}

// ShouldRetry reports whether id failed retriably and has attempts left.
func (m *Manager) ShouldRetry(id analysis.AnalyzerID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.states[id]
	if !exists {
		return false
	}
	return !state.Succeeded && state.Retriable && state.Attempts <= state.MaxRetries
}

// Pending returns the analyzers eligible for another attempt, sorted.
func (m *Manager) Pending() []analysis.AnalyzerID {
	m.mu.RLock()
	ids := make([]analysis.AnalyzerID, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	pending := slices.DeleteFunc(ids, func(id analysis.AnalyzerID) bool { return !m.ShouldRetry(id) })
	analysis.SortIDs(pending)
	return pending
}

// Attempts returns the number of recorded attempts for id.
func (m *Manager) Attempts(id analysis.AnalyzerID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if state, ok := m.states[id]; ok {
		return state.Attempts
	}
	return 0
}

// State returns a copy of the state for id, or nil if none was recorded.
func (m *Manager) State(id analysis.AnalyzerID) *TaskState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[id]
	if !ok {
		return nil
	}
	stateCopy := *state
	return &stateCopy
}

// Exhausted returns the analyzers that failed retriably and ran out of attempts.
func (m *Manager) Exhausted() []analysis.AnalyzerID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []analysis.AnalyzerID
	for id, state := range m.states {
		if !state.Succeeded && state.Retriable && state.Attempts > state.MaxRetries {
			out = append(out, id)
		}
	}
	analysis.SortIDs(out)
	return out
}

// Reset clears all retry state.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = make(map[analysis.AnalyzerID]*TaskState)
}
