package compare

import "sync"

// Status is the lifecycle state of one render target within a session.
type Status string

const (
	// StatusPending means no render has started for the target.
	StatusPending Status = "pending"

	// StatusRendering means a render is in flight.
	StatusRendering Status = "rendering"

	// StatusSame is terminal: both sides rendered identically.
	StatusSame Status = "same"

	// StatusDiff is terminal: the rendered sides differ.
	StatusDiff Status = "diff"

	// StatusError is terminal: the target could not be rendered.
	StatusError Status = "error"
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusSame || s == StatusDiff || s == StatusError
}

// statusRank orders states for the no-regression rule: a target only ever
// moves forward, and never leaves a terminal state.
func statusRank(s Status) int {
	switch s {
	case StatusPending:
		return 0
	case StatusRendering:
		return 1
	default:
		return 2
	}
}

// StatusMap tracks per-target status under one mutex. The precache worker and
// the interactive render path both write through it; the presentation layer
// polls it. Writes that would move a target backwards are refused.
type StatusMap struct {
	mu       sync.Mutex
	statuses map[string]Status
}

// NewStatusMap returns a map with every key initialized to pending.
func NewStatusMap(keys []string) *StatusMap {
	statuses := make(map[string]Status, len(keys))
	for _, key := range keys {
		statuses[key] = StatusPending
	}
	return &StatusMap{statuses: statuses}
}

// Get returns the status for key, or pending for an unknown key.
func (m *StatusMap) Get(key string) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.statuses[key]; ok {
		return s
	}
	return StatusPending
}

// All returns a copy of the full status table.
func (m *StatusMap) All() map[string]Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Status, len(m.statuses))
	for k, v := range m.statuses {
		out[k] = v
	}
	return out
}

// Advance moves key to s if that is a forward transition, reporting whether
// the write took effect. Terminal states never change, and rendering never
// falls back to pending.
func (m *StatusMap) Advance(key string, s Status) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.statuses[key]
	if cur.Terminal() || statusRank(s) <= statusRank(cur) {
		return false
	}
	m.statuses[key] = s
	return true
}

// BeginIfPending moves key from pending to rendering, reporting whether it
// did. Used by the precache worker so it never clobbers a status already
// advanced by a concurrent interactive selection.
func (m *StatusMap) BeginIfPending(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statuses[key] != StatusPending {
		return false
	}
	m.statuses[key] = StatusRendering
	return true
}
