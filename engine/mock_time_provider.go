package engine

import (
	"sync"
	"time"
)

// MockTimeProvider is a hand-driven Clock for scheduler tests
// With a step set, every reading moves time forward, as if each tick phase took that long
type MockTimeProvider struct {
	mu    sync.Mutex
	now   time.Time
	step  time.Duration
	reads int
}

// NewMockTimeProvider starts the clock at start with no auto step
func NewMockTimeProvider(start time.Time) *MockTimeProvider {
	return &MockTimeProvider{now: start}
}

// Now returns the current reading, then applies the auto step
func (m *MockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.now
	m.now = m.now.Add(m.step)
	m.reads++
	return t
}

// Set jumps the clock to t
func (m *MockTimeProvider) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// SetStep makes every later reading advance the clock by d; zero freezes it
func (m *MockTimeProvider) SetStep(d time.Duration) {
	m.mu.Lock()
	m.step = d
	m.mu.Unlock()
}

// Reads returns how many times Now was called
func (m *MockTimeProvider) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}
