package registry

import (
	"fmt"
	"sort"
	"sync"
)

// IntentType identifies a registry mutation for event subscribers.
type IntentType string

const (
	IntentCreate IntentType = "create"
	IntentUpdate IntentType = "update"
	IntentDelete IntentType = "delete"
)

// Intent is a registry mutation notification delivered to subscribers
// (e.g. the control server's WebSocket event stream).
type Intent struct {
	Type   IntentType `json:"type"`
	Source Source     `json:"source"`
}

// Memory is an in-process Registry used by the daemon and by tests. It
// upholds the at-most-one-source-per-origin invariant and can notify an
// observer of every applied intent.
type Memory struct {
	mu      sync.RWMutex
	sources map[OriginID]Source

	// notify, when set, is called after every successful mutation. Called
	// with the registry lock held; observers must not call back in.
	notify func(Intent)
}

// NewMemory creates an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{sources: make(map[OriginID]Source)}
}

// OnIntent registers an observer invoked for every applied intent.
func (m *Memory) OnIntent(fn func(Intent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notify = fn
}

// CreateSource implements Registry.
func (m *Memory) CreateSource(origin OriginID, displayName, streamURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sources[origin]; exists {
		return fmt.Errorf("source already registered for %s", origin)
	}

	src := Source{Origin: origin, DisplayName: displayName, StreamURL: streamURL}
	m.sources[origin] = src
	if m.notify != nil {
		m.notify(Intent{Type: IntentCreate, Source: src})
	}
	return nil
}

// UpdateSource implements Registry.
func (m *Memory) UpdateSource(origin OriginID, displayName, streamURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sources[origin]; !exists {
		return fmt.Errorf("no source registered for %s", origin)
	}

	src := Source{Origin: origin, DisplayName: displayName, StreamURL: streamURL}
	m.sources[origin] = src
	if m.notify != nil {
		m.notify(Intent{Type: IntentUpdate, Source: src})
	}
	return nil
}

// DeleteSource implements Registry.
func (m *Memory) DeleteSource(origin OriginID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, exists := m.sources[origin]
	if !exists {
		return fmt.Errorf("no source registered for %s", origin)
	}

	delete(m.sources, origin)
	if m.notify != nil {
		m.notify(Intent{Type: IntentDelete, Source: src})
	}
	return nil
}

// List returns a snapshot of all registered sources, sorted by origin for
// deterministic output.
func (m *Memory) List() []Source {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Source, 0, len(m.sources))
	for _, src := range m.sources {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Origin.DeviceID != out[j].Origin.DeviceID {
			return out[i].Origin.DeviceID < out[j].Origin.DeviceID
		}
		return out[i].Origin.ChannelKey < out[j].Origin.ChannelKey
	})
	return out
}

// Len returns the number of registered sources.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sources)
}
