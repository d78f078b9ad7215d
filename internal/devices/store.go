package devices

import (
	"sort"
	"sync"
	"time"
)

// Device is one known tuner. Records are keyed by the device-reported ID
// and live for the process lifetime; a lost device is marked not present
// rather than evicted so transient network flaps self-heal.
type Device struct {
	// ID is the stable device identifier reported by the device itself
	// (the DeviceID field of discover.json).
	ID string `json:"id"`

	// Address is the host or host:port the device was last reached at.
	Address string `json:"address"`

	// FriendlyName is the display name reported by the device.
	FriendlyName string `json:"friendly_name"`

	// LastSeen is when the device was last observed by discovery or seeded.
	LastSeen time.Time `json:"last_seen"`

	// LastSynced is when the device's lineup was last reconciled
	// successfully. Zero when the device has never been synced.
	LastSynced time.Time `json:"last_synced,omitempty"`

	// Present reports whether discovery currently sees the device.
	Present bool `json:"present"`
}

// Store is the in-memory device table. All methods are safe for concurrent
// use; the store lock is independent of the reconciliation run-lock so
// discovery events are never blocked behind a slow fetch.
type Store struct {
	mu      sync.RWMutex
	records map[string]*Device
	now     func() time.Time // injected for tests
}

// NewStore creates an empty device store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*Device),
		now:     time.Now,
	}
}

// Upsert inserts a device or updates it in place, refreshing LastSeen.
// Re-discovery of a known ID with a changed address updates the single
// existing record; it never creates a duplicate. Never fails.
func (s *Store) Upsert(id, address, friendlyName string) Device {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.records[id]
	if !ok {
		dev = &Device{ID: id}
		s.records[id] = dev
	}

	dev.Address = address
	if friendlyName != "" {
		dev.FriendlyName = friendlyName
	}
	dev.LastSeen = s.now()
	dev.Present = true

	return *dev
}

// Reidentify moves a provisionally keyed record to the device's real ID.
// If a record for newID already exists (discovery got there first), the
// provisional record is dropped and the existing one kept, so one physical
// device never occupies two table entries. No-op for unknown ids.
func (s *Store) Reidentify(oldID, newID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if oldID == newID {
		return
	}
	dev, ok := s.records[oldID]
	if !ok {
		return
	}
	delete(s.records, oldID)

	if _, exists := s.records[newID]; exists {
		return
	}
	dev.ID = newID
	s.records[newID] = dev
}

// MarkLost flags a device as not currently visible. The record and any
// sources derived from it are kept. No-op for unknown ids.
func (s *Store) MarkLost(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dev, ok := s.records[id]; ok {
		dev.Present = false
	}
}

// MarkSynced records a successful lineup reconciliation for the device.
// No-op for unknown ids.
func (s *Store) MarkSynced(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dev, ok := s.records[id]; ok {
		dev.LastSynced = s.now()
	}
}

// Get returns a copy of the device record, if known.
func (s *Store) Get(id string) (Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dev, ok := s.records[id]
	if !ok {
		return Device{}, false
	}
	return *dev, true
}

// List returns a snapshot of all known devices, sorted by ID for
// deterministic iteration.
func (s *Store) List() []Device {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Device, 0, len(s.records))
	for _, dev := range s.records {
		out = append(out, *dev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of known devices.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
