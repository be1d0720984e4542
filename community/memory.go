package community

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// MemoryStore implements Store with maps guarded by a mutex. The mutex makes
// ReserveSeat's capacity check and increment one atomic step, matching the
// conditional UPDATE the SQLite store uses.
type MemoryStore struct {
	mu     sync.RWMutex
	rooms  map[string]Room
	events map[EventID]Event
	staff  map[PersonnelID]StaffMember
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:  make(map[string]Room),
		events: make(map[EventID]Event),
		staff:  make(map[PersonnelID]StaffMember),
	}
}

func (m *MemoryStore) AddRoom(_ context.Context, room Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.Number] = room
	return nil
}

func (m *MemoryStore) AddEvent(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = event
	return nil
}

func (m *MemoryStore) GetEvent(_ context.Context, id EventID) (Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return Event{}, ErrEventNotFound
	}
	return e, nil
}

func (m *MemoryStore) SearchEvents(_ context.Context, query string) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(query)
	var results []Event
	for _, e := range m.events {
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Type), q) {
			results = append(results, e)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *MemoryStore) ReserveSeat(_ context.Context, id EventID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[id]
	if !ok {
		return ErrEventNotFound
	}
	room, ok := m.rooms[e.RoomNumber]
	if !ok {
		return ErrRoomNotFound
	}
	if e.ReservedSeats >= room.MaxCapacity {
		return ErrCapacityExceeded
	}
	e.ReservedSeats++
	m.events[id] = e
	return nil
}

func (m *MemoryStore) AddStaff(_ context.Context, member StaffMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staff[member.ID] = member
	return nil
}

func (m *MemoryStore) FindLibrarian(_ context.Context, roomNumber string) (StaffMember, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.staff {
		if s.RoomNumber == roomNumber && strings.Contains(s.Position, "Librarian") {
			return s, true, nil
		}
	}
	return StaffMember{}, false, nil
}
