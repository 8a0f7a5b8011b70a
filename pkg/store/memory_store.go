package store

import (
	"sync"

	"mixmeet/pkg/domain"
)

// MemoryStore keeps reservations and users in-process. It backs tests and
// local development without Postgres.
type MemoryStore struct {
	mu           sync.RWMutex
	nextID       uint
	reservations map[uint]domain.Reservation
	order        []uint
	users        map[string]domain.User
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:       1,
		reservations: make(map[uint]domain.Reservation),
		users:        make(map[string]domain.User),
	}
}

// CreateReservation assigns the next id and stores the record.
func (m *MemoryStore) CreateReservation(r domain.Reservation) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.nextID
	m.nextID++
	m.reservations[r.ID] = r
	m.order = append(m.order, r.ID)
	return r, nil
}

// GetReservation retrieves a reservation by id.
func (m *MemoryStore) GetReservation(id uint) (domain.Reservation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reservations[id]
	return r, ok, nil
}

// ListReservations returns reservations in insertion order.
func (m *MemoryStore) ListReservations() ([]domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Reservation, 0, len(m.order))
	for _, id := range m.order {
		if r, ok := m.reservations[id]; ok {
			res = append(res, r)
		}
	}
	return res, nil
}

// ListReservationsByRoom filters by normalized location and room keys.
func (m *MemoryStore) ListReservationsByRoom(locationKey, roomKey string) ([]domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Reservation, 0)
	for _, id := range m.order {
		r, ok := m.reservations[id]
		if !ok {
			continue
		}
		if domain.NormalizeKey(r.Location) == locationKey && domain.NormalizeKey(r.Room) == roomKey {
			res = append(res, r)
		}
	}
	return res, nil
}

// UpdateReservation replaces an existing record.
func (m *MemoryStore) UpdateReservation(r domain.Reservation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[r.ID]; !ok {
		return false, nil
	}
	m.reservations[r.ID] = r
	return true, nil
}

// DeleteReservation removes a record by id.
func (m *MemoryStore) DeleteReservation(id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[id]; !ok {
		return false, nil
	}
	delete(m.reservations, id)
	filtered := m.order[:0]
	for _, item := range m.order {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	m.order = filtered
	return true, nil
}

// GetUserByPhone looks up a user by phone number.
func (m *MemoryStore) GetUserByPhone(phoneNumber string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[phoneNumber]
	return u, ok, nil
}

// SaveUser registers or updates a user. CreatedAt of an existing record wins.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.users[u.PhoneNumber]; ok {
		u.CreatedAt = existing.CreatedAt
	}
	m.users[u.PhoneNumber] = u
	return nil
}
