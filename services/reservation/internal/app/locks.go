package app

import "sync"

// roomLocks serializes check-then-write sequences per normalized room so two
// concurrent requests cannot both pass the conflict check for the same room.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for the room key and returns its release func.
func (l *roomLocks) acquire(locationKey, roomKey string) func() {
	key := locationKey + "\x00" + roomKey
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
