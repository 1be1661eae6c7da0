package app

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pointdeck/pointdeck/internal/domain"
)

// ConnID is the opaque transport connection identity. After the initial
// join the engine resolves room and user from it instead of trusting
// client-supplied identity.
type ConnID string

type connEntry struct {
	RoomKey string
	UserID  uuid.UUID
}

// RoomStore holds the authoritative roomKey → snapshot map plus one lock
// per room. Room keys are lowercased; the stored snapshot preserves the
// casing used by whichever connection created the room first.
//
// Locks are created lazily and never removed. That map grows with every
// room id ever seen; accepted tradeoff, a lock is a few bytes and room
// snapshots themselves are deleted once empty.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*domain.RoomState
	conns map[ConnID]connEntry

	locksMu sync.RWMutex
	locks   map[string]*sync.Mutex
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*domain.RoomState),
		conns: make(map[ConnID]connEntry),
		locks: make(map[string]*sync.Mutex),
	}
}

// RoomKey normalizes a room id for lookup.
func RoomKey(roomID string) string {
	return strings.ToLower(roomID)
}

// GetOrCreate returns the lock for a room, creating it if absent. Safe
// under concurrent first access for the same unseen room: exactly one
// lock object wins.
func (s *RoomStore) GetOrCreate(roomID string) *sync.Mutex {
	key := RoomKey(roomID)
	s.locksMu.RLock()
	mu, ok := s.locks[key]
	s.locksMu.RUnlock()
	if ok {
		return mu
	}
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if mu, ok = s.locks[key]; ok {
		return mu
	}
	mu = &sync.Mutex{}
	s.locks[key] = mu
	return mu
}

// WithRoomLock runs action while holding the room's lock. The lock is
// released in all cases, including an action panic. This is the single
// synchronization primitive in the system; contention is scoped per
// room, rooms never block each other.
func (s *RoomStore) WithRoomLock(roomID string, action func() error) error {
	mu := s.GetOrCreate(roomID)
	mu.Lock()
	defer mu.Unlock()
	return action()
}

// Snapshot returns the current committed snapshot for a room.
func (s *RoomStore) Snapshot(roomID string) (*domain.RoomState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[RoomKey(roomID)]
	return r, ok
}

// Snapshots returns every committed snapshot. Used by the reset
// scheduler's periodic scan.
func (s *RoomStore) Snapshots() []*domain.RoomState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.RoomState, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out
}

// CompareAndCommit atomically replaces the stored snapshot if it still
// is expected. expected nil means "room must be absent" (creation);
// next nil deletes the room. All writers go through WithRoomLock so in
// practice this always succeeds, but the check stays atomic for callers
// that read a snapshot outside the lock.
func (s *RoomStore) CompareAndCommit(roomID string, expected, next *domain.RoomState) bool {
	key := RoomKey(roomID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rooms[key] != expected {
		return false
	}
	if next == nil {
		delete(s.rooms, key)
		log.Debug().Str("module", "app.store").Str("room", key).Msg("room deleted")
		return true
	}
	s.rooms[key] = next
	return true
}

// Bind records which room and user a connection speaks for.
func (s *RoomStore) Bind(conn ConnID, roomID string, userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = connEntry{RoomKey: RoomKey(roomID), UserID: userID}
	log.Info().Str("module", "app.store").Str("conn", string(conn)).Str("room", RoomKey(roomID)).Msg("bound connection")
}

// Lookup resolves a connection to its room key and user id.
func (s *RoomStore) Lookup(conn ConnID) (string, uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.conns[conn]
	return e.RoomKey, e.UserID, ok
}

// Unbind drops a connection's identity mapping, returning what it was.
func (s *RoomStore) Unbind(conn ConnID) (string, uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.conns[conn]
	if !ok {
		return "", uuid.Nil, false
	}
	delete(s.conns, conn)
	log.Info().Str("module", "app.store").Str("conn", string(conn)).Msg("unbound connection")
	return e.RoomKey, e.UserID, true
}
