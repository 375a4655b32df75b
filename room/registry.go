package room

import (
	"errors"
	"sync"
	"time"

	"github.com/GitProjsStack/chess-arena/rules"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")
)

// Room is one game session. All fields are guarded by mu.
type Room struct {
	ID string

	mu         sync.Mutex
	position   rules.Position
	version    uint64
	members    map[string]Participant
	lastActive time.Time
	evicted    bool
}

func (r *Room) replace(pos rules.Position, now time.Time) {
	r.position = pos
	r.version++
	r.lastActive = now
}

func (r *Room) memberIDs() []string {
	ids := lo.Keys(r.members)
	slices.Sort(ids)
	return ids
}

// Snapshot is a copy of a room's state taken under its lock.
type Snapshot struct {
	ID           string
	Position     rules.Position
	Version      uint64
	Participants []string
	LastActive   time.Time
}

type Option func(*Registry)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// Registry maps room ids to rooms. It holds no game logic.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	membersMu   sync.Mutex
	memberships map[string]map[string]struct{}

	start rules.Position
	now   func() time.Time
}

func NewRegistry(start rules.Position, opts ...Option) *Registry {
	r := &Registry{
		rooms:       make(map[string]*Room),
		memberships: make(map[string]map[string]struct{}),
		start:       start,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Registry) newRoom(id string) *Room {
	return &Room{
		ID:         id,
		position:   r.start,
		members:    make(map[string]Participant),
		lastActive: r.now(),
	}
}

// acquire returns the room locked. With create set a missing room is made
// with the starting position. The caller must unlock the room.
func (r *Registry) acquire(id string, create bool) (*Room, bool) {
	for {
		r.mu.RLock()
		room, ok := r.rooms[id]
		r.mu.RUnlock()

		if !ok {
			if !create {
				return nil, false
			}

			r.mu.Lock()
			if room, ok = r.rooms[id]; !ok {
				room = r.newRoom(id)
				r.rooms[id] = room
			}
			r.mu.Unlock()
		}

		room.mu.Lock()
		if !room.evicted {
			return room, true
		}
		// swept between lookup and lock, look again
		room.mu.Unlock()
	}
}

// GetOrCreate returns the room with the given id, creating it with the
// starting position if it does not exist.
func (r *Registry) GetOrCreate(id string) *Room {
	room, _ := r.acquire(id, true)
	room.mu.Unlock()
	return room
}

// Create adds a room with the starting position. It fails with ErrRoomExists
// if the id is taken.
func (r *Registry) Create(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[id]; ok {
		return ErrRoomExists
	}

	r.rooms[id] = r.newRoom(id)
	return nil
}

func (r *Registry) Get(id string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	return room, ok
}

// ReplacePosition swaps the room's position wholesale.
func (r *Registry) ReplacePosition(id string, pos rules.Position) error {
	room, ok := r.acquire(id, false)
	if !ok {
		return ErrRoomNotFound
	}
	defer room.mu.Unlock()

	room.replace(pos, r.now())
	return nil
}

func (r *Registry) Snapshot(id string) (Snapshot, bool) {
	room, ok := r.acquire(id, false)
	if !ok {
		return Snapshot{}, false
	}
	defer room.mu.Unlock()

	return Snapshot{
		ID:           room.ID,
		Position:     room.position,
		Version:      room.version,
		Participants: room.memberIDs(),
		LastActive:   room.lastActive,
	}, true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}

func (r *Registry) addMembership(participantID, roomID string) {
	r.membersMu.Lock()
	defer r.membersMu.Unlock()

	rooms, ok := r.memberships[participantID]
	if !ok {
		rooms = make(map[string]struct{})
		r.memberships[participantID] = rooms
	}
	rooms[roomID] = struct{}{}
}

func (r *Registry) removeMembership(participantID, roomID string) {
	r.membersMu.Lock()
	defer r.membersMu.Unlock()

	rooms := r.memberships[participantID]
	delete(rooms, roomID)
	if len(rooms) == 0 {
		delete(r.memberships, participantID)
	}
}

// dropMemberships forgets every room the participant joined and returns them.
func (r *Registry) dropMemberships(participantID string) []string {
	r.membersMu.Lock()
	defer r.membersMu.Unlock()

	ids := lo.Keys(r.memberships[participantID])
	delete(r.memberships, participantID)

	slices.Sort(ids)
	return ids
}

// RoomsOf lists the rooms a participant is subscribed to.
func (r *Registry) RoomsOf(participantID string) []string {
	r.membersMu.Lock()
	defer r.membersMu.Unlock()

	ids := lo.Keys(r.memberships[participantID])
	slices.Sort(ids)
	return ids
}

// Sweep evicts rooms that have had no members for longer than ttl and
// returns their ids. Rooms busy with an intent are skipped until the next
// sweep. A ttl of zero or less never evicts.
func (r *Registry) Sweep(ttl time.Duration) []string {
	if ttl <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	evicted := []string{}

	for id, room := range r.rooms {
		if !room.mu.TryLock() {
			continue
		}

		if len(room.members) == 0 && now.Sub(room.lastActive) > ttl {
			room.evicted = true
			delete(r.rooms, id)
			evicted = append(evicted, id)
		}

		room.mu.Unlock()
	}

	slices.Sort(evicted)
	return evicted
}
