package relay

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// PlayerRegistry holds every Player the relay has ever seen, keyed by
// id and by a case-insensitive name index for the console's "rejoin"
// and "send" verbs. A Player is never removed once created: a
// reconnect rebinds the existing record rather than replacing it
// (spec.md §4.6.1 "Identity binding").
//
// Locking follows the teacher's SnapshotPlayers/withRLock discipline
// (internal/server/state.go in the source repo) generalized from one
// coarse state lock to a registry-level lock that only guards the two
// index maps; per-player field access is independently guarded inside
// Player itself so that a broadcast reading one player's pose never
// blocks a console command inspecting another's.
type PlayerRegistry struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*Player
	byName  map[string]uuid.UUID // lowercased name -> id
}

func NewPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{
		byID:   make(map[uuid.UUID]*Player),
		byName: make(map[string]uuid.UUID),
	}
}

// Get returns the existing Player for id, if any.
func (r *PlayerRegistry) Get(id uuid.UUID) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	return p, ok
}

// GetByName looks up a player by case-insensitive name.
func (r *PlayerRegistry) GetByName(name string) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	p, ok := r.byID[id]
	return p, ok
}

// Bind returns the existing Player for id if present (a reconnect),
// otherwise creates and stores a new one (a first join). The returned
// bool is true when an existing record was reused.
//
// A reconnect's claimed name is intentionally ignored when a Player
// already exists for id: per spec.md's identity-on-reconnect note, the
// first-join name is authoritative for the server's lifetime.
func (r *PlayerRegistry) Bind(id uuid.UUID, name string) (player *Player, existed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byID[id]; ok {
		return p, true
	}
	p := NewPlayer(id, name)
	r.byID[id] = p
	r.byName[strings.ToLower(name)] = id
	return p, false
}

// All returns a snapshot slice of every known player, grounded on the
// teacher's SnapshotPlayers pattern of copying under the lock rather
// than exposing the live map to callers.
func (r *PlayerRegistry) All() []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Player, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out
}

// IDName pairs a player's id and display name.
type IDName struct {
	ID   uuid.UUID
	Name string
}

// AllIDsAndNames returns every known player's id and name: callers
// that only need identity (e.g. resolving a console name list against
// the full population) don't have to touch each Player's own lock.
func (r *PlayerRegistry) AllIDsAndNames() []IDName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]IDName, 0, len(r.byID))
	for id, p := range r.byID {
		out = append(out, IDName{ID: id, Name: p.Name})
	}
	return out
}

// Count returns the number of distinct players ever bound, not the
// number currently connected (the PeerMap tracks connectedness).
func (r *PlayerRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
