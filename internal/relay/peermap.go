package relay

import (
	"sync"

	"github.com/google/uuid"
)

// PeerMap tracks currently connected peers, separately from
// PlayerRegistry's lifetime-spanning Player records. A player can
// exist in the registry with no entry here (disconnected) or can be
// evicted and replaced here by a fresher connection from the same
// PlayerId (spec.md §4.6.1 "stale peer eviction").
//
// Lock order across the relay package is Settings -> PeerMap -> Player
// -> ShineBag; PeerMap must never be locked while holding a Player
// lock, and no network write may happen while mu is held.
type PeerMap struct {
	mu    sync.RWMutex
	peers map[uuid.UUID]*Peer
}

func NewPeerMap() *PeerMap {
	return &PeerMap{peers: make(map[uuid.UUID]*Peer)}
}

// Insert adds peer, returning the peer it replaced (if any) so the
// caller can evict it outside the lock.
func (m *PeerMap) Insert(peer *Peer) (evicted *Peer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted = m.peers[peer.ID]
	m.peers[peer.ID] = peer
	return evicted
}

// Remove deletes id's entry only if it still points at peer (a newer
// connection for the same id must not be removed by the old one's
// teardown path).
func (m *PeerMap) Remove(id uuid.UUID, peer *Peer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.peers[id]; ok && cur == peer {
		delete(m.peers, id)
	}
}

func (m *PeerMap) Get(id uuid.UUID) (*Peer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.peers[id]
	return p, ok
}

// Snapshot returns a copy of the current peer set, safe to range over
// without holding the lock (grounded on the teacher's
// SnapshotPlayers/broadcastToPlayers split of "read peers" from "write
// to peers").
func (m *PeerMap) Snapshot() []*Peer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Peer, 0, len(m.peers))
	for _, p := range m.peers {
		out = append(out, p)
	}
	return out
}

// Len reports the number of currently connected peers.
func (m *PeerMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.peers)
}
