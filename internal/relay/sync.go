package relay

import (
	"log"
	"time"

	"github.com/michael4d45/moonrelay/internal/protocol"
)

// logPersistenceError implements spec.md §7's PersistenceError rule:
// log and continue, never abort the connection or the process.
func logPersistenceError(op string, err error) {
	log.Printf("relay: %s: %v", op, err)
}

// syncPlayerShineBag is a no-op while the player is mid-speedrun
// (spec.md §4.6.4); otherwise it diffs the global bag against the
// player's own mirror and sends one Shine packet per missing id.
func (s *Server) syncPlayerShineBag(player *Player) {
	if player.IsSpeedrun() {
		return
	}
	peer, ok := s.peers.Get(player.ID)
	if !ok || !peer.Connected() {
		return
	}
	mirror := player.ShineSyncSnapshot()
	for _, id := range s.shines.Snapshot() {
		if _, already := mirror[id]; already {
			continue
		}
		player.ShineSyncAdd(id)
		peer.Send(protocol.NewPacket(player.ID, protocol.Shine{ID: id}))
	}
}

// syncShineBag syncs every known player.
// Idempotent: calling it twice with no intervening collection sends no
// further packets, because syncPlayerShineBag only ever sends the
// diff against each player's already-updated mirror.
func (s *Server) syncShineBag() {
	// ShineBag persists itself atomically on every Add/Clear, so there
	// is nothing left to flush here; this call only fans out diffs.
	for _, player := range s.registry.All() {
		s.syncPlayerShineBag(player)
	}
}

// RunPeriodicShineSync blocks, calling syncShineBag every
// s.SyncInterval, until Stop is called. The accept loop's caller runs
// this in its own goroutine.
func (s *Server) RunPeriodicShineSync() {
	ticker := time.NewTicker(s.SyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.syncShineBag()
		case <-s.stop:
			return
		}
	}
}
