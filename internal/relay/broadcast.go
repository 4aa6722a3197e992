package relay

import (
	"sync"

	"github.com/michael4d45/moonrelay/internal/protocol"
)

// broadcast sends pkt verbatim to every connected peer other than the
// one identified by pkt.ID. Grounded on the teacher's Server.broadcast
// (internal/server/server.go): snapshot the recipient set under the
// PeerMap lock, then iterate and write without holding it.
func (s *Server) broadcast(pkt protocol.Packet) {
	for _, peer := range s.peers.Snapshot() {
		if peer.ID == pkt.ID || !peer.Connected() {
			continue
		}
		peer.Send(pkt)
	}
}

// broadcastMap sends a possibly-rewritten copy of pkt to every
// connected peer other than the sender. f receives the recipient's
// Player record and returns the packet to deliver plus whether to
// deliver anything at all; each call site supplies its own concrete f
// rather than relying on runtime polymorphism (spec.md §9).
//
// f is invoked concurrently per recipient (spec.md §4.6.3): a slow or
// blocked recipient's transform must not delay delivery to the rest of
// the peer map. Per-recipient write ordering is still preserved by
// Peer's write lock.
func (s *Server) broadcastMap(pkt protocol.Packet, f func(recipient *Player) (protocol.Packet, bool)) {
	var wg sync.WaitGroup
	for _, peer := range s.peers.Snapshot() {
		if peer.ID == pkt.ID || !peer.Connected() {
			continue
		}
		recipient, ok := s.registry.Get(peer.ID)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(peer *Peer, recipient *Player) {
			defer wg.Done()
			out, ok := f(recipient)
			if !ok {
				return
			}
			peer.Send(out)
		}(peer, recipient)
	}
	wg.Wait()
}
