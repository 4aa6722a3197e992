package relay

import (
	"errors"
	"io"
	"log"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/michael4d45/moonrelay/internal/protocol"
)

// Server holds every process-wide shared component and implements the
// connection state machine, broadcast engine, and per-recipient
// transforms. Grounded on the teacher's Server struct
// (internal/server/server.go), generalized from an HTTP+websocket
// upgrade handler to a raw net.Conn accept handler.
type Server struct {
	peers    *PeerMap
	registry *PlayerRegistry
	shines   *ShineBag
	settings *SettingsStore

	// SyncInterval is parameterized for tests (spec.md §9 "Periodic
	// sync interval is 120s; parameterize it for tests").
	SyncInterval time.Duration

	stop chan struct{}
}

// New wires the four shared components into a Server ready to accept
// connections.
func New(registry *PlayerRegistry, peers *PeerMap, shines *ShineBag, settings *SettingsStore) *Server {
	return &Server{
		peers:        peers,
		registry:     registry,
		shines:       shines,
		settings:     settings,
		SyncInterval: 120 * time.Second,
		stop:         make(chan struct{}),
	}
}

// Settings exposes the settings store to the console collaborator.
func (s *Server) Settings() *SettingsStore { return s.settings }

// Shines exposes the shine bag to the console collaborator.
func (s *Server) Shines() *ShineBag { return s.shines }

// Registry exposes the player registry to the console collaborator.
func (s *Server) Registry() *PlayerRegistry { return s.registry }

// Peers exposes the peer map to the console collaborator.
func (s *Server) Peers() *PeerMap { return s.peers }

// Kick disconnects the peer bound to id, if currently connected. The
// peer's own steady-state read loop observes the resulting close and
// runs teardown exactly once; Kick itself does not broadcast, so the
// console's rejoin/crash/ban verbs can call it without producing a
// duplicate Disconnect broadcast.
func (s *Server) Kick(id uuid.UUID) {
	if peer, ok := s.peers.Get(id); ok {
		peer.Disconnect()
	}
}

// Broadcast exposes the verbatim fan-out primitive to the console
// collaborator (spec.md §6 "sendall").
func (s *Server) Broadcast(pkt protocol.Packet) {
	s.broadcast(pkt)
}

// SyncShineBag exposes the manual "shine sync" console verb.
func (s *Server) SyncShineBag() {
	s.syncShineBag()
}

// Stop signals the periodic shine sync to exit; a delayed speedrun
// re-sync that is already sleeping still runs. The accept loop's caller is
// expected to os.Exit shortly after per spec.md §5 "stop initiates an
// immediate process exit" — Stop exists so tests can shut a Server
// down cleanly without exiting the process.
func (s *Server) Stop() {
	close(s.stop)
}

// HandleConnection drives one accepted socket through the full
// connection state machine (spec.md §4.6.1): ban gate, handshake,
// capacity check, eviction of a stale peer, identity binding,
// catch-up, and the steady-state read loop, ending in teardown.
func (s *Server) HandleConnection(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		host = conn.RemoteAddr().String()
	}
	if s.settings.IPBanned(host) {
		log.Printf("relay: rejecting banned ip %s", host)
		return
	}

	if _, err := protocol.NewPacket(uuid.Nil, protocol.Init{MaxPlayer: int16(s.settings.MaxPlayers())}).WriteTo(conn); err != nil {
		log.Printf("relay: init write to %s failed: %v", host, err)
		return
	}

	first, err := protocol.ReadPacket(conn)
	if err != nil {
		log.Printf("relay: handshake read from %s failed: %v", host, err)
		return
	}
	connectBody, ok := first.Content.(protocol.Connect)
	if !ok {
		log.Printf("relay: %s sent %T instead of Connect: %v", host, first.Content, ErrNotConnect)
		return
	}

	if s.peers.Len() >= s.settings.MaxPlayers() {
		log.Printf("relay: rejecting %s: %v", host, ErrCapacity)
		return
	}

	id := first.ID
	if evicted, existed := s.peers.Get(id); existed {
		evicted.Disconnect()
		s.peers.Remove(id, evicted)
	}

	name := connectBody.ClientName
	player, reconnected := s.registry.Bind(id, name)
	if !reconnected && name == "" {
		log.Printf("relay: rejecting %s: %v", host, ErrIdentityMissing)
		return
	}

	if s.settings.PlayerBanned(id) || s.settings.IPBanned(host) {
		log.Printf("relay: rejecting banned player %s (%s)", id, host)
		return
	}

	peer := NewPeer(id, conn)
	for _, other := range s.registry.All() {
		if other.ID == id {
			continue
		}
		if pkt, ok := other.LastGamePacket(); ok {
			peer.Send(pkt)
		}
	}

	if evicted := s.peers.Insert(peer); evicted != nil && evicted != peer {
		evicted.Disconnect()
	}

	s.broadcast(protocol.NewPacket(id, connectBody))

	maxPlayers := uint16(s.settings.MaxPlayers())
	for _, other := range s.peers.Snapshot() {
		if other.ID == id {
			continue
		}
		otherPlayer, ok := s.registry.Get(other.ID)
		if !ok {
			continue
		}
		peer.Send(protocol.NewPacket(other.ID, protocol.Connect{
			ConnectionType: protocol.ConnectionFirst,
			MaxPlayer:      maxPlayers,
			ClientName:     otherPlayer.Name,
		}))
		if costume, ok := otherPlayer.Costume(); ok {
			peer.Send(protocol.NewPacket(other.ID, protocol.Costume{Body: costume.Body, Cap: costume.Cap}))
		}
	}

	log.Printf("relay: %s bound to player %s (%s) [reconnect=%v]", host, id, player.Name, reconnected)

	s.steadyState(conn, peer, player)
}

// steadyState reads packets until EOF, a Disconnect, an I/O error, or
// an identity mismatch, then runs teardown.
func (s *Server) steadyState(conn net.Conn, peer *Peer, player *Player) {
	defer s.teardown(peer)

	for {
		pkt, err := protocol.ReadPacket(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("relay: read from %s ended: %v", peer.ID, err)
			}
			return
		}
		if pkt.ID != peer.ID {
			log.Printf("relay: %v from %s (claimed %s)", ErrIDMismatch, peer.ID, pkt.ID)
			return
		}
		if protocol.IsDisconnect(pkt.Content) {
			return
		}
		s.handlePacket(peer, player, pkt)
	}
}

// teardown marks the peer disconnected, shuts its write half down, and
// tells the remaining peers that it left.
func (s *Server) teardown(peer *Peer) {
	peer.Disconnect()
	s.peers.Remove(peer.ID, peer)
	s.broadcast(protocol.NewPacket(peer.ID, protocol.Disconnect{}))
	log.Printf("relay: %s disconnected", peer.ID)
}
