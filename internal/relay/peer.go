package relay

import (
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/michael4d45/moonrelay/internal/protocol"
)

// Peer owns the write half of one TCP connection. All writes to the
// socket go through send, which holds writeMu for the duration of the
// write so that two goroutines racing to relay packets to the same
// peer (the steady-state reader and a concurrent broadcast) can never
// interleave their bytes on the wire.
//
// Grounded on the teacher's wsClient (internal/server/ws.go), whose
// doc comment warns "Caller must hold s.mu if concurrent access is
// possible" for its send channel; here the channel-fed websocket
// writer goroutine is collapsed into a direct mutex-guarded net.Conn
// write, since spec.md §4.2/§5 require synchronous per-peer write
// serialization rather than an async write-pump.
type Peer struct {
	ID   uuid.UUID
	IP   string
	conn net.Conn

	writeMu sync.Mutex

	mu          sync.Mutex
	connected   bool
}

// NewPeer wraps an accepted connection before the handshake completes.
func NewPeer(id uuid.UUID, conn net.Conn) *Peer {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		host = conn.RemoteAddr().String()
	}
	return &Peer{ID: id, IP: host, conn: conn, connected: true}
}

// Send serializes pkt and writes it to the socket. Write errors are
// swallowed here (per spec.md §4.2): a broken peer is discovered by
// its read loop failing, not by a broadcaster's write failing, so one
// dead recipient never aborts a fan-out to the rest of the peer map.
func (p *Peer) Send(pkt protocol.Packet) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if !p.isConnected() {
		return
	}
	_, _ = pkt.WriteTo(p.conn)
}

// Disconnect shuts the write half of the socket down. Idempotent: a
// second call is a no-op.
func (p *Peer) Disconnect() {
	p.mu.Lock()
	if !p.connected {
		p.mu.Unlock()
		return
	}
	p.connected = false
	p.mu.Unlock()

	if tc, ok := p.conn.(interface{ CloseWrite() error }); ok {
		_ = tc.CloseWrite()
		return
	}
	_ = p.conn.Close()
}

// Connected reports whether the peer has not yet been torn down.
func (p *Peer) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *Peer) isConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Conn exposes the underlying connection for the steady-state read
// loop, which owns the read half independently of writeMu.
func (p *Peer) Conn() net.Conn { return p.conn }
