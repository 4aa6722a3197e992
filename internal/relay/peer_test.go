package relay

import (
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/michael4d45/moonrelay/internal/protocol"
	"github.com/stretchr/testify/require"
)

func TestPeerSendWritesFrame(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	defer server.Close()

	id := uuid.New()
	peer := NewPeer(id, server)

	go peer.Send(protocol.NewPacket(id, protocol.Disconnect{}))

	pkt, err := protocol.ReadPacket(client)
	require.NoError(t, err)
	require.Equal(t, id, pkt.ID)
	require.Equal(t, protocol.Disconnect{}, pkt.Content)
}

func TestPeerSendAfterDisconnectIsNoop(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	id := uuid.New()
	peer := NewPeer(id, server)
	peer.Disconnect()
	require.False(t, peer.Connected())

	// Send must not block or panic once disconnected.
	peer.Send(protocol.NewPacket(id, protocol.Disconnect{}))
}

func TestPeerDisconnectIsIdempotent(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	peer := NewPeer(uuid.New(), server)
	peer.Disconnect()
	peer.Disconnect()
	require.False(t, peer.Connected())
}
