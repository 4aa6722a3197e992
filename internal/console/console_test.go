package console

import (
	"bytes"
	"io"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/michael4d45/moonrelay/internal/protocol"
	"github.com/michael4d45/moonrelay/internal/relay"
	"github.com/stretchr/testify/require"
)

func newTestConsole(t *testing.T) (*Console, *relay.Server, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	settings := relay.NewSettingsStore(filepath.Join(dir, "settings.json"))
	require.NoError(t, settings.Load())
	shines := relay.NewShineBag(filepath.Join(dir, "moons.json"))
	require.NoError(t, shines.Load())

	registry := relay.NewPlayerRegistry()
	peers := relay.NewPeerMap()
	core := relay.New(registry, peers, shines, settings)

	var out bytes.Buffer
	return New(core, &out), core, &out
}

// addConnectedPlayer registers and connects a player directly, without
// driving the full handshake state machine, so console verbs can be
// exercised in isolation. The returned net.Conn is the client side of
// the player's socket, for tests that need to observe what the peer
// was sent.
func addConnectedPlayer(t *testing.T, core *relay.Server, name string) (uuid.UUID, net.Conn) {
	t.Helper()
	id := uuid.New()
	core.Registry().Bind(id, name)
	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() { _ = serverConn.Close(); _ = clientConn.Close() })
	core.Peers().Insert(relay.NewPeer(id, serverConn))
	return id, clientConn
}

func TestListShowsConnectedPlayers(t *testing.T) {
	c, core, out := newTestConsole(t)
	addConnectedPlayer(t, core, "Alice")

	c.dispatch([]string{"list"})
	require.Contains(t, out.String(), "Alice")
	require.Contains(t, out.String(), "connected=true")
}

func TestMaxPlayersMutatesSettings(t *testing.T) {
	c, core, _ := newTestConsole(t)
	c.dispatch([]string{"maxplayers", "16"})
	require.Equal(t, 16, core.Settings().MaxPlayers())
}

func TestScenarioMergeToggle(t *testing.T) {
	c, core, _ := newTestConsole(t)
	c.dispatch([]string{"scenario", "merge", "true"})
	require.True(t, core.Settings().ScenarioMergeEnabled())
}

func TestFlipSetAndPov(t *testing.T) {
	c, core, _ := newTestConsole(t)
	c.dispatch([]string{"flip", "set", "true"})
	c.dispatch([]string{"flip", "pov", "others"})
	id := uuid.New()
	c.dispatch([]string{"flip", "add", id.String()})

	require.True(t, core.Settings().FlipIn(id))
}

func TestFlipRemove(t *testing.T) {
	c, core, _ := newTestConsole(t)
	id := uuid.New()
	c.dispatch([]string{"flip", "set", "true"})
	c.dispatch([]string{"flip", "pov", "both"})
	c.dispatch([]string{"flip", "add", id.String()})
	require.True(t, core.Settings().FlipIn(id))

	c.dispatch([]string{"flip", "remove", id.String()})
	require.False(t, core.Settings().FlipIn(id))
}

func TestBanContinuesThroughAllNames(t *testing.T) {
	c, core, out := newTestConsole(t)
	_, aliceConn := addConnectedPlayer(t, core, "Alice")
	_, bobConn := addConnectedPlayer(t, core, "Bob")
	// ban sends each target a crash packet over a net.Pipe, whose writes
	// block until the other end reads, so both client sides are drained.
	go func() { _, _ = io.Copy(io.Discard, aliceConn) }()
	go func() { _, _ = io.Copy(io.Discard, bobConn) }()

	c.dispatch([]string{"ban", "nobody", "Alice", "Bob"})

	require.Contains(t, out.String(), `unknown player "nobody", continuing`)
	snap := core.Settings().Snapshot()
	require.Len(t, snap.BanList.IDs, 2, "ban must process every resolvable name, not stop after the first miss")
}

// TestTagStartFansOutToFullRegistry pins tag start's fan-out: every
// name passed is a seeker, and every player the registry knows about
// (not only the named ones) receives an IsIt packet, true for seekers
// and false for everyone else.
func TestTagStartFansOutToFullRegistry(t *testing.T) {
	c, _, _ := newTestConsole(t)
	_, aliceConn := addConnectedPlayer(t, c.core, "Alice")
	_, bobConn := addConnectedPlayer(t, c.core, "Bob")
	_, carolConn := addConnectedPlayer(t, c.core, "Carol")

	c.dispatch([]string{"tag", "start", "0", "Alice"})

	// The fan-out order across Alice/Bob/Carol is unspecified (it walks
	// a map), and each net.Pipe send blocks until its own reader reads,
	// so every connection must be read concurrently rather than in a
	// fixed sequence.
	type result struct {
		tag protocol.TagState
		err error
	}
	read := func(conn net.Conn) <-chan result {
		ch := make(chan result, 1)
		go func() {
			if err := conn.SetReadDeadline(time.Now().Add(time.Second)); err != nil {
				ch <- result{err: err}
				return
			}
			pkt, err := protocol.ReadPacket(conn)
			tag, _ := pkt.Content.(protocol.TagState)
			ch <- result{tag: tag, err: err}
		}()
		return ch
	}

	aliceCh, bobCh, carolCh := read(aliceConn), read(bobConn), read(carolConn)

	aliceRes := <-aliceCh
	require.NoError(t, aliceRes.err)
	require.True(t, aliceRes.tag.IsIt, "named seeker must receive IsIt=true")

	for _, ch := range []<-chan result{bobCh, carolCh} {
		res := <-ch
		require.NoError(t, res.err)
		require.False(t, res.tag.IsIt, "every unnamed player must receive IsIt=false, not be skipped")
	}
}

func TestUnknownStageAliasIsOperatorError(t *testing.T) {
	c, _, out := newTestConsole(t)
	c.dispatch([]string{"sendall", "NotAStage"})
	require.Contains(t, out.String(), "unknown stage alias")
}

func TestShineListAndClear(t *testing.T) {
	c, core, out := newTestConsole(t)
	_, err := core.Shines().Add(10)
	require.NoError(t, err)

	c.dispatch([]string{"shine", "list"})
	require.Contains(t, out.String(), "10")

	c.dispatch([]string{"shine", "clear"})
	require.False(t, core.Shines().Has(10))
}

func TestUnknownCommandPrintsHelp(t *testing.T) {
	c, _, out := newTestConsole(t)
	c.dispatch([]string{"xyzzy"})
	require.True(t, strings.Contains(out.String(), "commands:"))
}
