package relay

import (
	"math"
	"time"

	"github.com/michael4d45/moonrelay/internal/protocol"
)

// flipRotation is Rx(pi)*Ry(pi), the composed rotation every flipped
// pose is rewritten through (spec.md §4.6.2).
var flipRotation = protocol.MulQuat(protocol.RotationX(math.Pi), protocol.RotationY(math.Pi))

// flipSize returns the Y offset added to a flipped player's position:
// 180 for a 2D stage, 160 otherwise.
func flipSize(is2D bool) float32 {
	if is2D {
		return 180
	}
	return 160
}

// handlePacket routes one steady-state inbound packet per spec.md
// §4.6.2. player is the sender's own authoritative record.
func (s *Server) handlePacket(peer *Peer, player *Player, pkt protocol.Packet) {
	switch c := pkt.Content.(type) {
	case protocol.Costume:
		s.handleCostume(peer, player, c)
	case protocol.Game:
		s.handleGame(peer, player, c, pkt)
	case protocol.TagState:
		s.handleTag(player, c, pkt)
	case protocol.Shine:
		s.handleShine(player, c, pkt)
	case protocol.PlayerPose:
		s.handlePlayerPose(player, c, pkt)
	case protocol.Unknown:
		// drop
	default:
		// Cap, Capture, ChangeStage, Connect, Init, Disconnect arriving
		// mid-stream: forward verbatim, matching the default
		// mutate-and-forward outcome for variants with no specialized
		// transform (spec.md §4.6.2).
		s.broadcast(pkt)
	}
}

func (s *Server) handleCostume(peer *Peer, player *Player, c protocol.Costume) {
	player.SetCostume(Costume{Body: c.Body, Cap: c.Cap})
	player.SetLoadedSave(true)
	go s.syncPlayerShineBag(player)

	out := c
	allowed := s.settings.SpecialCostumeAllowed(player.ID)
	if !allowed {
		if s.settings.IsSpecialCostume(out.Body) {
			out.Body = "Mario"
		}
		if s.settings.IsSpecialCostume(out.Cap) {
			out.Cap = "Mario"
		}
	}
	s.broadcast(protocol.NewPacket(peer.ID, out))
}

const (
	stageCapWorldHome       = "CapWorldHomeStage"
	stageWaterfallWorldHome = "WaterfallWorldHomeStage"
	fallbackScenario        = 200
	speedrunResyncDelay     = 15 * time.Second
)

func (s *Server) handleGame(peer *Peer, player *Player, c protocol.Game, pkt protocol.Packet) {
	player.SetGame(c.Scenario, c.Is2D, c.Stage, pkt)

	switch {
	case c.Stage == stageCapWorldHome && c.Scenario == 0:
		player.SetSpeedrun(true)
		player.ShineSyncClear()
		if err := s.shines.Clear(); err != nil {
			logPersistenceError("shinebag clear", err)
		}
	case c.Stage == stageWaterfallWorldHome:
		if player.IsSpeedrun() {
			player.SetSpeedrun(false)
			go func() {
				time.Sleep(speedrunResyncDelay)
				s.syncPlayerShineBag(player)
			}()
		}
	}

	if s.settings.ScenarioMergeEnabled() {
		s.broadcastMap(pkt, func(recipient *Player) (protocol.Packet, bool) {
			scenario := recipient.Scenario()
			if scenario == 0 {
				scenario = fallbackScenario
			}
			rewritten := c
			rewritten.Scenario = scenario
			return protocol.NewPacket(pkt.ID, rewritten), true
		})
	} else {
		s.broadcast(pkt)
	}

	// Late-arriver fix: anyone already standing on the sender's new
	// stage gets their last known position replayed back to the
	// sender, so the sender doesn't see them frozen at the origin
	// until they next move.
	for _, other := range s.registry.All() {
		if other.ID == player.ID || other.Stage() != c.Stage {
			continue
		}
		if pose, ok := other.LastPosition(); ok {
			peer.Send(protocol.NewPacket(other.ID, pose))
		}
	}
}

func (s *Server) handleTag(player *Player, c protocol.TagState, pkt protocol.Packet) {
	if c.UpdateMask&protocol.TagUpdateState != 0 {
		player.SetSeeking(c.IsIt)
	}
	if c.UpdateMask&protocol.TagUpdateTime != 0 {
		player.SetClock(time.Duration(c.Minutes)*time.Minute + time.Duration(c.Seconds)*time.Second)
	}
	s.broadcast(pkt)
}

func (s *Server) handleShine(player *Player, c protocol.Shine, pkt protocol.Packet) {
	if !player.LoadedSave() {
		// The whole rule, including the broadcast, is conditioned on
		// loaded_save — a client that hasn't loaded a save yet cannot
		// announce a pickup at all.
		return
	}
	if _, err := s.shines.Add(c.ID); err != nil {
		logPersistenceError("shinebag add", err)
	}
	if !player.ShineSyncHas(c.ID) {
		player.ShineSyncAdd(c.ID)
		go s.syncShineBag()
	}
	s.broadcast(pkt)
}

func (s *Server) handlePlayerPose(player *Player, c protocol.PlayerPose, pkt protocol.Packet) {
	player.SetLastPosition(c)
	player.SetLoadedSave(true)

	stage := player.Stage()
	sameStage := func(recipient *Player) bool { return recipient.Stage() == stage }

	switch {
	case s.settings.FlipIn(player.ID):
		flipped := c
		flipped.Position.Y += flipSize(player.Is2D())
		flipped.Rotation = protocol.MulQuat(c.Rotation, flipRotation)
		flippedPkt := protocol.NewPacket(pkt.ID, flipped)
		s.broadcastMap(pkt, func(recipient *Player) (protocol.Packet, bool) {
			if !sameStage(recipient) {
				return protocol.Packet{}, false
			}
			return flippedPkt, true
		})
	case s.settings.FlipNotIn(player.ID):
		s.broadcastMap(pkt, func(recipient *Player) (protocol.Packet, bool) {
			if !sameStage(recipient) {
				return protocol.Packet{}, false
			}
			out := c
			out.Position.Y += flipSize(recipient.Is2D())
			out.Rotation = protocol.MulQuat(c.Rotation, flipRotation)
			return protocol.NewPacket(pkt.ID, out), true
		})
	default:
		s.broadcastMap(pkt, func(recipient *Player) (protocol.Packet, bool) {
			if !sameStage(recipient) {
				return protocol.Packet{}, false
			}
			return pkt, true
		})
	}
}
