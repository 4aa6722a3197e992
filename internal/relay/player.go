package relay

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/michael4d45/moonrelay/internal/protocol"
)

// Costume names a player's currently equipped body and cap.
type Costume struct {
	Body string
	Cap  string
}

// Player is the authoritative per-player record. It survives across
// reconnects for the lifetime of the server: the registry never
// deletes a Player once created. Every field is guarded by mu so that
// concurrent broadcasts reading player state do not serialize across
// all players (spec.md §5).
type Player struct {
	ID   uuid.UUID
	Name string

	mu             sync.RWMutex
	costume        *Costume
	scenario       uint8
	is2D           bool
	isSpeedrun     bool
	isSeeking      bool
	lastGamePacket *protocol.Packet
	lastPosition   *protocol.PlayerPose
	lastStage      string
	shineSync      map[int32]struct{}
	loadedSave     bool
	clock          time.Duration
}

// NewPlayer creates a Player record for a first join.
func NewPlayer(id uuid.UUID, name string) *Player {
	return &Player{ID: id, Name: name, shineSync: make(map[int32]struct{})}
}

func (p *Player) Costume() (Costume, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.costume == nil {
		return Costume{}, false
	}
	return *p.costume, true
}

func (p *Player) SetCostume(c Costume) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.costume = &c
}

func (p *Player) Scenario() uint8 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.scenario
}

func (p *Player) Is2D() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.is2D
}

func (p *Player) Stage() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastStage
}

// SetGame updates scenario/is2D/stage together and stashes the packet
// that produced this state so late joiners can be caught up with it.
func (p *Player) SetGame(scenario uint8, is2D bool, stage string, pkt protocol.Packet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scenario = scenario
	p.is2D = is2D
	p.lastStage = stage
	p.lastGamePacket = &pkt
}

func (p *Player) LastGamePacket() (protocol.Packet, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastGamePacket == nil {
		return protocol.Packet{}, false
	}
	return *p.lastGamePacket, true
}

func (p *Player) IsSpeedrun() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isSpeedrun
}

func (p *Player) SetSpeedrun(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.isSpeedrun = v
}

func (p *Player) SetSeeking(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.isSeeking = v
}

func (p *Player) IsSeeking() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isSeeking
}

func (p *Player) SetClock(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clock = d
}

func (p *Player) Clock() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clock
}

func (p *Player) LastPosition() (protocol.PlayerPose, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastPosition == nil {
		return protocol.PlayerPose{}, false
	}
	return *p.lastPosition, true
}

func (p *Player) SetLastPosition(pose protocol.PlayerPose) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastPosition = &pose
}

func (p *Player) LoadedSave() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loadedSave
}

func (p *Player) SetLoadedSave(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadedSave = v
}

// ShineSyncHas reports whether shine id has already been delivered to
// this player.
func (p *Player) ShineSyncHas(id int32) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.shineSync[id]
	return ok
}

// ShineSyncAdd marks id as delivered to this player.
func (p *Player) ShineSyncAdd(id int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shineSync[id] = struct{}{}
}

// ShineSyncClear empties the per-player delivered-shine mirror (used on
// entering speedrun mode per spec.md §4.6.2 Game rules).
func (p *Player) ShineSyncClear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shineSync = make(map[int32]struct{})
}

// ShineSyncSnapshot returns a copy of the delivered-shine set.
func (p *Player) ShineSyncSnapshot() map[int32]struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[int32]struct{}, len(p.shineSync))
	for id := range p.shineSync {
		out[id] = struct{}{}
	}
	return out
}
