// Package console implements the relay's line-oriented operator
// command surface (spec.md §6 "Operator console"). It is a thin
// external collaborator: every verb below either reads core state or
// calls back into relay.Server, never reimplementing core semantics.
//
// Grounded on VibeShitCraft's handleCommand dispatcher
// (pkg/server/command.go): whitespace-tokenized, lowercase verb match,
// unknown input prints help rather than erroring.
package console

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/michael4d45/moonrelay/internal/protocol"
	"github.com/michael4d45/moonrelay/internal/relay"
)

const (
	crashStage       = "baguette"
	crashID          = "dufromage"
	crashScenario    = 21
	crashSubScenario = 42
)

// Console reads whitespace-tokenized commands from an io.Reader (a
// production binary wires this to os.Stdin) and drives a relay.Server.
type Console struct {
	core *relay.Server
	out  io.Writer
}

// New builds a Console over core, writing prompts and command output
// to out.
func New(core *relay.Server, out io.Writer) *Console {
	return &Console{core: core, out: out}
}

// Run blocks, reading one command per line from r until EOF or until
// "stop" is entered.
func (c *Console) Run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c.dispatch(strings.Fields(line))
	}
}

func (c *Console) dispatch(args []string) {
	verb := strings.ToLower(args[0])
	rest := args[1:]

	switch verb {
	case "rejoin":
		c.cmdRejoin(rest)
	case "crash":
		c.cmdCrash(rest)
	case "ban":
		c.cmdBan(rest)
	case "send":
		c.cmdSend(rest)
	case "sendall":
		c.cmdSendAll(rest)
	case "scenario":
		c.cmdScenario(rest)
	case "maxplayers":
		c.cmdMaxPlayers(rest)
	case "list":
		c.cmdList()
	case "loadsettings":
		c.cmdLoadSettings()
	case "tag":
		c.cmdTag(rest)
	case "flip":
		c.cmdFlip(rest)
	case "shine":
		c.cmdShine(rest)
	case "stop":
		fmt.Fprintln(c.out, "stopping")
		os.Exit(0)
	default:
		c.printHelp()
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `commands:
  rejoin <name|*> ...
  crash <name|*> ...
  ban <name|*> ...
  send <stage> <id> <scenario:-1..127> <name|*> ...
  sendall <stage>
  scenario merge <true|false>
  maxplayers <count>
  list
  loadsettings
  tag time <name|*> <minutes> <seconds> | tag seeking <name|*> <seeker|hider> | tag start <delay> <seeker name...>
  flip list|add <uuid>|remove <uuid>|set <true|false>|pov <self|others|both>
  shine list|clear|sync|send <id> <name|*> ...
  stop`)
}

// targets resolves a console name-or-wildcard argument list: "*" means
// every currently connected player, and any other name is looked up in
// the registry whether or not that player is connected. Unlike the documented source bug
// (spec.md §9 "Open question... breaks after only the first
// unresolved-peer"), this continues through every requested name,
// reporting each miss rather than abandoning the rest of the list.
func (c *Console) targets(names []string) []*relay.Player {
	if len(names) == 1 && names[0] == "*" {
		var all []*relay.Player
		for _, p := range c.core.Registry().All() {
			if _, connected := c.core.Peers().Get(p.ID); connected {
				all = append(all, p)
			}
		}
		return all
	}
	var out []*relay.Player
	for _, name := range names {
		p, ok := c.core.Registry().GetByName(name)
		if !ok {
			fmt.Fprintf(c.out, "unknown player %q, continuing\n", name)
			continue
		}
		out = append(out, p)
	}
	return out
}

func (c *Console) cmdRejoin(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "usage: rejoin <name|*> ...")
		return
	}
	for _, p := range c.targets(args) {
		c.core.Kick(p.ID)
	}
}

func crashPacket(id uuid.UUID) protocol.Packet {
	// The stage literal, id, and sub_scenario here are deliberately
	// invalid (spec.md §9): this exploits client-side parsing of a
	// malformed ChangeStage to force a crash-disconnect, not a bug to
	// be cleaned up.
	return protocol.NewPacket(id, protocol.ChangeStage{
		Stage:       crashStage,
		ID:          crashID,
		Scenario:    crashScenario,
		SubScenario: crashSubScenario,
	})
}

func (c *Console) cmdCrash(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "usage: crash <name|*> ...")
		return
	}
	for _, p := range c.targets(args) {
		if peer, ok := c.core.Peers().Get(p.ID); ok {
			peer.Send(crashPacket(p.ID))
		}
	}
}

func (c *Console) cmdBan(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "usage: ban <name|*> ...")
		return
	}
	targets := c.targets(args)
	err := c.core.Settings().Mutate(func(s *relay.Settings) {
		for _, p := range targets {
			s.BanList.IDs = append(s.BanList.IDs, p.ID)
			if peer, ok := c.core.Peers().Get(p.ID); ok {
				s.BanList.IPs = append(s.BanList.IPs, peer.IP)
			}
		}
	})
	if err != nil {
		fmt.Fprintf(c.out, "ban: failed to persist settings: %v\n", err)
	}
	for _, p := range targets {
		if peer, ok := c.core.Peers().Get(p.ID); ok {
			peer.Send(crashPacket(p.ID))
		}
		c.core.Kick(p.ID)
	}
}

func (c *Console) cmdSend(args []string) {
	if len(args) < 4 {
		fmt.Fprintln(c.out, "usage: send <stage> <id> <scenario:-1..127> <name|*> ...")
		return
	}
	stage, ok := resolveStage(args[0])
	if !ok {
		fmt.Fprintf(c.out, "send: unknown stage alias %q\n", args[0])
		return
	}
	changeID := args[1]
	scenario, err := strconv.Atoi(args[2])
	if err != nil || scenario < -1 || scenario > 127 {
		fmt.Fprintln(c.out, "send: scenario must be -1..127")
		return
	}
	pkt := protocol.ChangeStage{Stage: stage, ID: changeID, Scenario: int8(scenario)}
	for _, p := range c.targets(args[3:]) {
		if peer, ok := c.core.Peers().Get(p.ID); ok {
			peer.Send(protocol.NewPacket(p.ID, pkt))
		}
	}
}

func (c *Console) cmdSendAll(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "usage: sendall <stage>")
		return
	}
	stage, ok := resolveStage(args[0])
	if !ok {
		fmt.Fprintf(c.out, "sendall: unknown stage alias %q\n", args[0])
		return
	}
	c.core.Broadcast(protocol.NewPacket(uuid.Nil, protocol.ChangeStage{Stage: stage, Scenario: -1}))
}

func (c *Console) cmdScenario(args []string) {
	if len(args) != 2 || args[0] != "merge" {
		fmt.Fprintln(c.out, "usage: scenario merge <true|false>")
		return
	}
	v, err := strconv.ParseBool(args[1])
	if err != nil {
		fmt.Fprintln(c.out, "scenario merge: expected true or false")
		return
	}
	if err := c.core.Settings().Mutate(func(s *relay.Settings) { s.Scenario.MergeEnabled = v }); err != nil {
		fmt.Fprintf(c.out, "scenario merge: %v\n", err)
	}
}

func (c *Console) cmdMaxPlayers(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "usage: maxplayers <count>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		fmt.Fprintln(c.out, "maxplayers: expected a non-negative integer")
		return
	}
	if err := c.core.Settings().Mutate(func(s *relay.Settings) { s.Server.MaxPlayers = n }); err != nil {
		fmt.Fprintf(c.out, "maxplayers: %v\n", err)
	}
}

func (c *Console) cmdList() {
	for _, p := range c.core.Registry().All() {
		_, connected := c.core.Peers().Get(p.ID)
		fmt.Fprintf(c.out, "%s\t%s\tconnected=%v\n", p.ID, p.Name, connected)
	}
}

func (c *Console) cmdLoadSettings() {
	if err := c.core.Settings().Load(); err != nil {
		fmt.Fprintf(c.out, "loadsettings: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "settings reloaded")
}

func (c *Console) cmdTag(args []string) {
	if len(args) < 2 {
		c.printHelp()
		return
	}
	switch args[0] {
	case "time":
		c.cmdTagTime(args[1:])
	case "seeking":
		c.cmdTagSeeking(args[1:])
	case "start":
		c.cmdTagStart(args[1:])
	default:
		c.printHelp()
	}
}

func (c *Console) cmdTagTime(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(c.out, "usage: tag time <name|*> <minutes 0..65535> <seconds 0..255>")
		return
	}
	minutes, errM := strconv.Atoi(args[1])
	seconds, errS := strconv.Atoi(args[2])
	if errM != nil || errS != nil || minutes < 0 || minutes > 65535 || seconds < 0 || seconds > 255 {
		fmt.Fprintln(c.out, "tag time: minutes must be 0..65535, seconds 0..255")
		return
	}
	for _, p := range c.targets(args[:1]) {
		pkt := protocol.NewPacket(p.ID, protocol.TagState{
			UpdateMask: protocol.TagUpdateTime,
			Seconds:    uint16(seconds),
			Minutes:    uint16(minutes),
		})
		if peer, ok := c.core.Peers().Get(p.ID); ok {
			peer.Send(pkt)
		}
	}
}

func (c *Console) cmdTagSeeking(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "usage: tag seeking <name|*> <seeker|hider>")
		return
	}
	var isIt bool
	switch strings.ToLower(args[1]) {
	case "seeker":
		isIt = true
	case "hider":
		isIt = false
	default:
		fmt.Fprintln(c.out, "tag seeking: expected seeker or hider")
		return
	}
	for _, p := range c.targets(args[:1]) {
		pkt := protocol.NewPacket(p.ID, protocol.TagState{UpdateMask: protocol.TagUpdateState, IsIt: isIt})
		if peer, ok := c.core.Peers().Get(p.ID); ok {
			peer.Send(pkt)
		}
	}
}

// cmdTagStart schedules a hide-and-seek round start. args[1:] names the
// seekers; every player the registry has bound who currently has a
// peer receives an IsIt packet, true for a named seeker and false for
// everyone else, not just the named subset.
func (c *Console) cmdTagStart(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "usage: tag start <delay 0..255> <seeker name> ...")
		return
	}
	delay, err := strconv.Atoi(args[0])
	if err != nil || delay < 0 || delay > 255 {
		fmt.Fprintln(c.out, "tag start: delay must be 0..255")
		return
	}
	seekerNames := make(map[string]struct{}, len(args[1:]))
	for _, name := range args[1:] {
		seekerNames[strings.ToLower(name)] = struct{}{}
	}

	go func(seekerNames map[string]struct{}, delay int) {
		time.Sleep(time.Duration(delay) * time.Second)
		for _, p := range c.core.Registry().AllIDsAndNames() {
			_, isSeeker := seekerNames[strings.ToLower(p.Name)]
			pkt := protocol.NewPacket(p.ID, protocol.TagState{
				UpdateMask: protocol.TagUpdateState,
				IsIt:       isSeeker,
			})
			if peer, ok := c.core.Peers().Get(p.ID); ok {
				peer.Send(pkt)
			}
		}
	}(seekerNames, delay)
	log.Printf("console: tag start scheduled in %ds, seekers=%v", delay, args[1:])
}

func (c *Console) cmdFlip(args []string) {
	if len(args) == 0 {
		c.printHelp()
		return
	}
	switch args[0] {
	case "list":
		for _, id := range c.core.Settings().Snapshot().Flip.Players {
			fmt.Fprintln(c.out, id)
		}
	case "add":
		if len(args) != 2 {
			fmt.Fprintln(c.out, "usage: flip add <uuid>")
			return
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			fmt.Fprintf(c.out, "flip add: %v\n", err)
			return
		}
		_ = c.core.Settings().Mutate(func(s *relay.Settings) {
			s.Flip.Players = append(s.Flip.Players, id)
		})
	case "remove":
		if len(args) != 2 {
			fmt.Fprintln(c.out, "usage: flip remove <uuid>")
			return
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			fmt.Fprintf(c.out, "flip remove: %v\n", err)
			return
		}
		_ = c.core.Settings().Mutate(func(s *relay.Settings) {
			kept := s.Flip.Players[:0]
			for _, existing := range s.Flip.Players {
				if existing != id {
					kept = append(kept, existing)
				}
			}
			s.Flip.Players = kept
		})
	case "set":
		if len(args) != 2 {
			fmt.Fprintln(c.out, "usage: flip set <true|false>")
			return
		}
		v, err := strconv.ParseBool(args[1])
		if err != nil {
			fmt.Fprintln(c.out, "flip set: expected true or false")
			return
		}
		_ = c.core.Settings().Mutate(func(s *relay.Settings) { s.Flip.Enabled = v })
	case "pov":
		if len(args) != 2 {
			fmt.Fprintln(c.out, "usage: flip pov <self|others|both>")
			return
		}
		var pov relay.PointOfView
		switch strings.ToLower(args[1]) {
		case "self":
			pov = relay.PovSelfOnly
		case "others":
			pov = relay.PovOthers
		case "both":
			pov = relay.PovBoth
		default:
			fmt.Fprintln(c.out, "flip pov: expected self, others, or both")
			return
		}
		_ = c.core.Settings().Mutate(func(s *relay.Settings) { s.Flip.Pov = pov })
	default:
		c.printHelp()
	}
}

func (c *Console) cmdShine(args []string) {
	if len(args) == 0 {
		c.printHelp()
		return
	}
	switch args[0] {
	case "list":
		for _, id := range c.core.Shines().Snapshot() {
			fmt.Fprintln(c.out, id)
		}
	case "clear":
		if err := c.core.Shines().Clear(); err != nil {
			fmt.Fprintf(c.out, "shine clear: %v\n", err)
		}
	case "sync":
		c.core.SyncShineBag()
	case "send":
		c.cmdShineSend(args[1:])
	default:
		c.printHelp()
	}
}

func (c *Console) cmdShineSend(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "usage: shine send <id> <name|*> ...")
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintln(c.out, "shine send: id must be an integer")
		return
	}
	pkt := protocol.Shine{ID: int32(id)}
	for _, p := range c.targets(args[1:]) {
		if peer, ok := c.core.Peers().Get(p.ID); ok {
			peer.Send(protocol.NewPacket(p.ID, pkt))
		}
	}
}
