package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/michael4d45/moonrelay/internal/console"
	"github.com/michael4d45/moonrelay/internal/relay"
)

func main() {
	host := flag.String("host", "", "override settings.json's server.address")
	port := flag.Int("port", 0, "override settings.json's server.port")
	settingsPath := flag.String("settings", "settings.json", "path to the settings file")
	shinesPath := flag.String("shines", "moons.json", "path to the persisted shine bag file")
	flag.Parse()

	settings := relay.NewSettingsStore(*settingsPath)
	if err := settings.Load(); err != nil {
		log.Fatalf("relay: loading settings: %v", err)
	}
	if *host != "" || *port != 0 {
		if err := settings.Mutate(func(s *relay.Settings) {
			if *host != "" {
				s.Server.Address = *host
			}
			if *port != 0 {
				s.Server.Port = *port
			}
		}); err != nil {
			log.Fatalf("relay: applying host/port override: %v", err)
		}
	}
	if err := settings.Watch(); err != nil {
		log.Printf("relay: settings hot-reload disabled: %v", err)
	}
	defer settings.Close()

	// The accept loop's bind address always comes from the settings
	// document, not from flags — flags above are only a startup
	// override persisted into that same document.
	snap := settings.Snapshot()
	addr := fmt.Sprintf("%s:%d", snap.Server.Address, snap.Server.Port)

	shines := relay.NewShineBag(*shinesPath)
	if err := shines.Load(); err != nil {
		log.Fatalf("relay: loading shine bag: %v", err)
	}

	core := relay.New(relay.NewPlayerRegistry(), relay.NewPeerMap(), shines, settings)
	go core.RunPeriodicShineSync()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("relay: listen on %s: %v", addr, err)
	}
	log.Printf("relay: listening on %s", addr)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-sigs
		log.Printf("relay: received signal %v, shutting down", s)
		core.Stop()
		_ = ln.Close()
		os.Exit(0)
	}()

	go console.New(core, os.Stdout).Run(os.Stdin)

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Printf("relay: accept: %v", err)
			return
		}
		go core.HandleConnection(conn)
	}
}
