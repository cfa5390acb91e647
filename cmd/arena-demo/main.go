// cmd/arena-demo/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jason-s-yu/arena"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

// arena-demo exercises the library end to end from a terminal. Run one
// instance with no arguments to create a room, then paste the printed room URL
// into a second instance to join it. Both instances tick at 10 Hz, exchanging
// a counter as game state.
//
//	arena-demo -relays ws://localhost:8080
//	arena-demo -relays ws://localhost:8080 <room-url>
func main() {
	var (
		gameID  = flag.String("game", "demo", "game id namespacing rooms on the relays")
		relays  = flag.String("relays", "", "comma-separated relay endpoints (default: public relays)")
		mode    = flag.String("mode", "auto", "start mode: auto, ready or manual")
		players = flag.Int("players", 2, "max players")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg := arena.NewConfig(*gameID).
		WithStartMode(arena.StartMode(*mode)).
		WithMaxPlayers(*players).
		WithLogger(logger)
	if *relays != "" {
		cfg = cfg.WithRelays(strings.Split(*relays, ","))
	}

	a, err := arena.New(cfg)
	if err != nil {
		log.Fatalf("arena-demo: %v", err)
	}
	defer a.Disconnect()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flag.NArg() > 0 {
		if err := a.Join(ctx, flag.Arg(0)); err != nil {
			log.Fatalf("join: %v", err)
		}
		fmt.Printf("joined as %s\n", short(a.PublicKey()))
	} else {
		url, err := a.Create(ctx)
		if err != nil {
			log.Fatalf("create: %v", err)
		}
		fmt.Printf("room created, share this URL:\n\n  %s\n\n", url)
	}

	runLoop(ctx, a, arena.StartMode(*mode))
}

// runLoop is the fixed-tick game loop: drain pending events, then publish a
// state update once the game has started. In ready mode it flags itself ready
// as soon as it is in the room; in manual mode the creator starts the game
// once the lifecycle reports the room can start.
func runLoop(ctx context.Context, a *arena.Arena, mode arena.StartMode) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var tick uint64
	readySent := false
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nleaving room")
			return
		case <-ticker.C:
		}

		for ev := a.TryRecv(); ev != nil; ev = a.TryRecv() {
			printEvent(ev)
		}

		if mode == arena.StartReady && !readySent {
			if err := a.SendReady(true); err == nil {
				readySent = true
			}
		}
		if mode == arena.StartManual && a.IsCreator() && a.Status() == arena.StatusReady {
			if err := a.StartGame(); err != nil {
				fmt.Printf("start: %v\n", err)
			}
		}

		if a.Status() != arena.StatusStarted {
			continue
		}
		tick++
		state, _ := json.Marshal(map[string]uint64{"tick": tick})
		if err := a.SendState(state); err != nil {
			fmt.Printf("send state: %v\n", err)
			return
		}
	}
}

func printEvent(ev *arena.Event) {
	switch ev.Type {
	case arena.EventPlayerJoin:
		fmt.Printf("+ %s joined\n", short(ev.Player.Pubkey))
	case arena.EventPlayerLeave:
		fmt.Printf("- %s left\n", short(ev.Pubkey))
	case arena.EventGameStart:
		fmt.Println("* game started")
	case arena.EventPlayerState:
		fmt.Printf("  %s: %s\n", short(ev.Pubkey), ev.Payload)
	case arena.EventError:
		fmt.Printf("! %s\n", ev.Message)
	}
}

func short(pubkey string) string {
	if len(pubkey) <= 8 {
		return pubkey
	}
	return pubkey[:8]
}
