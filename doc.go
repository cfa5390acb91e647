// doc.go

// Package arena is a serverless real-time multiplayer session layer. Peers
// discover each other, track presence and agree on game start with no central
// authority, using only signed messages broadcast through untrusted
// publish/subscribe relays.
//
// A session is driven from the host application's own loop:
//
//	cfg := arena.NewConfig("my-game").
//		WithMaxPlayers(4).
//		WithStartMode(arena.StartReady)
//
//	a, err := arena.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer a.Disconnect()
//
//	shareURL, err := a.Create(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println("share this URL:", shareURL)
//
//	for range time.Tick(16 * time.Millisecond) {
//		for ev := a.TryRecv(); ev != nil; ev = a.TryRecv() {
//			switch ev.Type {
//			case arena.EventPlayerJoin:
//				fmt.Println("player joined:", ev.Player.Pubkey)
//			case arena.EventGameStart:
//				fmt.Println("game on")
//			}
//		}
//		_ = a.SendState(currentState())
//	}
//
// Relays provide at-least-once, unordered, possibly duplicated delivery and
// are never trusted: every message is schnorr-signed by its sender and
// verified on arrival, duplicates are dropped by content id, and malformed or
// forged messages are discarded silently. The package delivers events in
// local arrival order only; it does not attempt global consistency or
// conflict resolution of game state.
package arena
