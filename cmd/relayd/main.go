// cmd/relayd/main.go
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/jason-s-yu/arena/internal/middleware"
	"github.com/jason-s-yu/arena/internal/relayhub"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

// relayd is a standalone relay for local development and self-hosting. It is a
// dumb fan-out server: clients SUB a namespace and every PUB is rebroadcast to
// all subscribers, sender included. It stores nothing and verifies nothing;
// clients authenticate envelopes end to end.
func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	hub := relayhub.New(logger)

	mux := http.NewServeMux()
	mux.Handle("/", middleware.LogMiddleware(logger)(hub.Handler()))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("relayd listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("relayd exited: %v", err)
	}
}
