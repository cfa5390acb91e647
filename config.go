// config.go
package arena

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jason-s-yu/arena/internal/lifecycle"
	"github.com/sirupsen/logrus"
)

// StartMode governs when a forming room transitions to started.
type StartMode = lifecycle.StartMode

// Start modes accepted by Config.WithStartMode.
const (
	StartAuto   = lifecycle.StartAuto
	StartReady  = lifecycle.StartReady
	StartManual = lifecycle.StartManual
)

// Status is the session lifecycle state.
type Status = lifecycle.Status

// Lifecycle states observable via Arena.Status.
const (
	StatusDisconnected = lifecycle.StatusDisconnected
	StatusConnecting   = lifecycle.StatusConnecting
	StatusIdle         = lifecycle.StatusIdle
	StatusForming      = lifecycle.StatusForming
	StatusReady        = lifecycle.StatusReady
	StatusStarted      = lifecycle.StatusStarted
	StatusFinished     = lifecycle.StatusFinished
	StatusClosed       = lifecycle.StatusClosed
)

// DefaultRelays is used when no relay endpoints are configured.
var DefaultRelays = []string{
	"wss://arena-relay-us.fly.dev",
	"wss://arena-relay-eu.fly.dev",
	"wss://arena-relay-ap.fly.dev",
}

// Config configures an Arena instance. Build one with NewConfig and the
// chainable setters; it is validated once when handed to New.
type Config struct {
	// GameID namespaces rooms on the relays, e.g. "sasso" or "tetris".
	GameID string
	// Relays are the websocket relay endpoints. Defaults to DefaultRelays.
	Relays []string
	// MaxPlayers caps room membership, self included. Minimum 1.
	MaxPlayers int
	// StartMode is the policy for the forming -> started transition.
	StartMode StartMode
	// BaseURL composes the share link, e.g. "https://play.example.com".
	BaseURL string
	// SecretKey optionally restores a previous identity (hex). A fresh
	// keypair is generated when empty.
	SecretKey string

	// HeartbeatInterval is how often liveness heartbeats are published.
	HeartbeatInterval time.Duration
	// AnnounceInterval is how often the creator rebroadcasts room info.
	AnnounceInterval time.Duration
	// PeerTimeout evicts peers silent for longer than this.
	PeerTimeout time.Duration
	// SweepInterval is the presence timeout sweep period.
	SweepInterval time.Duration
	// StateThrottle drops SendState calls arriving faster than this.
	StateThrottle time.Duration
	// ConnectTimeout bounds how long Connect waits for the first live relay
	// before letting bring-up continue in the background.
	ConnectTimeout time.Duration

	// Logger receives structured logs. Defaults to a logrus logger at Info.
	Logger *logrus.Logger
	// Clock drives heartbeats and presence sweeps; swap in a mock for tests.
	Clock clock.Clock
}

// NewConfig returns a Config with the library defaults for gameID.
func NewConfig(gameID string) *Config {
	return &Config{
		GameID:            gameID,
		Relays:            DefaultRelays,
		MaxPlayers:        2,
		StartMode:         StartAuto,
		HeartbeatInterval: 3 * time.Second,
		AnnounceInterval:  10 * time.Second,
		PeerTimeout:       10 * time.Second,
		SweepInterval:     2 * time.Second,
		StateThrottle:     100 * time.Millisecond,
		ConnectTimeout:    10 * time.Second,
	}
}

// WithRelays replaces the relay endpoint list.
func (c *Config) WithRelays(relays []string) *Config {
	c.Relays = relays
	return c
}

// WithMaxPlayers sets the room capacity.
func (c *Config) WithMaxPlayers(n int) *Config {
	c.MaxPlayers = n
	return c
}

// WithStartMode sets the start policy.
func (c *Config) WithStartMode(mode StartMode) *Config {
	c.StartMode = mode
	return c
}

// WithBaseURL sets the base URL for share links.
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithSecretKey restores a persisted identity.
func (c *Config) WithSecretKey(hexKey string) *Config {
	c.SecretKey = hexKey
	return c
}

// WithLogger sets the logger.
func (c *Config) WithLogger(logger *logrus.Logger) *Config {
	c.Logger = logger
	return c
}

// WithClock sets the clock, normally only from tests.
func (c *Config) WithClock(clk clock.Clock) *Config {
	c.Clock = clk
	return c
}

// WithPeerTimeout sets the presence timeout threshold.
func (c *Config) WithPeerTimeout(d time.Duration) *Config {
	c.PeerTimeout = d
	return c
}

// WithHeartbeatInterval sets the heartbeat publish period.
func (c *Config) WithHeartbeatInterval(d time.Duration) *Config {
	c.HeartbeatInterval = d
	return c
}

// WithSweepInterval sets the presence sweep period.
func (c *Config) WithSweepInterval(d time.Duration) *Config {
	c.SweepInterval = d
	return c
}

// WithStateThrottle sets the minimum spacing between state publishes.
func (c *Config) WithStateThrottle(d time.Duration) *Config {
	c.StateThrottle = d
	return c
}

// WithConnectTimeout sets the synchronous connection bring-up bound.
func (c *Config) WithConnectTimeout(d time.Duration) *Config {
	c.ConnectTimeout = d
	return c
}

// WithAnnounceInterval sets the creator's room info rebroadcast period.
func (c *Config) WithAnnounceInterval(d time.Duration) *Config {
	c.AnnounceInterval = d
	return c
}

// Validate checks the configuration and fills derivable defaults.
func (c *Config) Validate() error {
	if c.GameID == "" {
		return fmt.Errorf("config: game id is required")
	}
	if c.MaxPlayers < 1 {
		return fmt.Errorf("config: max players must be >= 1, got %d", c.MaxPlayers)
	}
	if _, err := lifecycle.ParseStartMode(string(c.StartMode)); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if len(c.Relays) == 0 {
		c.Relays = DefaultRelays
	}
	for _, d := range []time.Duration{
		c.HeartbeatInterval, c.AnnounceInterval, c.PeerTimeout,
		c.SweepInterval, c.ConnectTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("config: intervals must be positive")
		}
	}
	if c.StateThrottle < 0 {
		return fmt.Errorf("config: state throttle must not be negative")
	}
	if c.Logger == nil {
		c.Logger = logrus.New()
		c.Logger.SetLevel(logrus.InfoLevel)
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	return nil
}
