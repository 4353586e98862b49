package overlay

import (
	"sync"

	"go.miragespace.co/copper/spec/protocol"
	"go.miragespace.co/copper/spec/transport"

	uberAtomic "go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	DefaultMaxMessageSize = 64 << 10
	deliveryBacklog       = 32
)

type TransportConfig struct {
	Logger   *zap.Logger
	Endpoint protocol.Address

	// MaxMessageSize bounds how much is read from a single connection.
	// Anything larger is discarded. Defaults to DefaultMaxMessageSize.
	MaxMessageSize int
}

// TCP sends every message over its own short-lived TCP connection:
// connect, write, close. The receiving side reads until EOF.
type TCP struct {
	deliveries   chan *transport.Delivery
	deliveryOnce sync.Once

	closeCh chan struct{}
	readers sync.WaitGroup

	started *uberAtomic.Bool
	closed  *uberAtomic.Bool

	TransportConfig
}
