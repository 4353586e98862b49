package transport

import (
	"context"
	"net"

	"go.miragespace.co/copper/spec/protocol"
)

// Delivery is one inbound message: the raw bytes read from a single connection.
type Delivery struct {
	Payload []byte
	Remote  net.Addr
}

// Transport moves opaque payloads between ring members, one message per connection.
// There is no reply channel: a response, if any, arrives later as a new Delivery.
type Transport interface {
	// Send connects to peer, writes payload and closes. The returned error only
	// describes the local connect or write.
	Send(ctx context.Context, peer protocol.Address, payload []byte) error

	// Deliveries is closed once the transport is stopped.
	Deliveries() <-chan *Delivery

	// Accept blocks until ctx is done or the transport is stopped.
	Accept(ctx context.Context) error
	Stop() error
}
