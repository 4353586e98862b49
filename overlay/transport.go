package overlay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.miragespace.co/copper/metrics"
	"go.miragespace.co/copper/spec/protocol"
	"go.miragespace.co/copper/spec/transport"
	"go.miragespace.co/copper/timing"

	pool "github.com/libp2p/go-buffer-pool"
	"go.uber.org/multierr"
	uberAtomic "go.uber.org/atomic"
	"go.uber.org/zap"
)

var _ transport.Transport = (*TCP)(nil)

func NewTCP(conf TransportConfig) *TCP {
	if conf.MaxMessageSize <= 0 {
		conf.MaxMessageSize = DefaultMaxMessageSize
	}
	return &TCP{
		TransportConfig: conf,

		deliveries: make(chan *transport.Delivery, deliveryBacklog),
		closeCh:    make(chan struct{}),

		started: uberAtomic.NewBool(false),
		closed:  uberAtomic.NewBool(false),
	}
}

func (t *TCP) Send(ctx context.Context, peer protocol.Address, payload []byte) error {
	if t.closed.Load() {
		return transport.ErrClosed
	}
	if len(payload) > t.MaxMessageSize {
		return fmt.Errorf("%w: %d bytes", transport.ErrMessageTooLarge, len(payload))
	}

	dialer := &net.Dialer{
		Timeout: timing.TransportDialTimeout,
	}
	conn, err := dialer.DialContext(ctx, "tcp", peer.HostPort())
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", peer.HostPort(), err)
	}

	conn.SetWriteDeadline(time.Now().Add(timing.TransportWriteTimeout))
	_, err = conn.Write(payload)
	if err = multierr.Append(err, conn.Close()); err != nil {
		return fmt.Errorf("writing to %s: %w", peer.HostPort(), err)
	}
	return nil
}

func (t *TCP) Deliveries() <-chan *transport.Delivery {
	return t.deliveries
}

func (t *TCP) Accept(ctx context.Context) error {
	listenCfg := &net.ListenConfig{}
	l, err := listenCfg.Listen(ctx, "tcp", t.Endpoint.HostPort())
	if err != nil {
		return err
	}
	return t.AcceptWithListener(ctx, l)
}

// AcceptWithListener reads one message from every connection accepted on listener.
// It returns nil once ctx is done or the transport is stopped, after every
// in-flight read has finished and the delivery channel has been closed.
func (t *TCP) AcceptWithListener(ctx context.Context, listener net.Listener) error {
	if !t.started.CompareAndSwap(false, true) {
		listener.Close()
		return fmt.Errorf("transport is already accepting")
	}
	if t.closed.Load() {
		listener.Close()
		t.closeDeliveries()
		return transport.ErrClosed
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-t.closeCh:
		case <-done:
		}
		listener.Close()
	}()

	t.Logger.Info("Accepting connections", zap.String("listen", listener.Addr().String()))

	err := t.acceptLoop(ctx, listener)

	t.readers.Wait()
	t.closeDeliveries()

	if ctx.Err() != nil || t.closed.Load() {
		return nil
	}
	return err
}

func (t *TCP) acceptLoop(ctx context.Context, listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return err
		}
		t.readers.Add(1)
		go t.handleConnection(ctx, conn)
	}
}

func (t *TCP) handleConnection(ctx context.Context, conn net.Conn) {
	defer t.readers.Done()
	defer conn.Close()

	logger := t.Logger.With(zap.String("remote", conn.RemoteAddr().String()))

	conn.SetReadDeadline(time.Now().Add(timing.TransportReadTimeout))

	buf := pool.Get(t.MaxMessageSize + 1)
	defer pool.Put(buf)

	n, err := readMessage(conn, buf)
	switch {
	case errors.Is(err, transport.ErrMessageTooLarge):
		metrics.TransportReads.WithLabelValues("too_large").Inc()
		logger.Warn("Discarding oversized message", zap.Int("max", t.MaxMessageSize))
		return
	case err != nil:
		metrics.TransportReads.WithLabelValues("error").Inc()
		logger.Warn("Failed to read message", zap.Error(err))
		return
	case n == 0:
		return
	}

	payload := make([]byte, n)
	copy(payload, buf[:n])

	select {
	case t.deliveries <- &transport.Delivery{Payload: payload, Remote: conn.RemoteAddr()}:
		metrics.TransportReads.WithLabelValues("delivered").Inc()
	case <-ctx.Done():
		metrics.TransportReads.WithLabelValues("dropped").Inc()
	case <-t.closeCh:
		metrics.TransportReads.WithLabelValues("dropped").Inc()
	}
}

// readMessage reads until EOF. Filling buf completely means the sender wrote
// more than len(buf)-1 bytes.
func readMessage(r io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
	}
	return n, transport.ErrMessageTooLarge
}

func (t *TCP) closeDeliveries() {
	t.deliveryOnce.Do(func() {
		close(t.deliveries)
	})
}

func (t *TCP) Stop() error {
	if !t.closed.CompareAndSwap(false, true) {
		return transport.ErrClosed
	}
	close(t.closeCh)
	if !t.started.Load() {
		t.closeDeliveries()
	}
	return nil
}
