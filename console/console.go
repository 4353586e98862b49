package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"go.miragespace.co/copper/chord"
	"go.miragespace.co/copper/spec/protocol"
	"go.miragespace.co/copper/spec/transport"

	"github.com/zhangyunhao116/skipset"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// AckRegistry remembers put tokens until their ack arrives.
type AckRegistry interface {
	RegisterAck(id uint64)
}

type Config struct {
	Logger    *zap.Logger
	Transport transport.Transport
	// Self is the reply address put into get and put requests.
	Self protocol.Address
	// Node is the ring member every request is sent to.
	Node protocol.Address
	// Acks defaults to the console's own registry, used when acks arrive at Self.
	Acks   AckRegistry
	Output io.Writer
	// Embedded consoles share the node's endpoint, so exit means the node.
	Embedded bool
}

func (c *Config) validate() error {
	if c.Logger == nil {
		return fmt.Errorf("nil Logger is invalid")
	}
	if c.Transport == nil {
		return fmt.Errorf("nil Transport is invalid")
	}
	if !c.Self.IsValid() {
		return fmt.Errorf("invalid reply address")
	}
	if !c.Node.IsValid() {
		return fmt.Errorf("invalid node address")
	}
	return nil
}

// Console turns typed commands into ring messages and prints what comes back.
type Console struct {
	Config

	pending *skipset.Uint64Set
	printer *printer
	nextAck func() uint64
}

var _ chord.Reporter = (*Console)(nil)
var _ AckRegistry = (*Console)(nil)

func New(conf Config) (*Console, error) {
	if err := conf.validate(); err != nil {
		return nil, err
	}
	if conf.Output == nil {
		conf.Output = os.Stdout
	}
	c := &Console{
		pending: skipset.NewUint64(),
		printer: &printer{out: conf.Output},
		nextAck: rand.Uint64,
	}
	if conf.Acks == nil {
		conf.Acks = c
	}
	c.Config = conf
	return c, nil
}

func (c *Console) RegisterAck(id uint64) {
	c.pending.Add(id)
}

func (c *Console) PendingAcks() int {
	return c.pending.Len()
}

// Execute sends whatever cmd asks for. It returns true when the console should stop.
func (c *Console) Execute(ctx context.Context, cmd Command) (bool, error) {
	switch cmd := cmd.(type) {
	case GetCommand:
		return false, c.send(ctx, protocol.Get{Address: c.Self, Key: cmd.Key})

	case PutCommand:
		id := c.nextAck()
		c.Acks.RegisterAck(id)
		if err := c.send(ctx, protocol.Put{Address: c.Self, Key: cmd.Key, Value: cmd.Value, ID: id}); err != nil {
			return false, err
		}
		c.printer.info("put %d = %v sent, waiting for ack %d", cmd.Key, cmd.Value, id)
		return false, nil

	case StatsCommand:
		if err := c.send(ctx, protocol.Stats{Address: c.Node}); err != nil {
			return false, err
		}
		c.printer.info("stats walk started at %s, totals are reported where the walk closes", c.Node.HostPort())
		return false, nil

	case PrintCommand:
		if err := c.send(ctx, protocol.Print{Address: c.Node}); err != nil {
			return false, err
		}
		c.printer.info("print walk started at %s", c.Node.HostPort())
		return false, nil

	case ExitCommand:
		if c.Embedded {
			return true, c.send(ctx, protocol.Exit{})
		}
		return true, nil

	case StopAllCommand:
		return true, c.send(ctx, protocol.Exit{})

	default:
		return false, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name())
	}
}

func (c *Console) send(ctx context.Context, msg protocol.Message) error {
	payload, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	c.Logger.Debug("Sending message", zap.Object("to", c.Node), zap.Object("message", protocol.LogMessage{Message: msg}))
	if err := c.Transport.Send(ctx, c.Node, payload); err != nil {
		return fmt.Errorf("sending %s to %s: %w", msg.Command(), c.Node.HostPort(), err)
	}
	return nil
}

// Run reads commands from in until exit, end of input, or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	c.printer.help()
	for {
		if interactive {
			c.printer.prompt()
		}
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}
			cmd, err := Parse(line)
			if errors.Is(err, ErrEmptyLine) {
				continue
			}
			if err != nil {
				c.printer.failure(err)
				continue
			}
			stop, err := c.Execute(ctx, cmd)
			if err != nil {
				c.printer.failure(err)
			}
			if stop {
				return nil
			}
		}
	}
}

// Listen prints replies delivered to Self until the transport closes or ctx is done.
func (c *Console) Listen(ctx context.Context) error {
	deliveries := c.Transport.Deliveries()
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handlePayload(d.Payload)
		}
	}
}

func (c *Console) handlePayload(payload []byte) {
	msg, err := protocol.Decode(payload)
	if err != nil {
		c.Logger.Warn("Dropping malformed reply", zap.Error(err), zap.ByteString("payload", payload))
		return
	}
	switch m := msg.(type) {
	case protocol.Answer:
		c.printer.answer(m)
	case protocol.Ack:
		known := c.pending.Remove(m.ID)
		c.printer.ack(m.ID, known, c.pending.Len())
	default:
		c.printer.info("received %s", m.Command())
	}
}

func (c *Console) ReportAnswer(answer protocol.Answer) {
	c.printer.answer(answer)
}

func (c *Console) ReportStats(origin protocol.Address, total chord.Counters) {
	c.printer.stats(origin, total)
}

func (c *Console) ReportCounters(node protocol.Address, local chord.Counters) {
	c.printer.counters(node, local)
}
