package chord

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.miragespace.co/copper/metrics"
	"go.miragespace.co/copper/spec/chord"
	"go.miragespace.co/copper/spec/protocol"

	"github.com/zhangyunhao116/skipset"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// LocalNode is one member of the ring. All of its state is mutated by the
// dispatch loop in Run, one envelope at a time.
type LocalNode struct {
	NodeConfig

	table *routingTable
	state *nodeState

	getCount  *atomic.Uint64
	putCount  *atomic.Uint64
	mgmtCount *atomic.Uint64

	pendingAcks *skipset.Uint64Set

	started         *atomic.Bool
	lastFingerprint uint64
	metricsLabel    string
}

func NewLocalNode(conf NodeConfig) *LocalNode {
	if err := conf.Validate(); err != nil {
		panic(err)
	}
	conf.Logger = conf.Logger.With(zap.Uint64("node", conf.Identity.ID()))
	n := &LocalNode{
		NodeConfig:  conf,
		table:       newRoutingTable(conf.Identity, conf.Space),
		state:       newNodeState(chord.Running),
		getCount:    atomic.NewUint64(0),
		putCount:    atomic.NewUint64(0),
		mgmtCount:   atomic.NewUint64(0),
		pendingAcks: skipset.NewUint64(),
		started:     atomic.NewBool(false),

		metricsLabel: strconv.FormatUint(conf.Identity.ID(), 10),
	}
	n.lastFingerprint = n.table.Fingerprint()
	return n
}

func (n *LocalNode) ID() uint64 {
	return n.Identity.ID()
}

func (n *LocalNode) State() chord.State {
	return n.state.Get()
}

func (n *LocalNode) Counters() Counters {
	return Counters{
		Get:  n.getCount.Load(),
		Put:  n.putCount.Load(),
		Mgmt: n.mgmtCount.Load(),
	}
}

func (n *LocalNode) Predecessor() protocol.Address {
	return n.table.Predecessor()
}

// Run dispatches inbound envelopes until the node shuts down, ctx is done, or
// the transport stops delivering. Returning does not stop the transport.
func (n *LocalNode) Run(ctx context.Context) error {
	if !n.started.CompareAndSwap(false, true) {
		return fmt.Errorf("chord node already started")
	}

	n.Logger.Info("Dispatching messages",
		zap.Object("identity", n.Identity),
		zap.Uint64("space", uint64(n.Space)),
	)

	deliveries := n.Transport.Deliveries()
	for {
		select {
		case <-ctx.Done():
			n.Logger.Info("Context done, stopping dispatch")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				n.Logger.Info("Transport closed, stopping dispatch")
				return nil
			}
			n.handlePayload(ctx, d.Payload)
			if n.state.Get() == chord.ShuttingDown {
				n.Logger.Info("Node has shut down", zap.Object("counters", n.Counters()))
				return nil
			}
		}
	}
}

func (n *LocalNode) handlePayload(ctx context.Context, payload []byte) {
	msg, err := protocol.Decode(payload)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownCommand) {
			n.Logger.Debug("Ignoring unknown command", zap.Error(err))
			return
		}
		metrics.DecodeErrors.Inc()
		n.Logger.Warn("Dropping malformed envelope", zap.Error(err), zap.ByteString("payload", payload))
		return
	}
	if err := n.checkRange(msg); err != nil {
		metrics.DecodeErrors.Inc()
		n.Logger.Warn("Dropping envelope", zap.String("cmd", msg.Command().String()), zap.Error(err))
		return
	}
	n.handle(ctx, msg)
}

// checkRange rejects envelopes carrying a ring id or finger offset outside of
// [0, Space). Keys of get and put are normalized instead.
func (n *LocalNode) checkRange(msg protocol.Message) error {
	ids := make([]uint64, 0, 3)
	switch m := msg.(type) {
	case protocol.Hello:
		ids = append(ids, m.Address.ID())
	case protocol.HelloOK:
		ids = append(ids, m.ID, m.AddressResp.ID(), m.AddressPrevious.ID())
	case protocol.HelloKO:
		ids = append(ids, m.ID)
	case protocol.Get:
		ids = append(ids, m.Address.ID())
	case protocol.Put:
		ids = append(ids, m.Address.ID())
	case protocol.GetResp:
		ids = append(ids, m.Key, m.Address.ID())
	case protocol.AnswerResp:
		ids = append(ids, m.Key, m.Address.ID())
	case protocol.UpdateTable:
		ids = append(ids, m.Address.ID())
		if m.IDLowerKey < -1 || (m.IDLowerKey >= 0 && uint64(m.IDLowerKey) >= uint64(n.Space)) {
			return fmt.Errorf("%w: id_lower_key %d", chord.ErrIDOutOfRange, m.IDLowerKey)
		}
	case protocol.Stats:
		ids = append(ids, m.Address.ID())
	case protocol.Print:
		ids = append(ids, m.Address.ID())
	}
	for _, id := range ids {
		if id >= uint64(n.Space) {
			return fmt.Errorf("%w: %d not below %d", chord.ErrIDOutOfRange, id, uint64(n.Space))
		}
	}
	return nil
}

func (n *LocalNode) handle(ctx context.Context, msg protocol.Message) {
	metrics.MessagesHandled.WithLabelValues(msg.Command().String()).Inc()

	switch m := msg.(type) {
	case protocol.Get:
		n.getCount.Inc()
		n.handleGet(ctx, m)
	case protocol.Put:
		n.putCount.Inc()
		n.handlePut(ctx, m)
	default:
		n.mgmtCount.Inc()
		n.handleManagement(ctx, msg)
	}

	metrics.StoredKeys.WithLabelValues(n.metricsLabel).Set(float64(n.KVProvider.Len()))

	if fp := n.table.Fingerprint(); fp != n.lastFingerprint {
		n.lastFingerprint = fp
		n.logTable()
	}
}

func (n *LocalNode) handleManagement(ctx context.Context, msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.Answer:
		n.handleAnswer(m)
	case protocol.Ack:
		n.handleAck(m)
	case protocol.GetResp:
		n.handleGetResp(ctx, m)
	case protocol.AnswerResp:
		n.handleAnswerResp(m)
	case protocol.Hello:
		n.handleHello(ctx, m)
	case protocol.HelloOK:
		n.handleHelloOK(ctx, m)
	case protocol.HelloKO:
		n.handleHelloKO(m)
	case protocol.UpdateTable:
		n.handleUpdateTable(ctx, m)
	case protocol.Stats:
		n.handleStats(ctx, m)
	case protocol.Print:
		n.handlePrint(ctx, m)
	case protocol.Exit:
		n.handleExit(ctx)
	default:
		n.Logger.Debug("Ignoring unhandled message", zap.String("cmd", msg.Command().String()))
	}
}

// send is best effort. Failures are logged and otherwise ignored.
func (n *LocalNode) send(ctx context.Context, to protocol.Address, msg protocol.Message) {
	cmd := msg.Command().String()
	payload, err := protocol.Encode(msg)
	if err != nil {
		n.Logger.Error("Failed to encode message", zap.String("cmd", cmd), zap.Error(err))
		return
	}

	n.Logger.Debug("Sending message", zap.Object("to", to), zap.Object("message", protocol.LogMessage{Message: msg}))

	if err := n.Transport.Send(ctx, to, payload); err != nil {
		metrics.MessagesSent.WithLabelValues(cmd, "error").Inc()
		n.Logger.Warn("Failed to send message", zap.Object("to", to), zap.String("cmd", cmd), zap.Error(err))
		return
	}
	metrics.MessagesSent.WithLabelValues(cmd, "success").Inc()
}

func (n *LocalNode) logTable() {
	fingers := n.table.Fingers()
	owners := make([]uint64, len(fingers))
	for i, f := range fingers {
		owners[i] = f.Owner.ID()
	}
	n.Logger.Debug("Routing table changed",
		zap.Uint64("predecessor", n.table.Predecessor().ID()),
		zap.Uint64s("fingers", owners),
	)
}
