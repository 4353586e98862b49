package chord

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"testing"

	"go.miragespace.co/copper/kv/memory"
	"go.miragespace.co/copper/spec/chord"
	"go.miragespace.co/copper/spec/protocol"
	"go.miragespace.co/copper/spec/transport"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const maxMeshDeliveries = 100000

func testAddress(port uint16, id uint64) protocol.Address {
	return protocol.NewAddress(netip.MustParseAddr("127.0.0.1"), port, id)
}

type recorder struct {
	mu      sync.Mutex
	answers []protocol.Answer
	stats   []Counters
	printed []protocol.Address
}

var _ Reporter = (*recorder)(nil)

func (r *recorder) ReportAnswer(answer protocol.Answer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers = append(r.answers, answer)
}

func (r *recorder) ReportStats(_ protocol.Address, total Counters) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, total)
}

func (r *recorder) ReportCounters(node protocol.Address, _ Counters) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printed = append(r.printed, node)
}

type meshEnvelope struct {
	to      string
	payload []byte
}

// mesh delivers every envelope synchronously, in send order, by calling the
// destination's dispatch directly. Nodes that have shut down drop what they receive.
type mesh struct {
	t      *testing.T
	logger *zap.Logger

	mu        sync.Mutex
	queue     []meshEnvelope
	nodes     map[string]*LocalNode
	recorders map[string]*recorder
	inbox     map[string][]protocol.Message
}

func newMesh(t *testing.T) *mesh {
	return &mesh{
		t:         t,
		logger:    zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller())),
		nodes:     make(map[string]*LocalNode),
		recorders: make(map[string]*recorder),
		inbox:     make(map[string][]protocol.Message),
	}
}

type meshTransport struct {
	mesh       *mesh
	deliveries chan *transport.Delivery
}

var _ transport.Transport = (*meshTransport)(nil)

func (mt *meshTransport) Send(_ context.Context, peer protocol.Address, payload []byte) error {
	return mt.mesh.enqueue(peer, payload)
}

func (mt *meshTransport) Deliveries() <-chan *transport.Delivery {
	return mt.deliveries
}

func (mt *meshTransport) Accept(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (mt *meshTransport) Stop() error {
	close(mt.deliveries)
	return nil
}

func (m *mesh) enqueue(peer protocol.Address, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := peer.HostPort()
	_, isNode := m.nodes[key]
	_, isClient := m.inbox[key]
	if !isNode && !isClient {
		return fmt.Errorf("connection refused: %s", key)
	}
	m.queue = append(m.queue, meshEnvelope{to: key, payload: payload})
	return nil
}

func (m *mesh) addNode(space chord.Space, id uint64) (*LocalNode, *recorder) {
	self := testAddress(uint16(20000+id), id)
	rec := &recorder{}
	n := NewLocalNode(NodeConfig{
		Logger:     m.logger,
		Identity:   self,
		Space:      space,
		Transport:  &meshTransport{mesh: m, deliveries: make(chan *transport.Delivery)},
		KVProvider: memory.New(),
		Reporter:   rec,
	})
	m.mu.Lock()
	m.nodes[self.HostPort()] = n
	m.recorders[self.HostPort()] = rec
	m.mu.Unlock()
	return n, rec
}

func (m *mesh) recorderOf(n *LocalNode) *recorder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recorders[n.Identity.HostPort()]
}

func (m *mesh) addClient(port uint16) protocol.Address {
	addr := testAddress(port, 0)
	m.mu.Lock()
	m.inbox[addr.HostPort()] = make([]protocol.Message, 0)
	m.mu.Unlock()
	return addr
}

func (m *mesh) inject(to protocol.Address, msg protocol.Message) {
	payload, err := protocol.Encode(msg)
	require.NoError(m.t, err)
	require.NoError(m.t, m.enqueue(to, payload))
}

func (m *mesh) pop() (meshEnvelope, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return meshEnvelope{}, false
	}
	env := m.queue[0]
	m.queue = m.queue[1:]
	return env, true
}

// drain delivers until no envelope is in flight and returns how many were delivered.
func (m *mesh) drain() int {
	delivered := 0
	for {
		env, ok := m.pop()
		if !ok {
			return delivered
		}
		delivered++
		if delivered > maxMeshDeliveries {
			m.t.Fatalf("mesh did not settle after %d deliveries", maxMeshDeliveries)
		}

		m.mu.Lock()
		node, isNode := m.nodes[env.to]
		m.mu.Unlock()

		if !isNode {
			msg, err := protocol.Decode(env.payload)
			require.NoError(m.t, err)
			m.mu.Lock()
			m.inbox[env.to] = append(m.inbox[env.to], msg)
			m.mu.Unlock()
			continue
		}
		if node.State() == chord.ShuttingDown {
			continue
		}
		node.handlePayload(context.Background(), env.payload)
	}
}

func (m *mesh) received(client protocol.Address) []protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]protocol.Message(nil), m.inbox[client.HostPort()]...)
}

// buildRing joins every node through the first one, one join at a time.
func (m *mesh) buildRing(space chord.Space, ids ...uint64) []*LocalNode {
	nodes := make([]*LocalNode, len(ids))
	for i, id := range ids {
		nodes[i], _ = m.addNode(space, id)
		if i == 0 {
			continue
		}
		require.NoError(m.t, nodes[i].Join(context.Background(), nodes[0].Identity))
		m.drain()
		require.Equal(m.t, chord.Running, nodes[i].State())
	}
	return nodes
}
