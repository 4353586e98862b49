package chord

import (
	"context"
	"testing"

	"go.miragespace.co/copper/kv/memory"
	"go.miragespace.co/copper/spec/chord"
	"go.miragespace.co/copper/spec/mocks"
	"go.miragespace.co/copper/spec/protocol"
	"go.miragespace.co/copper/spec/transport"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func mustEncode(t *testing.T, msg protocol.Message) []byte {
	b, err := protocol.Encode(msg)
	require.NoError(t, err)
	return b
}

func newMockedNode(t *testing.T, space chord.Space, id uint64) (*LocalNode, *mocks.Transport, chan *transport.Delivery) {
	deliveries := make(chan *transport.Delivery, 16)
	tp := new(mocks.Transport)
	tp.On("Deliveries").Return(deliveries).Maybe()

	n := NewLocalNode(NodeConfig{
		Logger:     zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller())),
		Identity:   testAddress(uint16(20000+id), id),
		Space:      space,
		Transport:  tp,
		KVProvider: memory.New(),
	})
	return n, tp, deliveries
}

func TestNodeConfigValidate(t *testing.T) {
	as := require.New(t)

	valid := func() NodeConfig {
		return NodeConfig{
			Logger:     zaptest.NewLogger(t),
			Identity:   testAddress(20001, 1),
			Space:      8,
			Transport:  new(mocks.Transport),
			KVProvider: memory.New(),
		}
	}

	c := valid()
	as.NoError(c.Validate())

	c = valid()
	c.Logger = nil
	as.Error(c.Validate())

	c = valid()
	c.Identity = protocol.Address{}
	as.Error(c.Validate())

	c = valid()
	c.Space = 0
	as.ErrorIs(c.Validate(), chord.ErrInvalidSpace)

	c = valid()
	c.Identity = testAddress(20008, 8)
	as.Error(c.Validate())

	c = valid()
	c.Transport = nil
	as.Error(c.Validate())

	c = valid()
	c.KVProvider = nil
	as.Error(c.Validate())

	var nilConfig *NodeConfig
	as.Error(nilConfig.Validate())

	as.Panics(func() {
		NewLocalNode(NodeConfig{})
	})
}

func TestRunStopsAfterExit(t *testing.T) {
	as := require.New(t)

	n, tp, deliveries := newMockedNode(t, 8, 5)

	deliveries <- &transport.Delivery{Payload: []byte(`{"cmd":`)}
	deliveries <- &transport.Delivery{Payload: []byte(`{"cmd":"join","args":{}}`)}
	deliveries <- &transport.Delivery{Payload: []byte(`{"cmd":"put","args":{"key":1}}`)}
	deliveries <- &transport.Delivery{Payload: mustEncode(t, protocol.Exit{})}
	// never reached
	deliveries <- &transport.Delivery{Payload: mustEncode(t, protocol.Get{Address: n.Identity, Key: 1})}

	as.NoError(n.Run(context.Background()))

	as.Equal(chord.ShuttingDown, n.State())
	as.Equal(Counters{Mgmt: 1}, n.Counters())
	as.Len(deliveries, 1)
	as.Equal([]chord.State{chord.Running, chord.ShuttingDown}, n.state.History())

	tp.AssertExpectations(t)
}

func TestRunOnlyOnce(t *testing.T) {
	as := require.New(t)

	n, _, deliveries := newMockedNode(t, 8, 5)
	close(deliveries)

	as.NoError(n.Run(context.Background()))
	as.Error(n.Run(context.Background()))
}

func TestRunStopsWithContext(t *testing.T) {
	as := require.New(t)

	n, _, _ := newMockedNode(t, 8, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	as.NoError(n.Run(ctx))
	as.Equal(chord.Running, n.State())
}

func TestExitForwardsToPredecessor(t *testing.T) {
	as := require.New(t)

	n, tp, deliveries := newMockedNode(t, 8, 5)
	pred := testAddress(20003, 3)
	n.table.SetPredecessor(pred)

	tp.On("Send", mock.Anything, pred, mock.MatchedBy(mocks.PayloadCommand(protocol.CmdExit))).Return(nil).Once()

	deliveries <- &transport.Delivery{Payload: mustEncode(t, protocol.Exit{})}
	as.NoError(n.Run(context.Background()))
	as.Equal(chord.ShuttingDown, n.State())

	tp.AssertExpectations(t)
}

func TestHelloKOShutsDown(t *testing.T) {
	as := require.New(t)

	n, tp, deliveries := newMockedNode(t, 8, 5)

	deliveries <- &transport.Delivery{Payload: mustEncode(t, protocol.HelloKO{ID: 5})}
	as.NoError(n.Run(context.Background()))
	as.Equal(chord.ShuttingDown, n.State())

	tp.AssertExpectations(t)
}

func TestSendFailureIsLogged(t *testing.T) {
	as := require.New(t)

	n, tp, _ := newMockedNode(t, 8, 5)
	peer := testAddress(20003, 3)
	n.table.SetPredecessor(peer)

	tp.On("Send", mock.Anything, peer, mock.MatchedBy(mocks.PayloadCommand(protocol.CmdGet))).Return(transport.ErrClosed).Once()

	// 2 is outside (3, 5] and no finger is known yet, so the get goes to the predecessor
	n.handle(context.Background(), protocol.Get{Address: n.Identity, Key: 2})
	as.Equal(chord.Running, n.State())
	as.Equal(uint64(1), n.Counters().Get)

	tp.AssertExpectations(t)
}
