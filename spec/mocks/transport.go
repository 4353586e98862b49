package mocks

import (
	"context"

	"go.miragespace.co/copper/spec/protocol"
	"go.miragespace.co/copper/spec/transport"

	"github.com/stretchr/testify/mock"
)

type Transport struct {
	mock.Mock
}

var _ transport.Transport = (*Transport)(nil)

func (t *Transport) Send(ctx context.Context, peer protocol.Address, payload []byte) error {
	args := t.Called(ctx, peer, payload)
	return args.Error(0)
}

func (t *Transport) Deliveries() <-chan *transport.Delivery {
	args := t.Called()
	v := args.Get(0)
	return v.(chan *transport.Delivery)
}

func (t *Transport) Accept(ctx context.Context) error {
	args := t.Called(ctx)
	return args.Error(0)
}

func (t *Transport) Stop() error {
	args := t.Called()
	return args.Error(0)
}

// PayloadCommand matches a payload that decodes into a message with the given command.
func PayloadCommand(cmd protocol.Command) func([]byte) bool {
	return func(payload []byte) bool {
		msg, err := protocol.Decode(payload)
		if err != nil {
			return false
		}
		return msg.Command() == cmd
	}
}
