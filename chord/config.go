package chord

import (
	"errors"
	"math"

	"go.miragespace.co/copper/spec/chord"
	"go.miragespace.co/copper/spec/protocol"
	"go.miragespace.co/copper/spec/transport"

	"go.uber.org/zap"
)

type NodeConfig struct {
	Logger     *zap.Logger
	Identity   protocol.Address
	Space      chord.Space
	Transport  transport.Transport
	KVProvider chord.KVProvider

	// Reporter is optional. Answers and ring walk results are always logged.
	Reporter Reporter
}

func (c *NodeConfig) Validate() error {
	if c == nil {
		return errors.New("nil NodeConfig")
	}
	if c.Logger == nil {
		return errors.New("nil Logger")
	}
	if !c.Identity.IsValid() {
		return errors.New("invalid Identity")
	}
	if c.Space == 0 || c.Space > math.MaxInt64 {
		return chord.ErrInvalidSpace
	}
	if c.Identity.ID() >= uint64(c.Space) {
		return errors.New("invalid Identity ID, must be less than Space")
	}
	if c.Transport == nil {
		return errors.New("nil Transport")
	}
	if c.KVProvider == nil {
		return errors.New("nil KVProvider")
	}
	return nil
}
