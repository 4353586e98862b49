package chord

import (
	"errors"
)

var (
	ErrNodeShuttingDown   = errors.New("chord: node is shutting down")
	ErrDuplicateJoinerID  = errors.New("chord/membership: joining node has duplicate ID as an existing node")
	ErrUnknownFingerEntry = errors.New("chord/table: offset is not a finger of this node")
	ErrInvalidSpace       = errors.New("chord: ring size must be positive and fit in 63 bits")
	ErrIDOutOfRange       = errors.New("chord: ring id is outside of the ring")
)
