package transport

import "fmt"

var (
	ErrClosed          = fmt.Errorf("transport is already closed")
	ErrNotStarted      = fmt.Errorf("transport has not started accepting")
	ErrMessageTooLarge = fmt.Errorf("message exceeds the maximum message size")
)
