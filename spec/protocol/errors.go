package protocol

import "errors"

var (
	ErrUnknownCommand    = errors.New("protocol: unknown command")
	ErrMalformedEnvelope = errors.New("protocol: malformed envelope")
	ErrMissingField      = errors.New("protocol: missing required field")
	ErrInvalidAddress    = errors.New("protocol: invalid address")
)
