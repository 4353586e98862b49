package timing

import "time"

const (
	TransportDialTimeout  = time.Second * 3
	TransportWriteTimeout = time.Second * 5
	TransportReadTimeout  = time.Second * 10 // a peer writes exactly one message then closes

	HTTPReadHeaderTimeout = time.Second * 5
	ShutdownTimeout       = time.Second * 5
)
