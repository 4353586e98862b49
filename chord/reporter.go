package chord

import (
	"go.miragespace.co/copper/spec/protocol"

	"go.uber.org/zap/zapcore"
)

// Counters are the per-node tallies aggregated by the stats walk.
type Counters struct {
	Get  uint64
	Put  uint64
	Mgmt uint64
}

var _ zapcore.ObjectMarshaler = Counters{}

func (c Counters) Add(o Counters) Counters {
	return Counters{
		Get:  c.Get + o.Get,
		Put:  c.Put + o.Put,
		Mgmt: c.Mgmt + o.Mgmt,
	}
}

func (c Counters) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint64("get", c.Get)
	enc.AddUint64("put", c.Put)
	enc.AddUint64("mgmt", c.Mgmt)
	return nil
}

// Reporter receives the results that terminate at a node: an answer to a
// get, the totals of a closed stats walk, and a node's counters during a
// print walk. Calls are made from the dispatch loop and must not block.
type Reporter interface {
	ReportAnswer(answer protocol.Answer)
	ReportStats(origin protocol.Address, total Counters)
	ReportCounters(node protocol.Address, local Counters)
}
