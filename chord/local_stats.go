package chord

import (
	"context"

	"go.miragespace.co/copper/spec/protocol"

	"go.uber.org/zap"
)

// handleStats adds this node's counters to the walk and passes it backward. The
// walk ends at the node whose predecessor is itself or the origin, which reports.
func (n *LocalNode) handleStats(ctx context.Context, m protocol.Stats) {
	total := Counters{
		Get:  m.GetAmt,
		Put:  m.PutAmt,
		Mgmt: m.MgmtAmt,
	}.Add(n.Counters())

	pred := n.table.Predecessor()
	if pred.Equal(n.Identity) || pred.SameEndpoint(m.Address) {
		n.Logger.Info("Ring statistics", zap.Object("origin", m.Address), zap.Object("total", total))
		if n.Reporter != nil {
			n.Reporter.ReportStats(m.Address, total)
		}
		return
	}

	n.send(ctx, pred, protocol.Stats{
		Address: m.Address,
		GetAmt:  total.Get,
		PutAmt:  total.Put,
		MgmtAmt: total.Mgmt,
		Relay:   true,
	})
}

func (n *LocalNode) handlePrint(ctx context.Context, m protocol.Print) {
	local := n.Counters()
	n.Logger.Info("Node statistics", zap.Object("counters", local), zap.Int("keys", n.KVProvider.Len()))
	if n.Reporter != nil {
		n.Reporter.ReportCounters(n.Identity, local)
	}

	pred := n.table.Predecessor()
	if pred.Equal(n.Identity) || pred.SameEndpoint(m.Address) {
		return
	}
	n.send(ctx, pred, m)
}

func (n *LocalNode) handleExit(ctx context.Context) {
	if pred := n.table.Predecessor(); !pred.Equal(n.Identity) {
		n.send(ctx, pred, protocol.Exit{})
	}
	if n.state.ShutDown() {
		n.Logger.Info("Shutting down")
	}
}
