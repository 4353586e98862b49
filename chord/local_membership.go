package chord

import (
	"context"
	"fmt"

	"go.miragespace.co/copper/spec/chord"
	"go.miragespace.co/copper/spec/protocol"

	"go.uber.org/zap"
)

// Join asks the ring reachable at bootstrap to make room for this node. The ring id
// of bootstrap is not used. The outcome arrives later as hello_ok or hello_ko.
func (n *LocalNode) Join(ctx context.Context, bootstrap protocol.Address) error {
	if bootstrap.SameEndpoint(n.Identity) {
		return fmt.Errorf("cannot join through ourselves")
	}
	if n.state.Get() == chord.ShuttingDown {
		return chord.ErrNodeShuttingDown
	}
	payload, err := protocol.Encode(protocol.Hello{Address: n.Identity})
	if err != nil {
		return err
	}

	n.Logger.Info("Joining ring", zap.String("via", bootstrap.HostPort()))

	if err := n.Transport.Send(ctx, bootstrap, payload); err != nil {
		return fmt.Errorf("sending join request: %w", err)
	}
	return nil
}

func (n *LocalNode) handleHello(ctx context.Context, m protocol.Hello) {
	joiner := m.Address

	owner := n.findOwner(joiner.ID())
	if !owner.Equal(n.Identity) {
		n.send(ctx, owner, m)
		return
	}

	if joiner.ID() == n.ID() {
		n.Logger.Warn("Rejecting join request", zap.Object("joiner", joiner), zap.Error(chord.ErrDuplicateJoinerID))
		n.send(ctx, joiner, protocol.HelloKO{ID: joiner.ID()})
		return
	}

	previous := n.table.Predecessor()

	// a lone node has no arc start, so it hands over [0, joiner]
	lower := previous.ID()
	if previous.Equal(n.Identity) {
		lower = uint64(n.Space) - 1
	}

	keys := n.KVProvider.RangeKeys(lower, joiner.ID())
	values := n.KVProvider.Export(keys)
	n.KVProvider.RemoveKeys(keys)

	data := make([]protocol.KeyValue, len(keys))
	for i, key := range keys {
		data[i] = protocol.KeyValue{
			Key:   key,
			Value: values[i],
		}
	}

	n.table.SetPredecessor(joiner)
	n.applyUpdate(joiner)

	n.Logger.Info("Accepted join request",
		zap.Object("joiner", joiner),
		zap.Object("previous", previous),
		zap.Int("keys", len(keys)),
	)

	n.send(ctx, joiner, protocol.HelloOK{
		ID:              joiner.ID(),
		AddressResp:     n.Identity,
		Data:            data,
		AddressPrevious: previous,
	})

	if !previous.Equal(n.Identity) {
		n.send(ctx, previous, protocol.UpdateTable{
			Address:    joiner,
			IDLowerKey: -1,
			Amount:     -1,
		})
	}
}

func (n *LocalNode) handleHelloOK(ctx context.Context, m protocol.HelloOK) {
	n.table.SetPredecessor(m.AddressPrevious)

	// the shard becomes exactly what the responder handed over
	n.KVProvider.RemoveKeys(n.KVProvider.RangeKeys(0, 0))

	keys := make([]uint64, len(m.Data))
	values := make([]float64, len(m.Data))
	for i, kv := range m.Data {
		keys[i] = n.Space.Normalize(kv.Key)
		values[i] = kv.Value
	}
	n.KVProvider.Import(keys, values)

	offsets := n.table.Offsets()
	if len(offsets) > 0 {
		if err := n.table.UpsertFinger(offsets[0], m.AddressResp); err != nil {
			n.Logger.Error("Failed to record successor", zap.Object("successor", m.AddressResp), zap.Error(err))
		}
	}

	n.Logger.Info("Joined ring",
		zap.Object("predecessor", m.AddressPrevious),
		zap.Object("successor", m.AddressResp),
		zap.Int("keys", len(keys)),
	)

	if !m.AddressPrevious.Equal(n.Identity) {
		n.send(ctx, m.AddressPrevious, protocol.UpdateTable{
			Address:    n.Identity,
			IDLowerKey: -1,
			Amount:     -1,
		})
	}

	if len(offsets) > 1 {
		for _, offset := range offsets[1:] {
			n.send(ctx, m.AddressResp, protocol.GetResp{
				Address: n.Identity,
				Key:     offset,
			})
		}
	}
}

func (n *LocalNode) handleHelloKO(m protocol.HelloKO) {
	n.Logger.Error("Join rejected, shutting down", zap.Uint64("id", m.ID), zap.Error(chord.ErrDuplicateJoinerID))
	n.state.ShutDown()
}

func (n *LocalNode) handleGetResp(ctx context.Context, m protocol.GetResp) {
	owner := n.findOwner(m.Key)
	if !owner.Equal(n.Identity) {
		n.send(ctx, owner, m)
		return
	}

	resp := protocol.AnswerResp{
		Key:     m.Key,
		Address: n.Identity,
	}
	if m.Address.Equal(n.Identity) {
		n.handleAnswerResp(resp)
		return
	}
	n.send(ctx, m.Address, resp)
}

func (n *LocalNode) handleAnswerResp(m protocol.AnswerResp) {
	if err := n.table.UpsertFinger(m.Key, m.Address); err != nil {
		n.Logger.Debug("Ignoring owner answer", zap.Uint64("key", m.Key), zap.Error(err))
		return
	}
	n.Logger.Debug("Learned finger", zap.Uint64("offset", m.Key), zap.Object("owner", m.Address))
}

// update_table travels backward from the node preceding a joiner. The cutoff
// limits it to the half ring whose fingers can point at the joiner.
func (n *LocalNode) handleUpdateTable(ctx context.Context, m protocol.UpdateTable) {
	joiner := m.Address

	lower, amount := m.IDLowerKey, m.Amount
	if lower == -1 {
		lower = int64(n.Space.ModuloSub(joiner.ID(), n.Space.Half()))
		amount = int64(n.Space.Half())
	}
	lowerID := n.Space.NormalizeSigned(lower)

	n.applyUpdate(joiner)

	pred := n.table.Predecessor()
	switch {
	case joiner.Equal(n.Identity):
		return
	case pred.Equal(n.Identity), pred.Equal(joiner):
		return
	case amount <= 1:
		return
	case !chord.BetweenInclusiveLow(lowerID, pred.ID(), joiner.ID()):
		return
	}

	n.send(ctx, pred, protocol.UpdateTable{
		Address:    joiner,
		IDLowerKey: int64(lowerID),
		Amount:     amount - 1,
	})
}

// applyUpdate points every finger that joiner now precedes at joiner.
func (n *LocalNode) applyUpdate(joiner protocol.Address) {
	if joiner.Equal(n.Identity) {
		return
	}
	for _, f := range n.table.Fingers() {
		if f.Owner.ID() == f.Offset {
			continue
		}
		if chord.BetweenInclusiveLow(f.Offset, joiner.ID(), f.Owner.ID()) {
			if err := n.table.UpsertFinger(f.Offset, joiner); err != nil {
				n.Logger.Error("Failed to repoint finger", zap.Uint64("offset", f.Offset), zap.Error(err))
			}
		}
	}
}
