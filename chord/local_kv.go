package chord

import (
	"context"

	"go.miragespace.co/copper/spec/protocol"

	"go.uber.org/zap"
)

// RegisterAck records a put token issued on behalf of this node so the matching ack can clear it.
func (n *LocalNode) RegisterAck(id uint64) {
	n.pendingAcks.Add(id)
}

func (n *LocalNode) PendingAcks() int {
	return n.pendingAcks.Len()
}

func (n *LocalNode) handleGet(ctx context.Context, m protocol.Get) {
	key := n.Space.Normalize(m.Key)

	if value, ok := n.KVProvider.Get(key); ok {
		n.answer(ctx, m.Address, protocol.Answer{
			Key:       m.Key,
			Value:     value,
			ValExists: true,
		})
		return
	}

	owner := n.findOwner(key)
	if owner.Equal(n.Identity) {
		n.answer(ctx, m.Address, protocol.Answer{
			Key: m.Key,
		})
		return
	}

	n.send(ctx, owner, m)
}

func (n *LocalNode) answer(ctx context.Context, to protocol.Address, ans protocol.Answer) {
	if to.Equal(n.Identity) {
		n.reportAnswer(ans)
		return
	}
	n.send(ctx, to, ans)
}

func (n *LocalNode) handleAnswer(m protocol.Answer) {
	n.reportAnswer(m)
}

func (n *LocalNode) reportAnswer(ans protocol.Answer) {
	if ans.ValExists {
		n.Logger.Info("Answer", zap.Uint64("key", ans.Key), zap.Float64("value", ans.Value))
	} else {
		n.Logger.Info("Answer: key not found", zap.Uint64("key", ans.Key))
	}
	if n.Reporter != nil {
		n.Reporter.ReportAnswer(ans)
	}
}

func (n *LocalNode) handlePut(ctx context.Context, m protocol.Put) {
	key := n.Space.Normalize(m.Key)

	owner := n.findOwner(key)
	if !owner.Equal(n.Identity) {
		n.send(ctx, owner, m)
		return
	}

	n.KVProvider.Put(key, m.Value)
	n.Logger.Debug("Stored key", zap.Uint64("key", key), zap.Float64("value", m.Value))

	ack := protocol.Ack{ID: m.ID}
	if m.Address.Equal(n.Identity) {
		n.handleAck(ack)
		return
	}
	n.send(ctx, m.Address, ack)
}

func (n *LocalNode) handleAck(m protocol.Ack) {
	if n.pendingAcks.Remove(m.ID) {
		n.Logger.Info("Put acknowledged", zap.Uint64("ack", m.ID))
		return
	}
	n.Logger.Debug("Ignoring unknown ack", zap.Uint64("ack", m.ID))
}
