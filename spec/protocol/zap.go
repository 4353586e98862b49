package protocol

import "go.uber.org/zap/zapcore"

var (
	_ zapcore.ObjectMarshaler = Address{}
	_ zapcore.ObjectMarshaler = LogMessage{}
)

func (a Address) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	if a.IsValid() {
		enc.AddString("address", a.HostPort())
	}
	enc.AddUint64("id", a.ID())
	return nil
}

// LogMessage adapts a Message for zap.Object.
type LogMessage struct {
	Message
}

func (l LogMessage) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	if l.Message == nil {
		return nil
	}
	enc.AddString("cmd", l.Command().String())
	switch m := l.Message.(type) {
	case Hello:
		return enc.AddObject("joiner", m.Address)
	case HelloOK:
		enc.AddUint64("joiner", m.ID)
		enc.AddInt("keys", len(m.Data))
		if err := enc.AddObject("responder", m.AddressResp); err != nil {
			return err
		}
		return enc.AddObject("previous", m.AddressPrevious)
	case HelloKO:
		enc.AddUint64("joiner", m.ID)
	case Get:
		enc.AddUint64("key", m.Key)
		return enc.AddObject("reply", m.Address)
	case Answer:
		enc.AddUint64("key", m.Key)
		enc.AddFloat64("value", m.Value)
		enc.AddBool("exists", m.ValExists)
	case GetResp:
		enc.AddUint64("key", m.Key)
		return enc.AddObject("reply", m.Address)
	case AnswerResp:
		enc.AddUint64("key", m.Key)
		return enc.AddObject("owner", m.Address)
	case Put:
		enc.AddUint64("key", m.Key)
		enc.AddFloat64("value", m.Value)
		enc.AddUint64("ack", m.ID)
		return enc.AddObject("reply", m.Address)
	case Ack:
		enc.AddUint64("ack", m.ID)
	case UpdateTable:
		enc.AddInt64("lower", m.IDLowerKey)
		enc.AddInt64("amount", m.Amount)
		return enc.AddObject("joiner", m.Address)
	case Stats:
		enc.AddUint64("get", m.GetAmt)
		enc.AddUint64("put", m.PutAmt)
		enc.AddUint64("mgmt", m.MgmtAmt)
		return enc.AddObject("origin", m.Address)
	case Print:
		return enc.AddObject("origin", m.Address)
	}
	return nil
}
