package protocol

import (
	"encoding/json"
	"fmt"
)

type envelope struct {
	Cmd  Command         `json:"cmd"`
	Args json.RawMessage `json:"args"`
}

type rawEnvelope struct {
	Cmd  *Command        `json:"cmd"`
	Args json.RawMessage `json:"args"`
}

// Encode serializes msg as {"cmd": ..., "args": {...}}.
func Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrMalformedEnvelope)
	}
	if h, ok := msg.(HelloOK); ok && h.Data == nil {
		h.Data = []KeyValue{}
		msg = h
	}
	args, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", msg.Command(), err)
	}
	return json.Marshal(envelope{
		Cmd:  msg.Command(),
		Args: args,
	})
}

// Decode parses exactly one envelope. Every field listed for a command is required;
// an unknown command returns ErrUnknownCommand.
func Decode(b []byte) (Message, error) {
	var env rawEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Cmd == nil {
		return nil, fmt.Errorf("%w: cmd", ErrMissingField)
	}

	var (
		msg Message
		err error
	)
	switch *env.Cmd {
	case CmdHello:
		msg, err = decodeAs[Hello](env.Args, "address")
	case CmdHelloOK:
		msg, err = decodeAs[HelloOK](env.Args, "id", "address_resp", "data", "address_previous")
	case CmdHelloKO:
		msg, err = decodeAs[HelloKO](env.Args, "id")
	case CmdGet:
		msg, err = decodeAs[Get](env.Args, "address", "key")
	case CmdAnswer:
		msg, err = decodeAs[Answer](env.Args, "key", "value", "val_exists")
	case CmdGetResp:
		msg, err = decodeAs[GetResp](env.Args, "address", "key")
	case CmdAnswerResp:
		msg, err = decodeAs[AnswerResp](env.Args, "key", "address")
	case CmdPut:
		msg, err = decodeAs[Put](env.Args, "address", "key", "value", "id")
	case CmdAck:
		msg, err = decodeAs[Ack](env.Args, "id")
	case CmdUpdateTable:
		msg, err = decodeAs[UpdateTable](env.Args, "address", "id_lower_key", "amount")
	case CmdGetStat, CmdStats:
		var s Stats
		if err = decodeArgs(env.Args, &s, "address", "get_amt", "put_amt", "mgmt_amt"); err == nil {
			s.Relay = *env.Cmd == CmdStats
			msg = s
		}
	case CmdPrint:
		msg, err = decodeAs[Print](env.Args, "address")
	case CmdExit:
		msg, err = decodeAs[Exit](env.Args)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, *env.Cmd)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", *env.Cmd, err)
	}
	return msg, nil
}

func decodeAs[T Message](raw json.RawMessage, required ...string) (Message, error) {
	var m T
	if err := decodeArgs(raw, &m, required...); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeArgs(raw json.RawMessage, v any, required ...string) error {
	if len(required) == 0 && (len(raw) == 0 || string(raw) == "null") {
		return nil
	}
	if len(raw) == 0 {
		return fmt.Errorf("%w: args", ErrMissingField)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	for _, name := range required {
		f, ok := fields[name]
		if !ok || string(f) == "null" {
			return fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}
	return nil
}
