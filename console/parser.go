package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEmptyLine      = errors.New("console: empty line")
	ErrUnknownCommand = errors.New("console: command not found")
	ErrUsage          = errors.New("console: usage")
)

// Command is one line typed at the console.
type Command interface {
	Name() string
}

type GetCommand struct {
	Key uint64
}

type PutCommand struct {
	Key   uint64
	Value float64
}

type StatsCommand struct{}

type PrintCommand struct{}

type ExitCommand struct{}

type StopAllCommand struct{}

func (GetCommand) Name() string     { return "get" }
func (PutCommand) Name() string     { return "put" }
func (StatsCommand) Name() string   { return "stats" }
func (PrintCommand) Name() string   { return "print" }
func (ExitCommand) Name() string    { return "exit" }
func (StopAllCommand) Name() string { return "stop_all" }

var usages = []string{
	"get <key>",
	"put <key> <value>",
	"stats",
	"print",
	"exit",
	"stop_all",
}

// Parse reads one console line. Keys are non-negative integers, values are floats.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrEmptyLine
	}

	switch strings.ToLower(fields[0]) {
	case "get":
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: get <key>", ErrUsage)
		}
		key, err := parseKey(fields[1])
		if err != nil {
			return nil, err
		}
		return GetCommand{Key: key}, nil

	case "put":
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: put <key> <value>", ErrUsage)
		}
		key, err := parseKey(fields[1])
		if err != nil {
			return nil, err
		}
		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: value %q is not a number", ErrUsage, fields[2])
		}
		return PutCommand{Key: key, Value: value}, nil

	case "stats":
		return noArgs(fields, StatsCommand{})
	case "print":
		return noArgs(fields, PrintCommand{})
	case "exit":
		return noArgs(fields, ExitCommand{})
	case "stop_all":
		return noArgs(fields, StopAllCommand{})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
	}
}

func parseKey(s string) (uint64, error) {
	key, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: key %q is not a non-negative integer", ErrUsage, s)
	}
	return key, nil
}

func noArgs(fields []string, cmd Command) (Command, error) {
	if len(fields) != 1 {
		return nil, fmt.Errorf("%w: %s takes no arguments", ErrUsage, cmd.Name())
	}
	return cmd, nil
}
