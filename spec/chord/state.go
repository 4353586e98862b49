package chord

type State uint64

const (
	// Dispatching envelopes, default state
	Running State = iota
	// Stop after the current envelope. Terminal
	ShuttingDown
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case ShuttingDown:
		return "ShuttingDown"
	default:
		return "State(unknown)"
	}
}
