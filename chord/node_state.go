package chord

import (
	"sync/atomic"

	"go.miragespace.co/copper/spec/chord"

	"github.com/zhangyunhao116/skipmap"
)

// nodeState packs a transition counter above the 4 state bits so every
// transition lands in history under its own index.
type nodeState struct {
	state   atomic.Uint64
	history *skipmap.Uint64Map[chord.State]
}

func newNodeState(initial chord.State) *nodeState {
	s := &nodeState{
		history: skipmap.NewUint64[chord.State](),
	}
	s.state.Store(uint64(initial))
	s.history.Store(0, initial)
	return s
}

func (s *nodeState) Transition(exp chord.State, nxt chord.State) (chord.State, bool) {
	curr := s.state.Load()
	if chord.State(curr&0b1111) != exp {
		return chord.State(curr & 0b1111), false
	}
	nextIndex := (curr >> 4) + 1
	if s.state.CompareAndSwap(curr, (nextIndex<<4)|uint64(nxt)) {
		s.history.Store(nextIndex, nxt)
		return nxt, true
	}
	return s.Get(), false
}

// ShutDown moves a running node to ShuttingDown. It reports false if the
// node was already shutting down.
func (s *nodeState) ShutDown() bool {
	_, ok := s.Transition(chord.Running, chord.ShuttingDown)
	return ok
}

func (s *nodeState) Get() chord.State {
	return chord.State(s.state.Load() & 0b1111)
}

func (s *nodeState) History() []chord.State {
	h := make([]chord.State, 0, s.history.Len())
	s.history.Range(func(_ uint64, state chord.State) bool {
		h = append(h, state)
		return true
	})
	return h
}
