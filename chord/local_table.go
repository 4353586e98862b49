package chord

import (
	"encoding/binary"
	"sync"

	"go.miragespace.co/copper/spec/chord"
	"go.miragespace.co/copper/spec/protocol"

	"github.com/zeebo/xxh3"
)

type fingerEntry struct {
	Offset uint64
	Owner  protocol.Address
}

// routingTable holds the predecessor and the finger cache. It has no behavior of
// its own: only the dispatch loop writes to it, while observers read snapshots.
type routingTable struct {
	mu          sync.RWMutex
	predecessor protocol.Address
	offsets     []uint64
	fingers     map[uint64]protocol.Address
}

func newRoutingTable(self protocol.Address, space chord.Space) *routingTable {
	t := &routingTable{
		predecessor: self,
		offsets:     space.FingerOffsets(self.ID()),
	}
	t.fingers = make(map[uint64]protocol.Address, len(t.offsets))
	for _, offset := range t.offsets {
		t.fingers[offset] = self
	}
	return t
}

func (t *routingTable) Predecessor() protocol.Address {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.predecessor
}

func (t *routingTable) SetPredecessor(addr protocol.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.predecessor = addr
}

// Fingers returns the entries ordered by increasing k.
func (t *routingTable) Fingers() []fingerEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entries := make([]fingerEntry, len(t.offsets))
	for i, offset := range t.offsets {
		entries[i] = fingerEntry{
			Offset: offset,
			Owner:  t.fingers[offset],
		}
	}
	return entries
}

func (t *routingTable) Finger(offset uint64) (protocol.Address, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	addr, ok := t.fingers[offset]
	return addr, ok
}

func (t *routingTable) UpsertFinger(offset uint64, addr protocol.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.fingers[offset]; !ok {
		return chord.ErrUnknownFingerEntry
	}
	t.fingers[offset] = addr
	return nil
}

// Successor is the finger at self+1. A ring of size 1 has no fingers and is its own successor.
func (t *routingTable) Successor() (uint64, protocol.Address, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.offsets) == 0 {
		return 0, protocol.Address{}, false
	}
	return t.offsets[0], t.fingers[t.offsets[0]], true
}

func (t *routingTable) Offsets() []uint64 {
	return append([]uint64(nil), t.offsets...)
}

func (t *routingTable) Fingerprint() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	hasher := xxh3.New()
	buf := make([]byte, 0, 16)
	write := func(addr protocol.Address) {
		buf = buf[:0]
		buf = binary.BigEndian.AppendUint64(buf, addr.ID())
		buf = append(buf, addr.HostPort()...)
		hasher.Write(buf)
	}
	write(t.predecessor)
	for _, offset := range t.offsets {
		write(t.fingers[offset])
	}
	return hasher.Sum64()
}
