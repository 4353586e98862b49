package memory

import (
	"go.miragespace.co/copper/spec/chord"

	"github.com/zhangyunhao116/skipmap"
)

// MemoryKV is the local shard of a node. Keys are kept in ring order so a
// range of the ring can be handed over on join.
type MemoryKV struct {
	s *skipmap.Uint64Map[float64]
}

var _ chord.KVProvider = (*MemoryKV)(nil)

func New() *MemoryKV {
	return &MemoryKV{
		s: skipmap.NewUint64[float64](),
	}
}

func (m *MemoryKV) Import(keys []uint64, values []float64) {
	for i, key := range keys {
		m.s.Store(key, values[i])
	}
}

// Export returns the value of every key, in the same order. Missing keys export as 0.
func (m *MemoryKV) Export(keys []uint64) []float64 {
	vals := make([]float64, len(keys))
	for i, key := range keys {
		vals[i], _ = m.s.Load(key)
	}
	return vals
}

func (m *MemoryKV) RangeKeys(low, high uint64) []uint64 {
	keys := make([]uint64, 0)

	m.s.Range(func(id uint64, _ float64) bool {
		if chord.Contains(id, low, high) {
			keys = append(keys, id)
		}
		return true
	})

	return keys
}

func (m *MemoryKV) RemoveKeys(keys []uint64) {
	for _, key := range keys {
		m.s.Delete(key)
	}
}
