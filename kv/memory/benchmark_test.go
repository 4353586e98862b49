package memory

import (
	"math/rand/v2"
	"testing"
)

var (
	benchKeys  []uint64
	benchFound bool
)

func BenchmarkMemoryKVPut(b *testing.B) {
	kv := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		kv.Put(rand.Uint64N(1<<16), float64(i))
	}
}

func BenchmarkMemoryKVGet(b *testing.B) {
	kv := New()
	for i := uint64(0); i < 1<<12; i++ {
		kv.Put(i, float64(i))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, benchFound = kv.Get(uint64(i) % (1 << 13))
	}
}

func BenchmarkMemoryKVRangeKeys(b *testing.B) {
	kv := New()
	for i := uint64(0); i < 1<<12; i++ {
		kv.Put(i*16, float64(i))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchKeys = kv.RangeKeys(uint64(i)%(1<<16), uint64(i+1<<14)%(1<<16))
	}
}
