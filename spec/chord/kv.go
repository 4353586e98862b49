package chord

// KVProvider is the local shard of a ring node. Keys are ring identifiers.
type KVProvider interface {
	Put(key uint64, value float64)
	Get(key uint64) (value float64, exists bool)
	Delete(key uint64)
	Len() int

	// RangeKeys returns keys IN (low, high], following Contains
	RangeKeys(low, high uint64) []uint64
	Export(keys []uint64) []float64
	Import(keys []uint64, values []float64)
	RemoveKeys(keys []uint64)
}
