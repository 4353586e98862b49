package memory

func (m *MemoryKV) Put(key uint64, value float64) {
	m.s.Store(key, value)
}

func (m *MemoryKV) Get(key uint64) (float64, bool) {
	return m.s.Load(key)
}

func (m *MemoryKV) Delete(key uint64) {
	m.s.Delete(key)
}

func (m *MemoryKV) Len() int {
	return m.s.Len()
}
