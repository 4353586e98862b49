package chord

const (
	// DefaultRingBits gives the ring 2^16 identifiers unless configured otherwise
	DefaultRingBits = 16

	DefaultSpace Space = 1 << DefaultRingBits
)

// Space is the number of identifiers on the ring, also known as RING_SIZE.
// Every node of the same ring must agree on it.
type Space uint64

// Normalize maps any identifier onto the ring.
func (s Space) Normalize(id uint64) uint64 {
	return id % uint64(s)
}

// NormalizeSigned maps a possibly negative identifier onto the ring.
func (s Space) NormalizeSigned(id int64) uint64 {
	m := int64(s)
	r := id % m
	if r < 0 {
		r += m
	}
	return uint64(r)
}

func (s Space) ModuloSum(x, y uint64) uint64 {
	// split (x + y) % m into (x % m + y % m) % m to avoid overflow
	m := uint64(s)
	x, y = x%m, y%m
	if x >= m-y {
		return x - (m - y)
	}
	return x + y
}

// ModuloSub returns (x - y) mod m, walking counter-clockwise from x.
func (s Space) ModuloSub(x, y uint64) uint64 {
	m := uint64(s)
	x, y = x%m, y%m
	if x >= y {
		return x - y
	}
	return m - (y - x)
}

// Distance is the clockwise distance from "from" to "to".
func (s Space) Distance(from, to uint64) uint64 {
	return s.ModuloSub(to, from)
}

// Half is how far back a finger repair needs to reach.
func (s Space) Half() uint64 {
	return uint64(s) / 2
}

// FingerOffsets returns (self + 2^k) mod m for every k where 2^k <= m/2,
// in increasing k. A ring of size 1 has no fingers.
func (s Space) FingerOffsets(self uint64) []uint64 {
	offsets := make([]uint64, 0)
	for step := uint64(1); step <= s.Half(); step <<= 1 {
		offsets = append(offsets, s.ModuloSum(self, step))
		if step > (^uint64(0))>>1 {
			break
		}
	}
	return offsets
}

// Contains reports target IN (low, high]. The arc wraps through 0 when low > high,
// and low == high covers the whole ring.
func Contains(target, low, high uint64) bool {
	return BetweenInclusiveHigh(low, target, high)
}

// target IN [low, high)
func BetweenInclusiveLow(low, target, high uint64) bool {
	if high > low {
		return (low <= target && target < high)
	} else {
		return (low <= target || target < high)
	}
}

// target IN (low, high]
func BetweenInclusiveHigh(low, target, high uint64) bool {
	if high > low {
		return (low < target && target <= high)
	} else {
		return (low < target || target <= high)
	}
}

// target IN (low, high)
func BetweenStrict(low, target, high uint64) bool {
	if high > low {
		return low < target && target < high
	} else {
		return low < target || target < high
	}
}
