package chord

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModulo(t *testing.T) {
	as := require.New(t)

	var s Space = 1 << 60
	var x uint64 = 1<<60 - 1
	var y uint64 = 1 << 59

	as.Equal(uint64(1<<59-1), s.ModuloSum(x, y))
	as.Equal(uint64(7), Space(8).ModuloSum(5, 10))
	as.Equal(uint64(6), Space(8).ModuloSub(2, 4))
	as.Equal(uint64(3), Space(8).Distance(6, 1))
	as.Equal(uint64(5), Space(8).NormalizeSigned(-3))
	as.Equal(uint64(7), Space(1<<16).Normalize(7))
}

func TestFingerOffsets(t *testing.T) {
	as := require.New(t)

	as.Equal([]uint64{6, 7, 1}, Space(8).FingerOffsets(5))
	as.Equal([]uint64{1, 2, 4, 8}, Space(16).FingerOffsets(0))
	as.Equal([]uint64{3, 4}, Space(6).FingerOffsets(2))
	as.Empty(Space(1).FingerOffsets(0))
	as.Len(Space(1<<63).FingerOffsets(0), 63)
}

// walk clockwise from low (exclusive) to high (inclusive)
func walkContains(s Space, target, low, high uint64) bool {
	if low == high {
		return true
	}
	for cur := s.ModuloSum(low, 1); ; cur = s.ModuloSum(cur, 1) {
		if cur == target {
			return true
		}
		if cur == high {
			return false
		}
	}
}

func TestContainsExhaustive(t *testing.T) {
	as := require.New(t)

	var s Space = 16
	for low := uint64(0); low < uint64(s); low++ {
		for high := uint64(0); high < uint64(s); high++ {
			for target := uint64(0); target < uint64(s); target++ {
				as.Equal(walkContains(s, target, low, high), Contains(target, low, high),
					"%d ∈ (%d, %d]", target, low, high)
			}
		}
	}
}

func TestContainsRandom(t *testing.T) {
	as := require.New(t)

	x := rand.Uint64()
	y := rand.Uint64()

	as.True(Contains(y, x, x))
	as.True(Contains(x, x, x))
	as.True(Contains(y, x, y))
	as.False(Contains(x, x, y) && x != y)
}

func TestBetween(t *testing.T) {
	tables := []struct {
		low    uint64
		target uint64
		high   uint64
		fn     func(low, target, high uint64) bool
		name   string
		result bool
	}{
		{low: 10, target: 20, high: 10, fn: BetweenStrict, name: "strict", result: true},
		{low: 10, target: 10, high: 20, fn: BetweenStrict, name: "strict", result: false},
		{low: 20, target: 10, high: 10, fn: BetweenStrict, name: "strict", result: false},
		{low: 20, target: 5, high: 10, fn: BetweenStrict, name: "strict", result: true},
		{low: 10, target: 10, high: 20, fn: BetweenInclusiveLow, name: "inclusive low", result: true},
		{low: 10, target: 20, high: 20, fn: BetweenInclusiveLow, name: "inclusive low", result: false},
		{low: 20, target: 3, high: 10, fn: BetweenInclusiveLow, name: "inclusive low", result: true},
		{low: 10, target: 20, high: 20, fn: BetweenInclusiveHigh, name: "inclusive high", result: true},
		{low: 10, target: 10, high: 20, fn: BetweenInclusiveHigh, name: "inclusive high", result: false},
		{low: 5, target: 4, high: 4, fn: BetweenInclusiveHigh, name: "inclusive high", result: true},
	}

	for _, table := range tables {
		t.Run(fmt.Sprintf("%s: %d ∈ (%d, %d) == %v", table.name, table.target, table.low, table.high, table.result), func(t *testing.T) {
			as := require.New(t)
			as.Equal(table.result, table.fn(table.low, table.target, table.high))
		})
	}
}

func TestStateString(t *testing.T) {
	as := require.New(t)

	as.Equal("Running", Running.String())
	as.Equal("ShuttingDown", ShuttingDown.String())
	as.Equal("State(unknown)", State(7).String())
}
