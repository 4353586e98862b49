package util

import (
	"fmt"
	"math"

	"github.com/alecthomas/units"
)

// ParseByteSize accepts sizes such as "64KiB", "1MB" or "512B".
func ParseByteSize(s string) (int, error) {
	size, err := units.ParseBase2Bytes(s)
	if err != nil {
		return 0, fmt.Errorf("parsing size %q: %w", s, err)
	}
	if size <= 0 || int64(size) > math.MaxInt32 {
		return 0, fmt.Errorf("size %q is out of range", s)
	}
	return int(size), nil
}
