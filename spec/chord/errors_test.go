package chord

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorsWrap(t *testing.T) {
	as := require.New(t)

	errs := []error{
		ErrNodeShuttingDown,
		ErrDuplicateJoinerID,
		ErrUnknownFingerEntry,
		ErrInvalidSpace,
		ErrIDOutOfRange,
	}

	seen := make(map[string]bool)
	for _, sentinel := range errs {
		as.False(seen[sentinel.Error()], sentinel.Error())
		seen[sentinel.Error()] = true

		wrapped := fmt.Errorf("joining: %w", sentinel)
		as.ErrorIs(wrapped, sentinel)
		for _, other := range errs {
			if other != sentinel {
				as.NotErrorIs(wrapped, other)
			}
		}
	}
}
