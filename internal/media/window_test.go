package media

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowEnd(t *testing.T) {
	assert.Equal(t, int64(3_048_575), DefaultWindow.End(2_000_000, 10_000_000))
	assert.Equal(t, int64(9_999_999), DefaultWindow.End(9_500_000, 10_000_000))
	assert.Equal(t, int64(9_999_999), Unbounded.End(0, 10_000_000))
	assert.Equal(t, int64(0), Window(1).End(0, 10))
	assert.Equal(t, int64(9), Window(10).End(0, 10))

	// a huge window must not overflow
	assert.Equal(t, int64(math.MaxInt64-1), Window(math.MaxInt64).End(5, math.MaxInt64))
}
