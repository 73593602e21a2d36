package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickingClock_AdvancesByStep(t *testing.T) {
	clock := NewTickingClock(1000, 10)

	assert.Equal(t, int64(1000), clock.NowMillis())
	assert.Equal(t, int64(1010), clock.NowMillis())
	assert.Equal(t, int64(1020), clock.NowMillis())
}

func TestTickingClock_ZeroStepFreezesTime(t *testing.T) {
	clock := NewTickingClock(500, 0)

	assert.Equal(t, int64(500), clock.NowMillis())
	assert.Equal(t, int64(500), clock.NowMillis())
}

func TestTickingClock_Set(t *testing.T) {
	clock := NewTickingClock(1, 1)
	clock.NowMillis()

	clock.Set(9000)
	assert.Equal(t, int64(9000), clock.NowMillis())
	assert.Equal(t, int64(9001), clock.NowMillis())
}
