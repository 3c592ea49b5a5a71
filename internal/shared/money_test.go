package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 123.46, Round2(123.456))
	assert.Equal(t, 123.45, Round2(123.454))
	assert.Equal(t, -123.46, Round2(-123.456))
	assert.Equal(t, 0.3, Round2(0.1+0.2))
	// Half up, even where binary floats drift.
	assert.Equal(t, 2.68, Round2(2.675))
}

func TestMulRound2(t *testing.T) {
	assert.Equal(t, 26.97, MulRound2(9.99, 3, 0.9))
	assert.Equal(t, 125.0, MulRound2(100, 1.25))
	assert.Equal(t, 0.0, MulRound2(100, 0))
}

func TestNearZero(t *testing.T) {
	assert.True(t, NearZero(0))
	assert.True(t, NearZero(0.004))
	assert.True(t, NearZero(-0.01))
	assert.False(t, NearZero(0.011))
	assert.False(t, NearZero(-1))
}
