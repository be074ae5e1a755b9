package jitter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationStaysInRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := Duration(time.Second, 0.5)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 1500*time.Millisecond)
	}
}

func TestDurationWithoutJitter(t *testing.T) {
	assert.Equal(t, time.Second, Duration(time.Second, 0))
}

func TestExponentialBackoffIsCapped(t *testing.T) {
	b := Backoff{Base: 100 * time.Millisecond, Max: time.Second}

	assert.Equal(t, 100*time.Millisecond, b.Next(0))
	assert.Equal(t, 400*time.Millisecond, b.Next(2))
	assert.Equal(t, time.Second, b.Next(10))
}
