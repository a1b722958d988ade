package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.FixedZone("X", 3600))
	c := NewFakeClock(start)

	assert.Equal(t, time.UTC, c.Now().Location())
	c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute).UTC(), c.Now())
}

func TestSystemClock(t *testing.T) {
	var c Clock = SystemClock{}
	assert.WithinDuration(t, time.Now(), c.Now(), time.Second)
}
