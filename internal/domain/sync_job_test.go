package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextRetryAt(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(2*time.Minute), NextRetryAt(now, 1))
	assert.Equal(t, now.Add(4*time.Minute), NextRetryAt(now, 2))
	assert.Equal(t, now.Add(8*time.Minute), NextRetryAt(now, 3))

	// Negative attempts are treated as zero
	assert.Equal(t, now.Add(1*time.Minute), NextRetryAt(now, -5))

	// The exponent is capped so the schedule stays bounded
	assert.Equal(t, now.Add(1024*time.Minute), NextRetryAt(now, 99))
}
