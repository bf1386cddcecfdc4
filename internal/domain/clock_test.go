package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLaterOfNeverMovesBackwards(t *testing.T) {
	earlier := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Second)

	assert.Equal(t, later, LaterOf(later, earlier))
	assert.Equal(t, later, LaterOf(earlier, later))
	assert.Equal(t, earlier, LaterOf(earlier, earlier))
}
