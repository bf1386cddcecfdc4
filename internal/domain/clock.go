package domain

import "time"

// LaterOf returns the later of now and previous. Updates stamp updated_at
// with it so the field never moves backwards when the clock does.
func LaterOf(now, previous time.Time) time.Time {
	if previous.After(now) {
		return previous
	}
	return now
}
