package domain

import "time"

// Clock abstracts the time source so day-rollover and hold-deadline logic
// can be tested without waiting for real time to pass.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }
