// Package clock provides an injectable time source.
package clock

import "time"

// Clock returns the current wall-clock time
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// System returns a Clock backed by time.Now
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Fixed always returns the same instant
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time {
	return f.T
}

// Func adapts a plain function to Clock
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}
