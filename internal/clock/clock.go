// Package clock provides the time source and the calendar arithmetic shared
// by order sequencing and membership renewals.
package clock

import "time"

// Clock abstracts the time source so temporal logic is testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystemClock returns a Clock backed by time.Now in UTC.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
