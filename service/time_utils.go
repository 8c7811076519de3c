package service

import "time"

// systemClock reads wall time in UTC at the microsecond precision Postgres
// stores, so a timestamp reads back equal to the value that was written.
type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// SystemClock returns the default Clock
func SystemClock() Clock {
	return systemClock{}
}
