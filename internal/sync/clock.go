package sync

import "time"

// Timer is a handle to a scheduled callback
type Timer interface {
	Stop() bool
}

// Clock abstracts time so tests can fast-forward reconnect delays and
// dedup expiry instead of sleeping in real time
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
	Sleep(d time.Duration)
}

// realClock delegates to the time package
type realClock struct{}

// NewRealClock returns a Clock backed by the time package
func NewRealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (realClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
