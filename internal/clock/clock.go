// Package clock abstracts the time source used by deferred work so tests can
// drive debounce windows without sleeping.
package clock

import "time"

type Clock interface {
	Now() time.Time
	// AfterFunc calls f after d. The Timer can cancel or re-arm the call.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a cancellable scheduled call.
type Timer struct {
	stopFunc  func() bool
	resetFunc func(time.Duration) bool
}

// Stop reports whether the call was still pending.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Reset re-arms the timer to fire d from now and reports whether it was pending.
func (t *Timer) Reset(d time.Duration) bool { return t.resetFunc(d) }

func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	t := time.AfterFunc(d, f)
	return &Timer{stopFunc: t.Stop, resetFunc: t.Reset}
}
