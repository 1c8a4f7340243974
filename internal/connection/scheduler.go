package connection

import "time"

// Scheduler arms one-shot delayed callbacks. There is no cancellation:
// a callback that fires after it became irrelevant must be a no-op.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// TimerScheduler schedules with time.AfterFunc.
type TimerScheduler struct{}

// AfterFunc implements Scheduler.
func (TimerScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
