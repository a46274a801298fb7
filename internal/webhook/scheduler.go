package webhook

import "time"

// Scheduler runs a function after a delay. The process scheduler is
// time.AfterFunc; tests substitute a fake so the deferred alert can be fired
// without sleeping.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// TimerScheduler schedules on real timers. Fired tasks are fire-and-forget:
// nothing retains the timer, and a shutdown before it fires simply loses the
// task.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
