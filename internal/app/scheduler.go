package app

import "time"

// Timer is a scheduled task that can be cancelled before it fires.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. Sessions use it for the post-answer delays.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
