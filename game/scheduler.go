package game

import (
	"sync"
	"time"
)

// Scheduler creates cancellable timed tasks. Cancel functions are
// idempotent. Callbacks run on the scheduler's goroutines and must only
// hand work over to the owning session.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (cancel func())
	After(delay time.Duration, fn func()) (cancel func())
}

type timeScheduler struct{}

func NewTimeScheduler() Scheduler {
	return timeScheduler{}
}

func (timeScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

func (timeScheduler) After(delay time.Duration, fn func()) func() {
	t := time.AfterFunc(delay, fn)
	return func() { t.Stop() }
}
