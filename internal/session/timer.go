package session

import (
	"sync"
	"time"
)

// DefaultLessonDuration is the length of active conversation that counts as
// one completed lesson.
const DefaultLessonDuration = 3 * time.Minute

// LessonTimer is a single-shot deadline that marks a lesson complete. It
// fires exactly once per Start/Restart; the completed flag guards against a
// double fire when the underlying timer is not cancelled promptly.
type LessonTimer struct {
	duration time.Duration
	onFire   func()

	mu        sync.Mutex
	timer     *time.Timer
	completed bool
}

func NewLessonTimer(d time.Duration, onFire func()) *LessonTimer {
	if d <= 0 {
		d = DefaultLessonDuration
	}
	return &LessonTimer{duration: d, onFire: onFire}
}

func (lt *LessonTimer) Start() {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.startLocked()
}

// Restart re-arms the timer after a completion checkpoint ("continue").
func (lt *LessonTimer) Restart() {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	if lt.timer != nil {
		lt.timer.Stop()
	}
	lt.startLocked()
}

func (lt *LessonTimer) startLocked() {
	lt.completed = false
	lt.timer = time.AfterFunc(lt.duration, lt.fire)
}

// fire invokes the completion callback at most once per arm cycle.
func (lt *LessonTimer) fire() {
	lt.mu.Lock()
	if lt.completed {
		lt.mu.Unlock()
		return
	}
	lt.completed = true
	lt.mu.Unlock()

	if lt.onFire != nil {
		lt.onFire()
	}
}

func (lt *LessonTimer) Stop() {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.completed = true
	if lt.timer != nil {
		lt.timer.Stop()
		lt.timer = nil
	}
}
