package session

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestLessonTimerFiresOnce(t *testing.T) {
	var fired int32
	lt := NewLessonTimer(10*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})
	lt.Start()

	time.Sleep(50 * time.Millisecond)
	lt.fire() // a racing fire after the deadline must be swallowed
	lt.fire()

	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Fatalf("fired %d times, want 1", got)
	}
}

func TestLessonTimerStopPreventsFire(t *testing.T) {
	var fired int32
	lt := NewLessonTimer(20*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})
	lt.Start()
	lt.Stop()

	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&fired); got != 0 {
		t.Fatalf("fired %d times after Stop, want 0", got)
	}
}

func TestLessonTimerRestart(t *testing.T) {
	var fired int32
	lt := NewLessonTimer(15*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})
	lt.Start()
	time.Sleep(40 * time.Millisecond)

	lt.Restart()
	time.Sleep(40 * time.Millisecond)

	if got := atomic.LoadInt32(&fired); got != 2 {
		t.Fatalf("fired %d times across two arm cycles, want 2", got)
	}
}
