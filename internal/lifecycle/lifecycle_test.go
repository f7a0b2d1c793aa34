package lifecycle

import (
	"testing"
	"time"
)

func TestSetShuttingDown(t *testing.T) {
	SetShuttingDown(false)
	t.Cleanup(func() { SetShuttingDown(false) })

	if IsShuttingDown() {
		t.Fatal("IsShuttingDown() = true before SetShuttingDown(true)")
	}
	if _, ok := ShutdownStarted(); ok {
		t.Error("ShutdownStarted() ok = true while serving")
	}

	before := time.Now()
	SetShuttingDown(true)
	if !IsShuttingDown() {
		t.Fatal("IsShuttingDown() = false after SetShuttingDown(true)")
	}
	started, ok := ShutdownStarted()
	if !ok || started.Before(before) {
		t.Errorf("ShutdownStarted() = (%v, %v), want time after %v", started, ok, before)
	}

	SetShuttingDown(false)
	if IsShuttingDown() {
		t.Error("IsShuttingDown() = true after SetShuttingDown(false)")
	}
}

func TestSetShuttingDown_KeepsFirstTimestamp(t *testing.T) {
	SetShuttingDown(false)
	t.Cleanup(func() { SetShuttingDown(false) })

	SetShuttingDown(true)
	first, _ := ShutdownStarted()
	time.Sleep(time.Millisecond)
	SetShuttingDown(true)
	second, _ := ShutdownStarted()
	if !first.Equal(second) {
		t.Errorf("ShutdownStarted() moved from %v to %v on repeated signal", first, second)
	}
}
