package traffic

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestTracker() (*Tracker, *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 3, 17, 7, 0, 0, 0, time.UTC)}
	return NewTracker(clk.Now), clk
}

func TestRequestCount_Empty(t *testing.T) {
	tr, _ := newTestTracker()
	if n := tr.RequestCount(1 * time.Minute); n != 0 {
		t.Errorf("RequestCount() = %d, want 0", n)
	}
}

func TestRecordDenied_AndCounts(t *testing.T) {
	tr, _ := newTestTracker()
	tr.RecordSuccess()
	tr.RecordDenied()
	tr.RecordDenied()
	if n := tr.DenialCount(1 * time.Minute); n != 2 {
		t.Errorf("DenialCount() = %d, want 2", n)
	}
	if n := tr.RequestCount(1 * time.Minute); n != 3 {
		t.Errorf("RequestCount() = %d, want 3", n)
	}
}

// TestErrorRate verifies denials are left out of the error-rate denominator.
func TestErrorRate(t *testing.T) {
	tr, _ := newTestTracker()
	tr.RecordSuccess()
	tr.RecordSuccess()
	tr.RecordError()
	tr.RecordDenied()
	errors, total := tr.ErrorRate(1 * time.Minute)
	if errors != 1 || total != 3 {
		t.Errorf("ErrorRate() = (%d, %d), want (1, 3)", errors, total)
	}
}

func TestWindow_ExcludesOldOutcomes(t *testing.T) {
	tr, clk := newTestTracker()
	tr.RecordError()
	clk.t = clk.t.Add(2 * time.Minute)
	tr.RecordSuccess()

	errors, total := tr.ErrorRate(1 * time.Minute)
	if errors != 0 || total != 1 {
		t.Errorf("ErrorRate(1m) = (%d, %d), want (0, 1)", errors, total)
	}
	errors, total = tr.ErrorRate(5 * time.Minute)
	if errors != 1 || total != 2 {
		t.Errorf("ErrorRate(5m) = (%d, %d), want (1, 2)", errors, total)
	}
}

func TestPrune_DropsEntriesPastMaxAge(t *testing.T) {
	tr, clk := newTestTracker()
	tr.RecordError()
	clk.t = clk.t.Add(maxAge + time.Second)
	tr.RecordSuccess()

	tr.mu.Lock()
	n := len(tr.errorTimes)
	tr.mu.Unlock()
	if n != 0 {
		t.Errorf("errorTimes len = %d after prune, want 0", n)
	}
}

func TestReset(t *testing.T) {
	tr, _ := newTestTracker()
	tr.RecordSuccess()
	tr.RecordError()
	tr.RecordDenied()
	tr.Reset()
	if n := tr.RequestCount(1 * time.Minute); n != 0 {
		t.Errorf("RequestCount() = %d, want 0", n)
	}
}

func TestTrackersIndependent(t *testing.T) {
	Feed.Reset()
	API.Reset()
	t.Cleanup(func() {
		Feed.Reset()
		API.Reset()
	})

	API.RecordDenied()
	Feed.RecordError()
	if n := Feed.DenialCount(time.Minute); n != 0 {
		t.Errorf("Feed.DenialCount() = %d, want 0", n)
	}
	if errors, _ := API.ErrorRate(time.Minute); errors != 0 {
		t.Errorf("API errors = %d, want 0", errors)
	}
}
