package feed

import (
	"errors"
	"testing"
)

func TestFallback_BundledDataset(t *testing.T) {
	stations, err := Fallback()
	if err != nil {
		t.Fatalf("Fallback() error = %v", err)
	}
	if len(stations) != 17 {
		t.Fatalf("Fallback() returned %d stations, want 17", len(stations))
	}

	var perth bool
	for _, s := range stations {
		if _, err := s.UVIndex(); err != nil {
			t.Errorf("station %s: %v", s.StationID, err)
		}
		if s.Date != "17/03/2025" {
			t.Errorf("station %s date = %q, want 17/03/2025", s.StationID, s.Date)
		}
		if s.StationID == "Perth" {
			perth = true
			if s.ShortCode != "per" || s.Index != "2.7" || s.Time != "3:41 PM" {
				t.Errorf("Perth = %+v, want per/2.7/3:41 PM", s)
			}
		}
	}
	if !perth {
		t.Error("Fallback() missing Perth")
	}
}

func TestParseFallback_Malformed(t *testing.T) {
	_, err := parseFallback([]byte("<broken"))
	if !errors.Is(err, ErrFeedUnavailable) {
		t.Errorf("parseFallback() error = %v, want %v", err, ErrFeedUnavailable)
	}
}
