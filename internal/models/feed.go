package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FeedSource describes where a served feed came from.
type FeedSource string

const (
	FeedSourceFresh    FeedSource = "fresh"    // cache hit within TTL
	FeedSourceLive     FeedSource = "live"     // fetched during this call
	FeedSourceStale    FeedSource = "stale"    // previous feed kept after a failed refresh
	FeedSourceFallback FeedSource = "fallback" // bundled dataset
)

// StationReading is one upstream feed location. Index holds the raw text of
// the <index> element so a bad value only affects this station.
type StationReading struct {
	StationID   string `json:"station_id"`
	ShortCode   string `json:"short_code"`
	Index       string `json:"index"`
	Time        string `json:"time"`
	Date        string `json:"date"`
	FullDate    string `json:"fulldate,omitempty"`
	UTCDateTime string `json:"utcdatetime,omitempty"`
	Status      string `json:"status"`
}

// UVIndex parses the raw index value.
func (s StationReading) UVIndex() (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s.Index), 64)
	if err != nil {
		return 0, fmt.Errorf("station %q: parse index %q: %w", s.StationID, s.Index, err)
	}
	return v, nil
}

// StatusOK reports whether the station status is absent or "ok".
func (s StationReading) StatusOK() bool {
	return s.Status == "" || strings.EqualFold(s.Status, "ok")
}

// Feed is a parsed upstream document as served to callers.
type Feed struct {
	Stations  []StationReading
	FetchedAt time.Time
	Source    FeedSource
}

// FeedSnapshot is the raw document persisted to the snapshot store.
type FeedSnapshot struct {
	Raw       []byte    `json:"raw"`
	FetchedAt time.Time `json:"fetchedAt"`
}
