package feed

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/liam996405/uv-index-service/internal/models"
)

// ErrFeedUnavailable means neither upstream nor the bundled dataset produced a feed.
var ErrFeedUnavailable = errors.New("uv feed unavailable")

//go:embed fallback.xml
var fallbackXML []byte

var (
	fallbackOnce     sync.Once
	fallbackStations []models.StationReading
	fallbackErr      error
)

// Fallback returns the bundled dataset served when no upstream feed has ever
// been obtained. The document is parsed once.
func Fallback() ([]models.StationReading, error) {
	fallbackOnce.Do(func() {
		fallbackStations, fallbackErr = parseFallback(fallbackXML)
	})
	return fallbackStations, fallbackErr
}

func parseFallback(raw []byte) ([]models.StationReading, error) {
	stations, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: bundled dataset: %v", ErrFeedUnavailable, err)
	}
	return stations, nil
}
