package service

import "errors"

var (
	// ErrLocationNotFound means no feed station could be matched to the location text.
	ErrLocationNotFound = errors.New("location not found")
	// ErrNoStationData means the nearest reference city has no usable station in the feed.
	ErrNoStationData = errors.New("no station data")
	// ErrPostcodeNotFound means the postcode is not in the cities table.
	ErrPostcodeNotFound = errors.New("postcode not found")
)

// NoStationError reports that City has no usable station in the current feed.
type NoStationError struct {
	City string
}

func (e *NoStationError) Error() string {
	return "no UV index data found for " + e.City
}

func (e *NoStationError) Unwrap() error {
	return ErrNoStationData
}
