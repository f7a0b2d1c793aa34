package models

// Reading is a station reading decorated with reference-table information,
// as returned by the listing and by-name endpoints.
type Reading struct {
	City      string  `json:"city"`
	CityID    string  `json:"city_id"`
	ShortName string  `json:"short_name"`
	State     string  `json:"state"`
	UVIndex   float64 `json:"uv_index"`
	Time      string  `json:"time"`
	Date      string  `json:"date"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Status    string  `json:"status"`
}

// CityReading is the narrower reading shape used by the postcode and
// coordinate endpoints.
type CityReading struct {
	City      string  `json:"city"`
	CityID    string  `json:"city_id"`
	State     string  `json:"state"`
	UVIndex   float64 `json:"uv_index"`
	Time      string  `json:"time"`
	Date      string  `json:"date"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CityReading drops the station short code and status.
func (r Reading) CityReading() CityReading {
	return CityReading{
		City:      r.City,
		CityID:    r.CityID,
		State:     r.State,
		UVIndex:   r.UVIndex,
		Time:      r.Time,
		Date:      r.Date,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
}

// NearestReading is the reading for the reference city closest to a
// coordinate pair. Distance is planar, in degrees.
type NearestReading struct {
	CityReading
	Distance float64 `json:"distance"`
}

// PostcodeReading is the by-postcode response. UVIndex is nil when the
// main city has no station in the feed.
type PostcodeReading struct {
	City          CityRecord        `json:"city"`
	UVIndex       *CityReading      `json:"uv_index"`
	Message       string            `json:"message,omitempty"`
	OriginalQuery map[string]string `json:"original_query,omitempty"`
}
