package models

// CityInfo is a reference-table entry for a supported monitoring station.
// ID is the canonical name and doubles as the feed join key.
type CityInfo struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ShortName string  `json:"short_name"`
	State     string  `json:"state"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CityRecord is a row of the cities table. Several records may share a name
// (a city and its suburbs) and are told apart by postcode.
type CityRecord struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Postcode  string  `json:"postcode"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	State     string  `json:"state"`
	CreatedAt *string `json:"created_at"`
}
