package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/liam996405/uv-index-service/internal/models"
)

// ErrParse is returned for documents that are not a well-formed <stations> feed.
var ErrParse = errors.New("parse feed")

type xmlStations struct {
	XMLName   xml.Name      `xml:"stations"`
	Locations []xmlLocation `xml:"location"`
}

type xmlLocation struct {
	ID          string  `xml:"id,attr"`
	Name        string  `xml:"name"`
	Index       *string `xml:"index"`
	Time        string  `xml:"time"`
	Date        string  `xml:"date"`
	FullDate    string  `xml:"fulldate"`
	UTCDateTime string  `xml:"utcdatetime"`
	Status      string  `xml:"status"`
}

// Parse decodes an ARPANSA uvvalues document. Every <location> becomes a
// StationReading in document order; a missing <index> is read as "0".
func Parse(raw []byte) ([]models.StationReading, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrParse)
	}

	var doc xmlStations
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	stations := make([]models.StationReading, 0, len(doc.Locations))
	for _, loc := range doc.Locations {
		index := "0"
		if loc.Index != nil {
			index = strings.TrimSpace(*loc.Index)
		}
		stations = append(stations, models.StationReading{
			StationID:   strings.TrimSpace(loc.ID),
			ShortCode:   strings.TrimSpace(loc.Name),
			Index:       index,
			Time:        strings.TrimSpace(loc.Time),
			Date:        strings.TrimSpace(loc.Date),
			FullDate:    strings.TrimSpace(loc.FullDate),
			UTCDateTime: strings.TrimSpace(loc.UTCDateTime),
			Status:      strings.TrimSpace(loc.Status),
		})
	}
	return stations, nil
}
