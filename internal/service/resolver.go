package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/liam996405/uv-index-service/internal/models"
	"github.com/liam996405/uv-index-service/internal/observability"
	"github.com/liam996405/uv-index-service/internal/reference"
)

// FeedProvider returns the current parsed UV feed. *feed.Cache implements it.
type FeedProvider interface {
	GetCurrentFeed(ctx context.Context) (models.Feed, error)
}

// Resolver maps location names and coordinates onto feed stations.
type Resolver struct {
	table  *reference.Table
	feeds  FeedProvider
	logger *zap.Logger
}

// NewResolver returns a Resolver over table and feeds. A nil logger is replaced with a no-op.
func NewResolver(table *reference.Table, feeds FeedProvider, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{table: table, feeds: feeds, logger: logger}
}

// ResolveByLocationName finds the reading for free-form location text. It
// tries, in order: the reference match's station id, the reference match's
// short code, then substring containment against raw station ids.
func (r *Resolver) ResolveByLocationName(ctx context.Context, text string) (models.Reading, error) {
	logger := observability.LoggerFrom(ctx, r.logger)
	text = strings.TrimSpace(text)
	if text == "" {
		observability.RecordResolution("name", "not_found")
		return models.Reading{}, fmt.Errorf("%w: empty location", ErrLocationNotFound)
	}

	feed, err := r.feeds.GetCurrentFeed(ctx)
	if err != nil {
		return models.Reading{}, err
	}

	reading, ok := r.matchByName(feed.Stations, text, logger)
	if !ok {
		observability.RecordResolution("name", "not_found")
		logger.Debug("no station matched location", zap.String("location", text))
		return models.Reading{}, fmt.Errorf("%w: %q", ErrLocationNotFound, text)
	}
	observability.RecordResolution("name", "found")
	return reading, nil
}

func (r *Resolver) matchByName(stations []models.StationReading, text string, logger *zap.Logger) (models.Reading, bool) {
	info, haveInfo := r.table.LookupByFuzzyName(text)

	if haveInfo {
		for _, st := range stations {
			if st.StationID != info.ID {
				continue
			}
			if reading, ok := buildReading(info, info.ID, info.ShortName, st, logger); ok {
				return reading, true
			}
		}

		if info.ShortName != "" {
			for _, st := range stations {
				if !strings.EqualFold(st.ShortCode, info.ShortName) {
					continue
				}
				if reading, ok := buildReading(info, info.ID, info.ShortName, st, logger); ok {
					return reading, true
				}
			}
		}
	}

	lower := strings.ToLower(text)
	for _, st := range stations {
		id := strings.ToLower(st.StationID)
		if id == "" || !(strings.Contains(id, lower) || strings.Contains(lower, id)) {
			continue
		}
		stInfo, ok := r.table.LookupByID(st.StationID)
		if !ok {
			stInfo = placeholderInfo(st)
		}
		if reading, ok := buildReading(stInfo, st.StationID, st.ShortCode, st, logger); ok {
			return reading, true
		}
	}
	return models.Reading{}, false
}

// ResolveByCoordinates returns the reading for the reference city nearest to
// (lat, lng) by planar distance in degrees. Ties go to the earlier table entry.
func (r *Resolver) ResolveByCoordinates(ctx context.Context, lat, lng float64) (models.NearestReading, error) {
	logger := observability.LoggerFrom(ctx, r.logger)

	nearest, distance, ok := r.nearestCity(lat, lng)
	if !ok {
		observability.RecordResolution("coordinates", "no_city")
		return models.NearestReading{}, fmt.Errorf("%w: no reference cities", ErrNoStationData)
	}

	feed, err := r.feeds.GetCurrentFeed(ctx)
	if err != nil {
		return models.NearestReading{}, err
	}

	for _, st := range feed.Stations {
		if st.StationID != nearest.ID {
			continue
		}
		reading, ok := buildReading(nearest, nearest.ID, nearest.ShortName, st, logger)
		if !ok {
			continue
		}
		observability.RecordResolution("coordinates", "found")
		return models.NearestReading{CityReading: reading.CityReading(), Distance: distance}, nil
	}

	observability.RecordResolution("coordinates", "no_station")
	return models.NearestReading{}, &NoStationError{City: nearest.Name}
}

func (r *Resolver) nearestCity(lat, lng float64) (models.CityInfo, float64, bool) {
	var best models.CityInfo
	bestDist := math.Inf(1)
	found := false
	for _, c := range r.table.ListAll() {
		d := math.Hypot(lat-c.Latitude, lng-c.Longitude)
		if d < bestDist {
			best, bestDist, found = c, d, true
		}
	}
	return best, bestDist, found
}

// buildReading decorates st with info. It reports false when the station's
// index is not a number, which skips just that station.
func buildReading(info models.CityInfo, cityID, shortName string, st models.StationReading, logger *zap.Logger) (models.Reading, bool) {
	uv, err := st.UVIndex()
	if err != nil {
		observability.FeedStationsSkippedTotal.Inc()
		logger.Debug("skipping station with unparseable index", zap.String("station", st.StationID), zap.Error(err))
		return models.Reading{}, false
	}
	return models.Reading{
		City:      info.Name,
		CityID:    cityID,
		ShortName: shortName,
		State:     info.State,
		UVIndex:   uv,
		Time:      st.Time,
		Date:      st.Date,
		Latitude:  info.Latitude,
		Longitude: info.Longitude,
		Status:    st.Status,
	}, true
}

// placeholderInfo stands in for stations missing from the reference table.
func placeholderInfo(st models.StationReading) models.CityInfo {
	name := st.StationID
	if name == "" {
		name = "Unknown City"
	}
	return models.CityInfo{
		ID:        st.StationID,
		Name:      name,
		ShortName: st.ShortCode,
		State:     "Unknown",
	}
}
