package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/liam996405/uv-index-service/internal/models"
	"github.com/liam996405/uv-index-service/internal/observability"
	"github.com/liam996405/uv-index-service/internal/reference"
	"github.com/liam996405/uv-index-service/internal/repository"
)

// UVService answers UV-index queries by joining the current feed with the
// reference table and the cities database.
type UVService struct {
	resolver *Resolver
	table    *reference.Table
	feeds    FeedProvider
	cities   repository.CityRepository
	logger   *zap.Logger
}

// NewUVService creates a UVService. table defaults to reference.Default().
func NewUVService(feeds FeedProvider, cities repository.CityRepository, table *reference.Table, logger *zap.Logger) *UVService {
	if table == nil {
		table = reference.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UVService{
		resolver: NewResolver(table, feeds, logger),
		table:    table,
		feeds:    feeds,
		cities:   cities,
		logger:   logger,
	}
}

// ListReadings returns one reading per feed station in feed order. Stations
// with an unparseable index are left out; stations reporting a non-ok status
// are kept.
func (s *UVService) ListReadings(ctx context.Context) ([]models.Reading, error) {
	logger := observability.LoggerFrom(ctx, s.logger)
	feed, err := s.feeds.GetCurrentFeed(ctx)
	if err != nil {
		return nil, err
	}

	readings := make([]models.Reading, 0, len(feed.Stations))
	for _, st := range feed.Stations {
		info, ok := s.table.LookupByID(st.StationID)
		if !ok {
			info, ok = s.table.LookupByShortName(st.ShortCode)
		}
		if !ok {
			info = placeholderInfo(st)
		}
		if !st.StatusOK() {
			logger.Debug("station reports non-ok status", zap.String("station", st.StationID), zap.String("status", st.Status))
		}
		reading, ok := buildReading(info, st.StationID, st.ShortCode, st, logger)
		if !ok {
			continue
		}
		readings = append(readings, reading)
	}
	logger.Debug("uv readings listed",
		zap.Int("stations", len(feed.Stations)),
		zap.Int("readings", len(readings)),
		zap.String("source", string(feed.Source)))
	return readings, nil
}

// ReadingByPostcode looks up the postcode in the cities table and reports the
// reading for its main city. A missing station is not an error: the result
// carries a nil reading and a message instead.
func (s *UVService) ReadingByPostcode(ctx context.Context, postcode string) (models.PostcodeReading, error) {
	logger := observability.LoggerFrom(ctx, s.logger)
	record, err := s.cities.GetCityByPostcode(ctx, postcode)
	if errors.Is(err, repository.ErrNotFound) {
		observability.RecordResolution("postcode", "not_found")
		return models.PostcodeReading{}, fmt.Errorf("%w: %s", ErrPostcodeNotFound, postcode)
	}
	if err != nil {
		return models.PostcodeReading{}, fmt.Errorf("lookup postcode %s: %w", postcode, err)
	}

	city := mainCity(record)
	feed, err := s.feeds.GetCurrentFeed(ctx)
	if err != nil {
		return models.PostcodeReading{}, err
	}

	result := models.PostcodeReading{City: record}
	if info, ok := s.table.LookupByID(city); ok {
		for _, st := range feed.Stations {
			if st.StationID != city {
				continue
			}
			reading, ok := buildReading(info, info.ID, info.ShortName, st, logger)
			if !ok {
				continue
			}
			cr := reading.CityReading()
			result.UVIndex = &cr
			break
		}
	}

	if result.UVIndex == nil {
		observability.RecordResolution("postcode", "no_station")
		result.Message = "No UV index data found for " + city
		logger.Debug("no station for postcode", zap.String("postcode", postcode), zap.String("main_city", city))
		return result, nil
	}
	result.OriginalQuery = map[string]string{"postcode": postcode}
	observability.RecordResolution("postcode", "found")
	observability.RecordUVQuery(result.UVIndex.City)
	return result, nil
}

// mainCity maps suburb records onto the metro area whose station covers them.
func mainCity(record models.CityRecord) string {
	switch {
	case strings.Contains(record.Name, "Melbourne"),
		record.State == "VIC" && strings.HasPrefix(record.Postcode, "3"):
		return "Melbourne"
	case strings.Contains(record.Name, "Sydney"),
		record.State == "NSW" && strings.HasPrefix(record.Postcode, "20"):
		return "Sydney"
	default:
		return record.Name
	}
}

// ReadingByCoordinates returns the reading for the reference city nearest to
// (lat, lng).
func (s *UVService) ReadingByCoordinates(ctx context.Context, lat, lng float64) (models.NearestReading, error) {
	reading, err := s.resolver.ResolveByCoordinates(ctx, lat, lng)
	if err != nil {
		return models.NearestReading{}, err
	}
	observability.RecordUVQuery(reading.City)
	return reading, nil
}

// ReadingByName resolves free-form location text to a reading.
func (s *UVService) ReadingByName(ctx context.Context, name string) (models.Reading, error) {
	reading, err := s.resolver.ResolveByLocationName(ctx, name)
	if err != nil {
		return models.Reading{}, err
	}
	observability.RecordUVQuery(reading.City)
	return reading, nil
}

// AllCities returns every city record in the database.
func (s *UVService) AllCities(ctx context.Context) ([]models.CityRecord, error) {
	cities, err := s.cities.GetAllCities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	return cities, nil
}

// SearchCities returns cities whose name contains name. An empty name
// matches nothing.
func (s *UVService) SearchCities(ctx context.Context, name string) ([]models.CityRecord, error) {
	if strings.TrimSpace(name) == "" {
		return []models.CityRecord{}, nil
	}
	cities, err := s.cities.FindCitiesByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("search cities %q: %w", name, err)
	}
	return cities, nil
}

// Ping checks the cities database.
func (s *UVService) Ping(ctx context.Context) error {
	return s.cities.Ping(ctx)
}
