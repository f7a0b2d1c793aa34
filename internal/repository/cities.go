package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/liam996405/uv-index-service/internal/models"
)

// ErrNotFound is returned when no row matches the lookup.
var ErrNotFound = errors.New("city not found")

//go:embed sql/get-all-cities.sql
var getAllCitiesSQL string

//go:embed sql/find-cities-by-name.sql
var findCitiesByNameSQL string

//go:embed sql/get-city-by-postcode.sql
var getCityByPostcodeSQL string

// CityRepository reads the curated cities table.
type CityRepository interface {
	GetAllCities(ctx context.Context) ([]models.CityRecord, error)
	FindCitiesByName(ctx context.Context, name string) ([]models.CityRecord, error)
	GetCityByPostcode(ctx context.Context, postcode string) (models.CityRecord, error)
	Ping(ctx context.Context) error
}

type cityRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCityRepository returns a CityRepository backed by db.
func NewCityRepository(db *sql.DB, logger *zap.Logger) CityRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cityRepository{db: db, logger: logger}
}

func (r *cityRepository) GetAllCities(ctx context.Context) ([]models.CityRecord, error) {
	rows, err := r.db.QueryContext(ctx, getAllCitiesSQL)
	if err != nil {
		return nil, fmt.Errorf("query cities: %w", err)
	}
	defer r.closeRows(rows)
	return scanCities(rows)
}

// FindCitiesByName returns cities whose name contains name, case-insensitively
// for ASCII. % and _ in name match literally.
func (r *cityRepository) FindCitiesByName(ctx context.Context, name string) ([]models.CityRecord, error) {
	rows, err := r.db.QueryContext(ctx, findCitiesByNameSQL, "%"+escapeLike(name)+"%")
	if err != nil {
		return nil, fmt.Errorf("search cities: %w", err)
	}
	defer r.closeRows(rows)
	return scanCities(rows)
}

// GetCityByPostcode returns the first inserted city with the postcode.
func (r *cityRepository) GetCityByPostcode(ctx context.Context, postcode string) (models.CityRecord, error) {
	row := r.db.QueryRowContext(ctx, getCityByPostcodeSQL, postcode)
	rec, err := scanCity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CityRecord{}, ErrNotFound
	}
	if err != nil {
		return models.CityRecord{}, fmt.Errorf("get city by postcode %q: %w", postcode, err)
	}
	return rec, nil
}

func (r *cityRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *cityRepository) closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		r.logger.Error("close city rows", zap.Error(err))
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCity(s scanner) (models.CityRecord, error) {
	var rec models.CityRecord
	var createdAt sql.NullString
	if err := s.Scan(&rec.ID, &rec.Name, &rec.Postcode, &rec.Latitude, &rec.Longitude, &rec.State, &createdAt); err != nil {
		return models.CityRecord{}, err
	}
	if createdAt.Valid {
		v := createdAt.String
		rec.CreatedAt = &v
	}
	return rec, nil
}

func scanCities(rows *sql.Rows) ([]models.CityRecord, error) {
	out := []models.CityRecord{}
	for rows.Next() {
		rec, err := scanCity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
