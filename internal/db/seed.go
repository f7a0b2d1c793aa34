package db

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/liam996405/uv-index-service/internal/reference"
)

type seedCity struct {
	name      string
	postcode  string
	latitude  float64
	longitude float64
	state     string
}

// majorCityPostcodes lists the reference cities that get a database row.
var majorCityPostcodes = map[string]string{
	"Sydney":        "2000",
	"Melbourne":     "3000",
	"Brisbane":      "4000",
	"Perth":         "6000",
	"Adelaide":      "5000",
	"Hobart":        "7000",
	"Darwin":        "0800",
	"Canberra":      "2600",
	"Gold Coast":    "4217",
	"Newcastle":     "2300",
	"Townsville":    "4810",
	"Alice Springs": "0870",
}

var melbourneSuburbs = []seedCity{
	{"Melbourne (CBD)", "3000", -37.8136, 144.9631, "VIC"},
	{"South Melbourne", "3205", -37.8300, 144.9630, "VIC"},
	{"Docklands", "3008", -37.8170, 144.9460, "VIC"},
	{"Carlton", "3053", -37.8010, 144.9670, "VIC"},
	{"Parkville", "3052", -37.7870, 144.9520, "VIC"},
	{"North Melbourne", "3051", -37.8040, 144.9400, "VIC"},
	{"Kensington", "3031", -37.7940, 144.9300, "VIC"},
	{"Flemington", "3031", -37.7880, 144.9200, "VIC"},
	{"Fitzroy", "3065", -37.7990, 144.9780, "VIC"},
	{"Collingwood", "3066", -37.8040, 144.9840, "VIC"},
	{"Richmond", "3121", -37.8230, 144.9980, "VIC"},
	{"South Yarra", "3141", -37.8400, 144.9950, "VIC"},
	{"Prahran", "3181", -37.8510, 144.9900, "VIC"},
	{"St Kilda", "3182", -37.8670, 144.9800, "VIC"},
	{"Albert Park", "3206", -37.8400, 144.9560, "VIC"},
	{"Port Melbourne", "3207", -37.8300, 144.9300, "VIC"},
}

var sydneySuburbs = []seedCity{
	{"Sydney (CBD)", "2000", -33.8688, 151.2093, "NSW"},
	{"Surry Hills", "2010", -33.8845, 151.2115, "NSW"},
	{"Darlinghurst", "2010", -33.8780, 151.2220, "NSW"},
	{"Paddington", "2021", -33.8850, 151.2260, "NSW"},
	{"Bondi", "2026", -33.8930, 151.2740, "NSW"},
	{"Bondi Junction", "2022", -33.8920, 151.2480, "NSW"},
	{"Double Bay", "2028", -33.8770, 151.2440, "NSW"},
	{"Woollahra", "2025", -33.8880, 151.2400, "NSW"},
	{"Potts Point", "2011", -33.8690, 151.2260, "NSW"},
	{"Darling Point", "2027", -33.8700, 151.2350, "NSW"},
	{"Kings Cross", "2011", -33.8740, 151.2250, "NSW"},
	{"Woolloomooloo", "2011", -33.8690, 151.2200, "NSW"},
	{"The Rocks", "2000", -33.8600, 151.2090, "NSW"},
	{"Pyrmont", "2009", -33.8705, 151.1950, "NSW"},
	{"Ultimo", "2007", -33.8790, 151.1990, "NSW"},
	{"Glebe", "2037", -33.8790, 151.1870, "NSW"},
}

// seedRows returns the curated rows in insertion order: major cities in
// reference-table order, then Melbourne suburbs, then Sydney suburbs.
func seedRows(table *reference.Table) []seedCity {
	var rows []seedCity
	for _, c := range table.ListAll() {
		postcode, ok := majorCityPostcodes[c.Name]
		if !ok {
			continue
		}
		rows = append(rows, seedCity{c.Name, postcode, c.Latitude, c.Longitude, c.State})
	}
	rows = append(rows, melbourneSuburbs...)
	rows = append(rows, sydneySuburbs...)
	return rows
}

// Seed inserts the curated city rows when the cities table is empty and
// reports how many rows were written.
func Seed(ctx context.Context, db *sql.DB, table *reference.Table, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cities").Scan(&count); err != nil {
		return 0, fmt.Errorf("count cities: %w", err)
	}
	if count > 0 {
		logger.Debug("cities table already seeded", zap.Int("rows", count))
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO cities (name, postcode, latitude, longitude, state) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("prepare seed insert: %w", err)
	}
	defer stmt.Close()

	rows := seedRows(table)
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.name, r.postcode, r.latitude, r.longitude, r.state); err != nil {
			return 0, fmt.Errorf("insert %q: %w", r.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}

	logger.Info("cities table seeded", zap.Int("rows", len(rows)))
	return len(rows), nil
}
