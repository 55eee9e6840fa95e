package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"BrentShift/internal/domain/models"
	applogger "BrentShift/pkg/logger"
	"BrentShift/pkg/util"
)

// Loader reads a raw two-column Date/Price table into a validated
// PriceSeries. Rows with unparseable dates or prices are dropped and
// counted; structural problems (missing column, empty result, non-positive
// surviving price) are terminal errors.
type Loader struct {
	log *applogger.Logger
}

func New(log *applogger.Logger) *Loader {
	return &Loader{log: log}
}

// Stats accounts for rows discarded during parsing.
type Stats struct {
	RowsRead      int
	DroppedDates  int
	DroppedPrices int
}

// Dropped returns the total number of discarded rows.
func (s Stats) Dropped() int { return s.DroppedDates + s.DroppedPrices }

// Load reads and validates the price table at path.
func (l *Loader) Load(path string) (*models.PriceSeries, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Stats{}, fmt.Errorf("%w: %s", models.ErrFileNotFound, path)
		}
		return nil, Stats{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return l.Parse(f, path)
}

// Parse reads and validates a price table from r. name is used in error
// and log context only.
func (l *Loader) Parse(r io.Reader, name string) (*models.PriceSeries, Stats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, Stats{}, &models.EmptySeriesError{File: name}
		}
		return nil, Stats{}, fmt.Errorf("read header of %s: %w", name, err)
	}

	dateCol, priceCol := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "date":
			dateCol = i
		case "price":
			priceCol = i
		}
	}
	if dateCol < 0 {
		return nil, Stats{}, &models.MissingColumnError{Column: "Date"}
	}
	if priceCol < 0 {
		return nil, Stats{}, &models.MissingColumnError{Column: "Price"}
	}

	var stats Stats
	points := make([]models.PricePoint, 0, 1024)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read %s: %w", name, err)
		}
		stats.RowsRead++
		if dateCol >= len(rec) || priceCol >= len(rec) {
			stats.DroppedDates++
			continue
		}

		date, ok := util.ParseDate(rec[dateCol])
		if !ok {
			stats.DroppedDates++
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[priceCol]), 64)
		if err != nil {
			stats.DroppedPrices++
			continue
		}
		points = append(points, models.PricePoint{Date: date, Price: price})
	}

	if len(points) == 0 {
		return nil, stats, &models.EmptySeriesError{File: name, Dropped: stats.Dropped()}
	}

	// A parsed but non-positive price is a data-integrity failure, not a
	// formatting one, so it aborts instead of dropping the row.
	for _, p := range points {
		if p.Price <= 0 {
			return nil, stats, &models.InvalidPriceError{
				Date:  p.Date.Format("2006-01-02"),
				Price: p.Price,
			}
		}
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	if l.log != nil {
		l.log.Info("price series loaded",
			applogger.String("file", name),
			applogger.Int("rows", len(points)),
			applogger.Int("dropped_dates", stats.DroppedDates),
			applogger.Int("dropped_prices", stats.DroppedPrices),
		)
	}
	return &models.PriceSeries{Points: points}, stats, nil
}
