package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"BrentShift/internal/domain/models"
)

func parse(t *testing.T, csv string) (*models.PriceSeries, Stats, error) {
	t.Helper()
	return New(nil).Parse(strings.NewReader(csv), "test.csv")
}

func TestParseMixedDateFormats(t *testing.T) {
	series, stats, err := parse(t, "Date,Price\n20-May-87,18.63\n\"Apr 22, 2020\",19.33\n2020-04-23,21.30\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", series.Len())
	}
	if stats.Dropped() != 0 {
		t.Fatalf("expected no drops, got %+v", stats)
	}
	if series.Points[0].Date.Year() != 1987 {
		t.Fatalf("expected 1987 first after sort, got %v", series.Points[0].Date)
	}
}

func TestParseSortsAscending(t *testing.T) {
	series, _, err := parse(t, "Date,Price\n2020-04-23,21.30\n20-May-87,18.63\n2001-09-11,27.50\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < series.Len(); i++ {
		if series.Points[i].Date.Before(series.Points[i-1].Date) {
			t.Fatalf("series not sorted at %d: %v after %v", i, series.Points[i].Date, series.Points[i-1].Date)
		}
	}
}

func TestParseDropsMalformedRows(t *testing.T) {
	in := "Date,Price\nnot-a-date,10.0\n2020-01-02,abc\n2020-01-03,30.0\n2020-01-04,\n"
	series, stats, err := parse(t, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Len() != 1 {
		t.Fatalf("expected 1 surviving row, got %d", series.Len())
	}
	if stats.DroppedDates != 1 || stats.DroppedPrices != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	for _, p := range series.Points {
		if p.Price <= 0 {
			t.Fatalf("non-positive price survived: %v", p)
		}
	}
}

func TestParseHeaderWhitespaceAndCase(t *testing.T) {
	series, _, err := parse(t, " date , PRICE \n2020-01-02,30.0\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", series.Len())
	}
}

func TestParseMissingColumn(t *testing.T) {
	_, _, err := parse(t, "Date,Close\n2020-01-02,30.0\n")
	var mc *models.MissingColumnError
	if !errors.As(err, &mc) {
		t.Fatalf("expected MissingColumnError, got %v", err)
	}
	if mc.Column != "Price" {
		t.Fatalf("expected Price reported missing, got %q", mc.Column)
	}
}

func TestParseEmptyAfterDrops(t *testing.T) {
	_, _, err := parse(t, "Date,Price\nbad,xx\nworse,yy\n")
	var es *models.EmptySeriesError
	if !errors.As(err, &es) {
		t.Fatalf("expected EmptySeriesError, got %v", err)
	}
	if es.Dropped != 2 {
		t.Fatalf("expected 2 dropped, got %d", es.Dropped)
	}
}

func TestParseNonPositivePriceIsHardError(t *testing.T) {
	_, _, err := parse(t, "Date,Price\n2020-01-02,-5.0\n2020-01-03,30.0\n")
	var ip *models.InvalidPriceError
	if !errors.As(err, &ip) {
		t.Fatalf("expected InvalidPriceError, got %v", err)
	}
}

func TestParseKeepsDuplicateDates(t *testing.T) {
	series, _, err := parse(t, "Date,Price\n2020-01-02,30.0\n2020-01-02,31.0\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("duplicates must be kept for downstream aggregation, got %d rows", series.Len())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := New(nil).Load(filepath.Join(t.TempDir(), "absent.csv"))
	if !errors.Is(err, models.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.csv")
	if err := os.WriteFile(path, []byte("Date,Price\n20-May-87,18.63\n21-May-87,18.45\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	series, _, err := New(nil).Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(1987, time.May, 20, 0, 0, 0, 0, time.UTC)
	if !series.Points[0].Date.Equal(want) {
		t.Fatalf("got %v want %v", series.Points[0].Date, want)
	}
}
