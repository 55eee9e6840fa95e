package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"BrentShift/internal/domain/models"
)

func sampleReport(date time.Time, pct *float64) *models.ChangePointReport {
	return &models.ChangePointReport{
		Index:         4,
		Date:          date,
		MeanBefore:    0.001,
		MeanAfter:     0.02,
		Delta:         0.019,
		PercentChange: pct,
		Confidence:    0.8,
		StdDev:        0.05,
	}
}

func TestCSVSaveCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "processed", "detected_events.csv")
	store := NewCSVEventStore(path, nil)

	pct := 1900.0
	date := time.Date(2020, 4, 22, 0, 0, 0, 0, time.UTC)
	if err := store.Save(context.Background(), []*models.ChangePointReport{sampleReport(date, &pct)}); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if lines[0] != "Date,MeanBefore,MeanAfter,Delta,PercentChange,Confidence,StdDev" {
		t.Fatalf("canonical header mismatch: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2020-04-22,") {
		t.Fatalf("date not ISO formatted: %q", lines[1])
	}
}

func TestCSVSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detected_events.csv")
	store := NewCSVEventStore(path, nil)
	ctx := context.Background()

	d1 := time.Date(2008, 9, 15, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2020, 3, 9, 0, 0, 0, 0, time.UTC)
	if err := store.Save(ctx, []*models.ChangePointReport{sampleReport(d1, nil), sampleReport(d2, nil)}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.Save(ctx, []*models.ChangePointReport{sampleReport(d2, nil)}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	recs, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("export must replace, not append: got %d rows", len(recs))
	}
	if recs[0].Date != "2020-03-09" {
		t.Fatalf("unexpected surviving row %+v", recs[0])
	}
}

func TestCSVRoundTripNullPercentChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detected_events.csv")
	store := NewCSVEventStore(path, nil)
	ctx := context.Background()

	date := time.Date(2014, 11, 28, 0, 0, 0, 0, time.UTC)
	if err := store.Save(ctx, []*models.ChangePointReport{sampleReport(date, nil)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	recs, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if recs[0].PercentChange != nil {
		t.Fatalf("expected null percent change to survive round trip, got %v", *recs[0].PercentChange)
	}
	if recs[0].MeanAfter != 0.02 || recs[0].Confidence != 0.8 || recs[0].StdDev != 0.05 {
		t.Fatalf("fields dropped or renamed: %+v", recs[0])
	}
}

func TestCSVLoadMissingFile(t *testing.T) {
	store := NewCSVEventStore(filepath.Join(t.TempDir(), "absent.csv"), nil)
	_, err := store.Load(context.Background())
	if !errors.Is(err, models.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}
