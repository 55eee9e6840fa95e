package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"BrentShift/internal/domain/models"
	domrepo "BrentShift/internal/domain/repository"
	applogger "BrentShift/pkg/logger"
)

// eventColumns is the canonical detected-events schema. Order and names
// are fixed: the serving layer and dashboard key on them.
var eventColumns = []string{
	"Date", "MeanBefore", "MeanAfter", "Delta", "PercentChange", "Confidence", "StdDev",
}

// CSVEventStore writes the detected-events table to a CSV file. Missing
// parent directories are created; a rewrite truncates, so the file always
// holds exactly the reports of the latest run.
type CSVEventStore struct {
	path string
	log  *applogger.Logger
}

func NewCSVEventStore(path string, log *applogger.Logger) *CSVEventStore {
	return &CSVEventStore{path: path, log: log}
}

func (s *CSVEventStore) Init(ctx context.Context) error { return nil }

func (s *CSVEventStore) Save(ctx context.Context, reports []*models.ChangePointReport) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(eventColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range reports {
		rec := r.Record()
		pct := ""
		if rec.PercentChange != nil {
			pct = formatFloat(*rec.PercentChange)
		}
		row := []string{
			rec.Date,
			formatFloat(rec.MeanBefore),
			formatFloat(rec.MeanAfter),
			formatFloat(rec.Delta),
			pct,
			formatFloat(rec.Confidence),
			formatFloat(rec.StdDev),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", s.path, err)
	}

	if s.log != nil {
		s.log.Info("detected events exported",
			applogger.String("path", s.path),
			applogger.Int("rows", len(reports)),
		)
	}
	return nil
}

func (s *CSVEventStore) Load(ctx context.Context) ([]models.EventRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", models.ErrFileNotFound, s.path)
		}
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]models.EventRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < len(eventColumns) {
			continue
		}
		rec := models.EventRecord{Date: row[0]}
		rec.MeanBefore, _ = strconv.ParseFloat(row[1], 64)
		rec.MeanAfter, _ = strconv.ParseFloat(row[2], 64)
		rec.Delta, _ = strconv.ParseFloat(row[3], 64)
		if row[4] != "" {
			v, err := strconv.ParseFloat(row[4], 64)
			if err == nil {
				rec.PercentChange = &v
			}
		}
		rec.Confidence, _ = strconv.ParseFloat(row[5], 64)
		rec.StdDev, _ = strconv.ParseFloat(row[6], 64)
		out = append(out, rec)
	}
	return out, nil
}

func (s *CSVEventStore) Close() error { return nil }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var _ domrepo.EventStore = (*CSVEventStore)(nil)
