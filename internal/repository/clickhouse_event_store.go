package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"BrentShift/internal/domain/models"
	domrepo "BrentShift/internal/domain/repository"
	applogger "BrentShift/pkg/logger"
)

// CHEventStore persists detected events in a ClickHouse table, for
// deployments where the dashboard reads from the warehouse instead of a
// flat file.
type CHEventStore struct {
	db    *sql.DB
	table string
	log   *applogger.Logger
}

func NewCHEventStore(db *sql.DB, table string, log *applogger.Logger) *CHEventStore {
	return &CHEventStore{db: db, table: table, log: log}
}

func (s *CHEventStore) Init(ctx context.Context) error {
	ddl := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            date Date,
            mean_before Float64,
            mean_after Float64,
            delta Float64,
            percent_change Nullable(Float64),
            confidence Float64,
            std_dev Float64
        ) ENGINE=MergeTree ORDER BY date
    `, s.table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

func (s *CHEventStore) Save(ctx context.Context, reports []*models.ChangePointReport) error {
	// Replace semantics: the table must reflect exactly this run.
	if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE "+s.table); err != nil {
		return fmt.Errorf("truncate %s: %w", s.table, err)
	}

	const qtpl = `
        INSERT INTO %s (date, mean_before, mean_after, delta, percent_change, confidence, std_dev)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	q := fmt.Sprintf(qtpl, s.table)
	start := time.Now()
	for _, r := range reports {
		var pct any
		if r.PercentChange != nil {
			pct = *r.PercentChange
		}
		if _, err := s.db.ExecContext(ctx, q,
			r.Date, r.MeanBefore, r.MeanAfter, r.Delta, pct, r.Confidence, r.StdDev,
		); err != nil {
			if s.log != nil {
				s.log.Error("clickhouse insert error",
					applogger.String("table", s.table),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("insert event: %w", err)
		}
	}
	if s.log != nil {
		s.log.Info("detected events stored",
			applogger.String("table", s.table),
			applogger.Int("rows", len(reports)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHEventStore) Load(ctx context.Context) ([]models.EventRecord, error) {
	const qtpl = `
        SELECT date, mean_before, mean_after, delta, percent_change, confidence, std_dev
        FROM %s
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.table))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []models.EventRecord
	for rows.Next() {
		var (
			rec  models.EventRecord
			date time.Time
			pct  sql.NullFloat64
		)
		if err := rows.Scan(&date, &rec.MeanBefore, &rec.MeanAfter, &rec.Delta, &pct, &rec.Confidence, &rec.StdDev); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		rec.Date = date.Format("2006-01-02")
		if pct.Valid {
			v := pct.Float64
			rec.PercentChange = &v
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHEventStore) Close() error { return s.db.Close() }

var _ domrepo.EventStore = (*CHEventStore)(nil)
