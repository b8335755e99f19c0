package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"GridCast/internal/domain/models"
	domrepo "GridCast/internal/domain/repository"
	pkgch "GridCast/pkg/clickhouse"
	applogger "GridCast/pkg/logger"
)

// CHPriceStore implements PriceStore backed by ClickHouse. Rows carry one
// observation per quantity on a shared timestamp.
type CHPriceStore struct {
	db    *sql.DB
	ch    *pkgch.Client
	table string
	l     *applogger.Logger
}

func NewCHPriceStore(ch *pkgch.Client, table string) domrepo.PriceStore {
	return &CHPriceStore{db: ch.DB(), ch: ch, table: table}
}

// SetLogger injects a structured logger.
func (s *CHPriceStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPriceStore) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            ts DateTime,
            energy_price Float64,
            hash_price Float64,
            token_price Float64
        ) ENGINE = ReplacingMergeTree
        ORDER BY ts
    `, s.table),
	}
	return s.ch.InitSchema(ctx, stmts)
}

// TrailingWindow returns raw price rows for the last N days, oldest first.
func (s *CHPriceStore) TrailingWindow(ctx context.Context, days int) ([]models.Record, error) {
	start := time.Now()
	const qtpl = `
        SELECT ts, energy_price, hash_price, token_price
        FROM %s
        WHERE ts >= now() - INTERVAL ? DAY
        ORDER BY ts ASC
    `
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.db.QueryContext(ctx, q, days)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse trailing_window query error",
				applogger.String("table", s.table),
				applogger.Int("days", days),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("%w: trailing window: %v", models.ErrDataSource, err)
	}
	defer rows.Close()

	out := make([]models.Record, 0, 1024)
	for rows.Next() {
		var ts time.Time
		var energy, hash, token float64
		if err := rows.Scan(&ts, &energy, &hash, &token); err != nil {
			return nil, fmt.Errorf("%w: scan price row: %v", models.ErrDataSource, err)
		}
		out = append(out, models.Record{
			"timestamp":    ts.Format(time.RFC3339),
			"energy_price": energy,
			"hash_price":   hash,
			"token_price":  token,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", models.ErrDataSource, err)
	}
	if s.l != nil {
		s.l.Info("clickhouse trailing_window ok",
			applogger.String("table", s.table),
			applogger.Int("days", days),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHPriceStore) StoreTick(ctx context.Context, t *models.PriceTick) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, energy_price, hash_price, token_price) VALUES (?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		time.Unix(t.Timestamp, 0),
		t.Energy,
		t.Hash,
		t.Token,
	)
	return err
}

func (s *CHPriceStore) StoreTickBatch(ctx context.Context, ticks []*models.PriceTick) error {
	if len(ticks) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	const chunkSize = 2000
	for start := 0; start < len(ticks); start += chunkSize {
		end := start + chunkSize
		if end > len(ticks) {
			end = len(ticks)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*4)
		for _, t := range ticks[start:end] {
			if t == nil || t.Timestamp == 0 {
				continue
			}
			values = append(values, "(?, ?, ?, ?)")
			args = append(args,
				time.Unix(t.Timestamp, 0),
				t.Energy,
				t.Hash,
				t.Token,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, energy_price, hash_price, token_price) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *CHPriceStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHPriceStore) Close() error {
	return nil // Managed by pkg
}
