package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"AssetBrief/internal/domain/models"
	pkgch "AssetBrief/pkg/clickhouse"
	applogger "AssetBrief/pkg/logger"
)

// schemaStatements create the history table. ReplacingMergeTree keyed by
// fingerprint gives last-write-wins semantics for repeated requests.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS query_history (
        fingerprint  String,
        symbol       LowCardinality(String),
        request_type LowCardinality(String),
        start_date   String,
        end_date     String,
        question     String,
        result       String,
        created_at   DateTime64(3, 'UTC')
    ) ENGINE = ReplacingMergeTree(created_at)
    ORDER BY fingerprint`,
}

// CHHistoryStore implements HistoryStore backed by ClickHouse.
type CHHistoryStore struct {
	db     *sql.DB
	client *pkgch.Client
	l      *applogger.Logger
}

// NewCHHistoryStore creates the store and ensures the schema exists.
func NewCHHistoryStore(ctx context.Context, ch *pkgch.Client, l *applogger.Logger) (*CHHistoryStore, error) {
	if err := ch.InitSchema(ctx, schemaStatements); err != nil {
		return nil, fmt.Errorf("history schema: %w", err)
	}
	return &CHHistoryStore{db: ch.DB(), client: ch, l: l}, nil
}

func (s *CHHistoryStore) Put(ctx context.Context, rec *models.HistoryRecord) error {
	const q = `
        INSERT INTO query_history
            (fingerprint, symbol, request_type, start_date, end_date, question, result, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q,
		rec.Fingerprint,
		rec.Symbol,
		string(rec.Type),
		rec.StartDate,
		rec.EndDate,
		rec.Question,
		string(rec.Result),
		rec.CreatedAt,
	)
	if err != nil {
		s.l.Error("clickhouse history insert error",
			applogger.String("fingerprint", rec.Fingerprint),
			applogger.Error(err),
		)
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (s *CHHistoryStore) Get(ctx context.Context, fingerprint string) (*models.HistoryRecord, error) {
	// FINAL collapses unmerged duplicates so repeated requests read the
	// latest write.
	const q = `
        SELECT fingerprint, symbol, request_type, start_date, end_date, question, result, created_at
        FROM query_history FINAL
        WHERE fingerprint = ?
    `
	rec, err := scanRecord(s.db.QueryRowContext(ctx, q, fingerprint))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return rec, nil
}

func (s *CHHistoryStore) List(ctx context.Context, symbol string, limit int) ([]*models.HistoryRecord, error) {
	start := time.Now()
	q := `
        SELECT fingerprint, symbol, request_type, start_date, end_date, question, result, created_at
        FROM query_history FINAL
    `
	args := make([]interface{}, 0, 2)
	if symbol != "" {
		q += " WHERE symbol = ?"
		args = append(args, symbol)
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse history list error",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := make([]*models.HistoryRecord, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	s.l.Debug("clickhouse history list ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHHistoryStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *CHHistoryStore) Close() error {
	return s.client.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*models.HistoryRecord, error) {
	var (
		rec    models.HistoryRecord
		typ    string
		result string
	)
	err := row.Scan(
		&rec.Fingerprint,
		&rec.Symbol,
		&typ,
		&rec.StartDate,
		&rec.EndDate,
		&rec.Question,
		&result,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Type = models.RequestType(typ)
	rec.Result = []byte(result)
	return &rec, nil
}
