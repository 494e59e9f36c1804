package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"cian-scraper/models"
	"cian-scraper/utils"
)

const (
	insertBatchSize = 50
	insertColumns   = 7
)

// PostgresWriter persists listing records to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, pinging it under the
// given retry policy, runs the schema migration and returns the writer.
func NewPostgresWriter(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres-ping", func() error {
		return db.PingContext(ctx)
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

const listingsSchema = `
	CREATE TABLE IF NOT EXISTS listings (
		id          SERIAL PRIMARY KEY,
		price       BIGINT,
		title       TEXT             NOT NULL,
		rooms       INTEGER,
		area        DOUBLE PRECISION,
		address     TEXT             NOT NULL DEFAULT '',
		underground TEXT             NOT NULL DEFAULT '',
		url         TEXT             UNIQUE,
		created_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_listings_price ON listings(price);
	CREATE INDEX IF NOT EXISTS idx_listings_rooms ON listings(rooms);
`

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, listingsSchema)
	return err
}

// Write replaces the table contents with records, in one transaction.
func (pw *PostgresWriter) Write(ctx context.Context, records []*models.ListingRecord) error {
	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM listings"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	for i := 0; i < len(records); i += insertBatchSize {
		end := min(i+insertBatchSize, len(records))
		query, args := buildInsert(records[i:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// buildInsert renders a multi-row INSERT for batch. Absent numeric fields and
// an empty URL are stored as NULL.
func buildInsert(batch []*models.ListingRecord) (string, []any) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*insertColumns)

	for idx, r := range batch {
		base := idx * insertColumns
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7))

		var price sql.NullInt64
		if r.Price != nil {
			price = sql.NullInt64{Int64: *r.Price, Valid: true}
		}
		var rooms sql.NullInt64
		if r.Rooms != nil {
			rooms = sql.NullInt64{Int64: int64(*r.Rooms), Valid: true}
		}
		var area sql.NullFloat64
		if r.Area != nil {
			area = sql.NullFloat64{Float64: *r.Area, Valid: true}
		}
		url := sql.NullString{String: r.URL, Valid: r.URL != ""}

		valueArgs = append(valueArgs,
			price, r.Title, rooms, area, r.Address, r.Underground, url)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (price, title, rooms, area, address, underground, url)
		VALUES %s
		ON CONFLICT (url) DO NOTHING
	`, strings.Join(valueStrings, ","))

	return query, valueArgs
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
