package rowsink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"funnel/internal/config"
	"funnel/internal/constants"
	"funnel/pkg/errors"
	"funnel/pkg/metrics"
	"funnel/pkg/models"
)

// Writer appends one row per event to the row store. Writes are
// independent per event: no batching, no uniqueness constraint, so
// duplicate delivery yields duplicate rows by design.
type Writer interface {
	EnsureTable(ctx context.Context) error
	Write(ctx context.Context, row models.Row) error
}

// PostgresWriter appends to <dataset>.<table> with the fixed four-column
// string schema of the original raw_events table.
type PostgresWriter struct {
	db        *sql.DB
	dataset   string
	table     string
	insertSQL string
}

func NewPostgresWriter(db *sql.DB, cfg config.RowStoreConfig) *PostgresWriter {
	dataset := cfg.Dataset
	if dataset == "" {
		dataset = constants.DefaultDataset
	}
	table := cfg.Table
	if table == "" {
		table = constants.DefaultTable
	}

	qualified := fmt.Sprintf("%s.%s", pq.QuoteIdentifier(dataset), pq.QuoteIdentifier(table))

	return &PostgresWriter{
		db:      db,
		dataset: dataset,
		table:   table,
		insertSQL: fmt.Sprintf(
			`INSERT INTO %s ("eventType", "eventVersion", "serverTime", "message") VALUES ($1, $2, $3, $4)`,
			qualified,
		),
	}
}

// EnsureTable auto-creates the schema and table when absent, mirroring
// the create-if-needed disposition of the original pipeline.
func (w *PostgresWriter) EnsureTable(ctx context.Context) error {
	qualified := fmt.Sprintf("%s.%s", pq.QuoteIdentifier(w.dataset), pq.QuoteIdentifier(w.table))

	if _, err := w.db.ExecContext(ctx,
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pq.QuoteIdentifier(w.dataset)),
	); err != nil {
		return errors.Wrap(fmt.Errorf("failed to create schema: %w", err), errors.ErrSinkWrite)
	}

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			"eventType"    TEXT NOT NULL,
			"eventVersion" TEXT NOT NULL,
			"serverTime"   TEXT NOT NULL,
			"message"      TEXT NOT NULL
		)
	`, qualified)

	if _, err := w.db.ExecContext(ctx, ddl); err != nil {
		return errors.Wrap(fmt.Errorf("failed to create table: %w", err), errors.ErrSinkWrite)
	}

	return nil
}

func (w *PostgresWriter) Write(ctx context.Context, row models.Row) error {
	started := time.Now()

	_, err := w.db.ExecContext(ctx, w.insertSQL,
		row.EventType,
		row.EventVersion,
		row.ServerTime,
		row.Message,
	)

	metrics.ObserveRowWriteDuration(time.Since(started))

	if err != nil {
		metrics.RowWritesTotal.WithLabelValues("error").Inc()
		return errors.Wrap(fmt.Errorf("failed to insert row: %w", err), errors.ErrSinkWrite)
	}

	metrics.RowWritesTotal.WithLabelValues("ok").Inc()
	return nil
}
