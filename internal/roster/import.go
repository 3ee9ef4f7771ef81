package roster

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xuri/excelize/v2"
)

// insertRecordSQL inserts the twelve fixed columns in column order.
var insertRecordSQL = fmt.Sprintf(
	"INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)",
	TableName,
	strings.Join(Columns, ", "),
)

// rowExecer is the slice of pgx.Tx the insert loop needs. Tests substitute
// a fake; production passes the real transaction.
type rowExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ImportFile parses the workbook at path and commits its rows as one
// all-or-nothing batch. On success it returns the number of inserted rows.
// The file is removed on every exit path, including the empty-input return
// and any failure.
func (s *Service) ImportFile(ctx context.Context, path string) (int, error) {
	defer os.Remove(path)

	start := time.Now()

	batch, err := parseWorkbook(path)
	if err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, ErrEmptyBatch
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback is a no-op after a successful commit.
	defer tx.Rollback(ctx)

	count, err := insertBatch(ctx, tx, batch)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &ImportError{Cause: err}
	}

	slog.Info("import committed",
		"rows", count,
		"duration", time.Since(start),
	)
	return count, nil
}

// insertBatch inserts records one at a time, in file order. The first
// failure aborts the batch; the caller's deferred rollback discards any
// earlier inserts.
func insertBatch(ctx context.Context, tx rowExecer, batch []Record) (int, error) {
	for i, rec := range batch {
		if _, err := tx.Exec(ctx, insertRecordSQL, rec.insertArgs()...); err != nil {
			// +2: rows are 1-indexed in the sheet and follow the header.
			return 0, &ImportError{Row: i + 2, Cause: err}
		}
	}
	return len(batch), nil
}

// parseWorkbook reads the first sheet of an XLSX file into records. Sheet
// selection is fixed: additional sheets are ignored. A workbook with no
// rows at all, or only a header row, parses to an empty batch.
func parseWorkbook(path string) ([]Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}

	return parseSheet(rows), nil
}

// parseSheet converts raw sheet rows into records. The first row is the
// header; data rows are keyed by lowercased, trimmed header names. Rows
// shorter than the header leave the trailing fields empty.
func parseSheet(rows [][]string) []Record {
	if len(rows) < 2 {
		return nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	batch := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		keyed := make(map[string]string, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(row) {
				keyed[h] = row[i]
			}
		}
		batch = append(batch, RecordFromRow(keyed))
	}

	return batch
}
