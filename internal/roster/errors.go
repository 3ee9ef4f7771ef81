package roster

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFile indicates the import request carried no file.
	ErrNoFile = errors.New("no file provided")

	// ErrEmptyBatch indicates the workbook parsed to zero data rows.
	// No transaction is opened in this case.
	ErrEmptyBatch = errors.New("no data rows in workbook")

	// ErrMissingCriteria indicates a name search with no criteria supplied.
	ErrMissingCriteria = errors.New("at least one search criterion is required")
)

// ImportError reports a failed import batch. The whole transaction was
// rolled back; no rows from the batch persist. Row is the 1-indexed
// spreadsheet line of the failing row, or 0 when the failure was not
// row-specific (e.g. commit).
type ImportError struct {
	Row   int
	Cause error
}

func (e *ImportError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("import failed at row %d: %v", e.Row, e.Cause)
	}
	return fmt.Sprintf("import failed: %v", e.Cause)
}

func (e *ImportError) Unwrap() error {
	return e.Cause
}
