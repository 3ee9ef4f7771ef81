// Package roster provides the business logic for the personnel roster:
// the record schema, the transactional spreadsheet importer, and the
// parameterized query layer.
//
// The importer turns one uploaded XLSX workbook into a committed batch of
// records. The batch is all-or-nothing: any per-row failure rolls back the
// whole transaction. The query layer builds WHERE clauses from optional
// criteria using positional parameter binding only; raw values are never
// interpolated into query text.
package roster
