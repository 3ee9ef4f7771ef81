package roster

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// selectColumns is the SELECT list matching Record's scan order. Optional
// text columns are coalesced so NULLs scan into plain strings; complement
// stays nullable because an absent complement is a distinct value.
var selectColumns = strings.Join([]string{
	"identity_number",
	"complement",
	"COALESCE(paternal_surname, '')",
	"COALESCE(maternal_surname, '')",
	"COALESCE(given_names, '')",
	"COALESCE(rank, '')",
	"COALESCE(grade, '')",
	"COALESCE(process, '')",
	"COALESCE(position, '')",
	"COALESCE(unit, '')",
	"COALESCE(destination, '')",
	"COALESCE(phone, '')",
}, ", ")

// Service provides roster operations backed by a Postgres pool.
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a Service on top of an existing connection pool.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Ping verifies database connectivity.
func (s *Service) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// List returns every roster record in the shared ordering.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", selectColumns, TableName, orderBy)
	return s.queryRecords(ctx, query, nil)
}

// FindByIdentity returns all records matching an identity number, optionally
// narrowed by complement:
//   - complement "" (absent): match on identity number alone
//   - complement "null" (any case): match records whose complement IS NULL
//   - anything else: case-sensitive equality on the complement
//
// Zero matches is a valid outcome, not an error.
func (s *Service) FindByIdentity(ctx context.Context, id, complement string) ([]Record, error) {
	where, args := identityFilter(id, complement)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s", selectColumns, TableName, where, orderBy)
	return s.queryRecords(ctx, query, args)
}

// NameQuery holds the optional criteria for a name/unit search. Each
// non-empty fragment matches its column as a case-insensitive substring.
type NameQuery struct {
	Paternal string
	Given    string
	Unit     string
}

// SearchByName returns records matching the supplied fragments, combined
// with AND. Returns ErrMissingCriteria when no fragment is supplied.
func (s *Service) SearchByName(ctx context.Context, q NameQuery) ([]Record, error) {
	where, args, err := nameFilter(q)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s", selectColumns, TableName, where, orderBy)
	return s.queryRecords(ctx, query, args)
}

// queryRecords runs a SELECT built against selectColumns and scans the
// result set.
func (s *Service) queryRecords(ctx context.Context, query string, args []any) ([]Record, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		err := rows.Scan(
			&r.IdentityNumber,
			&r.Complement,
			&r.PaternalSurname,
			&r.MaternalSurname,
			&r.GivenNames,
			&r.Rank,
			&r.Grade,
			&r.Process,
			&r.Position,
			&r.Unit,
			&r.Destination,
			&r.Phone,
		)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return records, nil
}
