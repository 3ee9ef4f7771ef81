package roster

import "strings"

// TableName is the roster table in Postgres.
const TableName = "personnel"

// Columns is the fixed, ordered list of roster columns. These names are the
// binding contract between spreadsheet headers, insert statements, and
// SELECT lists: headers must match exactly (lowercase).
var Columns = []string{
	"identity_number",
	"complement",
	"paternal_surname",
	"maternal_surname",
	"given_names",
	"rank",
	"grade",
	"process",
	"position",
	"unit",
	"destination",
	"phone",
}

// Record is one personnel entry. The pair (IdentityNumber, Complement) is
// the natural identifier; Complement may be absent, and an absent complement
// is distinct from any specific complement string.
type Record struct {
	IdentityNumber  string  `json:"identity_number"`
	Complement      *string `json:"complement"`
	PaternalSurname string  `json:"paternal_surname"`
	MaternalSurname string  `json:"maternal_surname"`
	GivenNames      string  `json:"given_names"`
	Rank            string  `json:"rank"`
	Grade           string  `json:"grade"`
	Process         string  `json:"process"`
	Position        string  `json:"position"`
	Unit            string  `json:"unit"`
	Destination     string  `json:"destination"`
	Phone           string  `json:"phone"`
}

// RecordFromRow builds a Record from a header-keyed row mapping. Headers not
// present in the row yield empty values; required-field enforcement is left
// to the storage constraints so that a bad row fails the whole batch.
func RecordFromRow(row map[string]string) Record {
	rec := Record{
		IdentityNumber:  row["identity_number"],
		PaternalSurname: row["paternal_surname"],
		MaternalSurname: row["maternal_surname"],
		GivenNames:      row["given_names"],
		Rank:            row["rank"],
		Grade:           row["grade"],
		Process:         row["process"],
		Position:        row["position"],
		Unit:            row["unit"],
		Destination:     row["destination"],
		Phone:           row["phone"],
	}
	if c, ok := row["complement"]; ok && strings.TrimSpace(c) != "" {
		c = strings.TrimSpace(c)
		rec.Complement = &c
	}
	return rec
}

// insertArgs returns the twelve insert parameters in column order.
// A nil Complement inserts NULL, never the empty string.
func (r Record) insertArgs() []any {
	var complement any
	if r.Complement != nil {
		complement = *r.Complement
	}
	return []any{
		r.IdentityNumber,
		complement,
		r.PaternalSurname,
		r.MaternalSurname,
		r.GivenNames,
		r.Rank,
		r.Grade,
		r.Process,
		r.Position,
		r.Unit,
		r.Destination,
		r.Phone,
	}
}
