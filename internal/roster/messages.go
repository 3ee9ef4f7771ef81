package roster

// messages.go maps technical errors to user-facing messages with codes for
// support reference.
//
// Error codes are grouped by category:
//
//	DB001 - duplicate key / unique constraint violation
//	DB002 - not-null constraint violation (required field missing in a row)
//	DB003 - foreign key violation
//	DB004 - connection failure
//	DB005 - timeout
//	IMP001 - no file attached to the import request
//	IMP002 - workbook has no data rows
//	IMP003 - workbook could not be parsed
//	QRY001 - no search criteria supplied
//	ERR000 - fallback for anything unmatched
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.

import "strings"

// UserMessage provides user-friendly error information with actionable
// guidance.
type UserMessage struct {
	Message string // what happened
	Action  string // what to do about it
	Code    string // support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this identity already exists",
			Action:  "Review the spreadsheet for duplicate identity numbers",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "A record with this identity already exists",
			Action:  "Review the spreadsheet for duplicate identity numbers",
			Code:    "DB001",
		},
	},
	{
		pattern: "not-null constraint",
		msg: UserMessage{
			Message: "A required field is empty in one of the rows",
			Action:  "Fill in the missing values and import again",
			Code:    "DB002",
		},
	},
	{
		pattern: "null value in column",
		msg: UserMessage{
			Message: "A required field is empty in one of the rows",
			Action:  "Fill in the missing values and import again",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key",
		msg: UserMessage{
			Message: "A row references data that does not exist",
			Action:  "Check the referenced values and import again",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "The database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB005",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was attached to the request",
			Action:  "Select an XLSX file and retry",
			Code:    "IMP001",
		},
	},
	{
		pattern: "no data rows",
		msg: UserMessage{
			Message: "The workbook contains no data rows",
			Action:  "Upload a workbook with a header row and at least one data row",
			Code:    "IMP002",
		},
	},
	{
		pattern: "open workbook",
		msg: UserMessage{
			Message: "The file could not be read as an XLSX workbook",
			Action:  "Save the file in XLSX format and retry",
			Code:    "IMP003",
		},
	},
	{
		pattern: "search criterion",
		msg: UserMessage{
			Message: "No search criteria were supplied",
			Action:  "Provide at least one of: paternal surname, given names, unit",
			Code:    "QRY001",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError translates an error into a user-facing message. The technical
// error should still be logged server-side; the mapping is for clients.
func MapError(err error) UserMessage {
	if err == nil {
		return defaultMessage
	}

	text := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(text, p.pattern) {
			return p.msg
		}
	}
	return defaultMessage
}
