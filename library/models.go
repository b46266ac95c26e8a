// Package library defines externally imported rate-library snapshots.
//
// A snapshot is produced by a spreadsheet import pipeline outside this
// subsystem; the comparison engine only reads it. Library rows carry free-form
// agency-name strings, so the keyword matching that maps those strings onto
// the internal tagged binding lives here, at the translation boundary, and
// nowhere else.
package library

import (
	"strings"

	"github.com/xraph/rebate/id"
	"github.com/xraph/rebate/talent"
	"github.com/xraph/rebate/types"
)

// Import is one imported rate-library version for a platform. At most one
// import per platform is flagged as the default; comparisons fall back to it
// when no explicit import id is given.
type Import struct {
	types.Entity
	ID        id.ImportID `json:"id"`
	Platform  string      `json:"platform"`
	Name      string      `json:"name"`
	IsDefault bool        `json:"is_default"`
	RowCount  int         `json:"row_count"`
}

// Row is one rate entry in an import, keyed by the external platform account
// id it was scraped or entered against.
type Row struct {
	types.Entity
	ID         id.LibraryRowID `json:"id"`
	ImportID   id.ImportID     `json:"import_id"`
	Platform   string          `json:"platform"`
	AccountID  string          `json:"account_id"`
	AgencyName string          `json:"agency_name"`
	Rebate     types.Rate      `json:"rebate"`
}

// unaffiliatedKeywords are the wildcard agency-name spellings that external
// libraries use for an individual/unaffiliated talent.
var unaffiliatedKeywords = map[string]bool{
	"individual":  true,
	"independent": true,
	"personal":    true,
	"self":        true,
	"none":        true,
	"n/a":         true,
	"个人":          true,
	"独立":          true,
	"无":           true,
}

// IsUnaffiliatedName reports whether an agency-name string from a library row
// denotes an individual/unaffiliated talent rather than an organization.
func IsUnaffiliatedName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" || n == "-" {
		return true
	}
	return unaffiliatedKeywords[n]
}

// Binding translates the row's agency-name string into the internal tagged
// binding value. Named agencies come back as BoundTo(normalized-name); the
// caller compares that against the talent's resolved agency name.
func (r *Row) Binding() talent.Binding {
	if IsUnaffiliatedName(r.AgencyName) {
		return talent.Unaffiliated()
	}
	return talent.BoundTo(strings.ToLower(strings.TrimSpace(r.AgencyName)))
}
