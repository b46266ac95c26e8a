package rebate

import (
	"context"

	"github.com/xraph/rebate/agency"
	"github.com/xraph/rebate/id"
	"github.com/xraph/rebate/library"
	"github.com/xraph/rebate/talent"
	"github.com/xraph/rebate/types"
)

// DiffType classifies a talent's current rate against the rate library.
type DiffType string

const (
	// DiffNoMatch means no library row shares the talent's agency context.
	DiffNoMatch DiffType = "noMatch"
	// DiffCompanyHigher means the library's best same-context rate beats
	// the talent's current rate.
	DiffCompanyHigher DiffType = "companyHigher"
	// DiffAWHigher means our current rate beats the library's.
	DiffAWHigher DiffType = "awHigher"
	DiffEqual    DiffType = "equal"
)

// CompareRequest runs a comparison of platform talents against a library
// import. A nil ImportID selects the platform's default import.
type CompareRequest struct {
	Platform string      `json:"platform"`
	ImportID id.ImportID `json:"importId,omitempty"`
}

// CompareRow is the comparison outcome for one talent.
type CompareRow struct {
	OneID       string     `json:"oneId"`
	Name        string     `json:"name,omitempty"`
	AgencyID    string     `json:"agencyId"`
	CurrentRate types.Rate `json:"currentRate"`
	// MaxCompanyRebate is the best rate found across every library row for
	// this account, regardless of agency context.
	MaxCompanyRebate *types.Rate `json:"maxCompanyRebate,omitempty"`
	// SameAgencyRebate is the best rate among rows sharing the talent's
	// agency context. Only this rate is eligible for syncing.
	SameAgencyRebate *types.Rate `json:"sameAgencyRebate,omitempty"`
	Diff             DiffType    `json:"diff"`
	CanSync          bool        `json:"canSync"`
}

// CompareSummary aggregates a comparison run.
type CompareSummary struct {
	Matched       int `json:"matched"`
	Unmatched     int `json:"unmatched"`
	ReferenceOnly int `json:"referenceOnly"`
	CanSync       int `json:"canSync"`
	CompanyHigher int `json:"companyHigher"`
	AWHigher      int `json:"awHigher"`
	Equal         int `json:"equal"`
}

// CompareResult is the full output of a comparison run.
type CompareResult struct {
	Platform string         `json:"platform"`
	ImportID id.ImportID    `json:"importId"`
	Summary  CompareSummary `json:"summary"`
	Rows     []CompareRow   `json:"rows"`
}

// Compare matches every talent on the platform against a rate-library
// import. Rows match a talent by platform account ID; a matched row is
// same-context when its agency name and the talent's binding agree, both
// sides normalized. Matched rows in a different context are reference only.
func (e *Engine) Compare(ctx context.Context, req CompareRequest) (*CompareResult, error) {
	if req.Platform == "" {
		return nil, ValidationError{Field: "platform", Message: "must not be empty"}
	}

	imp, err := e.resolveImport(ctx, req)
	if err != nil {
		return nil, err
	}

	rows, err := e.store.ListImportRows(ctx, imp.ID)
	if err != nil {
		return nil, err
	}
	byAccount := make(map[string][]*library.Row)
	for _, row := range rows {
		if row.AccountID == "" {
			continue
		}
		byAccount[row.AccountID] = append(byAccount[row.AccountID], row)
	}

	talents, err := e.store.ListTalents(ctx, req.Platform, talent.ListOpts{})
	if err != nil {
		return nil, err
	}

	agencies, err := e.store.ListAgencies(ctx)
	if err != nil {
		return nil, err
	}
	namesByID := make(map[string]string, len(agencies))
	for _, a := range agencies {
		namesByID[a.ID] = agency.Normalize(a.Name)
	}

	result := &CompareResult{
		Platform: req.Platform,
		ImportID: imp.ID,
		Rows:     make([]CompareRow, 0, len(talents)),
	}

	for _, t := range talents {
		out := CompareRow{
			OneID:       t.OneID,
			Name:        t.Name,
			AgencyID:    t.AgencyID,
			CurrentRate: t.CurrentRate(),
		}

		matches := byAccount[t.AccountID]
		if t.AccountID == "" || len(matches) == 0 {
			out.Diff = DiffNoMatch
			result.Summary.Unmatched++
			result.Rows = append(result.Rows, out)
			continue
		}
		result.Summary.Matched++

		for _, row := range matches {
			rate := row.Rebate
			if out.MaxCompanyRebate == nil || rate.GreaterThan(*out.MaxCompanyRebate) {
				r := rate
				out.MaxCompanyRebate = &r
			}
			if sameContext(t, namesByID, row) {
				if out.SameAgencyRebate == nil || rate.GreaterThan(*out.SameAgencyRebate) {
					r := rate
					out.SameAgencyRebate = &r
				}
			}
		}

		if out.SameAgencyRebate == nil {
			out.Diff = DiffNoMatch
			result.Summary.ReferenceOnly++
		} else {
			switch {
			case out.SameAgencyRebate.GreaterThan(out.CurrentRate):
				out.Diff = DiffCompanyHigher
				out.CanSync = true
				result.Summary.CompanyHigher++
				result.Summary.CanSync++
			case out.SameAgencyRebate.LessThan(out.CurrentRate):
				out.Diff = DiffAWHigher
				result.Summary.AWHigher++
			default:
				out.Diff = DiffEqual
				result.Summary.Equal++
			}
		}

		result.Rows = append(result.Rows, out)
	}

	e.plugins.EmitComparisonRun(ctx, req.Platform, imp.ID.String(), result.Summary.Matched, result.Summary.CanSync)
	return result, nil
}

func (e *Engine) resolveImport(ctx context.Context, req CompareRequest) (*library.Import, error) {
	if req.ImportID.IsNil() {
		return e.store.GetDefaultImport(ctx, req.Platform)
	}
	return e.store.GetImport(ctx, req.ImportID)
}

// sameContext reports whether a library row describes the same agency
// situation as the talent: both unaffiliated, or both naming the same
// agency after normalization. A bound talent whose agency name is unknown
// never matches.
func sameContext(t *talent.Talent, namesByID map[string]string, row *library.Row) bool {
	rowBinding := row.Binding()
	if t.Binding().IsUnaffiliated() {
		return rowBinding.IsUnaffiliated()
	}
	name := namesByID[t.AgencyID]
	if name == "" {
		return false
	}
	return rowBinding == talent.BoundTo(name)
}
