package rebate_test

import (
	"context"
	"testing"

	"github.com/xraph/rebate"
	"github.com/xraph/rebate/library"
	"github.com/xraph/rebate/talent"
	"github.com/xraph/rebate/types"
)

func seedImport(t *testing.T, eng *rebate.Engine, isDefault bool, rows []*library.Row) *library.Import {
	t.Helper()
	imp := &library.Import{
		Platform:  "douyin",
		Name:      "2026-08 library",
		IsDefault: isDefault,
		RowCount:  len(rows),
	}
	if err := eng.ImportLibrary(context.Background(), imp, rows); err != nil {
		t.Fatal(err)
	}
	return imp
}

func TestCompare(t *testing.T) {
	ctx := context.Background()

	t.Run("classifies talents against the default import", func(t *testing.T) {
		eng := newTestEngine(t)
		seedAgency(t, eng, "agency-01", "Starlight", types.Percent(8))

		// Bound talents at 8%, differing only in what the library offers.
		bound := func(oneID, accountID string) {
			seedTalent(t, eng, oneID, func(tal *talent.Talent) {
				tal.AccountID = accountID
				tal.AgencyID = "agency-01"
				tal.RebateMode = talent.ModeSync
				tal.CurrentRebate = &talent.CurrentRebate{
					Rate:   types.Percent(8),
					Source: talent.SourceAgency,
				}
			})
		}
		bound("talent-higher", "acct-higher")
		bound("talent-lower", "acct-lower")
		bound("talent-equal", "acct-equal")
		bound("talent-elsewhere", "acct-elsewhere")
		seedTalent(t, eng, "talent-unmatched", func(tal *talent.Talent) {
			tal.AccountID = "acct-unmatched"
		})
		seedTalent(t, eng, "talent-no-account", nil)

		seedImport(t, eng, true, []*library.Row{
			{AccountID: "acct-higher", AgencyName: "STARLIGHT", Rebate: types.Percent(10)},
			{AccountID: "acct-lower", AgencyName: "starlight", Rebate: types.Percent(5)},
			{AccountID: "acct-equal", AgencyName: "Starlight", Rebate: types.Percent(8)},
			{AccountID: "acct-elsewhere", AgencyName: "Moonbeam", Rebate: types.Percent(12)},
		})

		result, err := eng.Compare(ctx, rebate.CompareRequest{Platform: "douyin"})
		if err != nil {
			t.Fatal(err)
		}

		byOneID := make(map[string]rebate.CompareRow, len(result.Rows))
		for _, row := range result.Rows {
			byOneID[row.OneID] = row
		}

		higher := byOneID["talent-higher"]
		if higher.Diff != rebate.DiffCompanyHigher || !higher.CanSync {
			t.Errorf("talent-higher: %+v", higher)
		}
		if higher.SameAgencyRebate == nil || !higher.SameAgencyRebate.Equal(types.Percent(10)) {
			t.Errorf("talent-higher same-agency rate: %v", higher.SameAgencyRebate)
		}

		lower := byOneID["talent-lower"]
		if lower.Diff != rebate.DiffAWHigher || lower.CanSync {
			t.Errorf("talent-lower: %+v", lower)
		}

		equal := byOneID["talent-equal"]
		if equal.Diff != rebate.DiffEqual || equal.CanSync {
			t.Errorf("talent-equal: %+v", equal)
		}

		// Matched account, but the row names a different agency: the rate is
		// reference only and never eligible for syncing.
		elsewhere := byOneID["talent-elsewhere"]
		if elsewhere.Diff != rebate.DiffNoMatch || elsewhere.CanSync {
			t.Errorf("talent-elsewhere: %+v", elsewhere)
		}
		if elsewhere.SameAgencyRebate != nil {
			t.Errorf("talent-elsewhere same-agency rate: %v", elsewhere.SameAgencyRebate)
		}
		if elsewhere.MaxCompanyRebate == nil || !elsewhere.MaxCompanyRebate.Equal(types.Percent(12)) {
			t.Errorf("talent-elsewhere company rate: %v", elsewhere.MaxCompanyRebate)
		}

		for _, oneID := range []string{"talent-unmatched", "talent-no-account"} {
			if byOneID[oneID].Diff != rebate.DiffNoMatch {
				t.Errorf("%s: %+v", oneID, byOneID[oneID])
			}
		}

		want := rebate.CompareSummary{
			Matched:       4,
			Unmatched:     2,
			ReferenceOnly: 1,
			CanSync:       1,
			CompanyHigher: 1,
			AWHigher:      1,
			Equal:         1,
		}
		if result.Summary != want {
			t.Errorf("summary: got %+v, want %+v", result.Summary, want)
		}
	})

	t.Run("matches unaffiliated talent against individual rows", func(t *testing.T) {
		eng := newTestEngine(t)
		seedTalent(t, eng, "talent-1", func(tal *talent.Talent) {
			tal.AccountID = "acct-1"
			tal.CurrentRebate = &talent.CurrentRebate{
				Rate:   types.Percent(5),
				Source: talent.SourcePersonal,
			}
		})

		seedImport(t, eng, true, []*library.Row{
			{AccountID: "acct-1", AgencyName: "Individual", Rebate: types.Percent(7)},
		})

		result, err := eng.Compare(ctx, rebate.CompareRequest{Platform: "douyin"})
		if err != nil {
			t.Fatal(err)
		}
		if len(result.Rows) != 1 {
			t.Fatalf("rows: %d", len(result.Rows))
		}
		row := result.Rows[0]
		if row.Diff != rebate.DiffCompanyHigher || !row.CanSync {
			t.Errorf("row: %+v", row)
		}
	})

	t.Run("picks the best rate among duplicate rows", func(t *testing.T) {
		eng := newTestEngine(t)
		seedTalent(t, eng, "talent-1", func(tal *talent.Talent) {
			tal.AccountID = "acct-1"
		})

		seedImport(t, eng, true, []*library.Row{
			{AccountID: "acct-1", AgencyName: "individual", Rebate: types.Percent(4)},
			{AccountID: "acct-1", AgencyName: "individual", Rebate: types.Percent(9)},
			{AccountID: "acct-1", AgencyName: "individual", Rebate: types.Percent(6)},
		})

		result, err := eng.Compare(ctx, rebate.CompareRequest{Platform: "douyin"})
		if err != nil {
			t.Fatal(err)
		}
		row := result.Rows[0]
		if row.SameAgencyRebate == nil || !row.SameAgencyRebate.Equal(types.Percent(9)) {
			t.Errorf("same-agency rate: %v", row.SameAgencyRebate)
		}
		if row.MaxCompanyRebate == nil || !row.MaxCompanyRebate.Equal(types.Percent(9)) {
			t.Errorf("company rate: %v", row.MaxCompanyRebate)
		}
	})

	t.Run("explicit import id overrides the default", func(t *testing.T) {
		eng := newTestEngine(t)
		seedTalent(t, eng, "talent-1", func(tal *talent.Talent) {
			tal.AccountID = "acct-1"
		})

		seedImport(t, eng, true, []*library.Row{
			{AccountID: "acct-1", AgencyName: "individual", Rebate: types.Percent(4)},
		})
		older := seedImport(t, eng, false, []*library.Row{
			{AccountID: "acct-1", AgencyName: "individual", Rebate: types.Percent(6)},
		})

		result, err := eng.Compare(ctx, rebate.CompareRequest{Platform: "douyin", ImportID: older.ID})
		if err != nil {
			t.Fatal(err)
		}
		if result.ImportID != older.ID {
			t.Errorf("import id: got %s", result.ImportID)
		}
		if !result.Rows[0].SameAgencyRebate.Equal(types.Percent(6)) {
			t.Errorf("rate came from the wrong import: %v", result.Rows[0].SameAgencyRebate)
		}
	})

	t.Run("no default import reads as not found", func(t *testing.T) {
		eng := newTestEngine(t)

		_, err := eng.Compare(ctx, rebate.CompareRequest{Platform: "douyin"})
		if !rebate.IsNotFound(err) {
			t.Fatalf("expected not-found error, got %v", err)
		}
	})

	t.Run("empty platform is rejected", func(t *testing.T) {
		eng := newTestEngine(t)

		_, err := eng.Compare(ctx, rebate.CompareRequest{})
		if !rebate.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}
