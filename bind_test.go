package rebate_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xraph/rebate"
	"github.com/xraph/rebate/agency"
	"github.com/xraph/rebate/audit"
	"github.com/xraph/rebate/store/memory"
	"github.com/xraph/rebate/talent"
	"github.com/xraph/rebate/types"
)

func newTestEngine(t *testing.T) *rebate.Engine {
	t.Helper()
	eng := rebate.New(memory.New())
	if err := eng.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = eng.Stop() })
	return eng
}

func seedAgency(t *testing.T, eng *rebate.Engine, agencyID, name string, baseRebate types.Rate) {
	t.Helper()
	err := eng.CreateAgency(context.Background(), &agency.Agency{
		ID:   agencyID,
		Name: name,
		Platforms: map[string]agency.PlatformConfig{
			"douyin": {BaseRebate: baseRebate},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func seedTalent(t *testing.T, eng *rebate.Engine, oneID string, mutate func(*talent.Talent)) {
	t.Helper()
	tal := &talent.Talent{OneID: oneID, Platform: "douyin"}
	if mutate != nil {
		mutate(tal)
	}
	if err := eng.CreateTalent(context.Background(), tal); err != nil {
		t.Fatal(err)
	}
}

func TestBindAgency(t *testing.T) {
	ctx := context.Background()

	t.Run("binds and syncs agency base rate", func(t *testing.T) {
		eng := newTestEngine(t)
		seedAgency(t, eng, "agency-01", "Starlight", types.Percent(8))
		seedTalent(t, eng, "talent-1", func(tal *talent.Talent) {
			tal.CurrentRebate = &talent.CurrentRebate{
				Rate:   types.Percent(5),
				Source: talent.SourcePersonal,
			}
		})

		result, err := eng.BindAgency(ctx, rebate.BindRequest{
			Platform:   "douyin",
			AgencyID:   "agency-01",
			Items:      []rebate.BindItem{{OneID: "talent-1"}},
			OperatorID: "op-1",
		})
		if err != nil {
			t.Fatal(err)
		}
		if result.Succeeded != 1 || result.Total() != 1 {
			t.Fatalf("result: %+v", result)
		}

		got, err := eng.GetTalent(ctx, "talent-1", "douyin")
		if err != nil {
			t.Fatal(err)
		}
		if got.AgencyID != "agency-01" {
			t.Errorf("agency: got %s", got.AgencyID)
		}
		if got.RebateMode != talent.ModeSync {
			t.Errorf("mode: got %s", got.RebateMode)
		}
		if got.CurrentRebate == nil || !got.CurrentRebate.Rate.Equal(types.Percent(8)) {
			t.Fatalf("rate: got %+v", got.CurrentRebate)
		}
		if got.CurrentRebate.Source != talent.SourceAgency {
			t.Errorf("source: got %s", got.CurrentRebate.Source)
		}
		if got.LastRebateSyncAt == nil {
			t.Error("expected LastRebateSyncAt to be set")
		}

		records, err := eng.ListRateHistory(ctx, audit.TalentKey("talent-1", "douyin"), audit.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 ledger record, got %d", len(records))
		}
		rec := records[0]
		if !rec.RebateRate.Equal(types.Percent(8)) {
			t.Errorf("record rate: got %s", rec.RebateRate)
		}
		if rec.PreviousRate == nil || !rec.PreviousRate.Equal(types.Percent(5)) {
			t.Errorf("previous rate: got %v", rec.PreviousRate)
		}
		if rec.Status != audit.StatusActive {
			t.Errorf("status: got %s", rec.Status)
		}
		if rec.ChangeSource != audit.SourceAgencyBind {
			t.Errorf("change source: got %s", rec.ChangeSource)
		}
		if rec.CreatedBy != "op-1" {
			t.Errorf("created by: got %s", rec.CreatedBy)
		}
	})

	t.Run("skips talent already bound to the same agency", func(t *testing.T) {
		eng := newTestEngine(t)
		seedAgency(t, eng, "agency-01", "Starlight", types.Percent(8))
		seedTalent(t, eng, "talent-1", func(tal *talent.Talent) {
			tal.AgencyID = "agency-01"
			tal.RebateMode = talent.ModeSync
		})

		result, err := eng.BindAgency(ctx, rebate.BindRequest{
			Platform: "douyin",
			AgencyID: "agency-01",
			Items:    []rebate.BindItem{{OneID: "talent-1"}},
		})
		if err != nil {
			t.Fatal(err)
		}
		if result.Skipped != 1 || result.Succeeded != 0 {
			t.Fatalf("result: %+v", result)
		}

		records, err := eng.ListRateHistory(ctx, audit.TalentKey("talent-1", "douyin"), audit.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 0 {
			t.Errorf("skip must not write a ledger record, got %d", len(records))
		}
	})

	t.Run("fails item bound elsewhere without overwrite", func(t *testing.T) {
		eng := newTestEngine(t)
		seedAgency(t, eng, "agency-01", "Starlight", types.Percent(8))
		seedAgency(t, eng, "agency-02", "Moonbeam", types.Percent(10))
		seedTalent(t, eng, "talent-1", func(tal *talent.Talent) {
			tal.AgencyID = "agency-02"
			tal.RebateMode = talent.ModeSync
		})

		result, err := eng.BindAgency(ctx, rebate.BindRequest{
			Platform: "douyin",
			AgencyID: "agency-01",
			Items:    []rebate.BindItem{{OneID: "talent-1"}},
		})
		if err != nil {
			t.Fatal(err)
		}
		if result.Failed != 1 {
			t.Fatalf("result: %+v", result)
		}
		if !strings.Contains(result.Errors[0].Reason, "agency-02") {
			t.Errorf("reason should name the current agency: %q", result.Errors[0].Reason)
		}

		// With OverwriteExisting the same item goes through.
		result, err = eng.BindAgency(ctx, rebate.BindRequest{
			Platform:          "douyin",
			AgencyID:          "agency-01",
			Items:             []rebate.BindItem{{OneID: "talent-1"}},
			OverwriteExisting: true,
		})
		if err != nil {
			t.Fatal(err)
		}
		if result.Succeeded != 1 {
			t.Fatalf("overwrite result: %+v", result)
		}
	})

	t.Run("unknown talent fails only its item", func(t *testing.T) {
		eng := newTestEngine(t)
		seedAgency(t, eng, "agency-01", "Starlight", types.Percent(8))
		seedTalent(t, eng, "talent-1", nil)

		result, err := eng.BindAgency(ctx, rebate.BindRequest{
			Platform: "douyin",
			AgencyID: "agency-01",
			Items:    []rebate.BindItem{{OneID: "talent-1"}, {OneID: "ghost"}},
		})
		if err != nil {
			t.Fatal(err)
		}
		if result.Succeeded != 1 || result.Failed != 1 {
			t.Fatalf("result: %+v", result)
		}
		if result.Errors[0].OneID != "ghost" {
			t.Errorf("failed item: got %s", result.Errors[0].OneID)
		}
	})

	t.Run("repeated item binds once", func(t *testing.T) {
		eng := newTestEngine(t)
		seedAgency(t, eng, "agency-01", "Starlight", types.Percent(8))
		seedTalent(t, eng, "talent-1", nil)

		result, err := eng.BindAgency(ctx, rebate.BindRequest{
			Platform: "douyin",
			AgencyID: "agency-01",
			Items:    []rebate.BindItem{{OneID: "talent-1"}, {OneID: "talent-1"}},
		})
		if err != nil {
			t.Fatal(err)
		}
		if result.Succeeded != 1 || result.Failed != 1 {
			t.Fatalf("result: %+v", result)
		}
		if result.Errors[0].Reason != "duplicate item in request" {
			t.Errorf("reason: %q", result.Errors[0].Reason)
		}

		records, err := eng.ListRateHistory(ctx, audit.TalentKey("talent-1", "douyin"), audit.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 {
			t.Fatalf("repeated item must write exactly one ledger record, got %d", len(records))
		}
	})

	t.Run("unknown agency fails the whole request", func(t *testing.T) {
		eng := newTestEngine(t)
		seedTalent(t, eng, "talent-1", nil)

		_, err := eng.BindAgency(ctx, rebate.BindRequest{
			Platform: "douyin",
			AgencyID: "ghost-agency",
			Items:    []rebate.BindItem{{OneID: "talent-1"}},
		})
		if !rebate.IsNotFound(err) {
			t.Fatalf("expected not-found error, got %v", err)
		}
	})

	t.Run("request validation", func(t *testing.T) {
		eng := newTestEngine(t)

		tests := []struct {
			name string
			req  rebate.BindRequest
		}{
			{"empty platform", rebate.BindRequest{AgencyID: "a", Items: []rebate.BindItem{{OneID: "x"}}}},
			{"no items", rebate.BindRequest{Platform: "douyin", AgencyID: "a"}},
			{"individual pseudo-agency", rebate.BindRequest{Platform: "douyin", AgencyID: "individual", Items: []rebate.BindItem{{OneID: "x"}}}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := eng.BindAgency(ctx, tt.req)
				if !rebate.IsValidation(err) {
					t.Errorf("expected validation error, got %v", err)
				}
			})
		}
	})

	t.Run("rejects oversized batch", func(t *testing.T) {
		eng := rebate.New(memory.New(), rebate.WithBindBatchLimit(2))
		items := []rebate.BindItem{{OneID: "a"}, {OneID: "b"}, {OneID: "c"}}

		_, err := eng.BindAgency(ctx, rebate.BindRequest{Platform: "douyin", AgencyID: "x", Items: items})
		if !errors.Is(err, rebate.ErrBatchTooLarge) {
			t.Fatalf("expected ErrBatchTooLarge, got %v", err)
		}
	})
}

func TestBindAgencyByName(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves names case-insensitively per item", func(t *testing.T) {
		eng := newTestEngine(t)
		seedAgency(t, eng, "agency-01", "Starlight", types.Percent(8))
		seedAgency(t, eng, "agency-02", "Moonbeam", types.Percent(10))
		seedTalent(t, eng, "talent-1", nil)
		seedTalent(t, eng, "talent-2", nil)
		seedTalent(t, eng, "talent-3", nil)

		result, err := eng.BindAgencyByName(ctx, rebate.BindRequest{
			Platform: "douyin",
			Items: []rebate.BindItem{
				{OneID: "talent-1", AgencyName: "  STARLIGHT "},
				{OneID: "talent-2", AgencyName: "moonbeam"},
				{OneID: "talent-3", AgencyName: "nobody"},
			},
		})
		if err != nil {
			t.Fatal(err)
		}
		if result.Succeeded != 2 || result.Failed != 1 {
			t.Fatalf("result: %+v", result)
		}

		got, err := eng.GetTalent(ctx, "talent-1", "douyin")
		if err != nil {
			t.Fatal(err)
		}
		if got.AgencyID != "agency-01" {
			t.Errorf("talent-1 agency: got %s", got.AgencyID)
		}
		got, err = eng.GetTalent(ctx, "talent-2", "douyin")
		if err != nil {
			t.Fatal(err)
		}
		if got.AgencyID != "agency-02" {
			t.Errorf("talent-2 agency: got %s", got.AgencyID)
		}
	})

	t.Run("empty agency name fails the item", func(t *testing.T) {
		eng := newTestEngine(t)
		seedTalent(t, eng, "talent-1", nil)

		result, err := eng.BindAgencyByName(ctx, rebate.BindRequest{
			Platform: "douyin",
			Items:    []rebate.BindItem{{OneID: "talent-1"}},
		})
		if err != nil {
			t.Fatal(err)
		}
		if result.Failed != 1 {
			t.Fatalf("result: %+v", result)
		}
		if result.Errors[0].Reason != "agency name is required" {
			t.Errorf("reason: %q", result.Errors[0].Reason)
		}
	})
}

func TestUnbindAgency(t *testing.T) {
	ctx := context.Background()

	t.Run("unbinds to independent at the given rate", func(t *testing.T) {
		eng := newTestEngine(t)
		seedAgency(t, eng, "agency-01", "Starlight", types.Percent(8))
		seedTalent(t, eng, "talent-1", func(tal *talent.Talent) {
			tal.AgencyID = "agency-01"
			tal.RebateMode = talent.ModeSync
			tal.CurrentRebate = &talent.CurrentRebate{
				Rate:   types.Percent(8),
				Source: talent.SourceAgency,
			}
		})

		rate := types.Percent(6)
		result, err := eng.UnbindAgency(ctx, rebate.UnbindRequest{
			Platform:      "douyin",
			OneIDs:        []string{"talent-1"},
			NewRebateRate: &rate,
		})
		if err != nil {
			t.Fatal(err)
		}
		if result.Succeeded != 1 {
			t.Fatalf("result: %+v", result)
		}

		got, err := eng.GetTalent(ctx, "talent-1", "douyin")
		if err != nil {
			t.Fatal(err)
		}
		if got.AgencyID != talent.AgencyIndividual {
			t.Errorf("agency: got %s", got.AgencyID)
		}
		if got.RebateMode != talent.ModeIndependent {
			t.Errorf("mode: got %s", got.RebateMode)
		}
		if got.CurrentRebate.Source != talent.SourcePersonal {
			t.Errorf("source: got %s", got.CurrentRebate.Source)
		}
		if !got.CurrentRebate.Rate.Equal(types.Percent(6)) {
			t.Errorf("rate: got %s", got.CurrentRebate.Rate)
		}

		records, err := eng.ListRateHistory(ctx, audit.TalentKey("talent-1", "douyin"), audit.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 ledger record, got %d", len(records))
		}
		if records[0].ChangeSource != audit.SourceAgencyUnbind {
			t.Errorf("change source: got %s", records[0].ChangeSource)
		}
		if records[0].Metadata["previous_agency_id"] != "agency-01" {
			t.Errorf("metadata: got %+v", records[0].Metadata)
		}
	})

	t.Run("missing rate rejects the whole request", func(t *testing.T) {
		eng := newTestEngine(t)
		seedTalent(t, eng, "talent-1", nil)

		_, err := eng.UnbindAgency(ctx, rebate.UnbindRequest{
			Platform: "douyin",
			OneIDs:   []string{"talent-1"},
		})
		if !errors.Is(err, rebate.ErrRateRequired) {
			t.Fatalf("expected ErrRateRequired, got %v", err)
		}
		if !rebate.IsValidation(err) {
			t.Error("rate-required must map to a validation failure")
		}
	})

	t.Run("already unaffiliated talent is skipped", func(t *testing.T) {
		eng := newTestEngine(t)
		seedTalent(t, eng, "talent-1", nil)

		rate := types.Percent(5)
		result, err := eng.UnbindAgency(ctx, rebate.UnbindRequest{
			Platform:      "douyin",
			OneIDs:        []string{"talent-1"},
			NewRebateRate: &rate,
		})
		if err != nil {
			t.Fatal(err)
		}
		if result.Skipped != 1 {
			t.Fatalf("result: %+v", result)
		}
	})

	t.Run("repeated oneId unbinds once", func(t *testing.T) {
		eng := newTestEngine(t)
		seedAgency(t, eng, "agency-01", "Starlight", types.Percent(8))
		seedTalent(t, eng, "talent-1", func(tal *talent.Talent) {
			tal.AgencyID = "agency-01"
			tal.RebateMode = talent.ModeSync
		})

		rate := types.Percent(6)
		result, err := eng.UnbindAgency(ctx, rebate.UnbindRequest{
			Platform:      "douyin",
			OneIDs:        []string{"talent-1", "talent-1"},
			NewRebateRate: &rate,
		})
		if err != nil {
			t.Fatal(err)
		}
		if result.Succeeded != 1 || result.Failed != 1 {
			t.Fatalf("result: %+v", result)
		}

		records, err := eng.ListRateHistory(ctx, audit.TalentKey("talent-1", "douyin"), audit.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 ledger record, got %d", len(records))
		}
	})

	t.Run("invalid rate is a validation error", func(t *testing.T) {
		eng := newTestEngine(t)
		rate := types.Rate(-100)

		_, err := eng.UnbindAgency(ctx, rebate.UnbindRequest{
			Platform:      "douyin",
			OneIDs:        []string{"talent-1"},
			NewRebateRate: &rate,
		})
		if !rebate.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestLedgerExpiryOnRepeatedChanges(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	seedAgency(t, eng, "agency-01", "Starlight", types.Percent(8))
	seedAgency(t, eng, "agency-02", "Moonbeam", types.Percent(10))
	seedTalent(t, eng, "talent-1", nil)

	if _, err := eng.BindAgency(ctx, rebate.BindRequest{
		Platform: "douyin",
		AgencyID: "agency-01",
		Items:    []rebate.BindItem{{OneID: "talent-1"}},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.BindAgency(ctx, rebate.BindRequest{
		Platform:          "douyin",
		AgencyID:          "agency-02",
		Items:             []rebate.BindItem{{OneID: "talent-1"}},
		OverwriteExisting: true,
	}); err != nil {
		t.Fatal(err)
	}

	key := audit.TalentKey("talent-1", "douyin")

	all, err := eng.ListRateHistory(ctx, key, audit.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 ledger records, got %d", len(all))
	}

	active, err := eng.ListRateHistory(ctx, key, audit.ListOpts{Status: audit.StatusActive})
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 {
		t.Fatalf("expected exactly 1 active record, got %d", len(active))
	}
	if !active[0].RebateRate.Equal(types.Percent(10)) {
		t.Errorf("active record rate: got %s", active[0].RebateRate)
	}

	expired, err := eng.ListRateHistory(ctx, key, audit.ListOpts{Status: audit.StatusExpired})
	if err != nil {
		t.Fatal(err)
	}
	if len(expired) != 1 {
		t.Fatalf("expected 1 expired record, got %d", len(expired))
	}
	if expired[0].ExpiryDate == nil {
		t.Error("expired record should carry an expiry date")
	}
}
