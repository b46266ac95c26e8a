package rebate_test

import (
	"context"
	"testing"

	"github.com/xraph/rebate"
	"github.com/xraph/rebate/audit"
	"github.com/xraph/rebate/talent"
	"github.com/xraph/rebate/types"
)

func TestSetIndependentRebate(t *testing.T) {
	ctx := context.Background()

	t.Run("switches talent to independent at its own rate", func(t *testing.T) {
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

		result, err := eng.SetIndependentRebate(ctx, rebate.IndependentRequest{
			Platform:   "douyin",
			Items:      []rebate.IndependentItem{{OneID: "talent-1", RebateRate: types.Percent(5)}},
			OperatorID: "op-2",
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
		if got.RebateMode != talent.ModeIndependent {
			t.Errorf("mode: got %s", got.RebateMode)
		}
		if !got.CurrentRebate.Rate.Equal(types.Percent(5)) {
			t.Errorf("rate: got %s", got.CurrentRebate.Rate)
		}
		if got.CurrentRebate.Source != talent.SourcePersonal {
			t.Errorf("source: got %s", got.CurrentRebate.Source)
		}
		// Switching modes leaves the agency membership untouched.
		if got.AgencyID != "agency-01" {
			t.Errorf("agency: got %s", got.AgencyID)
		}

		records, err := eng.ListRateHistory(ctx, audit.TalentKey("talent-1", "douyin"), audit.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 ledger record, got %d", len(records))
		}
		if records[0].ChangeSource != audit.SourceSetIndependent {
			t.Errorf("change source: got %s", records[0].ChangeSource)
		}
		if records[0].PreviousRate == nil || !records[0].PreviousRate.Equal(types.Percent(8)) {
			t.Errorf("previous rate: got %v", records[0].PreviousRate)
		}
		if records[0].Metadata["previous_mode"] != string(talent.ModeSync) {
			t.Errorf("metadata: got %+v", records[0].Metadata)
		}
	})

	t.Run("skips talent already independent at the same rate", func(t *testing.T) {
		eng := newTestEngine(t)
		seedTalent(t, eng, "talent-1", func(tal *talent.Talent) {
			tal.RebateMode = talent.ModeIndependent
			tal.CurrentRebate = &talent.CurrentRebate{
				Rate:   types.Percent(5),
				Source: talent.SourcePersonal,
			}
		})

		result, err := eng.SetIndependentRebate(ctx, rebate.IndependentRequest{
			Platform: "douyin",
			Items:    []rebate.IndependentItem{{OneID: "talent-1", RebateRate: types.Percent(5)}},
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

	t.Run("same rate different mode still updates", func(t *testing.T) {
		eng := newTestEngine(t)
		seedTalent(t, eng, "talent-1", func(tal *talent.Talent) {
			tal.AgencyID = "agency-01"
			tal.RebateMode = talent.ModeSync
			tal.CurrentRebate = &talent.CurrentRebate{
				Rate:   types.Percent(5),
				Source: talent.SourceAgency,
			}
		})

		result, err := eng.SetIndependentRebate(ctx, rebate.IndependentRequest{
			Platform: "douyin",
			Items:    []rebate.IndependentItem{{OneID: "talent-1", RebateRate: types.Percent(5)}},
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
		if got.RebateMode != talent.ModeIndependent {
			t.Errorf("mode: got %s", got.RebateMode)
		}
	})

	t.Run("one malformed item rejects the whole request", func(t *testing.T) {
		eng := newTestEngine(t)
		seedTalent(t, eng, "talent-1", nil)

		_, err := eng.SetIndependentRebate(ctx, rebate.IndependentRequest{
			Platform: "douyin",
			Items: []rebate.IndependentItem{
				{OneID: "talent-1", RebateRate: types.Percent(5)},
				{OneID: "talent-2", RebateRate: types.Rate(20000)},
			},
		})
		if !rebate.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}

		// Nothing may have been written, including the structurally valid item.
		got, err := eng.GetTalent(ctx, "talent-1", "douyin")
		if err != nil {
			t.Fatal(err)
		}
		if got.CurrentRebate != nil {
			t.Errorf("valid sibling must not be written: %+v", got.CurrentRebate)
		}
	})

	t.Run("empty oneId rejects the whole request", func(t *testing.T) {
		eng := newTestEngine(t)

		_, err := eng.SetIndependentRebate(ctx, rebate.IndependentRequest{
			Platform: "douyin",
			Items:    []rebate.IndependentItem{{RebateRate: types.Percent(5)}},
		})
		if !rebate.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("unknown talent fails only its item", func(t *testing.T) {
		eng := newTestEngine(t)
		seedTalent(t, eng, "talent-1", nil)

		result, err := eng.SetIndependentRebate(ctx, rebate.IndependentRequest{
			Platform: "douyin",
			Items: []rebate.IndependentItem{
				{OneID: "talent-1", RebateRate: types.Percent(5)},
				{OneID: "ghost", RebateRate: types.Percent(5)},
			},
		})
		if err != nil {
			t.Fatal(err)
		}
		if result.Succeeded != 1 || result.Failed != 1 {
			t.Fatalf("result: %+v", result)
		}
		if result.Errors[0].Reason != "talent not found" {
			t.Errorf("reason: %q", result.Errors[0].Reason)
		}
	})

	t.Run("repeated item applies once", func(t *testing.T) {
		eng := newTestEngine(t)
		seedTalent(t, eng, "talent-1", nil)

		result, err := eng.SetIndependentRebate(ctx, rebate.IndependentRequest{
			Platform: "douyin",
			Items: []rebate.IndependentItem{
				{OneID: "talent-1", RebateRate: types.Percent(5)},
				{OneID: "talent-1", RebateRate: types.Percent(7)},
			},
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

		// The first occurrence wins.
		got, err := eng.GetTalent(ctx, "talent-1", "douyin")
		if err != nil {
			t.Fatal(err)
		}
		if !got.CurrentRebate.Rate.Equal(types.Percent(5)) {
			t.Errorf("rate: got %s", got.CurrentRebate.Rate)
		}

		records, err := eng.ListRateHistory(ctx, audit.TalentKey("talent-1", "douyin"), audit.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 ledger record, got %d", len(records))
		}
	})

	t.Run("zero rate is valid", func(t *testing.T) {
		eng := newTestEngine(t)
		seedTalent(t, eng, "talent-1", nil)

		result, err := eng.SetIndependentRebate(ctx, rebate.IndependentRequest{
			Platform: "douyin",
			Items:    []rebate.IndependentItem{{OneID: "talent-1", RebateRate: 0}},
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
		if got.CurrentRebate == nil || !got.CurrentRebate.Rate.Equal(0) {
			t.Errorf("rate: got %+v", got.CurrentRebate)
		}
	})
}
