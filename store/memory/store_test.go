package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/rebate"
	"github.com/xraph/rebate/agency"
	"github.com/xraph/rebate/audit"
	"github.com/xraph/rebate/customer"
	"github.com/xraph/rebate/id"
	"github.com/xraph/rebate/library"
	"github.com/xraph/rebate/relation"
	"github.com/xraph/rebate/talent"
	"github.com/xraph/rebate/types"
)

func TestTalentCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	tal := &talent.Talent{OneID: "one-1", Platform: "douyin"}
	if err := s.CreateTalent(ctx, tal); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateTalent(ctx, tal); !errors.Is(err, rebate.ErrAlreadyExists) {
		t.Fatalf("duplicate create: got %v", err)
	}

	// Same oneID on another platform is a distinct talent.
	if err := s.CreateTalent(ctx, &talent.Talent{OneID: "one-1", Platform: "xiaohongshu"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetTalent(ctx, "one-1", "douyin")
	if err != nil {
		t.Fatal(err)
	}
	if got.Platform != "douyin" {
		t.Errorf("platform: got %s", got.Platform)
	}

	if _, err := s.GetTalent(ctx, "ghost", "douyin"); !errors.Is(err, rebate.ErrTalentNotFound) {
		t.Fatalf("missing talent: got %v", err)
	}
}

func TestListTalentsByOneIDs(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, oneID := range []string{"a", "b", "c"} {
		if err := s.CreateTalent(ctx, &talent.Talent{OneID: oneID, Platform: "douyin"}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ListTalentsByOneIDs(ctx, "douyin", []string{"a", "ghost", "c"})
	if err != nil {
		t.Fatal(err)
	}
	// Missing ids are silently dropped; the caller classifies them.
	if len(got) != 2 {
		t.Fatalf("got %d talents", len(got))
	}
}

func TestBulkUpdateTalents(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.CreateTalent(ctx, &talent.Talent{OneID: "a", Platform: "douyin", AgencyID: "agency-01"}); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	mode := talent.ModeIndependent
	agencyID := talent.AgencyIndividual
	err := s.BulkUpdateTalents(ctx, []*talent.Update{{
		OneID:      "a",
		Platform:   "douyin",
		AgencyID:   &agencyID,
		RebateMode: &mode,
		CurrentRebate: &talent.CurrentRebate{
			Rate:   types.Percent(5),
			Source: talent.SourcePersonal,
		},
		UpdatedAt: now,
	}})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.GetTalent(ctx, "a", "douyin")
	if err != nil {
		t.Fatal(err)
	}
	if got.AgencyID != talent.AgencyIndividual || got.RebateMode != talent.ModeIndependent {
		t.Errorf("talent: %+v", got)
	}
	if !got.CurrentRebate.Rate.Equal(types.Percent(5)) {
		t.Errorf("rate: got %s", got.CurrentRebate.Rate)
	}

	// Nil fields leave the stored values alone.
	if err := s.BulkUpdateTalents(ctx, []*talent.Update{{OneID: "a", Platform: "douyin", UpdatedAt: now}}); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetTalent(ctx, "a", "douyin")
	if got.RebateMode != talent.ModeIndependent || got.CurrentRebate == nil {
		t.Errorf("partial update clobbered fields: %+v", got)
	}
}

func TestGetCustomerByCodeOrID(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.CreateCustomer(ctx, &customer.Customer{ID: "cust-1", Code: "ACME"}); err != nil {
		t.Fatal(err)
	}

	byID, err := s.GetCustomer(ctx, "cust-1")
	if err != nil {
		t.Fatal(err)
	}
	byCode, err := s.GetCustomer(ctx, "ACME")
	if err != nil {
		t.Fatal(err)
	}
	if byID != byCode {
		t.Error("id and code lookups should resolve the same customer")
	}

	if _, err := s.GetCustomer(ctx, "ghost"); !errors.Is(err, rebate.ErrCustomerNotFound) {
		t.Fatalf("missing customer: got %v", err)
	}
}

func TestRelationRebateUpdate(t *testing.T) {
	ctx := context.Background()
	s := New()

	rel := &relation.Relation{
		ID:          id.NewRelationID(),
		CustomerID:  "cust-1",
		TalentOneID: "one-1",
		Platform:    "douyin",
		Status:      relation.StatusActive,
	}
	if err := s.CreateRelation(ctx, rel); err != nil {
		t.Fatal(err)
	}

	cr := &relation.CustomerRebate{Enabled: true, Rate: types.Percent(12)}
	if err := s.UpdateRelationRebate(ctx, rel.ID, cr); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetRelation(ctx, "cust-1", "one-1", "douyin")
	if err != nil {
		t.Fatal(err)
	}
	if got.CustomerRebate == nil || !got.CustomerRebate.Rate.Equal(types.Percent(12)) {
		t.Errorf("rebate: %+v", got.CustomerRebate)
	}

	if err := s.UpdateRelationRebate(ctx, id.NewRelationID(), cr); !errors.Is(err, rebate.ErrRelationNotFound) {
		t.Fatalf("missing relation: got %v", err)
	}
}

func TestExpireConfigRecords(t *testing.T) {
	ctx := context.Background()
	s := New()
	key := audit.TalentKey("one-1", "douyin")

	mkRecord := func(rate types.Rate, createdAt time.Time) *audit.ConfigRecord {
		rec := &audit.ConfigRecord{
			ConfigID:     id.NewConfigRecordID(),
			TargetType:   key.TargetType,
			TargetID:     key.TargetID,
			Platform:     key.Platform,
			RebateRate:   rate,
			Status:       audit.StatusActive,
			ChangeSource: audit.SourceAgencyBind,
		}
		rec.CreatedAt = createdAt
		return rec
	}

	base := time.Now()
	first := mkRecord(types.Percent(8), base)
	second := mkRecord(types.Percent(10), base.Add(time.Second))
	other := mkRecord(types.Percent(3), base)
	other.TargetID = "someone-else"

	for _, rec := range []*audit.ConfigRecord{first, second, other} {
		if err := s.InsertConfigRecord(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	expired, err := s.ExpireConfigRecords(ctx, key, second.ConfigID, base.Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if expired != 1 {
		t.Fatalf("expired %d records", expired)
	}
	if first.Status != audit.StatusExpired || first.ExpiryDate == nil {
		t.Errorf("first record: %+v", first)
	}
	if second.Status != audit.StatusActive {
		t.Error("excluded record must stay active")
	}
	if other.Status != audit.StatusActive {
		t.Error("other keys must be untouched")
	}

	// Expiring again is a no-op.
	expired, err = s.ExpireConfigRecords(ctx, key, second.ConfigID, base.Add(2*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if expired != 0 {
		t.Fatalf("second pass expired %d records", expired)
	}

	newest, err := s.ListConfigRecords(ctx, key, audit.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(newest) != 2 || !newest[0].RebateRate.Equal(types.Percent(10)) {
		t.Fatalf("listing should be newest first: %+v", newest)
	}

	active, err := s.ListConfigRecords(ctx, key, audit.ListOpts{Status: audit.StatusActive})
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 {
		t.Fatalf("active records: %d", len(active))
	}
}

func TestCreateImportClearsDefault(t *testing.T) {
	ctx := context.Background()
	s := New()

	first := &library.Import{ID: id.NewImportID(), Platform: "douyin", IsDefault: true}
	if err := s.CreateImport(ctx, first, nil); err != nil {
		t.Fatal(err)
	}
	second := &library.Import{ID: id.NewImportID(), Platform: "douyin", IsDefault: true}
	if err := s.CreateImport(ctx, second, []*library.Row{
		{ID: id.NewLibraryRowID(), ImportID: second.ID, Platform: "douyin", AccountID: "acct-1", Rebate: types.Percent(8)},
	}); err != nil {
		t.Fatal(err)
	}
	// A different platform's default is untouched.
	elsewhere := &library.Import{ID: id.NewImportID(), Platform: "xiaohongshu", IsDefault: true}
	if err := s.CreateImport(ctx, elsewhere, nil); err != nil {
		t.Fatal(err)
	}

	def, err := s.GetDefaultImport(ctx, "douyin")
	if err != nil {
		t.Fatal(err)
	}
	if def.ID != second.ID {
		t.Errorf("default import: got %s", def.ID)
	}
	if first.IsDefault {
		t.Error("prior default should be cleared")
	}

	rows, err := s.ListImportRows(ctx, second.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: %d", len(rows))
	}
	if second.RowCount != 1 {
		t.Errorf("row count: %d", second.RowCount)
	}

	if _, err := s.GetDefaultImport(ctx, "kuaishou"); !errors.Is(err, rebate.ErrImportNotFound) {
		t.Fatalf("missing default: got %v", err)
	}
}

func TestAgencyListIsSorted(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, aid := range []string{"c", "a", "b"} {
		if err := s.CreateAgency(ctx, &agency.Agency{ID: aid, Name: aid}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ListAgencies(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].ID != "a" || got[2].ID != "c" {
		t.Fatalf("agencies: %+v", got)
	}
}
