// Package rebate provides a commission rate resolution and audit engine for
// talent management platforms.
//
// Rebate is designed as a library, not a service. Import it directly into
// your Go application. It provides:
//
//   - Batch agency binding and unbinding with per-item outcome reporting
//   - Independent per-talent commission rates
//   - Customer-specific rate overrides layered over talent rates
//   - A three-tier rate resolution chain (override > talent > default)
//   - An insert-then-expire audit ledger of every rate change
//   - Read-only comparison of current rates against imported rate libraries
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/rebate"
//	    "github.com/xraph/rebate/store/memory"
//	)
//
//	eng := rebate.New(memory.New())
//
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
// # Core Concepts
//
// Talents are the rate-bearing entities, keyed by (oneID, platform). A talent
// is either bound to an agency (its rate synced from the agency's base rate)
// or independent with a personal rate:
//
//	result, err := eng.BindAgency(ctx, rebate.BindRequest{
//	    Platform: "douyin",
//	    AgencyID: "agency-01",
//	    Items:    []rebate.BindItem{{OneID: "talent-1"}, {OneID: "talent-2"}},
//	})
//
// Batch operations never abort siblings: each item succeeds, is skipped, or
// fails on its own, and the returned BatchResult carries per-item errors.
//
// Customers can carry an override rate for a talent they work with. The
// effective rate for a customer-talent pair resolves through three tiers:
//
//	view, err := eng.GetCustomerRebate(ctx, "cust-01", "talent-1", "douyin")
//	// view.Effective.Rate   -> the winning rate
//	// view.Effective.Source -> customer, agency, personal or default
//
// Every rate change writes a row to the config ledger: the new row is
// inserted as active first, then prior active rows for the same target are
// expired. History is never deleted:
//
//	records, err := eng.ListRateHistory(ctx, audit.TalentKey("talent-1", "douyin"), audit.ListOpts{})
//
// # Rates
//
// All rates use integer arithmetic to avoid floating-point precision issues.
// The Rate type represents a percentage in hundredths of a percent:
//
//	types.Percent(8)     // 8%
//	types.Hundredths(850) // 8.5%
//
// # TypeID
//
// Ledger rows, relations and imports use TypeID for globally unique,
// type-safe identifiers:
//
//	cfg_01h2xcejqtf2nbrexx3vqjhp41  // Config record ID
//	rel_01h2xcejqtf2nbrexx3vqjhp41  // Relation ID
//	imp_01h455vb4pex5vsknk084sn02q  // Import ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package rebate
