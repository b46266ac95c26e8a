// Package store defines the persistence interface for the rebate engine.
//
// Implementations live in subpackages: memory (in-process, for tests and
// ephemeral setups), mongo, and sqlite.
package store

import (
	"context"
	"time"

	"github.com/xraph/rebate/agency"
	"github.com/xraph/rebate/audit"
	"github.com/xraph/rebate/customer"
	"github.com/xraph/rebate/id"
	"github.com/xraph/rebate/library"
	"github.com/xraph/rebate/relation"
	"github.com/xraph/rebate/talent"
)

// Store is the unified persistence interface. All methods should return the
// package-level sentinel errors from the rebate package for not-found cases
// so callers can classify failures without knowing the backend.
type Store interface {
	// Talents
	CreateTalent(ctx context.Context, t *talent.Talent) error
	GetTalent(ctx context.Context, oneID, platform string) (*talent.Talent, error)
	ListTalentsByOneIDs(ctx context.Context, platform string, oneIDs []string) ([]*talent.Talent, error)
	ListTalents(ctx context.Context, platform string, opts talent.ListOpts) ([]*talent.Talent, error)
	// BulkUpdateTalents applies updates as a single batch where the backend
	// supports it. Updates for unknown talents are ignored.
	BulkUpdateTalents(ctx context.Context, updates []*talent.Update) error

	// Agencies
	CreateAgency(ctx context.Context, a *agency.Agency) error
	GetAgency(ctx context.Context, agencyID string) (*agency.Agency, error)
	ListAgencies(ctx context.Context) ([]*agency.Agency, error)

	// Customers
	CreateCustomer(ctx context.Context, c *customer.Customer) error
	// GetCustomer resolves by internal ID first, then by customer code.
	GetCustomer(ctx context.Context, codeOrID string) (*customer.Customer, error)

	// Customer-talent relations
	CreateRelation(ctx context.Context, r *relation.Relation) error
	GetRelation(ctx context.Context, customerID, talentOneID, platform string) (*relation.Relation, error)
	ListRelations(ctx context.Context, customerID string, opts relation.ListOpts) ([]*relation.Relation, error)
	// UpdateRelationRebate replaces the relation's customer override wholesale.
	UpdateRelationRebate(ctx context.Context, relationID id.RelationID, cr *relation.CustomerRebate) error

	// Rate config ledger
	InsertConfigRecord(ctx context.Context, rec *audit.ConfigRecord) error
	// ExpireConfigRecords marks every active record for the key, except
	// excludeID, as expired at the given time. Returns the number of records
	// expired.
	ExpireConfigRecords(ctx context.Context, key audit.Key, excludeID id.ConfigRecordID, at time.Time) (int64, error)
	ListConfigRecords(ctx context.Context, key audit.Key, opts audit.ListOpts) ([]*audit.ConfigRecord, error)

	// Rate library
	CreateImport(ctx context.Context, imp *library.Import, rows []*library.Row) error
	GetImport(ctx context.Context, importID id.ImportID) (*library.Import, error)
	GetDefaultImport(ctx context.Context, platform string) (*library.Import, error)
	ListImportRows(ctx context.Context, importID id.ImportID) ([]*library.Row, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
