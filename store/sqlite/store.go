package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	rebate "github.com/xraph/rebate"
	"github.com/xraph/rebate/agency"
	"github.com/xraph/rebate/audit"
	"github.com/xraph/rebate/customer"
	"github.com/xraph/rebate/id"
	"github.com/xraph/rebate/library"
	"github.com/xraph/rebate/relation"
	rebatestore "github.com/xraph/rebate/store"
	"github.com/xraph/rebate/talent"
)

// compile-time interface check
var _ rebatestore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("rebate/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("rebate/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}

// ==================== Talent Store ====================

func (s *Store) CreateTalent(ctx context.Context, t *talent.Talent) error {
	m := toTalentModel(t)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetTalent(ctx context.Context, oneID, platform string) (*talent.Talent, error) {
	m := new(talentModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", talentRowID(oneID, platform)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, rebate.ErrTalentNotFound
		}
		return nil, err
	}
	return fromTalentModel(m), nil
}

func (s *Store) ListTalentsByOneIDs(ctx context.Context, platform string, oneIDs []string) ([]*talent.Talent, error) {
	if len(oneIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(oneIDs)), ", ")
	args := make([]any, len(oneIDs))
	for i, oneID := range oneIDs {
		args[i] = oneID
	}

	var models []talentModel
	err := s.sdb.NewSelect(&models).
		Where("platform = ?", platform).
		Where("one_id IN ("+placeholders+")", args...).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*talent.Talent, len(models))
	for i := range models {
		result[i] = fromTalentModel(&models[i])
	}
	return result, nil
}

func (s *Store) ListTalents(ctx context.Context, platform string, opts talent.ListOpts) ([]*talent.Talent, error) {
	var models []talentModel
	q := s.sdb.NewSelect(&models).Where("platform = ?", platform)

	if opts.AgencyID != "" {
		q = q.Where("agency_id = ?", opts.AgencyID)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("one_id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*talent.Talent, len(models))
	for i := range models {
		result[i] = fromTalentModel(&models[i])
	}
	return result, nil
}

// BulkUpdateTalents applies the updates sequentially. SQLite has no native
// bulk update; each update targets a distinct row so ordering is irrelevant.
func (s *Store) BulkUpdateTalents(ctx context.Context, updates []*talent.Update) error {
	for _, u := range updates {
		q := s.sdb.NewUpdate((*talentModel)(nil)).
			Set("updated_at = ?", u.UpdatedAt).
			Where("id = ?", talentRowID(u.OneID, u.Platform))

		if u.AgencyID != nil {
			q = q.Set("agency_id = ?", *u.AgencyID)
		}
		if u.RebateMode != nil {
			q = q.Set("rebate_mode = ?", string(*u.RebateMode))
		}
		if u.CurrentRebate != nil {
			cr := toTalentModel(&talent.Talent{CurrentRebate: u.CurrentRebate}).CurrentRebate
			q = q.Set("current_rebate = ?", string(cr))
		}
		if u.LastRebateSyncAt != nil {
			q = q.Set("last_rebate_sync_at = ?", *u.LastRebateSyncAt)
		}

		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("rebate/sqlite: bulk update talent %s: %w", u.OneID, err)
		}
	}
	return nil
}

// ==================== Agency Store ====================

func (s *Store) CreateAgency(ctx context.Context, a *agency.Agency) error {
	m := toAgencyModel(a)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetAgency(ctx context.Context, agencyID string) (*agency.Agency, error) {
	m := new(agencyModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", agencyID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, rebate.ErrAgencyNotFound
		}
		return nil, err
	}
	return fromAgencyModel(m), nil
}

func (s *Store) ListAgencies(ctx context.Context) ([]*agency.Agency, error) {
	var models []agencyModel
	err := s.sdb.NewSelect(&models).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*agency.Agency, len(models))
	for i := range models {
		result[i] = fromAgencyModel(&models[i])
	}
	return result, nil
}

// ==================== Customer Store ====================

func (s *Store) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	m := toCustomerModel(c)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetCustomer(ctx context.Context, codeOrID string) (*customer.Customer, error) {
	m := new(customerModel)
	err := s.sdb.NewSelect(m).
		Where("(id = ? OR code = ?)", codeOrID, codeOrID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, rebate.ErrCustomerNotFound
		}
		return nil, err
	}
	return fromCustomerModel(m), nil
}

// ==================== Relation Store ====================

func (s *Store) CreateRelation(ctx context.Context, r *relation.Relation) error {
	m := toRelationModel(r)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetRelation(ctx context.Context, customerID, talentOneID, platform string) (*relation.Relation, error) {
	m := new(relationModel)
	err := s.sdb.NewSelect(m).
		Where("customer_id = ?", customerID).
		Where("talent_one_id = ?", talentOneID).
		Where("platform = ?", platform).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, rebate.ErrRelationNotFound
		}
		return nil, err
	}
	return fromRelationModel(m)
}

func (s *Store) ListRelations(ctx context.Context, customerID string, opts relation.ListOpts) ([]*relation.Relation, error) {
	var models []relationModel
	q := s.sdb.NewSelect(&models).Where("customer_id = ?", customerID)

	if opts.Platform != "" {
		q = q.Where("platform = ?", opts.Platform)
	}
	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("talent_one_id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*relation.Relation, len(models))
	for i := range models {
		r, err := fromRelationModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) UpdateRelationRebate(ctx context.Context, relationID id.RelationID, cr *relation.CustomerRebate) error {
	payload := toRelationModel(&relation.Relation{CustomerRebate: cr}).CustomerRebate

	res, err := s.sdb.NewUpdate((*relationModel)(nil)).
		Set("customer_rebate = ?", string(payload)).
		Set("updated_at = ?", now()).
		Where("id = ?", relationID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return rebate.ErrRelationNotFound
	}
	return nil
}

// ==================== Config Record Store ====================

func (s *Store) InsertConfigRecord(ctx context.Context, rec *audit.ConfigRecord) error {
	m := toConfigRecordModel(rec)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) ExpireConfigRecords(ctx context.Context, key audit.Key, excludeID id.ConfigRecordID, at time.Time) (int64, error) {
	res, err := s.sdb.NewUpdate((*configRecordModel)(nil)).
		Set("status = ?", string(audit.StatusExpired)).
		Set("expiry_date = ?", at).
		Set("updated_at = ?", at).
		Where("target_type = ?", string(key.TargetType)).
		Where("target_id = ?", key.TargetID).
		Where("platform = ?", key.Platform).
		Where("status = ?", string(audit.StatusActive)).
		Where("id != ?", excludeID.String()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) ListConfigRecords(ctx context.Context, key audit.Key, opts audit.ListOpts) ([]*audit.ConfigRecord, error) {
	var models []configRecordModel
	q := s.sdb.NewSelect(&models).
		Where("target_type = ?", string(key.TargetType)).
		Where("target_id = ?", key.TargetID).
		Where("platform = ?", key.Platform)

	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*audit.ConfigRecord, len(models))
	for i := range models {
		rec, err := fromConfigRecordModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = rec
	}
	return result, nil
}

// ==================== Library Store ====================

func (s *Store) CreateImport(ctx context.Context, imp *library.Import, rows []*library.Row) error {
	if imp.IsDefault {
		// Only one default import per platform.
		_, err := s.sdb.NewUpdate((*importModel)(nil)).
			Set("is_default = ?", false).
			Set("updated_at = ?", now()).
			Where("platform = ?", imp.Platform).
			Where("is_default = ?", true).
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	imp.RowCount = len(rows)
	m := toImportModel(imp)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return err
	}

	if len(rows) > 0 {
		models := make([]libraryRowModel, len(rows))
		for i, row := range rows {
			models[i] = *toLibraryRowModel(row)
		}
		if _, err := s.sdb.NewInsert(&models).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) GetImport(ctx context.Context, importID id.ImportID) (*library.Import, error) {
	m := new(importModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", importID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, rebate.ErrImportNotFound
		}
		return nil, err
	}
	return fromImportModel(m)
}

func (s *Store) GetDefaultImport(ctx context.Context, platform string) (*library.Import, error) {
	m := new(importModel)
	err := s.sdb.NewSelect(m).
		Where("platform = ?", platform).
		Where("is_default = ?", true).
		OrderExpr("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, rebate.ErrImportNotFound
		}
		return nil, err
	}
	return fromImportModel(m)
}

func (s *Store) ListImportRows(ctx context.Context, importID id.ImportID) ([]*library.Row, error) {
	var models []libraryRowModel
	err := s.sdb.NewSelect(&models).
		Where("import_id = ?", importID.String()).
		OrderExpr("account_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*library.Row, len(models))
	for i := range models {
		row, err := fromLibraryRowModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = row
	}
	return result, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
