package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

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

// Collection name constants.
const (
	colTalents       = "rebate_talents"
	colAgencies      = "rebate_agencies"
	colCustomers     = "rebate_customers"
	colRelations     = "rebate_relations"
	colConfigRecords = "rebate_config_records"
	colImports       = "rebate_imports"
	colLibraryRows   = "rebate_library_rows"
)

// compile-time interface check
var _ rebatestore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all rebate collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("rebate/mongo: migrate %s indexes: %w", col, err)
		}
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return rebate.ErrAlreadyExists
		}
		return fmt.Errorf("rebate/mongo: create talent: %w", err)
	}
	return nil
}

func (s *Store) GetTalent(ctx context.Context, oneID, platform string) (*talent.Talent, error) {
	var m talentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": talentDocID(oneID, platform)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rebate.ErrTalentNotFound
		}
		return nil, fmt.Errorf("rebate/mongo: get talent: %w", err)
	}
	return fromTalentModel(&m), nil
}

func (s *Store) ListTalentsByOneIDs(ctx context.Context, platform string, oneIDs []string) ([]*talent.Talent, error) {
	if len(oneIDs) == 0 {
		return nil, nil
	}

	var models []talentModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"platform": platform, "one_id": bson.M{"$in": oneIDs}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebate/mongo: list talents by one ids: %w", err)
	}

	result := make([]*talent.Talent, len(models))
	for i := range models {
		result[i] = fromTalentModel(&models[i])
	}
	return result, nil
}

func (s *Store) ListTalents(ctx context.Context, platform string, opts talent.ListOpts) ([]*talent.Talent, error) {
	var models []talentModel

	filter := bson.M{"platform": platform}
	if opts.AgencyID != "" {
		filter["agency_id"] = opts.AgencyID
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "one_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rebate/mongo: list talents: %w", err)
	}

	result := make([]*talent.Talent, len(models))
	for i := range models {
		result[i] = fromTalentModel(&models[i])
	}
	return result, nil
}

// BulkUpdateTalents applies all updates in one unordered bulk write.
// Nil pointer fields are left untouched; updates for unknown talents match
// nothing and are silently dropped.
func (s *Store) BulkUpdateTalents(ctx context.Context, updates []*talent.Update) error {
	if len(updates) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		set := bson.M{"updated_at": u.UpdatedAt}
		if u.AgencyID != nil {
			set["agency_id"] = *u.AgencyID
		}
		if u.RebateMode != nil {
			set["rebate_mode"] = string(*u.RebateMode)
		}
		if u.CurrentRebate != nil {
			set["current_rebate"] = toCurrentRebateModel(u.CurrentRebate)
		}
		if u.LastRebateSyncAt != nil {
			set["last_rebate_sync_at"] = *u.LastRebateSyncAt
		}

		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": talentDocID(u.OneID, u.Platform)}).
			SetUpdate(bson.M{"$set": set}))
	}

	_, err := s.mdb.Collection(colTalents).BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("rebate/mongo: bulk update talents: %w", err)
	}
	return nil
}

// ==================== Agency Store ====================

func (s *Store) CreateAgency(ctx context.Context, a *agency.Agency) error {
	m := toAgencyModel(a)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return rebate.ErrAlreadyExists
		}
		return fmt.Errorf("rebate/mongo: create agency: %w", err)
	}
	return nil
}

func (s *Store) GetAgency(ctx context.Context, agencyID string) (*agency.Agency, error) {
	var m agencyModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": agencyID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rebate.ErrAgencyNotFound
		}
		return nil, fmt.Errorf("rebate/mongo: get agency: %w", err)
	}
	return fromAgencyModel(&m), nil
}

func (s *Store) ListAgencies(ctx context.Context) ([]*agency.Agency, error) {
	var models []agencyModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebate/mongo: list agencies: %w", err)
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return rebate.ErrAlreadyExists
		}
		return fmt.Errorf("rebate/mongo: create customer: %w", err)
	}
	return nil
}

func (s *Store) GetCustomer(ctx context.Context, codeOrID string) (*customer.Customer, error) {
	var m customerModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"$or": bson.A{
			bson.M{"_id": codeOrID},
			bson.M{"code": codeOrID},
		}}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rebate.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("rebate/mongo: get customer: %w", err)
	}
	return fromCustomerModel(&m), nil
}

// ==================== Relation Store ====================

func (s *Store) CreateRelation(ctx context.Context, r *relation.Relation) error {
	m := toRelationModel(r)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return rebate.ErrAlreadyExists
		}
		return fmt.Errorf("rebate/mongo: create relation: %w", err)
	}
	return nil
}

func (s *Store) GetRelation(ctx context.Context, customerID, talentOneID, platform string) (*relation.Relation, error) {
	var m relationModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"customer_id":   customerID,
			"talent_one_id": talentOneID,
			"platform":      platform,
		}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rebate.ErrRelationNotFound
		}
		return nil, fmt.Errorf("rebate/mongo: get relation: %w", err)
	}
	return fromRelationModel(&m)
}

func (s *Store) ListRelations(ctx context.Context, customerID string, opts relation.ListOpts) ([]*relation.Relation, error) {
	var models []relationModel

	filter := bson.M{"customer_id": customerID}
	if opts.Platform != "" {
		filter["platform"] = opts.Platform
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "talent_one_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rebate/mongo: list relations: %w", err)
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
	res, err := s.mdb.NewUpdate((*relationModel)(nil)).
		Filter(bson.M{"_id": relationID.String()}).
		Set("customer_rebate", toCustomerRebateModel(cr)).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rebate/mongo: update relation rebate: %w", err)
	}
	if res.MatchedCount() == 0 {
		return rebate.ErrRelationNotFound
	}
	return nil
}

// ==================== Config Record Store ====================

func (s *Store) InsertConfigRecord(ctx context.Context, rec *audit.ConfigRecord) error {
	m := toConfigRecordModel(rec)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("rebate/mongo: insert config record: %w", err)
	}
	return nil
}

func (s *Store) ExpireConfigRecords(ctx context.Context, key audit.Key, excludeID id.ConfigRecordID, at time.Time) (int64, error) {
	res, err := s.mdb.NewUpdate((*configRecordModel)(nil)).
		Filter(bson.M{
			"target_type": string(key.TargetType),
			"target_id":   key.TargetID,
			"platform":    key.Platform,
			"status":      string(audit.StatusActive),
			"_id":         bson.M{"$ne": excludeID.String()},
		}).
		SetUpdate(bson.M{"$set": bson.M{
			"status":      string(audit.StatusExpired),
			"expiry_date": at,
			"updated_at":  at,
		}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("rebate/mongo: expire config records: %w", err)
	}
	return res.MatchedCount(), nil
}

func (s *Store) ListConfigRecords(ctx context.Context, key audit.Key, opts audit.ListOpts) ([]*audit.ConfigRecord, error) {
	var models []configRecordModel

	filter := bson.M{
		"target_type": string(key.TargetType),
		"target_id":   key.TargetID,
		"platform":    key.Platform,
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rebate/mongo: list config records: %w", err)
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
		_, err := s.mdb.NewUpdate((*importModel)(nil)).
			Filter(bson.M{"platform": imp.Platform, "is_default": true}).
			SetUpdate(bson.M{"$set": bson.M{"is_default": false, "updated_at": now()}}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("rebate/mongo: clear default import: %w", err)
		}
	}

	imp.RowCount = len(rows)
	m := toImportModel(imp)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return rebate.ErrAlreadyExists
		}
		return fmt.Errorf("rebate/mongo: create import: %w", err)
	}

	for _, row := range rows {
		rm := toLibraryRowModel(row)
		if _, err := s.mdb.NewInsert(rm).Exec(ctx); err != nil {
			return fmt.Errorf("rebate/mongo: insert library row: %w", err)
		}
	}
	return nil
}

func (s *Store) GetImport(ctx context.Context, importID id.ImportID) (*library.Import, error) {
	var m importModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": importID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rebate.ErrImportNotFound
		}
		return nil, fmt.Errorf("rebate/mongo: get import: %w", err)
	}
	return fromImportModel(&m)
}

func (s *Store) GetDefaultImport(ctx context.Context, platform string) (*library.Import, error) {
	var m importModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"platform": platform, "is_default": true}).
		Sort(bson.D{{Key: "created_at", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rebate.ErrImportNotFound
		}
		return nil, fmt.Errorf("rebate/mongo: get default import: %w", err)
	}
	return fromImportModel(&m)
}

func (s *Store) ListImportRows(ctx context.Context, importID id.ImportID) ([]*library.Row, error) {
	var models []libraryRowModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"import_id": importID.String()}).
		Sort(bson.D{{Key: "account_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebate/mongo: list import rows: %w", err)
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all rebate collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colTalents: {
			{
				Keys:    bson.D{{Key: "platform", Value: 1}, {Key: "one_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "platform", Value: 1}, {Key: "agency_id", Value: 1}}},
			{Keys: bson.D{{Key: "platform", Value: 1}, {Key: "account_id", Value: 1}}},
		},
		colAgencies: {
			{Keys: bson.D{{Key: "name", Value: 1}}},
		},
		colCustomers: {
			{
				Keys:    bson.D{{Key: "code", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
		},
		colRelations: {
			{
				Keys:    bson.D{{Key: "customer_id", Value: 1}, {Key: "talent_one_id", Value: 1}, {Key: "platform", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		colConfigRecords: {
			{Keys: bson.D{{Key: "target_type", Value: 1}, {Key: "target_id", Value: 1}, {Key: "platform", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "target_type", Value: 1}, {Key: "target_id", Value: 1}, {Key: "platform", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colImports: {
			{Keys: bson.D{{Key: "platform", Value: 1}, {Key: "is_default", Value: 1}}},
		},
		colLibraryRows: {
			{Keys: bson.D{{Key: "import_id", Value: 1}, {Key: "account_id", Value: 1}}},
		},
	}
}
