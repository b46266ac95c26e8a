// Package memory provides an in-process Store implementation backed by maps.
// It is intended for tests and ephemeral deployments; nothing survives a
// restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/rebate"
	"github.com/xraph/rebate/agency"
	"github.com/xraph/rebate/audit"
	"github.com/xraph/rebate/customer"
	"github.com/xraph/rebate/id"
	"github.com/xraph/rebate/library"
	"github.com/xraph/rebate/relation"
	"github.com/xraph/rebate/talent"
)

type Store struct {
	mu sync.RWMutex

	// Talent storage, keyed by oneID:platform
	talents map[string]*talent.Talent

	// Agency storage, keyed by agency ID
	agencies map[string]*agency.Agency

	// Customer storage, keyed by internal ID
	customers map[string]*customer.Customer

	// Relation storage, keyed by relation ID
	relations map[string]*relation.Relation

	// Rate config ledger, append-only
	records []*audit.ConfigRecord

	// Rate library
	imports    map[string]*library.Import
	importRows map[string][]*library.Row
}

func New() *Store {
	return &Store{
		talents:    make(map[string]*talent.Talent),
		agencies:   make(map[string]*agency.Agency),
		customers:  make(map[string]*customer.Customer),
		relations:  make(map[string]*relation.Relation),
		records:    make([]*audit.ConfigRecord, 0),
		imports:    make(map[string]*library.Import),
		importRows: make(map[string][]*library.Row),
	}
}

func talentKey(oneID, platform string) string {
	return oneID + ":" + platform
}

func relationKey(customerID, talentOneID, platform string) string {
	return customerID + ":" + talentOneID + ":" + platform
}

// Talent Store implementation

func (s *Store) CreateTalent(_ context.Context, t *talent.Talent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := talentKey(t.OneID, t.Platform)
	if _, exists := s.talents[key]; exists {
		return rebate.ErrAlreadyExists
	}
	s.talents[key] = t
	return nil
}

func (s *Store) GetTalent(_ context.Context, oneID, platform string) (*talent.Talent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.talents[talentKey(oneID, platform)]; ok {
		return t, nil
	}
	return nil, rebate.ErrTalentNotFound
}

func (s *Store) ListTalentsByOneIDs(_ context.Context, platform string, oneIDs []string) ([]*talent.Talent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*talent.Talent, 0, len(oneIDs))
	for _, oneID := range oneIDs {
		if t, ok := s.talents[talentKey(oneID, platform)]; ok {
			result = append(result, t)
		}
	}
	return result, nil
}

func (s *Store) ListTalents(_ context.Context, platform string, opts talent.ListOpts) ([]*talent.Talent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*talent.Talent, 0)
	for _, t := range s.talents {
		if t.Platform != platform {
			continue
		}
		if opts.AgencyID != "" && t.AgencyID != opts.AgencyID {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].OneID < result[j].OneID })

	// Apply limit/offset
	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (s *Store) BulkUpdateTalents(_ context.Context, updates []*talent.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		t, ok := s.talents[talentKey(u.OneID, u.Platform)]
		if !ok {
			continue
		}
		if u.AgencyID != nil {
			t.AgencyID = *u.AgencyID
		}
		if u.RebateMode != nil {
			t.RebateMode = *u.RebateMode
		}
		if u.CurrentRebate != nil {
			t.CurrentRebate = u.CurrentRebate
		}
		if u.LastRebateSyncAt != nil {
			t.LastRebateSyncAt = u.LastRebateSyncAt
		}
		t.UpdatedAt = u.UpdatedAt
	}
	return nil
}

// Agency Store implementation

func (s *Store) CreateAgency(_ context.Context, a *agency.Agency) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.agencies[a.ID]; exists {
		return rebate.ErrAlreadyExists
	}
	s.agencies[a.ID] = a
	return nil
}

func (s *Store) GetAgency(_ context.Context, agencyID string) (*agency.Agency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.agencies[agencyID]; ok {
		return a, nil
	}
	return nil, rebate.ErrAgencyNotFound
}

func (s *Store) ListAgencies(_ context.Context) ([]*agency.Agency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*agency.Agency, 0, len(s.agencies))
	for _, a := range s.agencies {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Customer Store implementation

func (s *Store) CreateCustomer(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[c.ID]; exists {
		return rebate.ErrAlreadyExists
	}
	s.customers[c.ID] = c
	return nil
}

func (s *Store) GetCustomer(_ context.Context, codeOrID string) (*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.customers[codeOrID]; ok {
		return c, nil
	}
	for _, c := range s.customers {
		if c.Code == codeOrID {
			return c, nil
		}
	}
	return nil, rebate.ErrCustomerNotFound
}

// Relation Store implementation

func (s *Store) CreateRelation(_ context.Context, r *relation.Relation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.relations[r.ID.String()]; exists {
		return rebate.ErrAlreadyExists
	}
	s.relations[r.ID.String()] = r
	return nil
}

func (s *Store) GetRelation(_ context.Context, customerID, talentOneID, platform string) (*relation.Relation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := relationKey(customerID, talentOneID, platform)
	for _, r := range s.relations {
		if relationKey(r.CustomerID, r.TalentOneID, r.Platform) == want {
			return r, nil
		}
	}
	return nil, rebate.ErrRelationNotFound
}

func (s *Store) ListRelations(_ context.Context, customerID string, opts relation.ListOpts) ([]*relation.Relation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*relation.Relation, 0)
	for _, r := range s.relations {
		if r.CustomerID != customerID {
			continue
		}
		if opts.Platform != "" && r.Platform != opts.Platform {
			continue
		}
		if opts.Status != "" && r.Status != opts.Status {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TalentOneID < result[j].TalentOneID })
	return result, nil
}

func (s *Store) UpdateRelationRebate(_ context.Context, relationID id.RelationID, cr *relation.CustomerRebate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.relations[relationID.String()]
	if !ok {
		return rebate.ErrRelationNotFound
	}
	r.CustomerRebate = cr
	r.Touch()
	return nil
}

// Config ledger Store implementation

func (s *Store) InsertConfigRecord(_ context.Context, rec *audit.ConfigRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	return nil
}

func (s *Store) ExpireConfigRecords(_ context.Context, key audit.Key, excludeID id.ConfigRecordID, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired int64
	for _, rec := range s.records {
		if rec.Key() != key || rec.Status != audit.StatusActive {
			continue
		}
		if rec.ConfigID == excludeID {
			continue
		}
		rec.Status = audit.StatusExpired
		rec.ExpiryDate = &at
		rec.UpdatedAt = at
		expired++
	}
	return expired, nil
}

func (s *Store) ListConfigRecords(_ context.Context, key audit.Key, opts audit.ListOpts) ([]*audit.ConfigRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*audit.ConfigRecord, 0)
	for _, rec := range s.records {
		if rec.Key() != key {
			continue
		}
		if opts.Status != "" && rec.Status != opts.Status {
			continue
		}
		result = append(result, rec)
	}
	// Newest first
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })

	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

// Library Store implementation

func (s *Store) CreateImport(_ context.Context, imp *library.Import, rows []*library.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := imp.ID.String()
	if _, exists := s.imports[key]; exists {
		return rebate.ErrAlreadyExists
	}
	if imp.IsDefault {
		// Only one default import per platform.
		for _, other := range s.imports {
			if other.Platform == imp.Platform {
				other.IsDefault = false
			}
		}
	}
	imp.RowCount = len(rows)
	s.imports[key] = imp
	s.importRows[key] = rows
	return nil
}

func (s *Store) GetImport(_ context.Context, importID id.ImportID) (*library.Import, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if imp, ok := s.imports[importID.String()]; ok {
		return imp, nil
	}
	return nil, rebate.ErrImportNotFound
}

func (s *Store) GetDefaultImport(_ context.Context, platform string) (*library.Import, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, imp := range s.imports {
		if imp.Platform == platform && imp.IsDefault {
			return imp, nil
		}
	}
	return nil, rebate.ErrImportNotFound
}

func (s *Store) ListImportRows(_ context.Context, importID id.ImportID) ([]*library.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.importRows[importID.String()]
	if !ok {
		return nil, rebate.ErrImportNotFound
	}
	return rows, nil
}

// Lifecycle

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close(_ context.Context) error { return nil }
