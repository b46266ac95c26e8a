package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/rebate/agency"
	"github.com/xraph/rebate/audit"
	"github.com/xraph/rebate/customer"
	"github.com/xraph/rebate/id"
	"github.com/xraph/rebate/library"
	"github.com/xraph/rebate/relation"
	"github.com/xraph/rebate/talent"
	"github.com/xraph/rebate/types"
)

// Rates are persisted as int64 hundredths of a percent.

// ==================== Talent models ====================

type talentModel struct {
	grove.BaseModel `grove:"table:rebate_talents"`

	ID               string              `grove:"id,pk"               bson:"_id"` // oneID:platform
	OneID            string              `grove:"one_id"              bson:"one_id"`
	Platform         string              `grove:"platform"            bson:"platform"`
	Name             string              `grove:"name"                bson:"name"`
	AccountID        string              `grove:"account_id"          bson:"account_id"`
	AgencyID         string              `grove:"agency_id"           bson:"agency_id"`
	RebateMode       string              `grove:"rebate_mode"         bson:"rebate_mode"`
	CurrentRebate    *currentRebateModel `grove:"current_rebate"      bson:"current_rebate,omitempty"`
	LastRebateSyncAt *time.Time          `grove:"last_rebate_sync_at" bson:"last_rebate_sync_at,omitempty"`
	Metadata         map[string]string   `grove:"metadata"            bson:"metadata,omitempty"`
	CreatedAt        time.Time           `grove:"created_at"          bson:"created_at"`
	UpdatedAt        time.Time           `grove:"updated_at"          bson:"updated_at"`
}

type currentRebateModel struct {
	Rate          int64     `bson:"rate"`
	Source        string    `bson:"source"`
	EffectiveDate time.Time `bson:"effective_date"`
	LastUpdated   time.Time `bson:"last_updated"`
}

func talentDocID(oneID, platform string) string {
	return oneID + ":" + platform
}

func toCurrentRebateModel(cr *talent.CurrentRebate) *currentRebateModel {
	if cr == nil {
		return nil
	}
	return &currentRebateModel{
		Rate:          int64(cr.Rate),
		Source:        string(cr.Source),
		EffectiveDate: cr.EffectiveDate,
		LastUpdated:   cr.LastUpdated,
	}
}

func fromCurrentRebateModel(m *currentRebateModel) *talent.CurrentRebate {
	if m == nil {
		return nil
	}
	return &talent.CurrentRebate{
		Rate:          types.Rate(m.Rate),
		Source:        talent.Source(m.Source),
		EffectiveDate: m.EffectiveDate,
		LastUpdated:   m.LastUpdated,
	}
}

func toTalentModel(t *talent.Talent) *talentModel {
	return &talentModel{
		ID:               talentDocID(t.OneID, t.Platform),
		OneID:            t.OneID,
		Platform:         t.Platform,
		Name:             t.Name,
		AccountID:        t.AccountID,
		AgencyID:         t.AgencyID,
		RebateMode:       string(t.RebateMode),
		CurrentRebate:    toCurrentRebateModel(t.CurrentRebate),
		LastRebateSyncAt: t.LastRebateSyncAt,
		Metadata:         t.Metadata,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func fromTalentModel(m *talentModel) *talent.Talent {
	return &talent.Talent{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		OneID:            m.OneID,
		Platform:         m.Platform,
		Name:             m.Name,
		AccountID:        m.AccountID,
		AgencyID:         m.AgencyID,
		RebateMode:       talent.RebateMode(m.RebateMode),
		CurrentRebate:    fromCurrentRebateModel(m.CurrentRebate),
		LastRebateSyncAt: m.LastRebateSyncAt,
		Metadata:         m.Metadata,
	}
}

// ==================== Agency models ====================

type agencyModel struct {
	grove.BaseModel `grove:"table:rebate_agencies"`

	ID        string                         `grove:"id,pk"      bson:"_id"`
	Name      string                         `grove:"name"       bson:"name"`
	Platforms map[string]platformConfigModel `grove:"platforms"  bson:"platforms,omitempty"`
	CreatedAt time.Time                      `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time                      `grove:"updated_at" bson:"updated_at"`
}

type platformConfigModel struct {
	BaseRebate int64 `bson:"base_rebate"`
}

func toAgencyModel(a *agency.Agency) *agencyModel {
	var platforms map[string]platformConfigModel
	if a.Platforms != nil {
		platforms = make(map[string]platformConfigModel, len(a.Platforms))
		for p, cfg := range a.Platforms {
			platforms[p] = platformConfigModel{BaseRebate: int64(cfg.BaseRebate)}
		}
	}
	return &agencyModel{
		ID:        a.ID,
		Name:      a.Name,
		Platforms: platforms,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func fromAgencyModel(m *agencyModel) *agency.Agency {
	var platforms map[string]agency.PlatformConfig
	if m.Platforms != nil {
		platforms = make(map[string]agency.PlatformConfig, len(m.Platforms))
		for p, cfg := range m.Platforms {
			platforms[p] = agency.PlatformConfig{BaseRebate: types.Rate(cfg.BaseRebate)}
		}
	}
	return &agency.Agency{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        m.ID,
		Name:      m.Name,
		Platforms: platforms,
	}
}

// ==================== Customer models ====================

type customerModel struct {
	grove.BaseModel `grove:"table:rebate_customers"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	Code      string    `grove:"code"       bson:"code"`
	Name      string    `grove:"name"       bson:"name"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toCustomerModel(c *customer.Customer) *customerModel {
	return &customerModel{
		ID:        c.ID,
		Code:      c.Code,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func fromCustomerModel(m *customerModel) *customer.Customer {
	return &customer.Customer{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:   m.ID,
		Code: m.Code,
		Name: m.Name,
	}
}

// ==================== Relation models ====================

type relationModel struct {
	grove.BaseModel `grove:"table:rebate_relations"`

	ID             string               `grove:"id,pk"           bson:"_id"`
	CustomerID     string               `grove:"customer_id"     bson:"customer_id"`
	TalentOneID    string               `grove:"talent_one_id"   bson:"talent_one_id"`
	Platform       string               `grove:"platform"        bson:"platform"`
	Status         string               `grove:"status"          bson:"status"`
	CustomerRebate *customerRebateModel `grove:"customer_rebate" bson:"customer_rebate,omitempty"`
	CreatedAt      time.Time            `grove:"created_at"      bson:"created_at"`
	UpdatedAt      time.Time            `grove:"updated_at"      bson:"updated_at"`
}

type customerRebateModel struct {
	Enabled       bool      `bson:"enabled"`
	Rate          int64     `bson:"rate"`
	EffectiveDate time.Time `bson:"effective_date"`
	LastUpdatedAt time.Time `bson:"last_updated_at"`
	UpdatedBy     string    `bson:"updated_by,omitempty"`
	Notes         string    `bson:"notes,omitempty"`
}

func toCustomerRebateModel(cr *relation.CustomerRebate) *customerRebateModel {
	if cr == nil {
		return nil
	}
	return &customerRebateModel{
		Enabled:       cr.Enabled,
		Rate:          int64(cr.Rate),
		EffectiveDate: cr.EffectiveDate,
		LastUpdatedAt: cr.LastUpdatedAt,
		UpdatedBy:     cr.UpdatedBy,
		Notes:         cr.Notes,
	}
}

func fromCustomerRebateModel(m *customerRebateModel) *relation.CustomerRebate {
	if m == nil {
		return nil
	}
	return &relation.CustomerRebate{
		Enabled:       m.Enabled,
		Rate:          types.Rate(m.Rate),
		EffectiveDate: m.EffectiveDate,
		LastUpdatedAt: m.LastUpdatedAt,
		UpdatedBy:     m.UpdatedBy,
		Notes:         m.Notes,
	}
}

func toRelationModel(r *relation.Relation) *relationModel {
	return &relationModel{
		ID:             r.ID.String(),
		CustomerID:     r.CustomerID,
		TalentOneID:    r.TalentOneID,
		Platform:       r.Platform,
		Status:         string(r.Status),
		CustomerRebate: toCustomerRebateModel(r.CustomerRebate),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func fromRelationModel(m *relationModel) (*relation.Relation, error) {
	relID, err := id.ParseRelationID(m.ID)
	if err != nil {
		return nil, err
	}
	return &relation.Relation{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             relID,
		CustomerID:     m.CustomerID,
		TalentOneID:    m.TalentOneID,
		Platform:       m.Platform,
		Status:         relation.Status(m.Status),
		CustomerRebate: fromCustomerRebateModel(m.CustomerRebate),
	}, nil
}

// ==================== Config record models ====================

type configRecordModel struct {
	grove.BaseModel `grove:"table:rebate_config_records"`

	ID            string            `grove:"id,pk"          bson:"_id"`
	TargetType    string            `grove:"target_type"    bson:"target_type"`
	TargetID      string            `grove:"target_id"      bson:"target_id"`
	Platform      string            `grove:"platform"       bson:"platform"`
	RebateRate    int64             `grove:"rebate_rate"    bson:"rebate_rate"`
	PreviousRate  *int64            `grove:"previous_rate"  bson:"previous_rate,omitempty"`
	EffectiveDate time.Time         `grove:"effective_date" bson:"effective_date"`
	ExpiryDate    *time.Time        `grove:"expiry_date"    bson:"expiry_date,omitempty"`
	Status        string            `grove:"status"         bson:"status"`
	CreatedBy     string            `grove:"created_by"     bson:"created_by,omitempty"`
	ChangeSource  string            `grove:"change_source"  bson:"change_source"`
	Metadata      map[string]string `grove:"metadata"       bson:"metadata,omitempty"`
	CreatedAt     time.Time         `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time         `grove:"updated_at"     bson:"updated_at"`
}

func toConfigRecordModel(r *audit.ConfigRecord) *configRecordModel {
	var prev *int64
	if r.PreviousRate != nil {
		v := int64(*r.PreviousRate)
		prev = &v
	}
	return &configRecordModel{
		ID:            r.ConfigID.String(),
		TargetType:    string(r.TargetType),
		TargetID:      r.TargetID,
		Platform:      r.Platform,
		RebateRate:    int64(r.RebateRate),
		PreviousRate:  prev,
		EffectiveDate: r.EffectiveDate,
		ExpiryDate:    r.ExpiryDate,
		Status:        string(r.Status),
		CreatedBy:     r.CreatedBy,
		ChangeSource:  string(r.ChangeSource),
		Metadata:      r.Metadata,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func fromConfigRecordModel(m *configRecordModel) (*audit.ConfigRecord, error) {
	configID, err := id.ParseConfigRecordID(m.ID)
	if err != nil {
		return nil, err
	}
	var prev *types.Rate
	if m.PreviousRate != nil {
		v := types.Rate(*m.PreviousRate)
		prev = &v
	}
	return &audit.ConfigRecord{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ConfigID:      configID,
		TargetType:    audit.TargetType(m.TargetType),
		TargetID:      m.TargetID,
		Platform:      m.Platform,
		RebateRate:    types.Rate(m.RebateRate),
		PreviousRate:  prev,
		EffectiveDate: m.EffectiveDate,
		ExpiryDate:    m.ExpiryDate,
		Status:        audit.Status(m.Status),
		CreatedBy:     m.CreatedBy,
		ChangeSource:  audit.ChangeSource(m.ChangeSource),
		Metadata:      m.Metadata,
	}, nil
}

// ==================== Library models ====================

type importModel struct {
	grove.BaseModel `grove:"table:rebate_imports"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	Platform  string    `grove:"platform"   bson:"platform"`
	Name      string    `grove:"name"       bson:"name"`
	IsDefault bool      `grove:"is_default" bson:"is_default"`
	RowCount  int       `grove:"row_count"  bson:"row_count"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toImportModel(imp *library.Import) *importModel {
	return &importModel{
		ID:        imp.ID.String(),
		Platform:  imp.Platform,
		Name:      imp.Name,
		IsDefault: imp.IsDefault,
		RowCount:  imp.RowCount,
		CreatedAt: imp.CreatedAt,
		UpdatedAt: imp.UpdatedAt,
	}
}

func fromImportModel(m *importModel) (*library.Import, error) {
	importID, err := id.ParseImportID(m.ID)
	if err != nil {
		return nil, err
	}
	return &library.Import{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        importID,
		Platform:  m.Platform,
		Name:      m.Name,
		IsDefault: m.IsDefault,
		RowCount:  m.RowCount,
	}, nil
}

type libraryRowModel struct {
	grove.BaseModel `grove:"table:rebate_library_rows"`

	ID         string    `grove:"id,pk"       bson:"_id"`
	ImportID   string    `grove:"import_id"   bson:"import_id"`
	Platform   string    `grove:"platform"    bson:"platform"`
	AccountID  string    `grove:"account_id"  bson:"account_id"`
	AgencyName string    `grove:"agency_name" bson:"agency_name"`
	Rebate     int64     `grove:"rebate"      bson:"rebate"`
	CreatedAt  time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"  bson:"updated_at"`
}

func toLibraryRowModel(r *library.Row) *libraryRowModel {
	return &libraryRowModel{
		ID:         r.ID.String(),
		ImportID:   r.ImportID.String(),
		Platform:   r.Platform,
		AccountID:  r.AccountID,
		AgencyName: r.AgencyName,
		Rebate:     int64(r.Rebate),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func fromLibraryRowModel(m *libraryRowModel) (*library.Row, error) {
	rowID, err := id.ParseLibraryRowID(m.ID)
	if err != nil {
		return nil, err
	}
	importID, err := id.ParseImportID(m.ImportID)
	if err != nil {
		return nil, err
	}
	return &library.Row{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         rowID,
		ImportID:   importID,
		Platform:   m.Platform,
		AccountID:  m.AccountID,
		AgencyName: m.AgencyName,
		Rebate:     types.Rate(m.Rebate),
	}, nil
}
