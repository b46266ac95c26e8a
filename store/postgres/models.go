package postgres

import (
	"encoding/json"
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

// Nested sub-documents are serialized as JSONB columns. Rates are stored
// as int64 hundredths of a percent.

// ==================== Talent models ====================

type talentModel struct {
	grove.BaseModel `grove:"table:rebate_talents"`

	ID               string          `grove:"id,pk"` // oneID:platform
	OneID            string          `grove:"one_id"`
	Platform         string          `grove:"platform"`
	Name             string          `grove:"name"`
	AccountID        string          `grove:"account_id"`
	AgencyID         string          `grove:"agency_id"`
	RebateMode       string          `grove:"rebate_mode"`
	CurrentRebate    json.RawMessage `grove:"current_rebate"`
	LastRebateSyncAt *time.Time      `grove:"last_rebate_sync_at"`
	Metadata         json.RawMessage `grove:"metadata"`
	CreatedAt        time.Time       `grove:"created_at"`
	UpdatedAt        time.Time       `grove:"updated_at"`
}

func talentRowID(oneID, platform string) string {
	return oneID + ":" + platform
}

func toTalentModel(t *talent.Talent) *talentModel {
	current, _ := json.Marshal(t.CurrentRebate) //nolint:errcheck // best-effort
	metadata, _ := json.Marshal(t.Metadata)     //nolint:errcheck // best-effort

	return &talentModel{
		ID:               talentRowID(t.OneID, t.Platform),
		OneID:            t.OneID,
		Platform:         t.Platform,
		Name:             t.Name,
		AccountID:        t.AccountID,
		AgencyID:         t.AgencyID,
		RebateMode:       string(t.RebateMode),
		CurrentRebate:    current,
		LastRebateSyncAt: t.LastRebateSyncAt,
		Metadata:         metadata,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func fromTalentModel(m *talentModel) *talent.Talent {
	var current *talent.CurrentRebate
	if len(m.CurrentRebate) > 0 && string(m.CurrentRebate) != "null" {
		current = new(talent.CurrentRebate)
		_ = json.Unmarshal(m.CurrentRebate, current) //nolint:errcheck // best-effort
	}

	var metadata map[string]string
	if len(m.Metadata) > 0 && string(m.Metadata) != "null" {
		_ = json.Unmarshal(m.Metadata, &metadata) //nolint:errcheck // best-effort
	}

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
		CurrentRebate:    current,
		LastRebateSyncAt: m.LastRebateSyncAt,
		Metadata:         metadata,
	}
}

// ==================== Agency models ====================

type agencyModel struct {
	grove.BaseModel `grove:"table:rebate_agencies"`

	ID        string          `grove:"id,pk"`
	Name      string          `grove:"name"`
	Platforms json.RawMessage `grove:"platforms"`
	CreatedAt time.Time       `grove:"created_at"`
	UpdatedAt time.Time       `grove:"updated_at"`
}

func toAgencyModel(a *agency.Agency) *agencyModel {
	platforms, _ := json.Marshal(a.Platforms) //nolint:errcheck // best-effort

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
	if len(m.Platforms) > 0 && string(m.Platforms) != "null" {
		_ = json.Unmarshal(m.Platforms, &platforms) //nolint:errcheck // best-effort
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

	ID        string    `grove:"id,pk"`
	Code      string    `grove:"code"`
	Name      string    `grove:"name"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
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

	ID             string          `grove:"id,pk"`
	CustomerID     string          `grove:"customer_id"`
	TalentOneID    string          `grove:"talent_one_id"`
	Platform       string          `grove:"platform"`
	Status         string          `grove:"status"`
	CustomerRebate json.RawMessage `grove:"customer_rebate"`
	CreatedAt      time.Time       `grove:"created_at"`
	UpdatedAt      time.Time       `grove:"updated_at"`
}

func toRelationModel(r *relation.Relation) *relationModel {
	cr, _ := json.Marshal(r.CustomerRebate) //nolint:errcheck // best-effort

	return &relationModel{
		ID:             r.ID.String(),
		CustomerID:     r.CustomerID,
		TalentOneID:    r.TalentOneID,
		Platform:       r.Platform,
		Status:         string(r.Status),
		CustomerRebate: cr,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func fromRelationModel(m *relationModel) (*relation.Relation, error) {
	relID, err := id.ParseRelationID(m.ID)
	if err != nil {
		return nil, err
	}

	var cr *relation.CustomerRebate
	if len(m.CustomerRebate) > 0 && string(m.CustomerRebate) != "null" {
		cr = new(relation.CustomerRebate)
		_ = json.Unmarshal(m.CustomerRebate, cr) //nolint:errcheck // best-effort
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
		CustomerRebate: cr,
	}, nil
}

// ==================== Config record models ====================

type configRecordModel struct {
	grove.BaseModel `grove:"table:rebate_config_records"`

	ID            string          `grove:"id,pk"`
	TargetType    string          `grove:"target_type"`
	TargetID      string          `grove:"target_id"`
	Platform      string          `grove:"platform"`
	RebateRate    int64           `grove:"rebate_rate"`
	PreviousRate  *int64          `grove:"previous_rate"`
	EffectiveDate time.Time       `grove:"effective_date"`
	ExpiryDate    *time.Time      `grove:"expiry_date"`
	Status        string          `grove:"status"`
	CreatedBy     string          `grove:"created_by"`
	ChangeSource  string          `grove:"change_source"`
	Metadata      json.RawMessage `grove:"metadata"`
	CreatedAt     time.Time       `grove:"created_at"`
	UpdatedAt     time.Time       `grove:"updated_at"`
}

func toConfigRecordModel(r *audit.ConfigRecord) *configRecordModel {
	var prev *int64
	if r.PreviousRate != nil {
		v := int64(*r.PreviousRate)
		prev = &v
	}
	metadata, _ := json.Marshal(r.Metadata) //nolint:errcheck // best-effort

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
		Metadata:      metadata,
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

	var metadata map[string]string
	if len(m.Metadata) > 0 && string(m.Metadata) != "null" {
		_ = json.Unmarshal(m.Metadata, &metadata) //nolint:errcheck // best-effort
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
		Metadata:      metadata,
	}, nil
}

// ==================== Library models ====================

type importModel struct {
	grove.BaseModel `grove:"table:rebate_imports"`

	ID        string    `grove:"id,pk"`
	Platform  string    `grove:"platform"`
	Name      string    `grove:"name"`
	IsDefault bool      `grove:"is_default"`
	RowCount  int       `grove:"row_count"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
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

	ID         string    `grove:"id,pk"`
	ImportID   string    `grove:"import_id"`
	Platform   string    `grove:"platform"`
	AccountID  string    `grove:"account_id"`
	AgencyName string    `grove:"agency_name"`
	Rebate     int64     `grove:"rebate"`
	CreatedAt  time.Time `grove:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"`
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
