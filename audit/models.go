// Package audit defines the append-mostly rebate config ledger.
//
// Every rate mutation writes one ConfigRecord. Records are immutable except
// for the active→expired transition, and at most one record per key should be
// active at a time. That invariant is best-effort: the insert-then-expire
// sequence is not transactional, so concurrent writers to the same key (or a
// crash mid-sequence) can leave extra active rows. The talent and relation
// documents stay authoritative; the ledger is an audit trail only.
package audit

import (
	"time"

	"github.com/xraph/rebate/id"
	"github.com/xraph/rebate/types"
)

// TargetType identifies what kind of entity a ledger record describes.
type TargetType string

const (
	TargetTalent         TargetType = "talent"
	TargetCustomerTalent TargetType = "customer_talent"
)

// Status is the record lifecycle state. Transitions are active→expired only.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// ChangeSource names the mutation path that produced a record.
type ChangeSource string

const (
	SourceAgencyBind       ChangeSource = "agency_bind"
	SourceAgencyUnbind     ChangeSource = "agency_unbind"
	SourceSetIndependent   ChangeSource = "set_independent"
	SourceCustomerOverride ChangeSource = "customer_override"
)

// Key addresses the ledger's one-active-record-per-key scope.
type Key struct {
	TargetType TargetType `json:"target_type"`
	TargetID   string     `json:"target_id"`
	Platform   string     `json:"platform"`
}

// TalentKey builds the ledger key for a talent's own rate.
func TalentKey(oneID, platform string) Key {
	return Key{TargetType: TargetTalent, TargetID: oneID, Platform: platform}
}

// CustomerTalentKey builds the ledger key for a customer-specific override.
// The target id is the composite "customerID:talentOneID".
func CustomerTalentKey(customerID, talentOneID, platform string) Key {
	return Key{
		TargetType: TargetCustomerTalent,
		TargetID:   customerID + ":" + talentOneID,
		Platform:   platform,
	}
}

// ConfigRecord is one rate-setting event.
type ConfigRecord struct {
	types.Entity
	ConfigID      id.ConfigRecordID `json:"config_id"`
	TargetType    TargetType        `json:"target_type"`
	TargetID      string            `json:"target_id"`
	Platform      string            `json:"platform"`
	RebateRate    types.Rate        `json:"rebate_rate"`
	PreviousRate  *types.Rate       `json:"previous_rate,omitempty"`
	EffectiveDate time.Time         `json:"effective_date"`
	ExpiryDate    *time.Time        `json:"expiry_date,omitempty"`
	Status        Status            `json:"status"`
	CreatedBy     string            `json:"created_by,omitempty"`
	ChangeSource  ChangeSource      `json:"change_source"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Key returns the record's ledger key.
func (r *ConfigRecord) Key() Key {
	return Key{TargetType: r.TargetType, TargetID: r.TargetID, Platform: r.Platform}
}

// ListOpts narrows ledger listing.
type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
