// Package relation defines the customer-talent relation and its optional
// customer-specific rate override.
package relation

import (
	"time"

	"github.com/xraph/rebate/id"
	"github.com/xraph/rebate/types"
)

// Status is the relation lifecycle state. It is independent of whether a
// CustomerRebate override is present.
type Status string

const (
	StatusActive  Status = "active"
	StatusRemoved Status = "removed"
)

// CustomerRebate is a customer-specific rate override for one talent.
// Updates replace this sub-document wholesale; they never merge.
type CustomerRebate struct {
	Enabled       bool       `json:"enabled"`
	Rate          types.Rate `json:"rate"`
	EffectiveDate time.Time  `json:"effective_date,omitempty"`
	LastUpdatedAt time.Time  `json:"last_updated_at"`
	UpdatedBy     string     `json:"updated_by,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// Relation links one customer to one talent on one platform. The composite
// business key is (CustomerID, TalentOneID, Platform).
type Relation struct {
	types.Entity
	ID             id.RelationID   `json:"id"`
	CustomerID     string          `json:"customer_id"`
	TalentOneID    string          `json:"talent_one_id"`
	Platform       string          `json:"platform"`
	Status         Status          `json:"status"`
	CustomerRebate *CustomerRebate `json:"customer_rebate,omitempty"`
}

// IsActive reports whether the relation is in the active state.
func (r *Relation) IsActive() bool { return r.Status == StatusActive }

// EnabledRate returns the override rate if the override is present and
// enabled.
func (r *Relation) EnabledRate() (types.Rate, bool) {
	if r.CustomerRebate == nil || !r.CustomerRebate.Enabled {
		return 0, false
	}
	return r.CustomerRebate.Rate, true
}

// ListOpts narrows relation listing.
type ListOpts struct {
	Platform string
	Status   Status
	Limit    int
	Offset   int
}
