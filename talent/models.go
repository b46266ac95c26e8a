// Package talent defines the talent model and its rebate state.
package talent

import (
	"time"

	"github.com/xraph/rebate/types"
)

// AgencyIndividual is the sentinel agency id for an unaffiliated talent.
const AgencyIndividual = "individual"

// RebateMode describes how a talent's rate tracks its agency.
type RebateMode string

const (
	// ModeSync tracks the bound agency's default rate.
	ModeSync RebateMode = "sync"
	// ModeIndependent is a talent-specific override, insulated from agency changes.
	ModeIndependent RebateMode = "independent"
)

// Source tags where an effective rate came from.
type Source string

const (
	SourceAgency   Source = "agency"
	SourcePersonal Source = "personal"
	SourceCustomer Source = "customer"
	SourceDefault  Source = "default"
)

// CurrentRebate is the talent's authoritative current rate. The ledger is an
// audit trail only; this sub-document is the source of truth.
type CurrentRebate struct {
	Rate          types.Rate `json:"rate"`
	Source        Source     `json:"source"`
	EffectiveDate time.Time  `json:"effective_date"`
	LastUpdated   time.Time  `json:"last_updated"`
}

// Talent is a monetized creator account on one platform. Talents are mutated
// by the rate coordinators but never deleted.
type Talent struct {
	types.Entity
	OneID            string            `json:"one_id"`
	Platform         string            `json:"platform"`
	Name             string            `json:"name"`
	AccountID        string            `json:"account_id"` // external platform account id
	AgencyID         string            `json:"agency_id"`  // AgencyIndividual when unaffiliated
	RebateMode       RebateMode        `json:"rebate_mode"`
	CurrentRebate    *CurrentRebate    `json:"current_rebate,omitempty"`
	LastRebateSyncAt *time.Time        `json:"last_rebate_sync_at,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// Binding is the talent's organizational context as an explicit tagged value.
// String keyword matching against external data stays at the translation
// boundary (see the library package); business logic works with Binding.
type Binding struct {
	agencyID string
}

// Unaffiliated returns the binding for a talent without an agency.
func Unaffiliated() Binding { return Binding{} }

// BoundTo returns the binding for a talent bound to the given agency.
func BoundTo(agencyID string) Binding { return Binding{agencyID: agencyID} }

// IsUnaffiliated reports whether no agency is bound.
func (b Binding) IsUnaffiliated() bool { return b.agencyID == "" }

// AgencyID returns the bound agency id, if any.
func (b Binding) AgencyID() (string, bool) {
	return b.agencyID, b.agencyID != ""
}

// Binding derives the tagged organizational context from the stored agency id.
func (t *Talent) Binding() Binding {
	if t.AgencyID == "" || t.AgencyID == AgencyIndividual {
		return Unaffiliated()
	}
	return BoundTo(t.AgencyID)
}

// CurrentRate returns the talent's effective own rate, zero when unset.
func (t *Talent) CurrentRate() types.Rate {
	if t.CurrentRebate == nil {
		return 0
	}
	return t.CurrentRebate.Rate
}

// Update is a conditional bulk update for one talent. Nil pointer fields are
// left untouched by the store; updates within one batch are order-independent
// because each targets a distinct (OneID, Platform).
type Update struct {
	OneID            string
	Platform         string
	AgencyID         *string
	RebateMode       *RebateMode
	CurrentRebate    *CurrentRebate
	LastRebateSyncAt *time.Time
	UpdatedAt        time.Time
}

// ListOpts narrows talent listing.
type ListOpts struct {
	AgencyID string
	Limit    int
	Offset   int
}
