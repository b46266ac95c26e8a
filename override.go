package rebate

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/rebate/audit"
	"github.com/xraph/rebate/relation"
	"github.com/xraph/rebate/types"
)

// CustomerRebateView is the read model for a customer-talent pair: the
// stored override, if any, plus the resolved effective rate.
type CustomerRebateView struct {
	CustomerID     string                   `json:"customerId"`
	TalentOneID    string                   `json:"talentOneId"`
	Platform       string                   `json:"platform"`
	CustomerRebate *relation.CustomerRebate `json:"customerRebate,omitempty"`
	Effective      Resolved                 `json:"effective"`
}

// OverrideRequest sets or clears a customer-specific rate for one talent.
type OverrideRequest struct {
	CustomerID  string      `json:"customerId"`
	TalentOneID string      `json:"talentOneId"`
	Platform    string      `json:"platform"`
	Enabled     bool        `json:"enabled"`
	Rate        *types.Rate `json:"rate,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	UpdatedBy   string      `json:"updatedBy,omitempty"`
}

// BatchOverrideItem is one talent's override inside a batch request.
type BatchOverrideItem struct {
	TalentOneID string      `json:"talentOneId"`
	Enabled     bool        `json:"enabled"`
	Rate        *types.Rate `json:"rate,omitempty"`
	Notes       string      `json:"notes,omitempty"`
}

// BatchOverrideRequest applies overrides for many talents of one customer.
type BatchOverrideRequest struct {
	CustomerID string              `json:"customerId"`
	Platform   string              `json:"platform"`
	Items      []BatchOverrideItem `json:"items"`
	UpdatedBy  string              `json:"updatedBy,omitempty"`
}

// GetCustomerRebate returns the stored override and the resolved effective
// rate for a customer-talent pair. The relation must exist and be active.
func (e *Engine) GetCustomerRebate(ctx context.Context, customerID, talentOneID, platform string) (*CustomerRebateView, error) {
	c, err := e.store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	rel, err := e.store.GetRelation(ctx, c.ID, talentOneID, platform)
	if err != nil {
		return nil, err
	}
	if !rel.IsActive() {
		return nil, ErrRelationNotFound
	}

	t, err := e.store.GetTalent(ctx, talentOneID, platform)
	if err != nil {
		return nil, err
	}

	return &CustomerRebateView{
		CustomerID:     c.ID,
		TalentOneID:    talentOneID,
		Platform:       platform,
		CustomerRebate: rel.CustomerRebate,
		Effective:      Resolve(t, rel.CustomerRebate),
	}, nil
}

// UpdateCustomerRebate replaces the override on a customer-talent relation.
// The stored override is replaced wholesale; a disabled override keeps its
// rate but loses resolution precedence. A ledger row is written only when an
// enabled rate actually changes.
func (e *Engine) UpdateCustomerRebate(ctx context.Context, req OverrideRequest) (*CustomerRebateView, error) {
	if req.Platform == "" || req.TalentOneID == "" {
		return nil, ValidationError{Field: "talentOneId/platform", Message: "must not be empty"}
	}
	if req.Enabled {
		if req.Rate == nil {
			return nil, fmt.Errorf("%w: enabling an override requires a rate", ErrRateRequired)
		}
		if err := req.Rate.Validate(); err != nil {
			return nil, ValidationError{Field: "rate", Message: err.Error()}
		}
	}

	c, err := e.store.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	rel, err := e.store.GetRelation(ctx, c.ID, req.TalentOneID, req.Platform)
	if err != nil {
		return nil, err
	}
	if !rel.IsActive() {
		return nil, ErrRelationNotFound
	}

	view, err := e.applyOverride(ctx, c.ID, rel, req.Enabled, req.Rate, req.Notes, req.UpdatedBy)
	if err != nil {
		return nil, err
	}

	e.plugins.EmitOverrideUpdated(ctx, c.ID, req.TalentOneID, req.Platform, req.Enabled)
	return view, nil
}

// BatchUpdateCustomerRebate applies overrides for many talents of one
// customer. The customer is resolved once; items fail individually and a
// panic while applying one item is contained to that item.
func (e *Engine) BatchUpdateCustomerRebate(ctx context.Context, req BatchOverrideRequest) (*types.BatchResult, error) {
	if req.Platform == "" {
		return nil, ValidationError{Field: "platform", Message: "must not be empty"}
	}
	if len(req.Items) == 0 {
		return nil, ValidationError{Field: "items", Message: "must not be empty"}
	}
	if len(req.Items) > e.overrideBatchLimit {
		return nil, fmt.Errorf("%w: %d items, limit %d", ErrBatchTooLarge, len(req.Items), e.overrideBatchLimit)
	}

	c, err := e.store.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	result := &types.BatchResult{}
	for _, item := range req.Items {
		if item.TalentOneID == "" {
			result.AddFailed(item.TalentOneID, "talentOneId must not be empty")
			continue
		}
		if item.Enabled {
			if item.Rate == nil {
				result.AddFailed(item.TalentOneID, "enabling an override requires a rate")
				continue
			}
			if err := item.Rate.Validate(); err != nil {
				result.AddFailed(item.TalentOneID, err.Error())
				continue
			}
		}

		if err := e.applyOverrideItem(ctx, c.ID, req.Platform, item, req.UpdatedBy); err != nil {
			result.AddFailed(item.TalentOneID, err.Error())
			continue
		}
		result.AddSucceeded()
	}

	e.plugins.EmitBatchCompleted(ctx, "batchUpdateCustomerRebate", result)
	return result, nil
}

// applyOverrideItem wraps one batch item so a panic inside the store or
// ledger path fails the item instead of the request.
func (e *Engine) applyOverrideItem(ctx context.Context, customerID, platform string, item BatchOverrideItem, updatedBy string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	rel, err := e.store.GetRelation(ctx, customerID, item.TalentOneID, platform)
	if err != nil {
		return err
	}
	if !rel.IsActive() {
		return ErrRelationNotFound
	}

	_, err = e.applyOverride(ctx, customerID, rel, item.Enabled, item.Rate, item.Notes, updatedBy)
	return err
}

func (e *Engine) applyOverride(
	ctx context.Context,
	customerID string,
	rel *relation.Relation,
	enabled bool,
	rate *types.Rate,
	notes, updatedBy string,
) (*CustomerRebateView, error) {
	now := time.Now()

	prevEnabledRate, hadEnabled := rel.EnabledRate()

	cr := &relation.CustomerRebate{
		Enabled:       enabled,
		EffectiveDate: effectiveDay(now),
		LastUpdatedAt: now,
		UpdatedBy:     updatedBy,
		Notes:         notes,
	}
	switch {
	case rate != nil:
		cr.Rate = *rate
	case rel.CustomerRebate != nil:
		// Disabling keeps the stored rate for a later re-enable.
		cr.Rate = rel.CustomerRebate.Rate
	}

	if err := e.store.UpdateRelationRebate(ctx, rel.ID, cr); err != nil {
		return nil, err
	}
	rel.CustomerRebate = cr

	// Ledger rows track enabled-rate changes only. Saving the same enabled
	// rate, or toggling a disabled override, leaves no trace in the ledger.
	if enabled && (!hadEnabled || !prevEnabledRate.Equal(cr.Rate)) {
		var previous *types.Rate
		if hadEnabled {
			prev := prevEnabledRate
			previous = &prev
		}
		key := audit.CustomerTalentKey(customerID, rel.TalentOneID, rel.Platform)
		meta := map[string]string{"relation_id": rel.ID.String()}
		if _, err := e.recordChange(ctx, key, cr.Rate, previous, audit.SourceCustomerOverride, updatedBy, meta); err != nil {
			return nil, err
		}
	}

	t, err := e.store.GetTalent(ctx, rel.TalentOneID, rel.Platform)
	if err != nil {
		return nil, err
	}

	return &CustomerRebateView{
		CustomerID:     customerID,
		TalentOneID:    rel.TalentOneID,
		Platform:       rel.Platform,
		CustomerRebate: cr,
		Effective:      Resolve(t, cr),
	}, nil
}
