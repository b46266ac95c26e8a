package rebate

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/rebate/agency"
	"github.com/xraph/rebate/audit"
	"github.com/xraph/rebate/talent"
	"github.com/xraph/rebate/types"
)

// BindItem names one talent to bind. AgencyName is only consulted by
// BindAgencyByName.
type BindItem struct {
	OneID      string `json:"oneId"`
	AgencyName string `json:"agencyName,omitempty"`
}

// BindRequest binds a batch of talents to an agency.
type BindRequest struct {
	Platform string     `json:"platform"`
	AgencyID string     `json:"agencyId,omitempty"`
	Items    []BindItem `json:"items"`
	// OverwriteExisting allows rebinding talents currently bound to a
	// different agency. Without it such items fail individually.
	OverwriteExisting bool   `json:"overwriteExisting,omitempty"`
	OperatorID        string `json:"operatorId,omitempty"`
}

// UnbindRequest detaches a batch of talents from their agencies. Every
// unbound talent becomes independent and needs an explicit new rate.
type UnbindRequest struct {
	Platform      string      `json:"platform"`
	OneIDs        []string    `json:"oneIds"`
	NewRebateRate *types.Rate `json:"newRebateRate"`
	OperatorID    string      `json:"operatorId,omitempty"`
}

// pendingBind is one validated item waiting for the bulk talent update and
// its ledger row.
type pendingBind struct {
	talent   *talent.Talent
	agency   *agency.Agency
	rate     types.Rate
	previous *types.Rate
}

// BindAgency binds every item to a single agency identified by ID. The
// agency must exist; an unknown agency fails the whole request. Item-level
// outcomes are reported in the returned BatchResult.
func (e *Engine) BindAgency(ctx context.Context, req BindRequest) (*types.BatchResult, error) {
	if err := e.validateBindRequest(req); err != nil {
		return nil, err
	}
	if req.AgencyID == "" || req.AgencyID == talent.AgencyIndividual {
		return nil, ValidationError{Field: "agencyId", Message: "must name a real agency"}
	}

	a, err := e.store.GetAgency(ctx, req.AgencyID)
	if err != nil {
		return nil, err
	}

	resolve := func(BindItem) (*agency.Agency, string) { return a, "" }
	return e.bindItems(ctx, req, resolve)
}

// BindAgencyByName binds each item to the agency matching its AgencyName.
// Names are matched case-insensitively against the registered agency names;
// an unknown or empty name fails that item, not the request.
func (e *Engine) BindAgencyByName(ctx context.Context, req BindRequest) (*types.BatchResult, error) {
	if err := e.validateBindRequest(req); err != nil {
		return nil, err
	}

	agencies, err := e.store.ListAgencies(ctx)
	if err != nil {
		return nil, err
	}
	index := agency.NewNameIndex(agencies)

	resolve := func(item BindItem) (*agency.Agency, string) {
		if item.AgencyName == "" {
			return nil, "agency name is required"
		}
		a, ok := index.Lookup(item.AgencyName)
		if !ok {
			return nil, fmt.Sprintf("no agency named %q", item.AgencyName)
		}
		return a, ""
	}
	return e.bindItems(ctx, req, resolve)
}

func (e *Engine) validateBindRequest(req BindRequest) error {
	if req.Platform == "" {
		return ValidationError{Field: "platform", Message: "must not be empty"}
	}
	if len(req.Items) == 0 {
		return ValidationError{Field: "items", Message: "must not be empty"}
	}
	if len(req.Items) > e.bindBatchLimit {
		return fmt.Errorf("%w: %d items, limit %d", ErrBatchTooLarge, len(req.Items), e.bindBatchLimit)
	}
	return nil
}

func (e *Engine) bindItems(
	ctx context.Context,
	req BindRequest,
	resolveAgency func(BindItem) (*agency.Agency, string),
) (*types.BatchResult, error) {
	oneIDs := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		oneIDs = append(oneIDs, item.OneID)
	}
	talents, err := e.store.ListTalentsByOneIDs(ctx, req.Platform, oneIDs)
	if err != nil {
		return nil, err
	}
	byOneID := make(map[string]*talent.Talent, len(talents))
	for _, t := range talents {
		byOneID[t.OneID] = t
	}

	result := &types.BatchResult{}
	now := time.Now()
	updates := make([]*talent.Update, 0, len(req.Items))
	pending := make([]pendingBind, 0, len(req.Items))
	seen := make(map[string]bool, len(req.Items))

	for _, item := range req.Items {
		// Items are evaluated against one pre-fetched snapshot, so a repeated
		// oneId would double-write. Only the first occurrence is processed.
		if seen[item.OneID] {
			result.AddFailed(item.OneID, "duplicate item in request")
			continue
		}
		seen[item.OneID] = true

		t, ok := byOneID[item.OneID]
		if !ok {
			result.AddFailed(item.OneID, "talent not found")
			continue
		}

		a, reason := resolveAgency(item)
		if a == nil {
			result.AddFailed(item.OneID, reason)
			continue
		}

		if t.AgencyID == a.ID {
			result.AddSkipped()
			continue
		}
		if b := t.Binding(); !b.IsUnaffiliated() && !req.OverwriteExisting {
			result.AddFailed(item.OneID, fmt.Sprintf("already bound to agency %s", t.AgencyID))
			continue
		}

		agencyID := a.ID
		mode := talent.ModeSync
		u := &talent.Update{
			OneID:      t.OneID,
			Platform:   t.Platform,
			AgencyID:   &agencyID,
			RebateMode: &mode,
			UpdatedAt:  now,
		}

		if base, ok := a.BaseRebateFor(req.Platform); ok {
			var previous *types.Rate
			if t.CurrentRebate != nil {
				prev := t.CurrentRebate.Rate
				previous = &prev
			}
			u.CurrentRebate = &talent.CurrentRebate{
				Rate:          base,
				Source:        talent.SourceAgency,
				EffectiveDate: effectiveDay(now),
				LastUpdated:   now,
			}
			syncedAt := now
			u.LastRebateSyncAt = &syncedAt
			pending = append(pending, pendingBind{talent: t, agency: a, rate: base, previous: previous})
		}

		updates = append(updates, u)
		result.AddSucceeded()
	}

	if len(updates) > 0 {
		if err := e.store.BulkUpdateTalents(ctx, updates); err != nil {
			return nil, err
		}
	}

	for _, p := range pending {
		key := audit.TalentKey(p.talent.OneID, req.Platform)
		meta := map[string]string{"agency_id": p.agency.ID}
		if _, err := e.recordChange(ctx, key, p.rate, p.previous, audit.SourceAgencyBind, req.OperatorID, meta); err != nil {
			return nil, err
		}
		e.plugins.EmitTalentBound(ctx, p.talent.OneID, req.Platform, p.agency.ID, p.rate)
	}

	e.plugins.EmitBatchCompleted(ctx, "bindAgency", result)
	return result, nil
}

// UnbindAgency detaches talents from their agencies and switches them to
// independent mode at the given rate. The new rate is mandatory; without it
// the request is rejected before any write.
func (e *Engine) UnbindAgency(ctx context.Context, req UnbindRequest) (*types.BatchResult, error) {
	if req.Platform == "" {
		return nil, ValidationError{Field: "platform", Message: "must not be empty"}
	}
	if len(req.OneIDs) == 0 {
		return nil, ValidationError{Field: "oneIds", Message: "must not be empty"}
	}
	if len(req.OneIDs) > e.bindBatchLimit {
		return nil, fmt.Errorf("%w: %d items, limit %d", ErrBatchTooLarge, len(req.OneIDs), e.bindBatchLimit)
	}
	if req.NewRebateRate == nil {
		return nil, fmt.Errorf("%w: unbinding requires a new independent rate", ErrRateRequired)
	}
	if err := req.NewRebateRate.Validate(); err != nil {
		return nil, ValidationError{Field: "newRebateRate", Message: err.Error()}
	}
	rate := *req.NewRebateRate

	talents, err := e.store.ListTalentsByOneIDs(ctx, req.Platform, req.OneIDs)
	if err != nil {
		return nil, err
	}
	byOneID := make(map[string]*talent.Talent, len(talents))
	for _, t := range talents {
		byOneID[t.OneID] = t
	}

	result := &types.BatchResult{}
	now := time.Now()
	updates := make([]*talent.Update, 0, len(req.OneIDs))

	type pendingUnbind struct {
		t          *talent.Talent
		previous   *types.Rate
		fromAgency string
	}
	pending := make([]pendingUnbind, 0, len(req.OneIDs))
	seen := make(map[string]bool, len(req.OneIDs))

	for _, oneID := range req.OneIDs {
		if seen[oneID] {
			result.AddFailed(oneID, "duplicate item in request")
			continue
		}
		seen[oneID] = true

		t, ok := byOneID[oneID]
		if !ok {
			result.AddFailed(oneID, "talent not found")
			continue
		}
		if t.Binding().IsUnaffiliated() {
			result.AddSkipped()
			continue
		}

		var previous *types.Rate
		if t.CurrentRebate != nil {
			prev := t.CurrentRebate.Rate
			previous = &prev
		}

		agencyID := talent.AgencyIndividual
		mode := talent.ModeIndependent
		updates = append(updates, &talent.Update{
			OneID:      t.OneID,
			Platform:   t.Platform,
			AgencyID:   &agencyID,
			RebateMode: &mode,
			CurrentRebate: &talent.CurrentRebate{
				Rate:          rate,
				Source:        talent.SourcePersonal,
				EffectiveDate: effectiveDay(now),
				LastUpdated:   now,
			},
			UpdatedAt: now,
		})
		pending = append(pending, pendingUnbind{t: t, previous: previous, fromAgency: t.AgencyID})
		result.AddSucceeded()
	}

	if len(updates) > 0 {
		if err := e.store.BulkUpdateTalents(ctx, updates); err != nil {
			return nil, err
		}
	}

	for _, p := range pending {
		key := audit.TalentKey(p.t.OneID, req.Platform)
		meta := map[string]string{"previous_agency_id": p.fromAgency}
		if _, err := e.recordChange(ctx, key, rate, p.previous, audit.SourceAgencyUnbind, req.OperatorID, meta); err != nil {
			return nil, err
		}
		e.plugins.EmitTalentUnbound(ctx, p.t.OneID, req.Platform, p.fromAgency, rate)
	}

	e.plugins.EmitBatchCompleted(ctx, "unbindAgency", result)
	return result, nil
}
