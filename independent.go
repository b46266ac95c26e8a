package rebate

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/rebate/audit"
	"github.com/xraph/rebate/talent"
	"github.com/xraph/rebate/types"
)

// IndependentItem sets one talent's personal rate.
type IndependentItem struct {
	OneID      string     `json:"oneId"`
	RebateRate types.Rate `json:"rebateRate"`
}

// IndependentRequest switches a batch of talents to independent mode, each
// at its own rate.
type IndependentRequest struct {
	Platform   string            `json:"platform"`
	Items      []IndependentItem `json:"items"`
	OperatorID string            `json:"operatorId,omitempty"`
}

// SetIndependentRebate switches talents to independent mode at per-item
// rates. The request is validated as a whole first: any malformed item
// rejects everything before a single write. A talent already independent at
// the requested rate is skipped without a ledger row.
func (e *Engine) SetIndependentRebate(ctx context.Context, req IndependentRequest) (*types.BatchResult, error) {
	if req.Platform == "" {
		return nil, ValidationError{Field: "platform", Message: "must not be empty"}
	}
	if len(req.Items) == 0 {
		return nil, ValidationError{Field: "items", Message: "must not be empty"}
	}
	if len(req.Items) > e.bindBatchLimit {
		return nil, fmt.Errorf("%w: %d items, limit %d", ErrBatchTooLarge, len(req.Items), e.bindBatchLimit)
	}
	for i, item := range req.Items {
		if item.OneID == "" {
			return nil, ValidationError{Field: fmt.Sprintf("items[%d].oneId", i), Message: "must not be empty"}
		}
		if err := item.RebateRate.Validate(); err != nil {
			return nil, ValidationError{Field: fmt.Sprintf("items[%d].rebateRate", i), Message: err.Error()}
		}
	}

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

	type pendingSet struct {
		t        *talent.Talent
		rate     types.Rate
		previous *types.Rate
		prevMode talent.RebateMode
	}
	pending := make([]pendingSet, 0, len(req.Items))
	seen := make(map[string]bool, len(req.Items))

	for _, item := range req.Items {
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
		if t.RebateMode == talent.ModeIndependent && t.CurrentRebate != nil && t.CurrentRebate.Rate.Equal(item.RebateRate) {
			result.AddSkipped()
			continue
		}

		var previous *types.Rate
		if t.CurrentRebate != nil {
			prev := t.CurrentRebate.Rate
			previous = &prev
		}

		mode := talent.ModeIndependent
		updates = append(updates, &talent.Update{
			OneID:      t.OneID,
			Platform:   t.Platform,
			RebateMode: &mode,
			CurrentRebate: &talent.CurrentRebate{
				Rate:          item.RebateRate,
				Source:        talent.SourcePersonal,
				EffectiveDate: effectiveDay(now),
				LastUpdated:   now,
			},
			UpdatedAt: now,
		})
		pending = append(pending, pendingSet{t: t, rate: item.RebateRate, previous: previous, prevMode: t.RebateMode})
		result.AddSucceeded()
	}

	if len(updates) > 0 {
		if err := e.store.BulkUpdateTalents(ctx, updates); err != nil {
			return nil, err
		}
	}

	for _, p := range pending {
		key := audit.TalentKey(p.t.OneID, req.Platform)
		meta := map[string]string{"previous_mode": string(p.prevMode)}
		if _, err := e.recordChange(ctx, key, p.rate, p.previous, audit.SourceSetIndependent, req.OperatorID, meta); err != nil {
			return nil, err
		}
		e.plugins.EmitIndependentRateSet(ctx, p.t.OneID, req.Platform, p.rate)
	}

	e.plugins.EmitBatchCompleted(ctx, "setIndependentRebate", result)
	return result, nil
}
