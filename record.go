package rebate

import (
	"context"
	"time"

	"github.com/xraph/rebate/audit"
	"github.com/xraph/rebate/id"
	"github.com/xraph/rebate/types"
)

// effectiveDay truncates a timestamp to UTC midnight. Config records take
// effect by day, not by instant.
func effectiveDay(at time.Time) time.Time {
	y, m, d := at.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// recordChange appends a new active config record for the key and then
// expires any previously active records. The insert is mandatory: if it
// fails, the caller must fail the whole operation. The expiry step is
// best-effort; the ledger can transiently hold more than one active row per
// key, and readers must prefer the newest.
func (e *Engine) recordChange(
	ctx context.Context,
	key audit.Key,
	newRate types.Rate,
	previous *types.Rate,
	source audit.ChangeSource,
	createdBy string,
	metadata map[string]string,
) (*audit.ConfigRecord, error) {
	now := time.Now()

	rec := &audit.ConfigRecord{
		Entity:        types.NewEntity(),
		ConfigID:      id.NewConfigRecordID(),
		TargetType:    key.TargetType,
		TargetID:      key.TargetID,
		Platform:      key.Platform,
		RebateRate:    newRate,
		PreviousRate:  previous,
		EffectiveDate: effectiveDay(now),
		Status:        audit.StatusActive,
		CreatedBy:     createdBy,
		ChangeSource:  source,
		Metadata:      metadata,
	}

	if err := e.store.InsertConfigRecord(ctx, rec); err != nil {
		return nil, err
	}

	expired, err := e.store.ExpireConfigRecords(ctx, key, rec.ConfigID, now)
	if err != nil {
		// The new record is already durable; a failed expiry only leaves
		// stale active rows behind.
		e.logger.Warn("failed to expire previous config records",
			"target_type", key.TargetType,
			"target_id", key.TargetID,
			"platform", key.Platform,
			"error", err,
		)
	} else if expired > 1 {
		e.logger.Warn("expired multiple active config records for one key",
			"target_type", key.TargetType,
			"target_id", key.TargetID,
			"platform", key.Platform,
			"count", expired,
		)
	}

	e.plugins.EmitRecordWritten(ctx, rec)
	return rec, nil
}
