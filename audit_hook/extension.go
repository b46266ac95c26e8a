// Package audithook bridges rebate lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on a
// concrete audit system. Callers inject a RecorderFunc adapter that bridges
// to their audit backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/rebate/plugin"
	"github.com/xraph/rebate/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnTalentBound        = (*Extension)(nil)
	_ plugin.OnTalentUnbound      = (*Extension)(nil)
	_ plugin.OnIndependentRateSet = (*Extension)(nil)
	_ plugin.OnOverrideUpdated    = (*Extension)(nil)
	_ plugin.OnRecordWritten      = (*Extension)(nil)
	_ plugin.OnBatchCompleted     = (*Extension)(nil)
	_ plugin.OnComparisonRun      = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so that callers inject their concrete audit
// client at wiring time without creating a module dependency here.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges rebate lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Binding hooks
// ──────────────────────────────────────────────────

// OnTalentBound implements plugin.OnTalentBound.
func (e *Extension) OnTalentBound(ctx context.Context, oneID, platform, agencyID string, rate types.Rate) error {
	return e.record(ctx, ActionTalentBound, SeverityInfo, OutcomeSuccess,
		ResourceTalent, oneID, CategoryBinding, nil,
		"platform", platform,
		"agency_id", agencyID,
		"rebate_rate", rate.String(),
	)
}

// OnTalentUnbound implements plugin.OnTalentUnbound.
func (e *Extension) OnTalentUnbound(ctx context.Context, oneID, platform, fromAgencyID string, rate types.Rate) error {
	return e.record(ctx, ActionTalentUnbound, SeverityInfo, OutcomeSuccess,
		ResourceTalent, oneID, CategoryBinding, nil,
		"platform", platform,
		"from_agency_id", fromAgencyID,
		"rebate_rate", rate.String(),
	)
}

// ──────────────────────────────────────────────────
// Rate hooks
// ──────────────────────────────────────────────────

// OnIndependentRateSet implements plugin.OnIndependentRateSet.
func (e *Extension) OnIndependentRateSet(ctx context.Context, oneID, platform string, rate types.Rate) error {
	return e.record(ctx, ActionIndependentRateSet, SeverityInfo, OutcomeSuccess,
		ResourceTalent, oneID, CategoryRate, nil,
		"platform", platform,
		"rebate_rate", rate.String(),
	)
}

// OnOverrideUpdated implements plugin.OnOverrideUpdated.
func (e *Extension) OnOverrideUpdated(ctx context.Context, customerID, oneID, platform string, enabled bool) error {
	return e.record(ctx, ActionOverrideUpdated, SeverityInfo, OutcomeSuccess,
		ResourceOverride, oneID, CategoryRate, nil,
		"customer_id", customerID,
		"platform", platform,
		"enabled", enabled,
	)
}

// OnRecordWritten implements plugin.OnRecordWritten.
func (e *Extension) OnRecordWritten(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionRecordWritten, SeverityInfo, OutcomeSuccess,
		ResourceRecord, "", CategoryAudit, nil,
		"event", "record_written",
	)
}

// ──────────────────────────────────────────────────
// Batch and comparison hooks
// ──────────────────────────────────────────────────

// OnBatchCompleted implements plugin.OnBatchCompleted.
func (e *Extension) OnBatchCompleted(ctx context.Context, operation string, result *types.BatchResult) error {
	outcome := OutcomeSuccess
	severity := SeverityInfo
	if result != nil && result.Failed > 0 {
		outcome = OutcomePartial
		severity = SeverityWarning
	}

	kv := []any{"operation", operation}
	if result != nil {
		kv = append(kv,
			"succeeded", result.Succeeded,
			"skipped", result.Skipped,
			"failed", result.Failed,
		)
	}
	return e.record(ctx, ActionBatchCompleted, severity, outcome,
		ResourceBatch, operation, CategoryRate, nil, kv...,
	)
}

// OnComparisonRun implements plugin.OnComparisonRun.
func (e *Extension) OnComparisonRun(ctx context.Context, platform, importID string, matched, canSync int) error {
	return e.record(ctx, ActionComparisonRun, SeverityInfo, OutcomeSuccess,
		ResourceImport, importID, CategoryComparison, nil,
		"platform", platform,
		"matched", matched,
		"can_sync", canSync,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
