// Package plugin provides an extensible plugin system for the rebate engine.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/rebate/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Agency binding hooks
// ──────────────────────────────────────────────────

// OnTalentBound is called when a talent is bound to an agency.
type OnTalentBound interface {
	Plugin
	OnTalentBound(ctx context.Context, oneID, platform, agencyID string, rate types.Rate) error
}

// OnTalentUnbound is called when a talent is detached from an agency.
type OnTalentUnbound interface {
	Plugin
	OnTalentUnbound(ctx context.Context, oneID, platform, fromAgencyID string, rate types.Rate) error
}

// ──────────────────────────────────────────────────
// Rate mutation hooks
// ──────────────────────────────────────────────────

// OnIndependentRateSet is called when a talent's personal rate is set.
type OnIndependentRateSet interface {
	Plugin
	OnIndependentRateSet(ctx context.Context, oneID, platform string, rate types.Rate) error
}

// OnOverrideUpdated is called when a customer override is saved.
type OnOverrideUpdated interface {
	Plugin
	OnOverrideUpdated(ctx context.Context, customerID, oneID, platform string, enabled bool) error
}

// OnRecordWritten is called after a config ledger row becomes active.
type OnRecordWritten interface {
	Plugin
	OnRecordWritten(ctx context.Context, record interface{}) error
}

// ──────────────────────────────────────────────────
// Batch and comparison hooks
// ──────────────────────────────────────────────────

// OnBatchCompleted is called after any batch operation finishes, with its
// per-item outcome counts.
type OnBatchCompleted interface {
	Plugin
	OnBatchCompleted(ctx context.Context, operation string, result *types.BatchResult) error
}

// OnComparisonRun is called after a rate-library comparison completes.
type OnComparisonRun interface {
	Plugin
	OnComparisonRun(ctx context.Context, platform, importID string, matched, canSync int) error
}
