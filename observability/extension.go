// Package observability provides a metrics extension for the rebate engine
// that records lifecycle event counts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/rebate/plugin"
	"github.com/xraph/rebate/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnTalentBound        = (*MetricsExtension)(nil)
	_ plugin.OnTalentUnbound      = (*MetricsExtension)(nil)
	_ plugin.OnIndependentRateSet = (*MetricsExtension)(nil)
	_ plugin.OnOverrideUpdated    = (*MetricsExtension)(nil)
	_ plugin.OnRecordWritten      = (*MetricsExtension)(nil)
	_ plugin.OnBatchCompleted     = (*MetricsExtension)(nil)
	_ plugin.OnComparisonRun      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a rebate plugin to automatically track rate operations.
type MetricsExtension struct {
	factory MetricFactory

	// Binding metrics
	TalentsBound   Counter
	TalentsUnbound Counter

	// Rate metrics
	IndependentRatesSet Counter
	OverridesEnabled    Counter
	OverridesDisabled   Counter
	RecordsWritten      Counter

	// Batch metrics
	BatchSucceeded Counter
	BatchSkipped   Counter
	BatchFailed    Counter
	BatchSize      Histogram

	// Comparison metrics
	ComparisonsRun    Counter
	ComparisonMatched Histogram
	ComparisonCanSync Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Binding metrics
		TalentsBound:   factory.Counter("rebate.talent.bound"),
		TalentsUnbound: factory.Counter("rebate.talent.unbound"),

		// Rate metrics
		IndependentRatesSet: factory.Counter("rebate.rate.set_independent"),
		OverridesEnabled:    factory.Counter("rebate.override.enabled"),
		OverridesDisabled:   factory.Counter("rebate.override.disabled"),
		RecordsWritten:      factory.Counter("rebate.record.written"),

		// Batch metrics
		BatchSucceeded: factory.Counter("rebate.batch.succeeded"),
		BatchSkipped:   factory.Counter("rebate.batch.skipped"),
		BatchFailed:    factory.Counter("rebate.batch.failed"),
		BatchSize:      factory.Histogram("rebate.batch.size"),

		// Comparison metrics
		ComparisonsRun:    factory.Counter("rebate.comparison.run"),
		ComparisonMatched: factory.Histogram("rebate.comparison.matched"),
		ComparisonCanSync: factory.Histogram("rebate.comparison.can_sync"),

		// Error metrics
		StoreErrors:  factory.Counter("rebate.store.errors"),
		PluginErrors: factory.Counter("rebate.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Binding hooks
// ──────────────────────────────────────────────────

// OnTalentBound implements plugin.OnTalentBound.
func (m *MetricsExtension) OnTalentBound(_ context.Context, _, _, _ string, _ types.Rate) error {
	m.TalentsBound.Inc()
	return nil
}

// OnTalentUnbound implements plugin.OnTalentUnbound.
func (m *MetricsExtension) OnTalentUnbound(_ context.Context, _, _, _ string, _ types.Rate) error {
	m.TalentsUnbound.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Rate hooks
// ──────────────────────────────────────────────────

// OnIndependentRateSet implements plugin.OnIndependentRateSet.
func (m *MetricsExtension) OnIndependentRateSet(_ context.Context, _, _ string, _ types.Rate) error {
	m.IndependentRatesSet.Inc()
	return nil
}

// OnOverrideUpdated implements plugin.OnOverrideUpdated.
func (m *MetricsExtension) OnOverrideUpdated(_ context.Context, _, _, _ string, enabled bool) error {
	if enabled {
		m.OverridesEnabled.Inc()
	} else {
		m.OverridesDisabled.Inc()
	}
	return nil
}

// OnRecordWritten implements plugin.OnRecordWritten.
func (m *MetricsExtension) OnRecordWritten(_ context.Context, _ interface{}) error {
	m.RecordsWritten.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Batch and comparison hooks
// ──────────────────────────────────────────────────

// OnBatchCompleted implements plugin.OnBatchCompleted.
func (m *MetricsExtension) OnBatchCompleted(_ context.Context, _ string, result *types.BatchResult) error {
	if result == nil {
		return nil
	}
	m.BatchSucceeded.Add(float64(result.Succeeded))
	m.BatchSkipped.Add(float64(result.Skipped))
	m.BatchFailed.Add(float64(result.Failed))
	m.BatchSize.Observe(float64(result.Succeeded + result.Skipped + result.Failed))
	return nil
}

// OnComparisonRun implements plugin.OnComparisonRun.
func (m *MetricsExtension) OnComparisonRun(_ context.Context, _, _ string, matched, canSync int) error {
	m.ComparisonsRun.Inc()
	m.ComparisonMatched.Observe(float64(matched))
	m.ComparisonCanSync.Observe(float64(canSync))
	return nil
}
