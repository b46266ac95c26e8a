package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/rebate/types"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onTalentBound        []OnTalentBound
	onTalentUnbound      []OnTalentUnbound
	onIndependentRateSet []OnIndependentRateSet
	onOverrideUpdated    []OnOverrideUpdated
	onRecordWritten      []OnRecordWritten
	onBatchCompleted     []OnBatchCompleted
	onComparisonRun      []OnComparisonRun
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnTalentBound); ok {
		r.onTalentBound = append(r.onTalentBound, v)
	}
	if v, ok := p.(OnTalentUnbound); ok {
		r.onTalentUnbound = append(r.onTalentUnbound, v)
	}
	if v, ok := p.(OnIndependentRateSet); ok {
		r.onIndependentRateSet = append(r.onIndependentRateSet, v)
	}
	if v, ok := p.(OnOverrideUpdated); ok {
		r.onOverrideUpdated = append(r.onOverrideUpdated, v)
	}
	if v, ok := p.(OnRecordWritten); ok {
		r.onRecordWritten = append(r.onRecordWritten, v)
	}
	if v, ok := p.(OnBatchCompleted); ok {
		r.onBatchCompleted = append(r.onBatchCompleted, v)
	}
	if v, ok := p.(OnComparisonRun); ok {
		r.onComparisonRun = append(r.onComparisonRun, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnTalentBound)(nil)).Elem(), "OnTalentBound")
	checkInterface(reflect.TypeOf((*OnTalentUnbound)(nil)).Elem(), "OnTalentUnbound")
	checkInterface(reflect.TypeOf((*OnIndependentRateSet)(nil)).Elem(), "OnIndependentRateSet")
	checkInterface(reflect.TypeOf((*OnOverrideUpdated)(nil)).Elem(), "OnOverrideUpdated")
	checkInterface(reflect.TypeOf((*OnRecordWritten)(nil)).Elem(), "OnRecordWritten")
	checkInterface(reflect.TypeOf((*OnBatchCompleted)(nil)).Elem(), "OnBatchCompleted")
	checkInterface(reflect.TypeOf((*OnComparisonRun)(nil)).Elem(), "OnComparisonRun")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTalentBound emits a talent bound event.
func (r *Registry) EmitTalentBound(ctx context.Context, oneID, platform, agencyID string, rate types.Rate) {
	r.mu.RLock()
	plugins := r.onTalentBound
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTalentBound(ctx, oneID, platform, agencyID, rate)
		}); err != nil {
			r.logger.Warn("plugin OnTalentBound failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTalentUnbound emits a talent unbound event.
func (r *Registry) EmitTalentUnbound(ctx context.Context, oneID, platform, fromAgencyID string, rate types.Rate) {
	r.mu.RLock()
	plugins := r.onTalentUnbound
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTalentUnbound(ctx, oneID, platform, fromAgencyID, rate)
		}); err != nil {
			r.logger.Warn("plugin OnTalentUnbound failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitIndependentRateSet emits an independent rate set event.
func (r *Registry) EmitIndependentRateSet(ctx context.Context, oneID, platform string, rate types.Rate) {
	r.mu.RLock()
	plugins := r.onIndependentRateSet
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnIndependentRateSet(ctx, oneID, platform, rate)
		}); err != nil {
			r.logger.Warn("plugin OnIndependentRateSet failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOverrideUpdated emits a customer override updated event.
func (r *Registry) EmitOverrideUpdated(ctx context.Context, customerID, oneID, platform string, enabled bool) {
	r.mu.RLock()
	plugins := r.onOverrideUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOverrideUpdated(ctx, customerID, oneID, platform, enabled)
		}); err != nil {
			r.logger.Warn("plugin OnOverrideUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitRecordWritten emits a config record written event.
func (r *Registry) EmitRecordWritten(ctx context.Context, record interface{}) {
	r.mu.RLock()
	plugins := r.onRecordWritten
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRecordWritten(ctx, record)
		}); err != nil {
			r.logger.Warn("plugin OnRecordWritten failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBatchCompleted emits a batch completed event.
func (r *Registry) EmitBatchCompleted(ctx context.Context, operation string, result *types.BatchResult) {
	r.mu.RLock()
	plugins := r.onBatchCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBatchCompleted(ctx, operation, result)
		}); err != nil {
			r.logger.Warn("plugin OnBatchCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitComparisonRun emits a comparison run event.
func (r *Registry) EmitComparisonRun(ctx context.Context, platform, importID string, matched, canSync int) {
	r.mu.RLock()
	plugins := r.onComparisonRun
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnComparisonRun(ctx, platform, importID, matched, canSync)
		}); err != nil {
			r.logger.Warn("plugin OnComparisonRun failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the rate pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
