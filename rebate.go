package rebate

import (
	"context"
	"log/slog"

	"github.com/xraph/rebate/agency"
	"github.com/xraph/rebate/audit"
	"github.com/xraph/rebate/customer"
	"github.com/xraph/rebate/id"
	"github.com/xraph/rebate/library"
	"github.com/xraph/rebate/plugin"
	"github.com/xraph/rebate/relation"
	"github.com/xraph/rebate/store"
	"github.com/xraph/rebate/talent"
	"github.com/xraph/rebate/types"
)

// Default batch size limits per request.
const (
	DefaultBindBatchLimit     = 500
	DefaultOverrideBatchLimit = 100
)

// Engine is the main rebate rate engine.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Configuration
	bindBatchLimit     int
	overrideBatchLimit int
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:              s,
		plugins:            plugin.NewRegistry(),
		logger:             slog.Default(),
		bindBatchLimit:     DefaultBindBatchLimit,
		overrideBatchLimit: DefaultOverrideBatchLimit,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithBindBatchLimit sets the maximum item count for bind, unbind, and
// independent-rate requests.
func WithBindBatchLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.bindBatchLimit = n
		}
	}
}

// WithOverrideBatchLimit sets the maximum item count for batch customer
// override requests.
func WithOverrideBatchLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.overrideBatchLimit = n
		}
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("rebate engine started",
		"bind_batch_limit", e.bindBatchLimit,
		"override_batch_limit", e.overrideBatchLimit,
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close(ctx)
}

// ──────────────────────────────────────────────────
// Talent Management
// ──────────────────────────────────────────────────

// CreateTalent registers a talent.
func (e *Engine) CreateTalent(ctx context.Context, t *talent.Talent) error {
	if t.OneID == "" || t.Platform == "" {
		return ValidationError{Field: "oneId/platform", Message: "must not be empty"}
	}
	if t.AgencyID == "" {
		t.AgencyID = talent.AgencyIndividual
	}
	if t.RebateMode == "" {
		t.RebateMode = talent.ModeIndependent
	}
	t.Entity = types.NewEntity()

	return e.store.CreateTalent(ctx, t)
}

// GetTalent retrieves a talent by its platform identity.
func (e *Engine) GetTalent(ctx context.Context, oneID, platform string) (*talent.Talent, error) {
	return e.store.GetTalent(ctx, oneID, platform)
}

// ListTalents lists talents on a platform.
func (e *Engine) ListTalents(ctx context.Context, platform string, opts talent.ListOpts) ([]*talent.Talent, error) {
	return e.store.ListTalents(ctx, platform, opts)
}

// ──────────────────────────────────────────────────
// Agency Management
// ──────────────────────────────────────────────────

// CreateAgency registers an agency.
func (e *Engine) CreateAgency(ctx context.Context, a *agency.Agency) error {
	if a.ID == "" || a.ID == talent.AgencyIndividual {
		return ValidationError{Field: "agencyId", Message: "must be a non-reserved identifier"}
	}
	a.Entity = types.NewEntity()

	return e.store.CreateAgency(ctx, a)
}

// GetAgency retrieves an agency by ID.
func (e *Engine) GetAgency(ctx context.Context, agencyID string) (*agency.Agency, error) {
	return e.store.GetAgency(ctx, agencyID)
}

// ListAgencies lists all agencies.
func (e *Engine) ListAgencies(ctx context.Context) ([]*agency.Agency, error) {
	return e.store.ListAgencies(ctx)
}

// ──────────────────────────────────────────────────
// Customer Management
// ──────────────────────────────────────────────────

// CreateCustomer registers a customer.
func (e *Engine) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	if c.ID == "" {
		return ValidationError{Field: "customerId", Message: "must not be empty"}
	}
	c.Entity = types.NewEntity()

	return e.store.CreateCustomer(ctx, c)
}

// GetCustomer resolves a customer by internal ID or customer code.
func (e *Engine) GetCustomer(ctx context.Context, codeOrID string) (*customer.Customer, error) {
	return e.store.GetCustomer(ctx, codeOrID)
}

// CreateRelation links a customer to a talent.
func (e *Engine) CreateRelation(ctx context.Context, r *relation.Relation) error {
	if r.CustomerID == "" || r.TalentOneID == "" || r.Platform == "" {
		return ValidationError{Field: "relation", Message: "customerId, talentOneId and platform are required"}
	}
	if r.ID.IsNil() {
		r.ID = id.NewRelationID()
	}
	if r.Status == "" {
		r.Status = relation.StatusActive
	}
	r.Entity = types.NewEntity()

	return e.store.CreateRelation(ctx, r)
}

// ListRelations lists a customer's talent relations.
func (e *Engine) ListRelations(ctx context.Context, customerID string, opts relation.ListOpts) ([]*relation.Relation, error) {
	return e.store.ListRelations(ctx, customerID, opts)
}

// ──────────────────────────────────────────────────
// Rate Library
// ──────────────────────────────────────────────────

// ImportLibrary stores a rate-library snapshot for comparison runs.
func (e *Engine) ImportLibrary(ctx context.Context, imp *library.Import, rows []*library.Row) error {
	if imp.Platform == "" {
		return ValidationError{Field: "platform", Message: "must not be empty"}
	}
	if imp.ID.IsNil() {
		imp.ID = id.NewImportID()
	}
	imp.Entity = types.NewEntity()

	for _, row := range rows {
		if row.ID.IsNil() {
			row.ID = id.NewLibraryRowID()
		}
		row.ImportID = imp.ID
		row.Platform = imp.Platform
		row.Entity = types.NewEntity()
	}

	return e.store.CreateImport(ctx, imp, rows)
}

// ──────────────────────────────────────────────────
// Rate Change History
// ──────────────────────────────────────────────────

// ListRateHistory returns the config ledger rows for a target, newest first.
func (e *Engine) ListRateHistory(ctx context.Context, key audit.Key, opts audit.ListOpts) ([]*audit.ConfigRecord, error) {
	return e.store.ListConfigRecords(ctx, key, opts)
}
