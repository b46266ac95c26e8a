package extension

import (
	"github.com/xraph/grove"

	rebate "github.com/xraph/rebate"
	"github.com/xraph/rebate/plugin"
	"github.com/xraph/rebate/store"
	mongostore "github.com/xraph/rebate/store/mongo"
	pgstore "github.com/xraph/rebate/store/postgres"
	sqlitestore "github.com/xraph/rebate/store/sqlite"
)

// Option configures the rebate Forge extension.
type Option func(*Extension)

// WithStore sets the store for the rebate engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a rebate.Option through to the underlying engine.
func WithEngineOption(opt rebate.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a rebate plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, rebate.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP handler construction.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for rebate routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithBindBatchLimit caps bind, unbind and independent-rate batch sizes.
func WithBindBatchLimit(n int) Option {
	return func(e *Extension) { e.config.BindBatchLimit = n }
}

// WithOverrideBatchLimit caps customer override batch sizes.
func WithOverrideBatchLimit(n int) Option {
	return func(e *Extension) { e.config.OverrideBatchLimit = n }
}

// WithMongoDatabase builds the store from a grove.DB backed by the mongo driver.
func WithMongoDatabase(db *grove.DB) Option {
	return func(e *Extension) {
		e.store = mongostore.New(db)
	}
}

// WithSQLiteDatabase builds the store from a grove.DB backed by the sqlite driver.
func WithSQLiteDatabase(db *grove.DB) Option {
	return func(e *Extension) {
		e.store = sqlitestore.New(db)
	}
}

// WithPostgresDatabase builds the store from a grove.DB backed by the pg driver.
func WithPostgresDatabase(db *grove.DB) Option {
	return func(e *Extension) {
		e.store = pgstore.New(db)
	}
}
