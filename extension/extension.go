// Package extension provides the Forge extension adapter for the rebate engine.
//
// It implements the forge.Extension interface to integrate the rebate engine
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.rebate" or "rebate" keys.
package extension

import (
	"context"
	"errors"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	rebate "github.com/xraph/rebate"
	"github.com/xraph/rebate/httpapi"
	"github.com/xraph/rebate/store"
	"github.com/xraph/rebate/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "rebate"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Talent commission rate resolution and audit engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the rebate engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *rebate.Engine
	store      store.Store
	handler    http.Handler
	engineOpts []rebate.Option
}

// New creates a new rebate Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying rebate engine.
// This is nil until Register is called.
func (e *Extension) Engine() *rebate.Engine { return e.engine }

// Handler returns the HTTP handler serving the rebate API under BasePath.
// It is nil until Register is called, or when routes are disabled.
func (e *Extension) Handler() http.Handler { return e.handler }

// Register implements [forge.Extension]. It loads configuration,
// initializes the rebate engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	opts := e.buildEngineOpts()

	eng := rebate.New(e.store, opts...)
	e.engine = eng

	if !e.config.DisableRoutes {
		e.handler = httpapi.NewHandler(eng, httpapi.WithBasePath(e.config.BasePath))
	}

	return vessel.Provide(fapp.Container(), func() (*rebate.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("rebate: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("rebate: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs rebate.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []rebate.Option {
	opts := make([]rebate.Option, 0, len(e.engineOpts)+2)

	if e.config.BindBatchLimit > 0 {
		opts = append(opts, rebate.WithBindBatchLimit(e.config.BindBatchLimit))
	}
	if e.config.OverrideBatchLimit > 0 {
		opts = append(opts, rebate.WithOverrideBatchLimit(e.config.OverrideBatchLimit))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("rebate: configuration is required but not found in config files; " +
				"ensure 'extensions.rebate' or 'rebate' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("rebate: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("bind_batch_limit", e.config.BindBatchLimit),
		forge.F("override_batch_limit", e.config.OverrideBatchLimit),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.rebate" first (namespaced pattern).
	if cm.IsSet("extensions.rebate") {
		if err := cm.Bind("extensions.rebate", &cfg); err == nil {
			e.Logger().Debug("rebate: loaded config from file",
				forge.F("key", "extensions.rebate"),
			)
			return cfg, true
		}
		e.Logger().Warn("rebate: failed to bind extensions.rebate config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "rebate" key.
	if cm.IsSet("rebate") {
		if err := cm.Bind("rebate", &cfg); err == nil {
			e.Logger().Debug("rebate: loaded config from file",
				forge.F("key", "rebate"),
			)
			return cfg, true
		}
		e.Logger().Warn("rebate: failed to bind rebate config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.BindBatchLimit == 0 {
		cfg.BindBatchLimit = defaults.BindBatchLimit
	}
	if cfg.OverrideBatchLimit == 0 {
		cfg.OverrideBatchLimit = defaults.OverrideBatchLimit
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.BasePath == "" && programmaticConfig.BasePath != "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}

	// Int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.BindBatchLimit == 0 && programmaticConfig.BindBatchLimit != 0 {
		yamlConfig.BindBatchLimit = programmaticConfig.BindBatchLimit
	}
	if yamlConfig.OverrideBatchLimit == 0 && programmaticConfig.OverrideBatchLimit != 0 {
		yamlConfig.OverrideBatchLimit = programmaticConfig.OverrideBatchLimit
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
