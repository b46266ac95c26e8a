package extension

// Config holds the rebate extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.rebate" or "rebate" keys).
type Config struct {
	// DisableRoutes prevents HTTP handler construction.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for rebate routes (default: "/rebate").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// BindBatchLimit caps the item count of bind, unbind and independent-rate
	// batch requests (default: 500).
	BindBatchLimit int `json:"bind_batch_limit" mapstructure:"bind_batch_limit" yaml:"bind_batch_limit"`

	// OverrideBatchLimit caps the item count of customer override batch
	// requests (default: 100).
	OverrideBatchLimit int `json:"override_batch_limit" mapstructure:"override_batch_limit" yaml:"override_batch_limit"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:           "/rebate",
		BindBatchLimit:     500,
		OverrideBatchLimit: 100,
	}
}
