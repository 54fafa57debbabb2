package extension

// Config holds the Custodian extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.custodian" or "custodian" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for custodian routes (default: "/custodian").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// MaxAncestorDepth caps how many ancestors the inheritance resolver walks.
	MaxAncestorDepth int `json:"max_ancestor_depth" mapstructure:"max_ancestor_depth" yaml:"max_ancestor_depth"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAncestorDepth: 32,
	}
}
