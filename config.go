package custodian

import "time"

// Config holds configuration for the Custodian service.
type Config struct {
	// MaxAncestorDepth caps how many ancestors the inheritance resolver
	// walks, nearest first. Defaults to 32.
	MaxAncestorDepth int `json:"max_ancestor_depth,omitempty"`

	// CacheTTL is the time-to-live for cached check results.
	// Zero means no caching.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`

	// EnableInheritance enables resolution through ancestor grants.
	// Defaults to true.
	EnableInheritance *bool `json:"enable_inheritance,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	t := true
	return Config{
		MaxAncestorDepth:  32,
		EnableInheritance: &t,
	}
}

func (c Config) inheritanceEnabled() bool {
	return c.EnableInheritance == nil || *c.EnableInheritance
}
