package custodian

import (
	"log/slog"

	"github.com/xraph/custodian/plugin"
	"github.com/xraph/custodian/store"
)

// Option is a functional option for the Service.
type Option func(*Service)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(svc *Service) { svc.store = s } }

// WithCache sets the check result cache.
func WithCache(c Cache) Option { return func(svc *Service) { svc.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(svc *Service) { svc.logger = l } }

// WithConfig sets the service configuration.
func WithConfig(c Config) Option { return func(svc *Service) { svc.config = c } }

// WithPlugin registers a plugin with the service. Plugins are collected
// during option application and installed in NewService once the logger is
// final, so option order does not matter.
func WithPlugin(x plugin.Plugin) Option {
	return func(svc *Service) {
		svc.pluginQueue = append(svc.pluginQueue, x)
	}
}
