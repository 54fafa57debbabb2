// Package extension provides a Forge extension entry point for Custodian.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/custodian"
	"github.com/xraph/custodian/api"
	"github.com/xraph/custodian/plugin"
	"github.com/xraph/custodian/store"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "custodian"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Folder permission engine with leveled grants and hierarchical inheritance"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Custodian as a Forge extension.
type Extension struct {
	config     Config
	svc        *custodian.Service
	apiHandler *api.API
	logger     *slog.Logger
	svcOpts    []custodian.Option
	plugins    []plugin.Plugin
}

// New creates a Custodian Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Service returns the underlying Custodian service.
func (e *Extension) Service() *custodian.Service { return e.svc }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Register implements [forge.Extension]. It initializes the service,
// registers it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	// Register the service in the DI container.
	if err := vessel.Provide(fapp.Container(), func() (*custodian.Service, error) {
		return e.svc, nil
	}); err != nil {
		return fmt.Errorf("custodian: register service in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := make([]custodian.Option, 0, len(e.svcOpts)+len(e.plugins)+2)
	opts = append(opts, custodian.WithLogger(logger))

	// Try to resolve store from DI container, fall back to option-provided store.
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		opts = append(opts, custodian.WithStore(s))
	}

	// Append user-provided options (may override store).
	opts = append(opts, e.svcOpts...)

	for _, x := range e.plugins {
		opts = append(opts, custodian.WithPlugin(x))
	}

	svc, err := custodian.NewService(opts...)
	if err != nil {
		return fmt.Errorf("custodian: create service: %w", err)
	}
	e.svc = svc

	e.apiHandler = api.New(svc, fapp.Router())

	// Register HTTP routes unless disabled.
	if !e.config.DisableRoutes {
		if err := e.apiHandler.RegisterRoutes(fapp.Router()); err != nil {
			return fmt.Errorf("custodian: register routes: %w", err)
		}
	}

	return nil
}

// Start begins the service and runs migrations if enabled.
func (e *Extension) Start(ctx context.Context) error {
	if e.svc == nil {
		return errors.New("custodian: extension not initialized")
	}

	// Run migrations unless disabled.
	if !e.config.DisableMigrate {
		s := e.svc.Store()
		if s != nil {
			if err := s.Migrate(ctx); err != nil {
				return fmt.Errorf("custodian: migration failed: %w", err)
			}
		}
	}

	return e.svc.Start(ctx)
}

// Stop gracefully shuts down the service.
func (e *Extension) Stop(ctx context.Context) error {
	if e.svc == nil {
		return nil
	}
	return e.svc.Stop(ctx)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.svc == nil {
		return errors.New("custodian: extension not initialized")
	}
	s := e.svc.Store()
	if s == nil {
		return errors.New("custodian: no store configured")
	}
	return s.Ping(ctx)
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all Custodian API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
