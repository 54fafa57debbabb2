// Package api provides HTTP handlers for the Custodian permission engine.
package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/custodian"
)

// API wires all Custodian HTTP handlers together.
type API struct {
	svc    *custodian.Service
	router forge.Router
}

// New creates an API from a Service and a Forge router.
func New(svc *custodian.Service, router forge.Router) *API {
	return &API{svc: svc, router: router}
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	if err := a.RegisterRoutes(a.router); err != nil {
		panic("custodian: register routes: " + err.Error())
	}
	return a.router.Handler()
}

// RegisterRoutes registers all API routes into the given Forge router.
func (a *API) RegisterRoutes(router forge.Router) error {
	registerers := []func(forge.Router) error{
		a.registerCheckRoutes,
		a.registerFolderRoutes,
		a.registerPermissionRoutes,
		a.registerInheritanceRoutes,
		a.registerGrantLogRoutes,
		a.registerMaintenanceRoutes,
	}
	for _, fn := range registerers {
		if err := fn(router); err != nil {
			return err
		}
	}
	return nil
}
