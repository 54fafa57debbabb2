package api

import (
	"net/http"

	"github.com/xraph/forge"
)

func (a *API) registerMaintenanceRoutes(router forge.Router) error {
	g := router.Group("/v1/maintenance", forge.WithGroupTags("maintenance"))

	return g.POST("/sweep", a.sweepExpired,
		forge.WithSummary("Sweep expired grants"),
		forge.WithDescription("Deletes all grants whose expiry has passed. Intended for host schedulers."),
		forge.WithOperationID("sweepExpiredGrants"),
		forge.WithResponseSchema(http.StatusOK, "Sweep result", SweepResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) sweepExpired(ctx forge.Context, _ *struct{}) (*SweepResponse, error) {
	removed, err := a.svc.SweepExpired(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}

	resp := &SweepResponse{Removed: removed}
	return resp, ctx.JSON(http.StatusOK, resp)
}
