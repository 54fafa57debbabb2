package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/custodian/grantlog"
	"github.com/xraph/custodian/id"
)

func (a *API) registerGrantLogRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("audit"))

	if err := g.GET("/audit", a.listGrantLogs,
		forge.WithSummary("Query audit log"),
		forge.WithDescription("Returns permission mutation audit entries with optional filters, newest first."),
		forge.WithOperationID("listGrantLogs"),
		forge.WithRequestSchema(ListGrantLogsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Audit entry list", ListResponse[*grantlog.Entry]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/audit", a.purgeGrantLogs,
		forge.WithSummary("Purge audit log"),
		forge.WithDescription("Removes audit entries older than the given timestamp."),
		forge.WithOperationID("purgeGrantLogs"),
		forge.WithRequestSchema(PurgeGrantLogsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Purge result", PurgeResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listGrantLogs(ctx forge.Context, req *ListGrantLogsRequest) (*ListResponse[*grantlog.Entry], error) {
	filter := &grantlog.QueryFilter{
		Event:       grantlog.Event(req.Event),
		UserID:      req.UserID,
		PerformedBy: req.PerformedBy,
		Limit:       defaultLimit(req.Limit),
		Offset:      req.Offset,
	}

	if req.FolderID != "" {
		fid, err := id.ParseFolderID(req.FolderID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid folder ID: %v", err))
		}
		filter.FolderID = fid
	}
	if req.After != "" {
		t, err := time.Parse(time.RFC3339, req.After)
		if err != nil {
			return nil, forge.BadRequest("invalid after timestamp")
		}
		filter.After = &t
	}
	if req.Before != "" {
		t, err := time.Parse(time.RFC3339, req.Before)
		if err != nil {
			return nil, forge.BadRequest("invalid before timestamp")
		}
		filter.Before = &t
	}

	entries, err := a.svc.Store().ListEntries(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}
	total, err := a.svc.Store().CountEntries(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*grantlog.Entry]{
		Items:  entries,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) purgeGrantLogs(ctx forge.Context, req *PurgeGrantLogsRequest) (*PurgeResponse, error) {
	if req.Before == "" {
		return nil, forge.BadRequest("before is required")
	}
	before, err := time.Parse(time.RFC3339, req.Before)
	if err != nil {
		return nil, forge.BadRequest("invalid before timestamp")
	}

	removed, err := a.svc.Store().PurgeEntries(ctx.Context(), before)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &PurgeResponse{Removed: removed}
	return resp, ctx.JSON(http.StatusOK, resp)
}
