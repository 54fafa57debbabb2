package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/custodian"
	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/id"
)

func (a *API) registerCheckRoutes(router forge.Router) error {
	g := router.Group("/v1/authz", forge.WithGroupTags("authorization"))

	if err := g.POST("/check", a.check,
		forge.WithSummary("Permission check"),
		forge.WithDescription("Evaluates whether the user can perform the action on the folder."),
		forge.WithOperationID("authzCheck"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check result", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/enforce", a.enforce,
		forge.WithSummary("Enforce permission"),
		forge.WithDescription("Returns 200 if allowed, 403 if denied."),
		forge.WithOperationID("authzEnforce"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Allowed", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/batch-check", a.batchCheck,
		forge.WithSummary("Batch permission check"),
		forge.WithDescription("Evaluates multiple permission checks in one request."),
		forge.WithOperationID("authzBatchCheck"),
		forge.WithRequestSchema(BatchCheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Batch results", BatchCheckResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) check(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	cr, err := toCheckRequest(req)
	if err != nil {
		return nil, err
	}

	result, err := a.svc.Check(ctx.Context(), cr)
	if err != nil {
		return nil, mapError(err)
	}

	resp := toCheckResponse(result)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) enforce(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	cr, err := toCheckRequest(req)
	if err != nil {
		return nil, err
	}

	result, err := a.svc.Check(ctx.Context(), cr)
	if err != nil {
		return nil, mapError(err)
	}

	resp := toCheckResponse(result)
	if !result.Allowed {
		return resp, ctx.JSON(http.StatusForbidden, resp)
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) batchCheck(ctx forge.Context, req *BatchCheckRequest) (*BatchCheckResponse, error) {
	if len(req.Checks) == 0 {
		return nil, forge.BadRequest("checks cannot be empty")
	}

	results := make([]CheckResponse, len(req.Checks))
	for i, c := range req.Checks {
		cr, err := toCheckRequest(&c)
		if err != nil {
			return nil, err
		}
		result, err := a.svc.Check(ctx.Context(), cr)
		if err != nil {
			return nil, mapError(err)
		}
		results[i] = *toCheckResponse(result)
	}

	resp := &BatchCheckResponse{Results: results}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func toCheckRequest(r *CheckRequest) (*custodian.CheckRequest, error) {
	if r.UserID == "" || r.FolderID == "" || r.Action == "" {
		return nil, forge.BadRequest("user_id, folder_id, and action are required")
	}

	folderID, err := id.ParseFolderID(r.FolderID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid folder ID: %v", err))
	}
	action, err := grant.ParseAction(r.Action)
	if err != nil {
		return nil, forge.BadRequest(err.Error())
	}

	return &custodian.CheckRequest{
		Actor:    custodian.Actor{ID: r.UserID, Role: custodian.Role(r.Role)},
		FolderID: folderID,
		Action:   action,
	}, nil
}

func toCheckResponse(r *custodian.CheckResult) *CheckResponse {
	resp := &CheckResponse{
		Allowed:    r.Allowed,
		Decision:   string(r.Decision),
		Reason:     r.Reason,
		Level:      string(r.Level),
		EvalTimeNs: r.EvalTimeNs,
	}
	if !r.InheritedFrom.IsNil() {
		resp.InheritedFrom = r.InheritedFrom.String()
	}
	return resp
}
