package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/id"
)

func (a *API) registerPermissionRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("permissions"))

	if err := g.GET("/folders/:folderId/permissions", a.listFolderPermissions,
		forge.WithSummary("List folder permissions"),
		forge.WithDescription("Returns all valid grants on a folder."),
		forge.WithOperationID("listFolderPermissions"),
		forge.WithResponseSchema(http.StatusOK, "Grant list", []*grant.Grant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/folders/:folderId/permissions", a.grantPermission,
		forge.WithSummary("Grant permission"),
		forge.WithDescription("Grants a permission level to a user on a folder. Replaces any existing grant for the pair."),
		forge.WithOperationID("grantPermission"),
		forge.WithRequestSchema(GrantPermissionRequest{}),
		forge.WithCreatedResponse(&grant.Grant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/folders/:folderId/permissions/:userId", a.updatePermission,
		forge.WithSummary("Update permission"),
		forge.WithDescription("Replaces a user's grant on a folder with a new level and expiry."),
		forge.WithOperationID("updatePermission"),
		forge.WithRequestSchema(UpdatePermissionRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated grant", &grant.Grant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/folders/:folderId/permissions/:userId", a.revokePermission,
		forge.WithSummary("Revoke permission"),
		forge.WithDescription("Removes a user's direct grant on a folder."),
		forge.WithOperationID("revokePermission"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/users/:userId/permissions", a.listUserPermissions,
		forge.WithSummary("List user permissions"),
		forge.WithDescription("Returns all valid grants held by a user."),
		forge.WithOperationID("listUserPermissions"),
		forge.WithResponseSchema(http.StatusOK, "Grant list", []*grant.Grant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/permissions/batch", a.batchGrant,
		forge.WithSummary("Batch grant"),
		forge.WithDescription("Grants a level over the cartesian product of users and folders. Failed pairings are skipped."),
		forge.WithOperationID("batchGrant"),
		forge.WithRequestSchema(BatchGrantRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Granted", []*grant.Grant{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listFolderPermissions(ctx forge.Context, _ *ListFolderPermissionsRequest) ([]*grant.Grant, error) {
	folderID, err := id.ParseFolderID(ctx.Param("folderId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid folder ID: %v", err))
	}

	grants, err := a.svc.ListFolderGrants(ctx.Context(), requestActor(ctx), folderID)
	if err != nil {
		return nil, mapError(err)
	}

	return grants, ctx.JSON(http.StatusOK, grants)
}

func (a *API) grantPermission(ctx forge.Context, req *GrantPermissionRequest) (*grant.Grant, error) {
	folderID, err := id.ParseFolderID(ctx.Param("folderId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid folder ID: %v", err))
	}
	if req.UserID == "" {
		return nil, forge.BadRequest("user_id is required")
	}
	level, err := grant.ParseLevel(req.Level)
	if err != nil {
		return nil, forge.BadRequest(err.Error())
	}
	expiresAt, err := parseExpiry(req.ExpiresAt)
	if err != nil {
		return nil, err
	}

	g, err := a.svc.Grant(ctx.Context(), requestActor(ctx), req.UserID, folderID, level, expiresAt)
	if err != nil {
		return nil, mapError(err)
	}

	return g, ctx.JSON(http.StatusCreated, g)
}

func (a *API) updatePermission(ctx forge.Context, req *UpdatePermissionRequest) (*grant.Grant, error) {
	folderID, err := id.ParseFolderID(ctx.Param("folderId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid folder ID: %v", err))
	}
	userID := ctx.Param("userId")
	level, err := grant.ParseLevel(req.Level)
	if err != nil {
		return nil, forge.BadRequest(err.Error())
	}
	expiresAt, err := parseExpiry(req.ExpiresAt)
	if err != nil {
		return nil, err
	}

	// Grant replaces the existing (user, folder) row outright.
	g, err := a.svc.Grant(ctx.Context(), requestActor(ctx), userID, folderID, level, expiresAt)
	if err != nil {
		return nil, mapError(err)
	}

	return g, ctx.JSON(http.StatusOK, g)
}

func (a *API) revokePermission(ctx forge.Context, _ *struct{}) (*struct{}, error) {
	folderID, err := id.ParseFolderID(ctx.Param("folderId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid folder ID: %v", err))
	}

	if err := a.svc.Revoke(ctx.Context(), requestActor(ctx), ctx.Param("userId"), folderID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listUserPermissions(ctx forge.Context, _ *ListUserPermissionsRequest) ([]*grant.Grant, error) {
	grants, err := a.svc.ListUserGrants(ctx.Context(), requestActor(ctx), ctx.Param("userId"))
	if err != nil {
		return nil, mapError(err)
	}

	return grants, ctx.JSON(http.StatusOK, grants)
}

func (a *API) batchGrant(ctx forge.Context, req *BatchGrantRequest) ([]*grant.Grant, error) {
	if len(req.UserIDs) == 0 || len(req.FolderIDs) == 0 {
		return nil, forge.BadRequest("user_ids and folder_ids cannot be empty")
	}
	level, err := grant.ParseLevel(req.Level)
	if err != nil {
		return nil, forge.BadRequest(err.Error())
	}
	expiresAt, err := parseExpiry(req.ExpiresAt)
	if err != nil {
		return nil, err
	}

	folderIDs := make([]id.FolderID, len(req.FolderIDs))
	for i, s := range req.FolderIDs {
		fid, err := id.ParseFolderID(s)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid folder ID %q: %v", s, err))
		}
		folderIDs[i] = fid
	}

	grants, err := a.svc.BatchGrant(ctx.Context(), requestActor(ctx), req.UserIDs, folderIDs, level, expiresAt)
	if err != nil {
		return nil, mapError(err)
	}

	return grants, ctx.JSON(http.StatusOK, grants)
}

func parseExpiry(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, forge.BadRequest("invalid expires_at timestamp")
	}
	return &t, nil
}
