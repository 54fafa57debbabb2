package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/custodian/folder"
	"github.com/xraph/custodian/id"
)

func (a *API) registerFolderRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("folders"))

	if err := g.POST("/folders", a.createFolder,
		forge.WithSummary("Register folder"),
		forge.WithDescription("Registers a folder node. The ancestor path is derived from the parent."),
		forge.WithOperationID("createFolder"),
		forge.WithRequestSchema(CreateFolderRequest{}),
		forge.WithCreatedResponse(&folder.Folder{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/folders/:folderId", a.getFolder,
		forge.WithSummary("Get folder"),
		forge.WithDescription("Returns details of a folder."),
		forge.WithOperationID("getFolder"),
		forge.WithResponseSchema(http.StatusOK, "Folder details", &folder.Folder{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/folders/:folderId", a.deleteFolder,
		forge.WithSummary("Delete folder"),
		forge.WithDescription("Removes a folder and all grants on it."),
		forge.WithOperationID("deleteFolder"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/folders/:folderId/children", a.listChildFolders,
		forge.WithSummary("List child folders"),
		forge.WithDescription("Returns the direct children of a folder."),
		forge.WithOperationID("listChildFolders"),
		forge.WithResponseSchema(http.StatusOK, "Folder list", []*folder.Folder{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createFolder(ctx forge.Context, req *CreateFolderRequest) (*folder.Folder, error) {
	if req.OwnerID == "" {
		return nil, forge.BadRequest("owner_id is required")
	}
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}

	now := time.Now().UTC()
	f := &folder.Folder{
		ID:        id.NewFolderID(),
		OwnerID:   req.OwnerID,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if req.ParentID != "" {
		pid, err := id.ParseFolderID(req.ParentID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid parent_id: %v", err))
		}
		parent, err := a.svc.Store().GetFolder(ctx.Context(), pid)
		if err != nil {
			return nil, mapError(err)
		}
		f.ParentID = &pid
		f.Path = append(append([]id.FolderID{}, parent.Path...), parent.ID)
	}

	if err := a.svc.Store().CreateFolder(ctx.Context(), f); err != nil {
		return nil, mapError(err)
	}

	return f, ctx.JSON(http.StatusCreated, f)
}

func (a *API) getFolder(ctx forge.Context, _ *GetFolderRequest) (*folder.Folder, error) {
	folderID, err := id.ParseFolderID(ctx.Param("folderId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid folder ID: %v", err))
	}

	f, err := a.svc.Store().GetFolder(ctx.Context(), folderID)
	if err != nil {
		return nil, mapError(err)
	}

	return f, ctx.JSON(http.StatusOK, f)
}

func (a *API) deleteFolder(ctx forge.Context, _ *GetFolderRequest) (*struct{}, error) {
	folderID, err := id.ParseFolderID(ctx.Param("folderId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid folder ID: %v", err))
	}

	// Grants on the folder go with it; inherited access through the folder
	// disappears once the rules have no parent rows to resolve against.
	if err := a.svc.Store().DeleteGrantsByFolder(ctx.Context(), folderID); err != nil {
		return nil, mapError(err)
	}
	if err := a.svc.Store().DeleteFolder(ctx.Context(), folderID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listChildFolders(ctx forge.Context, _ *GetFolderRequest) ([]*folder.Folder, error) {
	folderID, err := id.ParseFolderID(ctx.Param("folderId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid folder ID: %v", err))
	}

	folders, err := a.svc.Store().ListChildFolders(ctx.Context(), folderID)
	if err != nil {
		return nil, mapError(err)
	}

	return folders, ctx.JSON(http.StatusOK, folders)
}
