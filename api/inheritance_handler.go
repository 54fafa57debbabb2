package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/custodian/id"
	"github.com/xraph/custodian/inheritance"
)

func (a *API) registerInheritanceRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("inheritance"))

	if err := g.PUT("/folders/:folderId/inheritance/:childId", a.setInheritance,
		forge.WithSummary("Set inheritance rule"),
		forge.WithDescription("Configures whether grants on the parent folder apply to the child, with optional capability overrides."),
		forge.WithOperationID("setInheritance"),
		forge.WithRequestSchema(SetInheritanceRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/folders/:folderId/inheritance/:childId", a.getInheritance,
		forge.WithSummary("Get inheritance rule"),
		forge.WithDescription("Returns the rule for a parent-child folder edge."),
		forge.WithOperationID("getInheritance"),
		forge.WithResponseSchema(http.StatusOK, "Inheritance rule", &inheritance.Rule{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/folders/:folderId/inheritance", a.listInheritance,
		forge.WithSummary("List inheritance rules"),
		forge.WithDescription("Returns all rules where the folder is the parent."),
		forge.WithOperationID("listInheritance"),
		forge.WithResponseSchema(http.StatusOK, "Rule list", []*inheritance.Rule{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) setInheritance(ctx forge.Context, req *SetInheritanceRequest) (*struct{}, error) {
	parentID, childID, err := edgeParams(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.svc.SetInheritance(ctx.Context(), requestActor(ctx), parentID, childID, req.Inherit, req.Overrides); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) getInheritance(ctx forge.Context, _ *GetInheritanceRequest) (*inheritance.Rule, error) {
	parentID, childID, err := edgeParams(ctx)
	if err != nil {
		return nil, err
	}

	r, err := a.svc.Store().GetRule(ctx.Context(), parentID, childID)
	if err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusOK, r)
}

func (a *API) listInheritance(ctx forge.Context, _ *GetFolderRequest) ([]*inheritance.Rule, error) {
	parentID, err := id.ParseFolderID(ctx.Param("folderId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid folder ID: %v", err))
	}

	rules, err := a.svc.Store().ListRulesForParent(ctx.Context(), parentID)
	if err != nil {
		return nil, mapError(err)
	}

	return rules, ctx.JSON(http.StatusOK, rules)
}

func edgeParams(ctx forge.Context) (parentID, childID id.FolderID, err error) {
	parentID, err = id.ParseFolderID(ctx.Param("folderId"))
	if err != nil {
		return id.Nil, id.Nil, forge.BadRequest(fmt.Sprintf("invalid folder ID: %v", err))
	}
	childID, err = id.ParseFolderID(ctx.Param("childId"))
	if err != nil {
		return id.Nil, id.Nil, forge.BadRequest(fmt.Sprintf("invalid child ID: %v", err))
	}
	return parentID, childID, nil
}
