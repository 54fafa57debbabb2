// Package middleware provides HTTP authorization middleware for Custodian.
package middleware

import (
	"encoding/json"

	"github.com/xraph/forge"

	"github.com/xraph/custodian"
	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/id"
)

// Require enforces a folder permission. It resolves the actor from the
// request context (Custodian actor > Authsome user > anonymous) and the
// folder from the :folderId route parameter.
func Require(svc *custodian.Service, action grant.Action) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			folderID, err := id.ParseFolderID(ctx.Param("folderId"))
			if err != nil {
				return denyResponse(ctx)
			}

			err = svc.Enforce(ctx.Context(), &custodian.CheckRequest{
				Actor:    resolveActor(ctx),
				FolderID: folderID,
				Action:   action,
			})
			if err != nil {
				return denyResponse(ctx)
			}
			return next(ctx)
		}
	}
}

// RequireAny allows the request if ANY of the actions is permitted on the
// folder from the :folderId route parameter.
func RequireAny(svc *custodian.Service, actions ...grant.Action) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			folderID, err := id.ParseFolderID(ctx.Param("folderId"))
			if err != nil {
				return denyResponse(ctx)
			}

			actor := resolveActor(ctx)
			for _, action := range actions {
				result, err := svc.Check(ctx.Context(), &custodian.CheckRequest{
					Actor:    actor,
					FolderID: folderID,
					Action:   action,
				})
				if err == nil && result.Allowed {
					return next(ctx)
				}
			}
			return denyResponse(ctx)
		}
	}
}

// RequireAll allows the request only if ALL actions are permitted.
func RequireAll(svc *custodian.Service, actions ...grant.Action) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			folderID, err := id.ParseFolderID(ctx.Param("folderId"))
			if err != nil {
				return denyResponse(ctx)
			}

			actor := resolveActor(ctx)
			for _, action := range actions {
				err := svc.Enforce(ctx.Context(), &custodian.CheckRequest{
					Actor:    actor,
					FolderID: folderID,
					Action:   action,
				})
				if err != nil {
					return denyResponse(ctx)
				}
			}
			return next(ctx)
		}
	}
}

// resolveActor extracts the acting user from context.
// Priority: explicit Custodian actor → Forge user ID (from Authsome) → anonymous.
func resolveActor(ctx forge.Context) custodian.Actor {
	if actor, ok := custodian.ActorFromContext(ctx.Context()); ok {
		return actor
	}
	if userID := forge.UserIDFromContext(ctx.Context()); userID != "" {
		return custodian.Actor{ID: userID, Role: custodian.RoleMember}
	}
	return custodian.Actor{ID: "anonymous"}
}

func denyResponse(ctx forge.Context) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(403)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": "access denied"})
}
