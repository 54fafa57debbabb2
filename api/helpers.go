package api

import (
	"errors"

	"github.com/xraph/forge"

	"github.com/xraph/custodian"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, custodian.ErrInvalidLevel) || errors.Is(err, custodian.ErrInvalidAction) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, custodian.ErrAccessDenied) {
		return forge.Forbidden(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, custodian.ErrFolderNotFound) ||
		errors.Is(err, custodian.ErrGrantNotFound) ||
		errors.Is(err, custodian.ErrRuleNotFound)
}

// requestActor resolves the acting user for a mutation.
// Priority: explicit Custodian actor → Forge user ID (from Authsome) → anonymous.
func requestActor(ctx forge.Context) custodian.Actor {
	if actor, ok := custodian.ActorFromContext(ctx.Context()); ok {
		return actor
	}
	if userID := forge.UserIDFromContext(ctx.Context()); userID != "" {
		return custodian.Actor{ID: userID, Role: custodian.RoleMember}
	}
	return custodian.Actor{}
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
