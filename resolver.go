package custodian

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/custodian/folder"
	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/id"
	"github.com/xraph/custodian/inheritance"
)

// resolution is the outcome of walking the ancestor chain.
type resolution struct {
	capabilities grant.Capabilities
	level        grant.Level
	source       id.FolderID
}

// resolveInherited finds the effective inherited capability set for a user
// on a folder with no direct grant.
//
// It walks the folder's ancestor path from the nearest ancestor toward the
// root. An ancestor contributes only when the user holds a valid direct
// grant on it AND an inheritance rule for the (ancestor, target) pair has
// Inherit set; the first such ancestor wins and the walk stops. Ancestors
// with a grant but no enabling rule are skipped, not terminal. Rule lookups
// are single-hop: there is no transitivity through intermediate folders.
//
// Returns nil when no ancestor yields a usable grant and rule pair.
func (s *Service) resolveInherited(ctx context.Context, userID string, f *folder.Folder) (*resolution, error) {
	depth := 0
	for i := len(f.Path) - 1; i >= 0; i-- {
		if depth++; depth > s.config.MaxAncestorDepth {
			break
		}
		ancestorID := f.Path[i]

		g, err := s.store.GetGrant(ctx, userID, ancestorID)
		if errors.Is(err, grant.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve inherited: %w", err)
		}

		r, err := s.store.GetRule(ctx, ancestorID, f.ID)
		if errors.Is(err, inheritance.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve inherited: %w", err)
		}
		if !r.Inherit {
			continue
		}

		return &resolution{
			capabilities: r.Overrides.Apply(grant.CapabilitiesFor(g.Level)),
			level:        g.Level,
			source:       ancestorID,
		}, nil
	}
	return nil, nil
}
