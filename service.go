package custodian

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/custodian/folder"
	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/grantlog"
	"github.com/xraph/custodian/id"
	"github.com/xraph/custodian/inheritance"
	"github.com/xraph/custodian/plugin"
	"github.com/xraph/custodian/store"
)

// Service is the central folder permission engine. It combines owner and
// administrator shortcuts, direct grants, and inherited grants into a single
// authorization decision, and owns all permission mutations.
type Service struct {
	store   store.Store
	cache   Cache
	plugins *plugin.Registry
	logger  *slog.Logger
	config  Config

	// pluginQueue holds plugins collected by WithPlugin until NewService
	// builds the registry with the final logger.
	pluginQueue []plugin.Plugin
}

// NewService creates a new Custodian service with the given options.
func NewService(opts ...Option) (*Service, error) {
	svc := &Service{
		logger: slog.Default(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.store == nil {
		return nil, errors.New("custodian: store is required")
	}
	if svc.config.MaxAncestorDepth <= 0 {
		svc.config.MaxAncestorDepth = DefaultConfig().MaxAncestorDepth
	}
	if len(svc.pluginQueue) > 0 {
		svc.plugins = plugin.NewRegistry(svc.logger)
		for _, x := range svc.pluginQueue {
			svc.plugins.Register(x)
		}
		svc.pluginQueue = nil
	}
	return svc, nil
}

// Store returns the underlying composite store.
func (s *Service) Store() store.Store { return s.store }

// Plugins returns the plugin registry (may be nil).
func (s *Service) Plugins() *plugin.Registry { return s.plugins }

// Start performs any startup initialization.
func (s *Service) Start(_ context.Context) error { return nil }

// Stop performs graceful shutdown.
func (s *Service) Stop(ctx context.Context) error {
	if s.plugins != nil {
		s.plugins.EmitShutdown(ctx)
	}
	return nil
}

// Check evaluates whether the actor may perform the action on the folder.
// This is the hot path. Precedence is fixed: owner, administrator, direct
// grant, inherited grant, deny. A missing folder fails closed rather than
// erroring, since Check is used inline as a predicate by many call sites.
func (s *Service) Check(ctx context.Context, req *CheckRequest) (*CheckResult, error) {
	start := time.Now()

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, req); ok {
			cached.EvalTimeNs = time.Since(start).Nanoseconds()
			return cached, nil
		}
	}

	if s.plugins != nil {
		s.plugins.EmitBeforeCheck(ctx, req)
	}

	result, err := s.evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	result.EvalTimeNs = time.Since(start).Nanoseconds()

	if s.cache != nil {
		s.cache.Set(ctx, req, result)
	}
	if s.plugins != nil {
		s.plugins.EmitAfterCheck(ctx, req, result)
	}

	return result, nil
}

func (s *Service) evaluate(ctx context.Context, req *CheckRequest) (*CheckResult, error) {
	f, err := s.store.GetFolder(ctx, req.FolderID)
	if err != nil {
		if errors.Is(err, folder.ErrNotFound) {
			return &CheckResult{
				Decision: DecisionDenyFolderNotFound,
				Reason:   "folder does not exist",
			}, nil
		}
		return nil, fmt.Errorf("custodian check: %w", err)
	}

	// 1. Owner bypass.
	if f.OwnerID == req.Actor.ID {
		return &CheckResult{Allowed: true, Decision: DecisionAllowOwner}, nil
	}

	// 2. Administrator bypass.
	if req.Actor.IsAdministrator() {
		return &CheckResult{Allowed: true, Decision: DecisionAllowAdmin}, nil
	}

	// 3. Direct grant. A direct grant is authoritative even when it denies;
	// inheritance is consulted only when no valid direct grant exists.
	g, err := s.store.GetGrant(ctx, req.Actor.ID, req.FolderID)
	switch {
	case err == nil:
		if g.EffectiveCapabilities().Allows(req.Action) {
			return &CheckResult{Allowed: true, Decision: DecisionAllowDirect, Level: g.Level}, nil
		}
		return &CheckResult{
			Decision: DecisionDenyLevel,
			Reason:   fmt.Sprintf("level %s does not permit %s", g.Level, req.Action),
			Level:    g.Level,
		}, nil
	case !errors.Is(err, grant.ErrNotFound):
		return nil, fmt.Errorf("custodian check: %w", err)
	}

	// 4. Inherited grant from the nearest applicable ancestor.
	if s.config.inheritanceEnabled() {
		res, err := s.resolveInherited(ctx, req.Actor.ID, f)
		if err != nil {
			return nil, fmt.Errorf("custodian check: %w", err)
		}
		if res != nil {
			if res.capabilities.Allows(req.Action) {
				return &CheckResult{
					Allowed:       true,
					Decision:      DecisionAllowInherited,
					Level:         res.level,
					InheritedFrom: res.source,
				}, nil
			}
			return &CheckResult{
				Decision:      DecisionDenyInherited,
				Reason:        fmt.Sprintf("inherited %s does not permit %s", res.level, req.Action),
				Level:         res.level,
				InheritedFrom: res.source,
			}, nil
		}
	}

	return &CheckResult{Decision: DecisionDenyNoGrant, Reason: "no grant applies"}, nil
}

// Can is a shorthand for a simple yes/no permission check.
func (s *Service) Can(ctx context.Context, actor Actor, folderID id.FolderID, action grant.Action) (bool, error) {
	result, err := s.Check(ctx, &CheckRequest{Actor: actor, FolderID: folderID, Action: action})
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}

// Enforce returns an error if the permission check is denied.
func (s *Service) Enforce(ctx context.Context, req *CheckRequest) error {
	result, err := s.Check(ctx, req)
	if err != nil {
		return fmt.Errorf("custodian check: %w", err)
	}
	if !result.Allowed {
		return fmt.Errorf("%w: %s", ErrAccessDenied, result.Decision)
	}
	return nil
}

// Grant gives userID the permission level on folderID. The granter must hold
// manage_permissions on the folder. Any existing direct grant for the same
// (user, folder) pair is replaced outright.
func (s *Service) Grant(ctx context.Context, granter Actor, userID string, folderID id.FolderID, level grant.Level, expiresAt *time.Time) (*grant.Grant, error) {
	if !level.Valid() || level == grant.LevelNone {
		return nil, fmt.Errorf("%w: cannot grant %q", ErrInvalidLevel, level)
	}

	if err := s.authorizeManage(ctx, granter, folderID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	g := &grant.Grant{
		ID:           id.NewGrantID(),
		UserID:       userID,
		FolderID:     folderID,
		Level:        level,
		Capabilities: grant.CapabilitiesFor(level),
		GrantedBy:    granter.ID,
		GrantedAt:    now,
		ExpiresAt:    expiresAt,
	}
	if err := s.store.UpsertGrant(ctx, g); err != nil {
		return nil, fmt.Errorf("custodian grant: %w", err)
	}

	s.invalidate(ctx, userID, folderID)
	s.audit(ctx, &grantlog.Entry{
		ID:          id.NewAuditLogID(),
		Event:       grantlog.EventGranted,
		UserID:      userID,
		FolderID:    folderID,
		Level:       level,
		PerformedBy: granter.ID,
	})
	if s.plugins != nil {
		s.plugins.EmitGrantCreated(ctx, g)
	}

	return g, nil
}

// Revoke removes userID's direct grant on folderID. The revoker must hold
// manage_permissions on the folder. Inherited access through ancestors is
// untouched; revoking a parent grant is the way to cut it off.
func (s *Service) Revoke(ctx context.Context, revoker Actor, userID string, folderID id.FolderID) error {
	if err := s.authorizeManage(ctx, revoker, folderID); err != nil {
		return err
	}

	g, err := s.store.GetGrant(ctx, userID, folderID)
	if err != nil {
		if errors.Is(err, grant.ErrNotFound) {
			return fmt.Errorf("revoke %s on %s: %w", userID, folderID, ErrGrantNotFound)
		}
		return fmt.Errorf("custodian revoke: %w", err)
	}

	if err := s.store.DeleteGrant(ctx, userID, folderID); err != nil {
		return fmt.Errorf("custodian revoke: %w", err)
	}

	s.invalidate(ctx, userID, folderID)
	s.audit(ctx, &grantlog.Entry{
		ID:          id.NewAuditLogID(),
		Event:       grantlog.EventRevoked,
		UserID:      userID,
		FolderID:    folderID,
		Level:       g.Level,
		PerformedBy: revoker.ID,
	})
	if s.plugins != nil {
		s.plugins.EmitGrantRevoked(ctx, userID, folderID)
	}

	return nil
}

// BatchGrant grants the level over the cartesian product of users and
// folders. Each pairing is attempted independently: a failure (for example,
// the granter lacking manage_permissions on one folder) is logged and
// skipped, never fatal to the batch. The return value contains only the
// pairings that succeeded.
func (s *Service) BatchGrant(ctx context.Context, granter Actor, userIDs []string, folderIDs []id.FolderID, level grant.Level, expiresAt *time.Time) ([]*grant.Grant, error) {
	granted := make([]*grant.Grant, 0, len(userIDs)*len(folderIDs))
	for _, userID := range userIDs {
		for _, folderID := range folderIDs {
			g, err := s.Grant(ctx, granter, userID, folderID, level, expiresAt)
			if err != nil {
				s.logger.Warn("batch grant pairing skipped",
					"user_id", userID,
					"folder_id", folderID.String(),
					"level", string(level),
					"error", err)
				continue
			}
			granted = append(granted, g)
		}
	}
	return granted, nil
}

// SetInheritance upserts the inheritance rule for the (parent, child) folder
// edge. The actor must hold manage_permissions on the parent. Inherited
// access is always resolved lazily at check time; no rows are materialized
// on the child.
func (s *Service) SetInheritance(ctx context.Context, actor Actor, parentID, childID id.FolderID, inherit bool, overrides inheritance.Overrides) error {
	if err := s.authorizeManage(ctx, actor, parentID); err != nil {
		return err
	}
	if _, err := s.store.GetFolder(ctx, childID); err != nil {
		if errors.Is(err, folder.ErrNotFound) {
			return fmt.Errorf("child %s: %w", childID, ErrFolderNotFound)
		}
		return fmt.Errorf("custodian set inheritance: %w", err)
	}

	r := &inheritance.Rule{
		ID:        id.NewRuleID(),
		ParentID:  parentID,
		ChildID:   childID,
		Inherit:   inherit,
		Overrides: overrides,
	}
	if err := s.store.UpsertRule(ctx, r); err != nil {
		return fmt.Errorf("custodian set inheritance: %w", err)
	}

	if s.cache != nil {
		s.cache.InvalidateFolder(ctx, childID)
	}
	s.audit(ctx, &grantlog.Entry{
		ID:          id.NewAuditLogID(),
		Event:       grantlog.EventInheritanceSet,
		FolderID:    childID,
		PerformedBy: actor.ID,
		Detail:      fmt.Sprintf("parent=%s inherit=%t", parentID, inherit),
	})
	if s.plugins != nil {
		s.plugins.EmitInheritanceUpdated(ctx, r)
	}

	return nil
}

// SweepExpired deletes all grants whose expiry has passed and returns the
// number removed. Intended to be driven by a host scheduler, not the request
// path.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	n, err := s.store.SweepExpiredGrants(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("custodian sweep: %w", err)
	}
	if n > 0 {
		s.audit(ctx, &grantlog.Entry{
			ID:          id.NewAuditLogID(),
			Event:       grantlog.EventSwept,
			PerformedBy: "system",
			Detail:      fmt.Sprintf("removed=%d", n),
		})
		if s.plugins != nil {
			s.plugins.EmitExpiredSwept(ctx, n)
		}
	}
	return n, nil
}

// ListFolderGrants returns all valid grants on a folder with capability sets
// recomputed from their levels. The actor must hold read on the folder: who
// has access is itself folder content.
func (s *Service) ListFolderGrants(ctx context.Context, actor Actor, folderID id.FolderID) ([]*grant.Grant, error) {
	if err := s.authorize(ctx, actor, folderID, grant.ActionRead); err != nil {
		return nil, err
	}
	grants, err := s.store.ListGrantsForFolder(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("custodian list folder grants: %w", err)
	}
	refreshCapabilities(grants)
	return grants, nil
}

// ListUserGrants returns all valid grants held by a user with capability
// sets recomputed from their levels. Users see only their own grants;
// administrators see anyone's.
func (s *Service) ListUserGrants(ctx context.Context, actor Actor, userID string) ([]*grant.Grant, error) {
	if actor.ID != userID && !actor.IsAdministrator() {
		return nil, fmt.Errorf("%w: cannot list grants for another user", ErrAccessDenied)
	}
	grants, err := s.store.ListGrantsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("custodian list user grants: %w", err)
	}
	refreshCapabilities(grants)
	return grants, nil
}

// authorizeManage verifies the actor holds manage_permissions on the folder.
func (s *Service) authorizeManage(ctx context.Context, actor Actor, folderID id.FolderID) error {
	return s.authorize(ctx, actor, folderID, grant.ActionManagePermissions)
}

// authorize verifies the actor may perform the action on the folder,
// surfacing a missing folder as ErrFolderNotFound rather than a deny result.
func (s *Service) authorize(ctx context.Context, actor Actor, folderID id.FolderID, action grant.Action) error {
	result, err := s.Check(ctx, &CheckRequest{
		Actor:    actor,
		FolderID: folderID,
		Action:   action,
	})
	if err != nil {
		return err
	}
	if result.Decision == DecisionDenyFolderNotFound {
		return fmt.Errorf("folder %s: %w", folderID, ErrFolderNotFound)
	}
	if !result.Allowed {
		return fmt.Errorf("%w: no permission for %s on %s", ErrAccessDenied, action, folderID)
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, userID string, folderID id.FolderID) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateUser(ctx, userID)
	s.cache.InvalidateFolder(ctx, folderID)
}

// audit records a permission mutation. Audit failures are logged, never
// surfaced: the mutation itself already succeeded.
func (s *Service) audit(ctx context.Context, e *grantlog.Entry) {
	e.CreatedAt = time.Now().UTC()
	if err := s.store.CreateEntry(ctx, e); err != nil {
		s.logger.Error("audit entry write failed", "event", string(e.Event), "error", err)
	}
}

func refreshCapabilities(grants []*grant.Grant) {
	for _, g := range grants {
		g.Capabilities = g.EffectiveCapabilities()
	}
}
