package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/custodian/folder"
	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/grantlog"
	"github.com/xraph/custodian/id"
	"github.com/xraph/custodian/inheritance"
)

// ──────────────────────────────────────────────────
// Grant model
// ──────────────────────────────────────────────────

type grantModel struct {
	grove.BaseModel `grove:"table:custodian_grants"`
	ID              string             `grove:"id,pk"        bson:"_id"`
	UserID          string             `grove:"user_id"      bson:"user_id"`
	FolderID        string             `grove:"folder_id"    bson:"folder_id"`
	Level           string             `grove:"level"        bson:"level"`
	Capabilities    grant.Capabilities `grove:"capabilities" bson:"capabilities"`
	GrantedBy       string             `grove:"granted_by"   bson:"granted_by"`
	GrantedAt       time.Time          `grove:"granted_at"   bson:"granted_at"`
	ExpiresAt       *time.Time         `grove:"expires_at"   bson:"expires_at,omitempty"`
	CreatedAt       time.Time          `grove:"created_at"   bson:"created_at"`
	UpdatedAt       time.Time          `grove:"updated_at"   bson:"updated_at"`
}

func grantToModel(g *grant.Grant) *grantModel {
	return &grantModel{
		ID:           g.ID.String(),
		UserID:       g.UserID,
		FolderID:     g.FolderID.String(),
		Level:        string(g.Level),
		Capabilities: g.Capabilities,
		GrantedBy:    g.GrantedBy,
		GrantedAt:    g.GrantedAt,
		ExpiresAt:    g.ExpiresAt,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
}

func grantFromModel(m *grantModel) *grant.Grant {
	gid, _ := id.ParseGrantID(m.ID)        //nolint:errcheck // stored IDs are always valid
	fid, _ := id.ParseFolderID(m.FolderID) //nolint:errcheck // stored IDs are always valid
	return &grant.Grant{
		ID:           gid,
		UserID:       m.UserID,
		FolderID:     fid,
		Level:        grant.Level(m.Level),
		Capabilities: m.Capabilities,
		GrantedBy:    m.GrantedBy,
		GrantedAt:    m.GrantedAt,
		ExpiresAt:    m.ExpiresAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Inheritance rule model
// ──────────────────────────────────────────────────

type ruleModel struct {
	grove.BaseModel `grove:"table:custodian_inheritance_rules"`
	ID              string                `grove:"id,pk"      bson:"_id"`
	ParentID        string                `grove:"parent_id"  bson:"parent_id"`
	ChildID         string                `grove:"child_id"   bson:"child_id"`
	Inherit         bool                  `grove:"inherit"    bson:"inherit"`
	Overrides       inheritance.Overrides `grove:"overrides"  bson:"overrides"`
	CreatedAt       time.Time             `grove:"created_at" bson:"created_at"`
	UpdatedAt       time.Time             `grove:"updated_at" bson:"updated_at"`
}

func ruleToModel(r *inheritance.Rule) *ruleModel {
	return &ruleModel{
		ID:        r.ID.String(),
		ParentID:  r.ParentID.String(),
		ChildID:   r.ChildID.String(),
		Inherit:   r.Inherit,
		Overrides: r.Overrides,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func ruleFromModel(m *ruleModel) *inheritance.Rule {
	rid, _ := id.ParseRuleID(m.ID)         //nolint:errcheck // stored IDs are always valid
	pid, _ := id.ParseFolderID(m.ParentID) //nolint:errcheck // stored IDs are always valid
	cid, _ := id.ParseFolderID(m.ChildID)  //nolint:errcheck // stored IDs are always valid
	return &inheritance.Rule{
		ID:        rid,
		ParentID:  pid,
		ChildID:   cid,
		Inherit:   m.Inherit,
		Overrides: m.Overrides,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Folder model
// ──────────────────────────────────────────────────

type folderModel struct {
	grove.BaseModel `grove:"table:custodian_folders"`
	ID              string    `grove:"id,pk"      bson:"_id"`
	OwnerID         string    `grove:"owner_id"   bson:"owner_id"`
	Name            string    `grove:"name"       bson:"name"`
	ParentID        *string   `grove:"parent_id"  bson:"parent_id,omitempty"`
	Path            []string  `grove:"path"       bson:"path"`
	CreatedAt       time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at" bson:"updated_at"`
}

func folderToModel(f *folder.Folder) *folderModel {
	path := make([]string, len(f.Path))
	for i, p := range f.Path {
		path[i] = p.String()
	}
	m := &folderModel{
		ID:        f.ID.String(),
		OwnerID:   f.OwnerID,
		Name:      f.Name,
		Path:      path,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
	if f.ParentID != nil {
		s := f.ParentID.String()
		m.ParentID = &s
	}
	return m
}

func folderFromModel(m *folderModel) *folder.Folder {
	fid, _ := id.ParseFolderID(m.ID) //nolint:errcheck // stored IDs are always valid
	path := make([]id.FolderID, 0, len(m.Path))
	for _, p := range m.Path {
		pid, err := id.ParseFolderID(p)
		if err == nil {
			path = append(path, pid)
		}
	}
	f := &folder.Folder{
		ID:        fid,
		OwnerID:   m.OwnerID,
		Name:      m.Name,
		Path:      path,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.ParentID != nil {
		pid, err := id.ParseFolderID(*m.ParentID)
		if err == nil {
			f.ParentID = &pid
		}
	}
	return f
}

// ──────────────────────────────────────────────────
// Audit log model
// ──────────────────────────────────────────────────

type grantLogModel struct {
	grove.BaseModel `grove:"table:custodian_grant_logs"`
	ID              string    `grove:"id,pk"        bson:"_id"`
	Event           string    `grove:"event"        bson:"event"`
	UserID          string    `grove:"user_id"      bson:"user_id,omitempty"`
	FolderID        string    `grove:"folder_id"    bson:"folder_id,omitempty"`
	Level           string    `grove:"level"        bson:"level,omitempty"`
	PerformedBy     string    `grove:"performed_by" bson:"performed_by"`
	Detail          string    `grove:"detail"       bson:"detail,omitempty"`
	CreatedAt       time.Time `grove:"created_at"   bson:"created_at"`
}

func grantLogToModel(e *grantlog.Entry) *grantLogModel {
	m := &grantLogModel{
		ID:          e.ID.String(),
		Event:       string(e.Event),
		UserID:      e.UserID,
		Level:       string(e.Level),
		PerformedBy: e.PerformedBy,
		Detail:      e.Detail,
		CreatedAt:   e.CreatedAt,
	}
	if !e.FolderID.IsNil() {
		m.FolderID = e.FolderID.String()
	}
	return m
}

func grantLogFromModel(m *grantLogModel) *grantlog.Entry {
	lid, _ := id.ParseAuditLogID(m.ID) //nolint:errcheck // stored IDs are always valid
	e := &grantlog.Entry{
		ID:          lid,
		Event:       grantlog.Event(m.Event),
		UserID:      m.UserID,
		Level:       grant.Level(m.Level),
		PerformedBy: m.PerformedBy,
		Detail:      m.Detail,
		CreatedAt:   m.CreatedAt,
	}
	if m.FolderID != "" {
		fid, err := id.ParseFolderID(m.FolderID)
		if err == nil {
			e.FolderID = fid
		}
	}
	return e
}
