package grant

import (
	"errors"
	"fmt"
	"strings"
)

// Level is a folder permission level. A grant carries exactly one level;
// levels are never combined. The total order is
// NONE < VIEW < EDIT < SHARE < MANAGE.
type Level string

// Permission level constants, lowest to highest.
const (
	LevelNone   Level = "NONE"
	LevelView   Level = "VIEW"
	LevelEdit   Level = "EDIT"
	LevelShare  Level = "SHARE"
	LevelManage Level = "MANAGE"
)

// ErrInvalidLevel is returned when a permission level string is not recognized.
var ErrInvalidLevel = errors.New("custodian: invalid permission level")

// ErrInvalidAction is returned when an action string is not recognized.
var ErrInvalidAction = errors.New("custodian: invalid action")

// Levels lists all levels in ascending order.
func Levels() []Level {
	return []Level{LevelNone, LevelView, LevelEdit, LevelShare, LevelManage}
}

// Valid reports whether l is a known permission level.
func (l Level) Valid() bool {
	switch l {
	case LevelNone, LevelView, LevelEdit, LevelShare, LevelManage:
		return true
	default:
		return false
	}
}

// Rank returns the position of l in the level total order (NONE=0 ... MANAGE=4).
// Unknown levels rank below NONE.
func (l Level) Rank() int {
	switch l {
	case LevelView:
		return 1
	case LevelEdit:
		return 2
	case LevelShare:
		return 3
	case LevelManage:
		return 4
	case LevelNone:
		return 0
	default:
		return -1
	}
}

// ParseLevel parses a permission level string, case-insensitively.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(s))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
	return l, nil
}

// Action is a single operation on a folder that a capability set can
// allow or deny.
type Action string

// Action constants, one per capability field.
const (
	ActionRead              Action = "read"
	ActionWrite             Action = "write"
	ActionDelete            Action = "delete"
	ActionShare             Action = "share"
	ActionManagePermissions Action = "manage_permissions"
	ActionCreateSubfolder   Action = "create_subfolder"
	ActionMove              Action = "move"
	ActionCopy              Action = "copy"
)

// Actions lists all known actions.
func Actions() []Action {
	return []Action{
		ActionRead, ActionWrite, ActionDelete, ActionShare,
		ActionManagePermissions, ActionCreateSubfolder, ActionMove, ActionCopy,
	}
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionRead, ActionWrite, ActionDelete, ActionShare,
		ActionManagePermissions, ActionCreateSubfolder, ActionMove, ActionCopy:
		return true
	default:
		return false
	}
}

// ParseAction parses an action string, case-insensitively.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(s))
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
	return a, nil
}

// Capabilities is the boolean operation-level permission set implied by a
// permission level.
type Capabilities struct {
	Read              bool `json:"can_read" db:"can_read"`
	Write             bool `json:"can_write" db:"can_write"`
	Delete            bool `json:"can_delete" db:"can_delete"`
	Share             bool `json:"can_share" db:"can_share"`
	ManagePermissions bool `json:"can_manage_permissions" db:"can_manage_permissions"`
	CreateSubfolder   bool `json:"can_create_subfolder" db:"can_create_subfolder"`
	Move              bool `json:"can_move" db:"can_move"`
	Copy              bool `json:"can_copy" db:"can_copy"`
}

// CapabilitiesFor returns the capability set for a permission level.
// This table is the single source of truth; every component derives
// capability sets from here rather than hand-rolling booleans.
func CapabilitiesFor(l Level) Capabilities {
	switch l {
	case LevelView:
		return Capabilities{Read: true}
	case LevelEdit:
		return Capabilities{Read: true, Write: true, CreateSubfolder: true, Copy: true}
	case LevelShare:
		return Capabilities{Read: true, Write: true, Share: true, CreateSubfolder: true, Move: true, Copy: true}
	case LevelManage:
		return Capabilities{
			Read: true, Write: true, Delete: true, Share: true,
			ManagePermissions: true, CreateSubfolder: true, Move: true, Copy: true,
		}
	default:
		return Capabilities{}
	}
}

// Allows reports whether the capability set permits the given action.
func (c Capabilities) Allows(a Action) bool {
	switch a {
	case ActionRead:
		return c.Read
	case ActionWrite:
		return c.Write
	case ActionDelete:
		return c.Delete
	case ActionShare:
		return c.Share
	case ActionManagePermissions:
		return c.ManagePermissions
	case ActionCreateSubfolder:
		return c.CreateSubfolder
	case ActionMove:
		return c.Move
	case ActionCopy:
		return c.Copy
	default:
		return false
	}
}
