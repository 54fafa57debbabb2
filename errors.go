package custodian

import (
	"errors"

	"github.com/xraph/custodian/folder"
	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/inheritance"
)

var (
	// ErrAccessDenied is returned when an actor lacks the capability an
	// operation requires.
	ErrAccessDenied = errors.New("custodian: access denied")

	// ErrFolderNotFound is returned when a folder cannot be found.
	ErrFolderNotFound = folder.ErrNotFound

	// ErrGrantNotFound is returned when a grant cannot be found.
	ErrGrantNotFound = grant.ErrNotFound

	// ErrRuleNotFound is returned when an inheritance rule cannot be found.
	ErrRuleNotFound = inheritance.ErrNotFound

	// ErrInvalidLevel is returned when a permission level is not recognized
	// or cannot be granted.
	ErrInvalidLevel = grant.ErrInvalidLevel

	// ErrInvalidAction is returned when an action is not recognized.
	ErrInvalidAction = grant.ErrInvalidAction
)
