package authz

import (
	"github.com/felixgeelhaar/docreview/internal/session"
)

// Column identifies a field of the document table.
type Column string

const (
	ColumnName    Column = "name"
	ColumnStatus  Column = "status"
	ColumnCreator Column = "creator"
	ColumnActions Column = "actions"
	ColumnView    Column = "view"
)

// Reader is the read side of the session used by the predicates.
type Reader interface {
	Snapshot() session.Snapshot
}

// IsReviewer reports whether the loaded user has the reviewer role.
// An unloaded session is never a reviewer.
func IsReviewer(s session.Snapshot) bool {
	role, ok := s.Role()
	return ok && role == session.RoleReviewer
}

// IsUser reports whether the loaded user has the plain user role.
func IsUser(s session.Snapshot) bool {
	role, ok := s.Role()
	return ok && role == session.RoleUser
}

// VisibleColumns returns the document table columns for s. Reviewers get
// the creator column in addition to everything a user sees.
func VisibleColumns(s session.Snapshot) []Column {
	if IsReviewer(s) {
		return []Column{ColumnName, ColumnStatus, ColumnCreator, ColumnActions, ColumnView}
	}
	return []Column{ColumnName, ColumnStatus, ColumnActions, ColumnView}
}

// CanChangeStatus reports whether s may move a document to an arbitrary
// review status (approve, decline, start review).
func CanChangeStatus(s session.Snapshot) bool {
	return IsReviewer(s)
}

// Facts bundles the predicates evaluated against a single snapshot.
type Facts struct {
	Authenticated bool
	Loaded        bool
	Reviewer      bool
	User          bool
	Columns       []Column
}

// Evaluate derives every predicate from the single snapshot snap, so the
// facts never mix two session states.
func Evaluate(snap session.Snapshot) Facts {
	return Facts{
		Authenticated: snap.Authenticated(),
		Loaded:        snap.Loaded,
		Reviewer:      IsReviewer(snap),
		User:          IsUser(snap),
		Columns:       VisibleColumns(snap),
	}
}
