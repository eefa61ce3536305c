package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/docreview/internal/credstore"
	"github.com/felixgeelhaar/docreview/internal/session"
)

func snapshotWith(role session.Role) session.Snapshot {
	return session.Snapshot{
		Token:  "tok",
		User:   &session.UserProfile{ID: "u-1", Role: role},
		Loaded: true,
	}
}

func TestRolePredicates(t *testing.T) {
	tests := []struct {
		name         string
		snap         session.Snapshot
		wantReviewer bool
		wantUser     bool
	}{
		{name: "reviewer", snap: snapshotWith(session.RoleReviewer), wantReviewer: true},
		{name: "user", snap: snapshotWith(session.RoleUser), wantUser: true},
		{name: "unloaded", snap: session.Snapshot{Token: "tok"}},
		{name: "unknown role", snap: snapshotWith("ADMIN")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantReviewer, IsReviewer(tt.snap))
			assert.Equal(t, tt.wantUser, IsUser(tt.snap))
			assert.Equal(t, tt.wantReviewer, CanChangeStatus(tt.snap))
		})
	}
}

func TestVisibleColumns(t *testing.T) {
	reviewerCols := VisibleColumns(snapshotWith(session.RoleReviewer))
	userCols := VisibleColumns(snapshotWith(session.RoleUser))

	assert.Equal(t, []Column{ColumnName, ColumnStatus, ColumnCreator, ColumnActions, ColumnView}, reviewerCols)
	assert.Equal(t, []Column{ColumnName, ColumnStatus, ColumnActions, ColumnView}, userCols)

	// Reviewer set is a strict superset.
	for _, c := range userCols {
		assert.Contains(t, reviewerCols, c)
	}
	assert.Greater(t, len(reviewerCols), len(userCols))
	assert.NotContains(t, VisibleColumns(session.Snapshot{}), ColumnCreator)
}

func TestEvaluate_TracksRoleChanges(t *testing.T) {
	state := session.New(credstore.NewMemoryStore())

	facts := Evaluate(state.Snapshot())
	assert.False(t, facts.Authenticated)
	assert.False(t, facts.Reviewer)
	assert.NotContains(t, facts.Columns, ColumnCreator)

	state.SetToken("tok")
	state.SetProfile(session.UserProfile{ID: "r-1", Role: session.RoleReviewer})
	facts = Evaluate(state.Snapshot())
	assert.True(t, facts.Authenticated)
	assert.True(t, facts.Loaded)
	assert.True(t, facts.Reviewer)
	assert.Contains(t, facts.Columns, ColumnCreator)

	state.SetProfile(session.UserProfile{ID: "r-1", Role: session.RoleUser})
	facts = Evaluate(state.Snapshot())
	assert.False(t, facts.Reviewer)
	assert.True(t, facts.User)
	assert.NotContains(t, facts.Columns, ColumnCreator)

	state.Clear()
	facts = Evaluate(state.Snapshot())
	assert.False(t, facts.Authenticated)
	assert.False(t, facts.User)
}
