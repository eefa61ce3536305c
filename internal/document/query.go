package document

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/docreview/internal/errors"
	"github.com/felixgeelhaar/docreview/internal/session"
)

// DefaultSort is the initial sort key of the document panel.
const DefaultSort = "name,asc"

// StatusFilter is a single status or a set of statuses sent comma-joined.
type StatusFilter []Status

// String joins the statuses with commas, preserving order.
func (f StatusFilter) String() string {
	parts := make([]string, len(f))
	for i, s := range f {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

// ParseStatusFilter parses a comma separated list of statuses.
func ParseStatusFilter(raw string) (StatusFilter, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var f StatusFilter
	for _, part := range strings.Split(raw, ",") {
		s, ok := ParseStatus(part)
		if !ok {
			return nil, errors.NewValidationError(fmt.Sprintf("invalid document status %q", strings.TrimSpace(part)))
		}
		f = append(f, s)
	}
	return f, nil
}

// ReviewerDefaultStatuses is what reviewers see when no status is selected.
// Drafts stay private to their creator until submitted.
func ReviewerDefaultStatuses() StatusFilter {
	return StatusFilter{
		StatusUnderReview,
		StatusApproved,
		StatusDeclined,
		StatusReadyForReview,
		StatusRevoke,
	}
}

// Query is a validated, role-scoped listing request.
//
// At most one of CreatorID and CreatorEmail is set.
type Query struct {
	Page         int
	Size         int
	Sort         string
	Status       StatusFilter
	CreatorID    string
	CreatorEmail string
}

// Validate checks the invariants the listing endpoint relies on.
func (q Query) Validate() error {
	if q.Page < 1 || q.Size < 1 {
		return errors.NewValidationError("page and size must be greater than 0")
	}
	for _, s := range q.Status {
		if !s.Valid() {
			return errors.NewValidationError(fmt.Sprintf("invalid document status %q", s))
		}
	}
	if q.CreatorID != "" && q.CreatorEmail != "" {
		return errors.NewValidationError("creatorId and creatorEmail are mutually exclusive")
	}
	return nil
}

// Values encodes q as URL query parameters. Unset fields are omitted.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("size", strconv.Itoa(q.Size))
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if len(q.Status) > 0 {
		v.Set("status", q.Status.String())
	}
	if q.CreatorID != "" {
		v.Set("creatorId", q.CreatorID)
	}
	if q.CreatorEmail != "" {
		v.Set("creatorEmail", q.CreatorEmail)
	}
	return v
}

// QueryInput is everything BuildQuery needs from the session and the UI.
type QueryInput struct {
	Page int
	Size int
	Sort string

	// Role is the caller's role; empty means unknown and is treated as a
	// non-reviewer.
	Role session.Role

	SelectedStatus StatusFilter
	CreatorFilter  string
	SelfUserID     string
}

// BuildQuery translates in into a Query.
//
// Non-reviewers are always scoped to their own documents and never
// filtered by status; their status and creator inputs are ignored.
// Reviewers see every non-draft status unless one is selected, and may
// filter by creator id or email.
func BuildQuery(in QueryInput) (Query, error) {
	q := Query{
		Page: in.Page,
		Size: in.Size,
		Sort: in.Sort,
	}

	if in.Role != session.RoleReviewer {
		if in.SelfUserID == "" {
			return Query{}, errors.NewValidationError("cannot scope query: current user id is unknown").
				WithSuggestion("Wait for the profile to load or run 'docreview auth status'")
		}
		q.CreatorID = in.SelfUserID
	} else {
		if len(in.SelectedStatus) > 0 {
			q.Status = append(StatusFilter(nil), in.SelectedStatus...)
		} else {
			q.Status = ReviewerDefaultStatuses()
		}

		if creator := strings.TrimSpace(in.CreatorFilter); creator != "" {
			if IsUUID(creator) {
				q.CreatorID = creator
			} else {
				q.CreatorEmail = creator
			}
		}
	}

	if err := q.Validate(); err != nil {
		return Query{}, err
	}
	return q, nil
}
