// Package document models review documents and builds the role-scoped
// queries used to list them.
package document

import (
	"strings"
	"time"

	"github.com/felixgeelhaar/docreview/internal/session"
)

// Status is the lifecycle state of a document.
type Status string

// Declaration order is the natural filter order.
const (
	StatusDraft          Status = "DRAFT"
	StatusReadyForReview Status = "READY_FOR_REVIEW"
	StatusUnderReview    Status = "UNDER_REVIEW"
	StatusApproved       Status = "APPROVED"
	StatusDeclined       Status = "DECLINED"
	StatusRevoke         Status = "REVOKE"
)

// AllStatuses lists every status in declaration order.
func AllStatuses() []Status {
	return []Status{
		StatusDraft,
		StatusReadyForReview,
		StatusUnderReview,
		StatusApproved,
		StatusDeclined,
		StatusRevoke,
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range AllStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus parses a status name case-insensitively. Hyphens and spaces
// are accepted in place of underscores.
func ParseStatus(raw string) (Status, bool) {
	norm := strings.ToUpper(strings.TrimSpace(raw))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	s := Status(norm)
	return s, s.Valid()
}

// Document is a reviewable PDF document.
type Document struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Status    Status              `json:"status"`
	FileURL   string              `json:"fileUrl"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
	Creator   session.UserProfile `json:"creator"`
}

// Page is one page of a listing.
type Page struct {
	Results []Document `json:"results"`
	Count   int        `json:"count"`
}

// CanDelete reports whether d may be deleted. Only drafts and revoked
// documents can be removed.
func CanDelete(d Document) bool {
	return d.Status == StatusDraft || d.Status == StatusRevoke
}

// CanRevoke reports whether d may be pulled back from the review queue.
func CanRevoke(d Document) bool {
	return d.Status == StatusReadyForReview
}

// CanSubmit reports whether d may be sent for review.
func CanSubmit(d Document) bool {
	return d.Status == StatusDraft || d.Status == StatusRevoke
}
