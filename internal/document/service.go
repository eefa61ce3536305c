package document

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/docreview/internal/authz"
	"github.com/felixgeelhaar/docreview/internal/errors"
	"github.com/felixgeelhaar/docreview/internal/log"
	"github.com/felixgeelhaar/docreview/internal/session"
	"github.com/felixgeelhaar/docreview/internal/telemetry"
)

// API is the document backend.
type API interface {
	ListDocuments(ctx context.Context, q Query) (Page, error)
	GetDocument(ctx context.Context, id string) (Document, error)
	CreateDocument(ctx context.Context, req CreateRequest) (Document, error)
	UpdateDocument(ctx context.Context, d Document) (Document, error)
	DeleteDocument(ctx context.Context, id string) error
	SendToReview(ctx context.Context, id string) error
	ChangeStatus(ctx context.Context, id string, status Status) error
}

// CreateRequest is an upload of a new document.
type CreateRequest struct {
	Name     string
	Status   Status
	FilePath string
}

// QueryObserver is notified of every query built, e.g. for metrics.
type QueryObserver interface {
	QueryBuilt(reviewer bool, q Query)
}

// Service runs document operations on behalf of the current session.
type Service struct {
	api      API
	session  authz.Reader
	logger   *log.Logger
	observer QueryObserver

	// maxParallel bounds GetMany fan-out.
	maxParallel int
}

// NewService creates a Service.
func NewService(api API, state authz.Reader, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Service{
		api:         api,
		session:     state,
		logger:      logger.With("service", "documents"),
		maxParallel: 4,
	}
}

// WithObserver attaches a QueryObserver.
func (s *Service) WithObserver(o QueryObserver) *Service {
	s.observer = o
	return s
}

// BuildQuery derives the listing query for f from the current session.
func (s *Service) BuildQuery(f Filter) (Query, error) {
	snap := s.session.Snapshot()
	if !snap.Authenticated() {
		return Query{}, errors.NewNotAuthenticatedError()
	}

	in := QueryInput{
		Page:           f.Page,
		Size:           f.Size,
		Sort:           f.Sort,
		SelectedStatus: f.SelectedStatus,
		CreatorFilter:  f.Creator,
	}
	if role, ok := snap.Role(); ok {
		in.Role = role
	}
	if id, ok := snap.UserID(); ok {
		in.SelfUserID = id
	}

	q, err := BuildQuery(in)
	if err != nil {
		return Query{}, err
	}
	if s.observer != nil {
		s.observer.QueryBuilt(in.Role == session.RoleReviewer, q)
	}
	return q, nil
}

// List fetches the page of documents described by f.
func (s *Service) List(ctx context.Context, f Filter) (Page, error) {
	ctx, span := telemetry.StartOperationSpan(ctx, "documents.list")
	defer span.End()

	q, err := s.BuildQuery(f)
	if err != nil {
		telemetry.RecordError(span, err)
		return Page{}, err
	}
	span.SetAttributes(
		attribute.Int("page", q.Page),
		attribute.Int("size", q.Size),
		attribute.String("status", q.Status.String()),
	)

	page, err := s.api.ListDocuments(ctx, q)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.WithError(err).Error("error loading documents")
		return Page{}, err
	}
	s.logger.Debug("documents loaded", "count", page.Count, "returned", len(page.Results))
	return page, nil
}

// Get fetches one document.
func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	if id == "" {
		return Document{}, errors.NewValidationError("document id is required")
	}
	return s.api.GetDocument(ctx, id)
}

// GetMany fetches several documents concurrently, preserving order.
func (s *Service) GetMany(ctx context.Context, ids []string) ([]Document, error) {
	docs := make([]Document, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for i, id := range ids {
		g.Go(func() error {
			d, err := s.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("document %s: %w", id, err)
			}
			docs[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Create validates the PDF at path and uploads it as a new draft.
func (s *Service) Create(ctx context.Context, name, path string) (Document, error) {
	if name == "" || path == "" {
		return Document{}, errors.NewValidationError("please provide both a document name and a file")
	}
	info, err := InspectPDF(path)
	if err != nil {
		return Document{}, err
	}
	s.logger.Debug("uploading document", "name", name, "pages", info.Pages, "bytes", info.Size)

	d, err := s.api.CreateDocument(ctx, CreateRequest{Name: name, Status: StatusDraft, FilePath: path})
	if err != nil {
		return Document{}, err
	}
	s.logger.Info("document added", "id", d.ID)
	return d, nil
}

// Rename changes the display name of d.
func (s *Service) Rename(ctx context.Context, d Document, name string) (Document, error) {
	if name == "" {
		return Document{}, errors.NewValidationError("document name is required")
	}
	d.Name = name
	return s.api.UpdateDocument(ctx, d)
}

// Delete removes d if its status allows it.
func (s *Service) Delete(ctx context.Context, d Document) error {
	if !CanDelete(d) {
		return errors.NewInvalidDocumentError(fmt.Sprintf("cannot delete a document in status %s", d.Status)).
			WithSuggestion("Only DRAFT and REVOKE documents can be deleted")
	}
	return s.api.DeleteDocument(ctx, d.ID)
}

// Revoke pulls d back from the review queue.
func (s *Service) Revoke(ctx context.Context, d Document) error {
	if !CanRevoke(d) {
		return errors.NewInvalidDocumentError(fmt.Sprintf("cannot revoke a document in status %s", d.Status)).
			WithSuggestion("Only READY_FOR_REVIEW documents can be revoked")
	}
	return s.api.ChangeStatus(ctx, d.ID, StatusRevoke)
}

// SubmitForReview sends d to the review queue.
func (s *Service) SubmitForReview(ctx context.Context, d Document) error {
	if !CanSubmit(d) {
		return errors.NewInvalidDocumentError(fmt.Sprintf("cannot submit a document in status %s", d.Status))
	}
	return s.api.SendToReview(ctx, d.ID)
}

// ChangeStatus sets an arbitrary status. Reviewers only.
func (s *Service) ChangeStatus(ctx context.Context, id string, status Status) error {
	if !authz.CanChangeStatus(s.session.Snapshot()) {
		return errors.NewForbiddenError("change document status")
	}
	if !status.Valid() {
		return errors.NewValidationError(fmt.Sprintf("invalid document status %q", status))
	}
	return s.api.ChangeStatus(ctx, id, status)
}
