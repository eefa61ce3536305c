package platform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/docreview/internal/document"
	"github.com/felixgeelhaar/docreview/internal/errors"
)

// ListDocuments fetches one page of documents. The query is validated
// locally first.
func (c *Client) ListDocuments(ctx context.Context, q document.Query) (document.Page, error) {
	if err := q.Validate(); err != nil {
		return document.Page{}, err
	}
	var page document.Page
	if err := c.doJSON(ctx, http.MethodGet, pathDocument, q.Values(), nil, &page); err != nil {
		return document.Page{}, err
	}
	return page, nil
}

// GetDocument fetches one document.
func (c *Client) GetDocument(ctx context.Context, id string) (document.Document, error) {
	var d document.Document
	if err := c.doJSON(ctx, http.MethodGet, documentPath(id), nil, nil, &d); err != nil {
		return document.Document{}, err
	}
	return d, nil
}

// CreateDocument uploads a PDF as multipart form data.
func (c *Client) CreateDocument(ctx context.Context, req document.CreateRequest) (document.Document, error) {
	f, err := os.Open(req.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return document.Document{}, errors.NewFileNotFoundError(req.FilePath)
		}
		return document.Document{}, errors.Wrap(errors.ErrCodeFileReadFailed, "cannot read file", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("name", req.Name); err != nil {
		return document.Document{}, err
	}
	if err := mw.WriteField("status", string(req.Status)); err != nil {
		return document.Document{}, err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(req.FilePath)))
	h.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(h)
	if err != nil {
		return document.Document{}, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return document.Document{}, errors.Wrap(errors.ErrCodeFileReadFailed, "cannot read file", err)
	}
	if err := mw.Close(); err != nil {
		return document.Document{}, err
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, pathDocument, nil, &buf)
	if err != nil {
		return document.Document{}, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var d document.Document
	if err := c.do(httpReq, &d); err != nil {
		return document.Document{}, err
	}
	return d, nil
}

type updateDocumentRequest struct {
	Name string `json:"name"`
}

// UpdateDocument saves the editable fields of d.
func (c *Client) UpdateDocument(ctx context.Context, d document.Document) (document.Document, error) {
	var out document.Document
	if err := c.doJSON(ctx, http.MethodPut, documentPath(d.ID), nil, updateDocumentRequest{Name: d.Name}, &out); err != nil {
		return document.Document{}, err
	}
	return out, nil
}

// DeleteDocument removes a document.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, documentPath(id), nil, nil, nil)
}

// SendToReview puts a document in the review queue.
func (c *Client) SendToReview(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPost, documentPath(id, "send-to-review"), nil, nil, nil)
}

type changeStatusRequest struct {
	Status document.Status `json:"status"`
}

// ChangeStatus sets the status of a document.
func (c *Client) ChangeStatus(ctx context.Context, id string, status document.Status) error {
	return c.doJSON(ctx, http.MethodPost, documentPath(id, "change-status"), nil, changeStatusRequest{Status: status}, nil)
}

var _ document.API = (*Client)(nil)
