package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fieldhq/jobsite-forms/internal/domain/entity"
)

// Config holds HTTP client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a JSON-over-HTTP implementation of the persistence ports.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new persistence client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

var (
	_ TemplateAPI   = (*Client)(nil)
	_ SubmissionAPI = (*Client)(nil)
	_ ApprovalAPI   = (*Client)(nil)
	_ RosterAPI     = (*Client)(nil)
)

// GetTemplate fetches a form template by id
func (c *Client) GetTemplate(ctx context.Context, id string) (*entity.FormTemplate, error) {
	var tmpl entity.FormTemplate
	if err := c.do(ctx, http.MethodGet, "/api/v1/templates/"+id, nil, &tmpl, notFound("template", id)); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// GetSubmission fetches a submission by id
func (c *Client) GetSubmission(ctx context.Context, id string) (*entity.FormSubmission, error) {
	var sub entity.FormSubmission
	if err := c.do(ctx, http.MethodGet, "/api/v1/submissions/"+id, nil, &sub, notFound("submission", id)); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubmission creates a new submission for a template
func (c *Client) CreateSubmission(ctx context.Context, req CreateSubmissionRequest) (*entity.FormSubmission, error) {
	var sub entity.FormSubmission
	path := "/api/v1/templates/" + req.FormTemplateID + "/submissions"
	if err := c.do(ctx, http.MethodPost, path, req, &sub, nil); err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateDraft updates a submission via the draft path
func (c *Client) UpdateDraft(ctx context.Context, req UpdateDraftRequest) (*entity.FormSubmission, error) {
	var sub entity.FormSubmission
	path := "/api/v1/submissions/" + req.SubmissionID
	if err := c.do(ctx, http.MethodPut, path, req, &sub, notFound("submission", req.SubmissionID)); err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateSubmission updates a submission via the submit/autosave path
func (c *Client) UpdateSubmission(ctx context.Context, req UpdateSubmissionRequest) (*entity.FormSubmission, error) {
	var sub entity.FormSubmission
	path := "/api/v1/submissions/" + req.SubmissionID
	if err := c.do(ctx, http.MethodPut, path, req, &sub, notFound("submission", req.SubmissionID)); err != nil {
		return nil, err
	}
	return &sub, nil
}

// DeleteSubmission deletes a submission by id
func (c *Client) DeleteSubmission(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/submissions/"+id, nil, nil, notFound("submission", id))
}

// GetApproval fetches an approval record by id
func (c *Client) GetApproval(ctx context.Context, id string) (*entity.FormApproval, error) {
	var approval entity.FormApproval
	if err := c.do(ctx, http.MethodGet, "/api/v1/approvals/"+id, nil, &approval, notFound("approval", id)); err != nil {
		return nil, err
	}
	return &approval, nil
}

// CreateApproval records an approval decision
func (c *Client) CreateApproval(ctx context.Context, req CreateApprovalRequest) (*entity.FormApproval, error) {
	var approval entity.FormApproval
	if err := c.do(ctx, http.MethodPost, "/api/v1/approvals", req, &approval, nil); err != nil {
		return nil, err
	}
	return &approval, nil
}

// GetLookups fetches the roster and asset catalogs
func (c *Client) GetLookups(ctx context.Context) (entity.Lookups, error) {
	var lookups entity.Lookups
	if err := c.do(ctx, http.MethodGet, "/api/v1/roster", nil, &lookups, nil); err != nil {
		return entity.Lookups{}, err
	}
	return lookups, nil
}

// notFound builds the typed error to return on a 404 response.
func notFound(resource, id string) error {
	return &entity.NotFoundError{Resource: resource, ID: id}
}

// do executes one JSON request. A 404 yields onMissing when set; any other
// non-2xx status or transport failure yields a NetworkError.
func (c *Client) do(ctx context.Context, method, path string, body, out any, onMissing error) error {
	op := fmt.Sprintf("%s %s", method, path)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Persistence request failed", zap.String("op", op), zap.Error(err))
		return &entity.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && onMissing != nil {
		return onMissing
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Persistence request rejected",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode))
		return &entity.NetworkError{Op: op, Status: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
