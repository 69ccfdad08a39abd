// Package api defines the persistence collaborators of the form engine and a
// JSON-over-HTTP client implementing them. Authentication and transport
// hardening are the surrounding application's concern.
package api

import (
	"context"
	"time"

	"github.com/fieldhq/jobsite-forms/internal/domain/entity"
)

// TemplateAPI reads form templates. Templates are immutable within one
// editing session.
type TemplateAPI interface {
	GetTemplate(ctx context.Context, id string) (*entity.FormTemplate, error)
}

// CreateSubmissionRequest is the payload for creating a submission.
type CreateSubmissionRequest struct {
	FormData       map[string]any `json:"formData"`
	FormTemplateID string         `json:"formTemplateId"`
	FormType       string         `json:"formType"`
}

// UpdateDraftRequest is the payload for the draft update path.
type UpdateDraftRequest struct {
	Data           map[string]any `json:"data"`
	FormTemplateID string         `json:"formTemplateId"`
	SubmissionID   string         `json:"submissionId"`
}

// UpdateSubmissionRequest is the payload for the submit/autosave update path.
// SubmittedAt is advisory; the server sets the authoritative timestamp.
type UpdateSubmissionRequest struct {
	FormData           map[string]any `json:"formData"`
	SubmissionID       string         `json:"submissionId"`
	SubmittedAt        *time.Time     `json:"submittedAt,omitempty"`
	IsApprovalRequired *bool          `json:"isApprovalRequired,omitempty"`
}

// SubmissionAPI reads and writes form submissions.
type SubmissionAPI interface {
	GetSubmission(ctx context.Context, id string) (*entity.FormSubmission, error)
	CreateSubmission(ctx context.Context, req CreateSubmissionRequest) (*entity.FormSubmission, error)
	UpdateDraft(ctx context.Context, req UpdateDraftRequest) (*entity.FormSubmission, error)
	UpdateSubmission(ctx context.Context, req UpdateSubmissionRequest) (*entity.FormSubmission, error)
	DeleteSubmission(ctx context.Context, id string) error
}

// CreateApprovalRequest is the payload for recording an approval decision.
type CreateApprovalRequest struct {
	FormSubmissionID string `json:"formSubmissionId"`
	SignedBy         string `json:"signedBy,omitempty"`
	Signature        string `json:"signature,omitempty"`
	Comment          string `json:"comment,omitempty"`
	Approval         string `json:"approval"`
}

// ApprovalAPI reads and writes approval decision records.
type ApprovalAPI interface {
	GetApproval(ctx context.Context, id string) (*entity.FormApproval, error)
	CreateApproval(ctx context.Context, req CreateApprovalRequest) (*entity.FormApproval, error)
}

// RosterAPI supplies the lookup catalogs used to resolve relational field
// values.
type RosterAPI interface {
	GetLookups(ctx context.Context) (entity.Lookups, error)
}
