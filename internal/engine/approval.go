package engine

import (
	"context"
	"fmt"

	"github.com/fieldhq/jobsite-forms/internal/api"
	"github.com/fieldhq/jobsite-forms/internal/domain/entity"
	"github.com/fieldhq/jobsite-forms/internal/form"
)

// ApproveRequest carries an approval decision for the open submission.
type ApproveRequest struct {
	// Values optionally saves form data alongside the decision.
	Values map[string]entity.Value

	// Decision is entity.ApprovalApproved or entity.ApprovalDenied.
	Decision string

	Signature    string
	SignerID     string
	Comment      string
	SubmissionID string
}

// Approve records an approval decision. At least one of SubmissionID,
// SignerID or Signature must be present; otherwise the call fails without
// touching the network. The created record is reloaded from persistence so
// local state reflects any server-side defaulting.
func (m *Manager) Approve(ctx context.Context, req ApproveRequest) (*entity.FormApproval, error) {
	if req.SubmissionID == "" && req.SignerID == "" && req.Signature == "" {
		return nil, &entity.ValidationError{
			FieldErrors: []string{"approval requires a submission, signer or signature"},
		}
	}

	if req.Values != nil {
		m.mu.Lock()
		sub := m.submission
		m.mu.Unlock()
		if sub != nil {
			_, err := m.submissions.UpdateSubmission(ctx, api.UpdateSubmissionRequest{
				FormData:     form.DenormalizeForStorage(req.Values),
				SubmissionID: sub.ID,
			})
			if err != nil {
				return nil, fmt.Errorf("save form data with approval: %w", err)
			}
		}
	}

	created, err := m.approvals.CreateApproval(ctx, api.CreateApprovalRequest{
		FormSubmissionID: req.SubmissionID,
		SignedBy:         req.SignerID,
		Signature:        req.Signature,
		Comment:          req.Comment,
		Approval:         req.Decision,
	})
	if err != nil {
		return nil, fmt.Errorf("create approval: %w", err)
	}

	reloaded, err := m.approvals.GetApproval(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("reload approval %s: %w", created.ID, err)
	}

	m.mu.Lock()
	m.approval = reloaded
	m.mu.Unlock()
	return reloaded, nil
}
