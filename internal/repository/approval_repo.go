package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/fieldhq/jobsite-forms/internal/domain/entity"
)

// ApprovalRepository persists approval decision records
type ApprovalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *sql.DB, logger *zap.Logger) *ApprovalRepository {
	return &ApprovalRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new approval record
func (r *ApprovalRepository) Create(ctx context.Context, approval *entity.FormApproval) error {
	query := `
		INSERT INTO form_approvals (id, form_submission_id, signed_by, signature, comment, approval)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		approval.ID,
		approval.FormSubmissionID,
		approval.SignedBy,
		approval.Signature,
		approval.Comment,
		approval.Approval,
	)
	if err != nil {
		r.logger.Error("Failed to create approval", zap.String("id", approval.ID), zap.Error(err))
		return fmt.Errorf("failed to create approval: %w", err)
	}
	return nil
}

// GetByID retrieves an approval record by ID
func (r *ApprovalRepository) GetByID(ctx context.Context, id string) (*entity.FormApproval, error) {
	query := `
		SELECT id, form_submission_id, signed_by, signature, comment, approval, created_at
		FROM form_approvals
		WHERE id = ?
	`

	var approval entity.FormApproval
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&approval.ID,
		&approval.FormSubmissionID,
		&approval.SignedBy,
		&approval.Signature,
		&approval.Comment,
		&approval.Approval,
		&approval.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &entity.NotFoundError{Resource: "approval", ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to get approval", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	return &approval, nil
}

// GetBySubmissionID retrieves the approval records attached to a submission
func (r *ApprovalRepository) GetBySubmissionID(ctx context.Context, submissionID string) ([]*entity.FormApproval, error) {
	query := `
		SELECT id, form_submission_id, signed_by, signature, comment, approval, created_at
		FROM form_approvals
		WHERE form_submission_id = ?
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*entity.FormApproval
	for rows.Next() {
		var approval entity.FormApproval
		if err := rows.Scan(
			&approval.ID,
			&approval.FormSubmissionID,
			&approval.SignedBy,
			&approval.Signature,
			&approval.Comment,
			&approval.Approval,
			&approval.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		approvals = append(approvals, &approval)
	}
	return approvals, rows.Err()
}
