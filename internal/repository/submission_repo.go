package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fieldhq/jobsite-forms/internal/domain/entity"
)

// SubmissionRepository persists form submissions
type SubmissionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *sql.DB, logger *zap.Logger) *SubmissionRepository {
	return &SubmissionRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new submission
func (r *SubmissionRepository) Create(ctx context.Context, sub *entity.FormSubmission) error {
	data, err := json.Marshal(sub.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal submission data: %w", err)
	}

	query := `
		INSERT INTO form_submissions (id, form_template_id, user_id, status, data)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		sub.ID,
		sub.FormTemplateID,
		sub.UserID,
		sub.Status,
		string(data),
	)
	if err != nil {
		r.logger.Error("Failed to create submission", zap.String("id", sub.ID), zap.Error(err))
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

// GetByID retrieves a submission by ID
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*entity.FormSubmission, error) {
	query := `
		SELECT id, form_template_id, user_id, status, data,
			created_at, updated_at, submitted_at
		FROM form_submissions
		WHERE id = ?
	`

	var sub entity.FormSubmission
	var data string
	var submittedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sub.ID,
		&sub.FormTemplateID,
		&sub.UserID,
		&sub.Status,
		&data,
		&sub.CreatedAt,
		&sub.UpdatedAt,
		&submittedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &entity.NotFoundError{Resource: "submission", ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to get submission", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	if err := json.Unmarshal([]byte(data), &sub.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal submission data: %w", err)
	}
	if submittedAt.Valid {
		sub.SubmittedAt = &submittedAt.Time
	}
	return &sub, nil
}

// UpdateData replaces a submission's form data
func (r *SubmissionRepository) UpdateData(ctx context.Context, id string, data map[string]any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal submission data: %w", err)
	}

	query := `
		UPDATE form_submissions
		SET data = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, string(encoded), id)
	if err != nil {
		r.logger.Error("Failed to update submission data", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update submission: %w", err)
	}
	return requireRow(result, "submission", id)
}

// UpdateStatus moves a submission to a new lifecycle status
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE form_submissions
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update submission status",
			zap.String("id", id),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to update submission status: %w", err)
	}
	return requireRow(result, "submission", id)
}

// SetSubmitted records the authoritative submission timestamp
func (r *SubmissionRepository) SetSubmitted(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE form_submissions
		SET submitted_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to set submission time: %w", err)
	}
	return requireRow(result, "submission", id)
}

// Delete removes a submission
func (r *SubmissionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM form_submissions WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete submission", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	return requireRow(result, "submission", id)
}

// ListByTemplate retrieves submissions for one template
func (r *SubmissionRepository) ListByTemplate(ctx context.Context, templateID string) ([]*entity.FormSubmission, error) {
	query := `
		SELECT id, form_template_id, user_id, status, data,
			created_at, updated_at, submitted_at
		FROM form_submissions
		WHERE form_template_id = ?
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var subs []*entity.FormSubmission
	for rows.Next() {
		var sub entity.FormSubmission
		var data string
		var submittedAt sql.NullTime
		if err := rows.Scan(
			&sub.ID,
			&sub.FormTemplateID,
			&sub.UserID,
			&sub.Status,
			&data,
			&sub.CreatedAt,
			&sub.UpdatedAt,
			&submittedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &sub.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal submission data: %w", err)
		}
		if submittedAt.Valid {
			sub.SubmittedAt = &submittedAt.Time
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}

// requireRow converts a zero-row write into a NotFoundError
func requireRow(result sql.Result, resource, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return &entity.NotFoundError{Resource: resource, ID: id}
	}
	return nil
}
