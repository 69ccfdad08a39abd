package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/fieldhq/jobsite-forms/internal/domain/entity"
)

// TemplateRepository persists form templates
type TemplateRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *sql.DB, logger *zap.Logger) *TemplateRepository {
	return &TemplateRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new template
func (r *TemplateRepository) Create(ctx context.Context, tmpl *entity.FormTemplate) error {
	groupings, err := json.Marshal(tmpl.Groupings)
	if err != nil {
		return fmt.Errorf("failed to marshal groupings: %w", err)
	}

	query := `
		INSERT INTO form_templates (
			id, name, form_type, is_approval_required, is_signature_required, groupings
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		tmpl.ID,
		tmpl.Name,
		tmpl.FormType,
		tmpl.IsApprovalRequired,
		tmpl.IsSignatureRequired,
		string(groupings),
	)
	if err != nil {
		r.logger.Error("Failed to create template", zap.String("id", tmpl.ID), zap.Error(err))
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// GetByID retrieves a template by ID
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*entity.FormTemplate, error) {
	query := `
		SELECT id, name, form_type, is_approval_required, is_signature_required,
			groupings, created_at, updated_at
		FROM form_templates
		WHERE id = ?
	`

	var tmpl entity.FormTemplate
	var groupings string

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tmpl.ID,
		&tmpl.Name,
		&tmpl.FormType,
		&tmpl.IsApprovalRequired,
		&tmpl.IsSignatureRequired,
		&groupings,
		&tmpl.CreatedAt,
		&tmpl.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &entity.NotFoundError{Resource: "template", ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to get template", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	if err := json.Unmarshal([]byte(groupings), &tmpl.Groupings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal groupings: %w", err)
	}
	return &tmpl, nil
}

// List retrieves all templates
func (r *TemplateRepository) List(ctx context.Context) ([]*entity.FormTemplate, error) {
	query := `
		SELECT id, name, form_type, is_approval_required, is_signature_required,
			groupings, created_at, updated_at
		FROM form_templates
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*entity.FormTemplate
	for rows.Next() {
		var tmpl entity.FormTemplate
		var groupings string
		if err := rows.Scan(
			&tmpl.ID,
			&tmpl.Name,
			&tmpl.FormType,
			&tmpl.IsApprovalRequired,
			&tmpl.IsSignatureRequired,
			&groupings,
			&tmpl.CreatedAt,
			&tmpl.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		if err := json.Unmarshal([]byte(groupings), &tmpl.Groupings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal groupings: %w", err)
		}
		templates = append(templates, &tmpl)
	}
	return templates, rows.Err()
}
