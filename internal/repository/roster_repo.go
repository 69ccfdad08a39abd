package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/fieldhq/jobsite-forms/internal/domain/entity"
)

// Roster categories
const (
	CategoryPerson    = "PERSON"
	CategoryEquipment = "EQUIPMENT"
	CategoryJobsite   = "JOBSITE"
	CategoryCostCode  = "COST_CODE"
)

// RosterRepository persists the roster and asset catalogs
type RosterRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRosterRepository creates a new roster repository
func NewRosterRepository(db *sql.DB, logger *zap.Logger) *RosterRepository {
	return &RosterRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or replaces one roster entry
func (r *RosterRepository) Upsert(ctx context.Context, category string, option entity.Option) error {
	query := `
		INSERT INTO roster_entries (id, name, category) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, category = excluded.category
	`
	_, err := r.db.ExecContext(ctx, query, option.ID, option.Name, category)
	if err != nil {
		r.logger.Error("Failed to upsert roster entry",
			zap.String("id", option.ID),
			zap.String("category", category),
			zap.Error(err))
		return fmt.Errorf("failed to upsert roster entry: %w", err)
	}
	return nil
}

// GetLookups loads every catalog into one lookup table set
func (r *RosterRepository) GetLookups(ctx context.Context) (entity.Lookups, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, category FROM roster_entries ORDER BY name")
	if err != nil {
		return entity.Lookups{}, fmt.Errorf("failed to load roster: %w", err)
	}
	defer rows.Close()

	var lookups entity.Lookups
	for rows.Next() {
		var option entity.Option
		var category string
		if err := rows.Scan(&option.ID, &option.Name, &category); err != nil {
			return entity.Lookups{}, fmt.Errorf("failed to scan roster entry: %w", err)
		}
		switch category {
		case CategoryPerson:
			lookups.Personnel = append(lookups.Personnel, option)
		case CategoryEquipment:
			lookups.Equipment = append(lookups.Equipment, option)
		case CategoryJobsite:
			lookups.Jobsites = append(lookups.Jobsites, option)
		case CategoryCostCode:
			lookups.CostCodes = append(lookups.CostCodes, option)
		default:
			r.logger.Warn("Unknown roster category", zap.String("category", category))
		}
	}
	return lookups, rows.Err()
}
