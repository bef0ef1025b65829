package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/essentialstracker/backend/internal/domain"
)

// essentialRepository implements domain.EssentialRepository
type essentialRepository struct {
	db *DB
}

// NewEssentialRepository creates a new essential repository
func NewEssentialRepository(db *DB) domain.EssentialRepository {
	return &essentialRepository{db: db}
}

const essentialColumns = `id, name, category, unit, icon, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEssential(row rowScanner) (*domain.Essential, error) {
	var essential domain.Essential
	var updatedAt sql.NullTime

	if err := row.Scan(
		&essential.ID,
		&essential.Name,
		&essential.Category,
		&essential.Unit,
		&essential.Icon,
		&essential.CreatedAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	if updatedAt.Valid {
		essential.UpdatedAt = &updatedAt.Time
	}

	return &essential, nil
}

// GetByID retrieves an essential by its ID
func (r *essentialRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Essential, error) {
	query := `SELECT ` + essentialColumns + ` FROM essentials WHERE id = $1`

	essential, err := scanEssential(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("essential %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get essential by ID: %w", err)
	}

	return essential, nil
}

// GetByName retrieves the oldest essential with the given name
func (r *essentialRepository) GetByName(ctx context.Context, name string) (*domain.Essential, error) {
	query := `SELECT ` + essentialColumns + ` FROM essentials WHERE name = $1 ORDER BY created_at, id LIMIT 1`

	essential, err := scanEssential(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("essential %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get essential by name: %w", err)
	}

	return essential, nil
}

// List retrieves all essentials ordered by name
func (r *essentialRepository) List(ctx context.Context) ([]*domain.Essential, error) {
	query := `SELECT ` + essentialColumns + ` FROM essentials ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list essentials: %w", err)
	}
	defer rows.Close()

	var essentials []*domain.Essential
	for rows.Next() {
		essential, err := scanEssential(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan essential: %w", err)
		}
		essentials = append(essentials, essential)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating essentials: %w", err)
	}

	return essentials, nil
}

// Create creates a new essential
func (r *essentialRepository) Create(ctx context.Context, essential *domain.Essential) error {
	query := `
		INSERT INTO essentials (id, name, category, unit, icon, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		essential.ID,
		essential.Name,
		essential.Category,
		essential.Unit,
		essential.Icon,
		essential.CreatedAt,
		essential.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create essential: %w", err)
	}

	return nil
}

// Update overwrites the mutable fields of an essential
func (r *essentialRepository) Update(ctx context.Context, essential *domain.Essential) error {
	query := `
		UPDATE essentials
		SET name = $2, category = $3, unit = $4, icon = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		essential.ID,
		essential.Name,
		essential.Category,
		essential.Unit,
		essential.Icon,
		essential.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update essential: %w", err)
	}

	return expectOneRow(result, essential.ID)
}

// Delete removes an essential; its price entries are removed by the foreign key cascade
func (r *essentialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM essentials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete essential: %w", err)
	}

	return expectOneRow(result, id)
}

func expectOneRow(result sql.Result, id uuid.UUID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("essential %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
