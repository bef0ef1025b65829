package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/essentialstracker/backend/internal/domain"
)

// Timestamps are stored as Unix nanoseconds so they round-trip exactly and sort numerically

func toUnixNano(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// essentialRepository implements domain.EssentialRepository
type essentialRepository struct {
	db *DB
}

// NewEssentialRepository creates a new essential repository
func NewEssentialRepository(db *DB) domain.EssentialRepository {
	return &essentialRepository{db: db}
}

const essentialColumns = `id, name, category, unit, icon, created_at, updated_at`

func scanEssential(row rowScanner) (*domain.Essential, error) {
	var essential domain.Essential
	var createdAt int64
	var updatedAt sql.NullInt64

	if err := row.Scan(
		&essential.ID,
		&essential.Name,
		&essential.Category,
		&essential.Unit,
		&essential.Icon,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	essential.CreatedAt = fromUnixNano(createdAt)
	if updatedAt.Valid {
		t := fromUnixNano(updatedAt.Int64)
		essential.UpdatedAt = &t
	}

	return &essential, nil
}

func nullableUnixNano(t *time.Time) any {
	if t == nil {
		return nil
	}
	return toUnixNano(*t)
}

func (r *essentialRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Essential, error) {
	query := `SELECT ` + essentialColumns + ` FROM essentials WHERE id = ?`

	essential, err := scanEssential(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("essential %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get essential by id: %w", err)
	}
	return essential, nil
}

func (r *essentialRepository) GetByName(ctx context.Context, name string) (*domain.Essential, error) {
	query := `SELECT ` + essentialColumns + ` FROM essentials WHERE name = ? ORDER BY created_at, id LIMIT 1`

	essential, err := scanEssential(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("essential %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get essential by name: %w", err)
	}
	return essential, nil
}

func (r *essentialRepository) List(ctx context.Context) ([]*domain.Essential, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+essentialColumns+` FROM essentials ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list essentials: %w", err)
	}
	defer rows.Close()

	var essentials []*domain.Essential
	for rows.Next() {
		essential, err := scanEssential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan essential: %w", err)
		}
		essentials = append(essentials, essential)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate essentials: %w", err)
	}
	return essentials, nil
}

func (r *essentialRepository) Create(ctx context.Context, essential *domain.Essential) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO essentials (id, name, category, unit, icon, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		essential.ID.String(),
		essential.Name,
		essential.Category,
		essential.Unit,
		essential.Icon,
		toUnixNano(essential.CreatedAt),
		nullableUnixNano(essential.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create essential: %w", err)
	}
	return nil
}

func (r *essentialRepository) Update(ctx context.Context, essential *domain.Essential) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE essentials
		SET name = ?, category = ?, unit = ?, icon = ?, updated_at = ?
		WHERE id = ?`,
		essential.Name,
		essential.Category,
		essential.Unit,
		essential.Icon,
		nullableUnixNano(essential.UpdatedAt),
		essential.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update essential: %w", err)
	}
	return expectOneRow(result, essential.ID)
}

func (r *essentialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM essentials WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete essential: %w", err)
	}
	return expectOneRow(result, id)
}

func expectOneRow(result sql.Result, id uuid.UUID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("essential %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
