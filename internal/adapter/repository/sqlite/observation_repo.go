package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/essentialstracker/backend/internal/domain"
)

// observationRepository implements domain.ObservationRepository over price_entries
type observationRepository struct {
	db *DB
}

// NewObservationRepository creates a new observation repository
func NewObservationRepository(db *DB) domain.ObservationRepository {
	return &observationRepository{db: db}
}

const observationColumns = `id, essential_id, price, location, notes, created_at`

func scanObservation(row rowScanner) (domain.Observation, error) {
	var obs domain.Observation
	var price string
	var createdAt int64
	var location, notes sql.NullString

	if err := row.Scan(&obs.ID, &obs.EssentialID, &price, &location, &notes, &createdAt); err != nil {
		return domain.Observation{}, err
	}

	value, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	obs.Value = value
	obs.Timestamp = fromUnixNano(createdAt)

	if location.Valid {
		obs.Location = &location.String
	}
	if notes.Valid {
		obs.Notes = &notes.String
	}
	return obs, nil
}

func (r *observationRepository) query(ctx context.Context, query string, args ...any) ([]domain.Observation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query price entries: %w", err)
	}
	defer rows.Close()

	observations := []domain.Observation{}
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan price entry: %w", err)
		}
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price entries: %w", err)
	}
	return observations, nil
}

func (r *observationRepository) Add(ctx context.Context, obs *domain.Observation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO price_entries (id, essential_id, price, location, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		obs.ID.String(),
		obs.EssentialID.String(),
		obs.Value.StringFixed(domain.PricePrecision),
		obs.Location,
		obs.Notes,
		toUnixNano(obs.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("insert price entry: %w", err)
	}
	return nil
}

func (r *observationRepository) ListByEssential(ctx context.Context, essentialID uuid.UUID) ([]domain.Observation, error) {
	return r.query(ctx, `
		SELECT `+observationColumns+`
		FROM price_entries
		WHERE essential_id = ?
		ORDER BY created_at ASC, id ASC`,
		essentialID.String(),
	)
}

func (r *observationRepository) ListRecent(ctx context.Context, essentialID uuid.UUID, limit int) ([]domain.Observation, error) {
	return r.query(ctx, `
		SELECT `+observationColumns+`
		FROM price_entries
		WHERE essential_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		essentialID.String(), limit,
	)
}

func (r *observationRepository) GetLatest(ctx context.Context, essentialID uuid.UUID) (*domain.Observation, error) {
	obs, err := scanObservation(r.db.QueryRowContext(ctx, `
		SELECT `+observationColumns+`
		FROM price_entries
		WHERE essential_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		essentialID.String(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no price entries for essential %s: %w", essentialID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get latest price entry: %w", err)
	}
	return &obs, nil
}
