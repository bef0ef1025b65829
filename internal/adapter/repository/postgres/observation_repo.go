package postgres

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
	var priceStr string
	var location, notes sql.NullString

	if err := row.Scan(
		&obs.ID,
		&obs.EssentialID,
		&priceStr,
		&location,
		&notes,
		&obs.Timestamp,
	); err != nil {
		return domain.Observation{}, err
	}

	// Parse price (NUMERIC)
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("failed to parse price: %w", err)
	}
	obs.Value = price

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
		return nil, fmt.Errorf("failed to query price entries: %w", err)
	}
	defer rows.Close()

	observations := []domain.Observation{}
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price entry: %w", err)
		}
		observations = append(observations, obs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price entries: %w", err)
	}

	return observations, nil
}

// Add creates a new price entry
func (r *observationRepository) Add(ctx context.Context, obs *domain.Observation) error {
	query := `
		INSERT INTO price_entries (id, essential_id, price, location, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		obs.ID,
		obs.EssentialID,
		obs.Value.StringFixed(domain.PricePrecision),
		obs.Location,
		obs.Notes,
		obs.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert price entry: %w", err)
	}

	return nil
}

// ListByEssential retrieves the whole price history of an essential, oldest first,
// in a single statement so the result is one consistent snapshot
func (r *observationRepository) ListByEssential(ctx context.Context, essentialID uuid.UUID) ([]domain.Observation, error) {
	query := `
		SELECT ` + observationColumns + `
		FROM price_entries
		WHERE essential_id = $1
		ORDER BY created_at ASC, id ASC
	`
	return r.query(ctx, query, essentialID)
}

// ListRecent retrieves at most limit price entries, newest first
func (r *observationRepository) ListRecent(ctx context.Context, essentialID uuid.UUID, limit int) ([]domain.Observation, error) {
	query := `
		SELECT ` + observationColumns + `
		FROM price_entries
		WHERE essential_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	return r.query(ctx, query, essentialID, limit)
}

// GetLatest retrieves the most recent price entry for a given essential
func (r *observationRepository) GetLatest(ctx context.Context, essentialID uuid.UUID) (*domain.Observation, error) {
	query := `
		SELECT ` + observationColumns + `
		FROM price_entries
		WHERE essential_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	obs, err := scanObservation(r.db.QueryRowContext(ctx, query, essentialID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no price entries for essential %s: %w", essentialID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest price entry: %w", err)
	}

	return &obs, nil
}
