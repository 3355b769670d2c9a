package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// promotionRepository implements PromotionRepository using PostgreSQL.
type promotionRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPromotionRepository creates a new PostgreSQL-backed promotion repository.
func NewPromotionRepository(pool *pgxpool.Pool, logger zerolog.Logger) PromotionRepository {
	return &promotionRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "promotion").Logger(),
	}
}

// InsertEvent records one promotion interaction.
func (r *promotionRepository) InsertEvent(ctx context.Context, event *model.PromotionEvent) error {
	query := `
		INSERT INTO promotion_events
			(id, promotion_id, company_id, event_type, order_id, revenue, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID, event.PromotionID, event.CompanyID, event.EventType,
		event.OrderID, event.Revenue, event.SessionID, event.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).
			Str("promotion_id", event.PromotionID).
			Str("event_type", string(event.EventType)).
			Msg("failed to insert promotion event")
		return fmt.Errorf("failed to insert promotion event: %w", err)
	}

	return nil
}

// HasRecentView reports whether the session already recorded a view for the
// promotion within the given window.
func (r *promotionRepository) HasRecentView(ctx context.Context, promotionID, sessionID string, window time.Duration) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM promotion_events
			WHERE promotion_id = $1
				AND session_id = $2
				AND event_type = 'view'
				AND created_at >= $3
		)
	`

	cutoff := time.Now().Add(-window)

	var exists bool
	if err := r.pool.QueryRow(ctx, query, promotionID, sessionID, cutoff).Scan(&exists); err != nil {
		r.logger.Error().Err(err).
			Str("promotion_id", promotionID).
			Msg("failed to check for recent view")
		return false, fmt.Errorf("failed to check for recent view: %w", err)
	}

	return exists, nil
}

// ListPromotions returns all promotions configured by a company.
func (r *promotionRepository) ListPromotions(ctx context.Context, companyID string) ([]model.Promotion, error) {
	query := `
		SELECT id, company_id, name, discount_type, discount_value, is_active
		FROM promotions
		WHERE company_id = $1
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		r.logger.Error().Err(err).Str("company_id", companyID).Msg("failed to query promotions")
		return nil, fmt.Errorf("failed to query promotions: %w", err)
	}
	defer rows.Close()

	var promotions []model.Promotion
	for rows.Next() {
		var p model.Promotion
		err := rows.Scan(&p.ID, &p.CompanyID, &p.Name, &p.DiscountType, &p.DiscountValue, &p.IsActive)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan promotion row")
			return nil, fmt.Errorf("failed to scan promotion: %w", err)
		}
		promotions = append(promotions, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating promotion rows")
		return nil, fmt.Errorf("error iterating promotions: %w", err)
	}

	return promotions, nil
}

// ListEvents returns all recorded events for a company's promotions.
func (r *promotionRepository) ListEvents(ctx context.Context, companyID string) ([]model.PromotionEvent, error) {
	query := `
		SELECT id, promotion_id, company_id, event_type, order_id, revenue, session_id, created_at
		FROM promotion_events
		WHERE company_id = $1
	`

	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		r.logger.Error().Err(err).Str("company_id", companyID).Msg("failed to query promotion events")
		return nil, fmt.Errorf("failed to query promotion events: %w", err)
	}
	defer rows.Close()

	var events []model.PromotionEvent
	for rows.Next() {
		var e model.PromotionEvent
		err := rows.Scan(&e.ID, &e.PromotionID, &e.CompanyID, &e.EventType,
			&e.OrderID, &e.Revenue, &e.SessionID, &e.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan promotion event row")
			return nil, fmt.Errorf("failed to scan promotion event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating promotion event rows")
		return nil, fmt.Errorf("error iterating promotion events: %w", err)
	}

	return events, nil
}
