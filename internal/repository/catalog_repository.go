package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// catalogRepository implements CatalogRepository using PostgreSQL.
type catalogRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCatalogRepository creates a new PostgreSQL-backed catalog repository.
func NewCatalogRepository(pool *pgxpool.Pool, logger zerolog.Logger) CatalogRepository {
	return &catalogRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "catalog").Logger(),
	}
}

// GetActiveStates returns the catalog-active flag for each of the given
// product IDs within a company. Missing IDs are simply absent.
func (r *catalogRepository) GetActiveStates(ctx context.Context, companyID string, productIDs []string) (map[string]bool, error) {
	states := make(map[string]bool, len(productIDs))
	if len(productIDs) == 0 {
		return states, nil
	}

	query := `
		SELECT id, is_active
		FROM products
		WHERE company_id = $1 AND id = ANY($2)
	`

	rows, err := r.pool.Query(ctx, query, companyID, productIDs)
	if err != nil {
		r.logger.Error().Err(err).
			Str("company_id", companyID).
			Int("product_count", len(productIDs)).
			Msg("failed to query product active states")
		return nil, fmt.Errorf("failed to query product active states: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var isActive bool
		if err := rows.Scan(&id, &isActive); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product state row")
			return nil, fmt.Errorf("failed to scan product state: %w", err)
		}
		states[id] = isActive
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product state rows")
		return nil, fmt.Errorf("error iterating product states: %w", err)
	}

	return states, nil
}

// GetImageRefs returns the stored image reference for each product that has one.
func (r *catalogRepository) GetImageRefs(ctx context.Context, companyID string, productIDs []string) (map[string]string, error) {
	refs := make(map[string]string, len(productIDs))
	if len(productIDs) == 0 {
		return refs, nil
	}

	query := `
		SELECT id, image_ref
		FROM products
		WHERE company_id = $1 AND id = ANY($2) AND image_ref IS NOT NULL
	`

	rows, err := r.pool.Query(ctx, query, companyID, productIDs)
	if err != nil {
		r.logger.Error().Err(err).
			Str("company_id", companyID).
			Int("product_count", len(productIDs)).
			Msg("failed to query product image refs")
		return nil, fmt.Errorf("failed to query product image refs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, ref string
		if err := rows.Scan(&id, &ref); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan image ref row")
			return nil, fmt.Errorf("failed to scan image ref: %w", err)
		}
		if ref != "" {
			refs[id] = ref
		}
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating image ref rows")
		return nil, fmt.Errorf("error iterating image refs: %w", err)
	}

	return refs, nil
}
