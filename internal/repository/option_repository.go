package repository

import (
	"context"
	"fmt"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// optionSchemaRepository implements OptionSchemaRepository using PostgreSQL.
type optionSchemaRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOptionSchemaRepository creates a new PostgreSQL-backed option schema repository.
func NewOptionSchemaRepository(pool *pgxpool.Pool, logger zerolog.Logger) OptionSchemaRepository {
	return &optionSchemaRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "option_schema").Logger(),
	}
}

// GetOptionSchemas returns the option groups of the given products with
// their currently enabled choices. Groups with no enabled choices are still
// returned, with an empty choice list.
func (r *optionSchemaRepository) GetOptionSchemas(ctx context.Context, productIDs []string) ([]model.OptionGroup, error) {
	if len(productIDs) == 0 {
		return []model.OptionGroup{}, nil
	}

	query := `
		SELECT g.id, g.product_id, g.name, o.name
		FROM product_option_groups g
		LEFT JOIN product_options o
			ON o.group_id = g.id AND o.is_available = TRUE
		WHERE g.product_id = ANY($1)
		ORDER BY g.product_id, g.id
	`

	rows, err := r.pool.Query(ctx, query, productIDs)
	if err != nil {
		r.logger.Error().Err(err).
			Int("product_count", len(productIDs)).
			Msg("failed to query option schemas")
		return nil, fmt.Errorf("failed to query option schemas: %w", err)
	}
	defer rows.Close()

	var groups []model.OptionGroup
	index := make(map[string]int)

	for rows.Next() {
		var groupID, productID, groupName string
		var choiceName *string
		if err := rows.Scan(&groupID, &productID, &groupName, &choiceName); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan option schema row")
			return nil, fmt.Errorf("failed to scan option schema: %w", err)
		}

		i, ok := index[groupID]
		if !ok {
			groups = append(groups, model.OptionGroup{
				ID:        groupID,
				ProductID: productID,
				Name:      groupName,
				Choices:   []string{},
			})
			i = len(groups) - 1
			index[groupID] = i
		}

		if choiceName != nil {
			groups[i].Choices = append(groups[i].Choices, *choiceName)
		}
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating option schema rows")
		return nil, fmt.Errorf("error iterating option schemas: %w", err)
	}

	if groups == nil {
		groups = []model.OptionGroup{}
	}

	return groups, nil
}
