package repository

import (
	"context"
	"testing"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// insertOptionGroup inserts one option group with its choices.
func insertOptionGroup(t *testing.T, pool *pgxpool.Pool, groupID, productID, name string, choices map[string]bool) {
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO product_option_groups (id, product_id, name)
		VALUES ($1, $2, $3)
	`, groupID, productID, name)
	require.NoError(t, err)

	for choice, available := range choices {
		_, err := pool.Exec(ctx, `
			INSERT INTO product_options (id, group_id, name, is_available)
			VALUES ($1, $2, $3, $4)
		`, groupID+"-opt-"+choice, groupID, choice, available)
		require.NoError(t, err)
	}
}

func TestOptionSchemaRepository_GetOptionSchemas(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	logger := zerolog.Nop()
	repo := NewOptionSchemaRepository(pool, logger)

	ctx := context.Background()

	insertProduct(t, pool, "P1", "company-1", true, nil)
	insertProduct(t, pool, "P2", "company-1", true, nil)

	insertOptionGroup(t, pool, "g1", "P1", "Tamanho", map[string]bool{
		"Pequena": true,
		"Grande":  true,
		"Gigante": false,
	})
	insertOptionGroup(t, pool, "g2", "P1", "Borda", map[string]bool{
		"Catupiry": false,
	})

	groups, err := repo.GetOptionSchemas(ctx, []string{"P1", "P2"})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	byID := make(map[string]model.OptionGroup, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	// Disabled choices never appear
	tamanho := byID["g1"]
	assert.Equal(t, "P1", tamanho.ProductID)
	assert.Equal(t, "Tamanho", tamanho.Name)
	assert.ElementsMatch(t, []string{"Pequena", "Grande"}, tamanho.Choices)

	// A group whose choices are all disabled still appears, empty
	borda := byID["g2"]
	assert.Equal(t, "Borda", borda.Name)
	assert.Empty(t, borda.Choices)
}

func TestOptionSchemaRepository_GetOptionSchemas_NoGroups(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	logger := zerolog.Nop()
	repo := NewOptionSchemaRepository(pool, logger)

	ctx := context.Background()

	insertProduct(t, pool, "P1", "company-1", true, nil)

	groups, err := repo.GetOptionSchemas(ctx, []string{"P1"})
	require.NoError(t, err)
	assert.Empty(t, groups)

	groups, err = repo.GetOptionSchemas(ctx, []string{})
	require.NoError(t, err)
	assert.Empty(t, groups)
}
