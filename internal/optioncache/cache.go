// Package optioncache provides a small read-through cache over the product
// option schema store. The cache is an explicit object injected into its
// consumers, with a bounded entry lifetime, so tests control it directly.
package optioncache

import (
	"context"
	"sync"
	"time"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/repository"

	"github.com/rs/zerolog"
)

// Cache caches option schemas per product with a TTL.
type Cache struct {
	repo   repository.OptionSchemaRepository
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

type entry struct {
	groups   []model.OptionGroup
	loadedAt time.Time
}

// New creates an option schema cache with the given entry lifetime.
func New(repo repository.OptionSchemaRepository, ttl time.Duration, logger zerolog.Logger) *Cache {
	return &Cache{
		repo:    repo,
		ttl:     ttl,
		logger:  logger.With().Str("component", "option-cache").Logger(),
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// GetOptionSchemas returns the option groups of the given products, serving
// fresh entries from memory and loading the rest in one store round trip.
func (c *Cache) GetOptionSchemas(ctx context.Context, productIDs []string) ([]model.OptionGroup, error) {
	now := c.now()

	var result []model.OptionGroup
	var missing []string

	c.mu.Lock()
	for _, id := range productIDs {
		e, ok := c.entries[id]
		if ok && now.Sub(e.loadedAt) < c.ttl {
			result = append(result, e.groups...)
			continue
		}
		missing = append(missing, id)
	}
	c.mu.Unlock()

	if len(missing) == 0 {
		return result, nil
	}

	loaded, err := c.repo.GetOptionSchemas(ctx, missing)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[string][]model.OptionGroup, len(missing))
	for _, g := range loaded {
		byProduct[g.ProductID] = append(byProduct[g.ProductID], g)
	}

	c.mu.Lock()
	for _, id := range missing {
		groups := byProduct[id]
		if groups == nil {
			// Products without groups are cached too, so repeated
			// validations do not re-query them.
			groups = []model.OptionGroup{}
		}
		c.entries[id] = entry{groups: groups, loadedAt: now}
		result = append(result, groups...)
	}
	c.mu.Unlock()

	c.logger.Debug().
		Int("requested", len(productIDs)).
		Int("loaded", len(missing)).
		Msg("option schemas resolved")

	return result, nil
}

// Reset drops every cached entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len returns the number of cached products.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
