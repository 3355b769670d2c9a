package reorder

import (
	"context"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/cartstore"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"

	"github.com/rs/zerolog"
)

// Service runs the full reorder workflow for one historical order.
type Service interface {
	// Repeat validates the order and, when eligible, stages a cart draft
	// for the session. The returned draft is also the one persisted.
	Repeat(ctx context.Context, sessionID string, tenant Tenant, order *model.Order) (*model.CartDraft, error)
}

// service wires the validator, the materializer and the draft store.
type service struct {
	validator    *Validator
	materializer *Materializer
	store        cartstore.Store
	logger       zerolog.Logger
}

// NewService creates a reorder service.
func NewService(validator *Validator, materializer *Materializer, store cartstore.Store, logger zerolog.Logger) Service {
	return &service{
		validator:    validator,
		materializer: materializer,
		store:        store,
		logger:       logger.With().Str("service", "reorder").Logger(),
	}
}

// Repeat validates, materializes and stages the draft. Persisting the draft
// is the only side effect of the whole workflow, and it is last-write-wins:
// whatever cart the session held before is replaced. A store failure is
// logged and the validation outcome still reported, so the customer is not
// told a repeatable order is broken because a cache write failed.
func (s *service) Repeat(ctx context.Context, sessionID string, tenant Tenant, order *model.Order) (*model.CartDraft, error) {
	if err := s.validator.Validate(ctx, tenant, order); err != nil {
		return nil, err
	}

	draft := s.materializer.Materialize(ctx, tenant, order)

	if err := s.store.SaveDraft(ctx, sessionID, draft); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("session_id", sessionID).
			Msg("failed to persist cart draft")
	} else {
		s.logger.Info().
			Str("order_id", order.ID.String()).
			Int("item_count", len(draft.Items)).
			Msg("order repeated into cart draft")
	}

	return draft, nil
}
