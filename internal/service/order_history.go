package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/cartstore"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderHistoryService implements OrderHistoryService.
type orderHistoryService struct {
	orders repository.OrderRepository
	slots  cartstore.Store
	logger zerolog.Logger
}

// NewOrderHistoryService creates an order history service.
func NewOrderHistoryService(orders repository.OrderRepository, slots cartstore.Store, logger zerolog.Logger) OrderHistoryService {
	return &orderHistoryService{
		orders: orders,
		slots:  slots,
		logger: logger.With().Str("service", "order_history").Logger(),
	}
}

// Search normalizes the identifier, finds matching orders and, when any
// were found, stores the identifier so the next visit can resubmit it.
// Storing is best-effort; a failed write never fails the search.
func (s *orderHistoryService) Search(ctx context.Context, sessionID, emailOrPhone string) ([]model.Order, error) {
	identifier := strings.ToLower(strings.TrimSpace(emailOrPhone))
	if identifier == "" {
		return nil, fmt.Errorf("email or phone is required")
	}

	orders, err := s.orders.SearchByIdentifier(ctx, identifier)
	if err != nil {
		s.logger.Error().Err(err).Msg("order search failed")
		return nil, fmt.Errorf("failed to search orders: %w", err)
	}

	if len(orders) > 0 && sessionID != "" {
		if err := s.slots.SaveLastIdentifier(ctx, sessionID, identifier); err != nil {
			s.logger.Warn().
				Err(err).
				Str("session_id", sessionID).
				Msg("failed to remember customer identifier")
		}
	}

	s.logger.Info().
		Int("order_count", len(orders)).
		Msg("order history searched")

	return orders, nil
}

// LastIdentifier returns the session's remembered identifier, or empty.
func (s *orderHistoryService) LastIdentifier(ctx context.Context, sessionID string) (string, error) {
	identifier, err := s.slots.GetLastIdentifier(ctx, sessionID)
	if errors.Is(err, cartstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load last identifier: %w", err)
	}
	return identifier, nil
}

// GetByID retrieves one order with its items.
func (s *orderHistoryService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// Cancel cancels a still-cancellable order. When the order belonged to a
// table session and no other open orders remain there, the session is
// closed as well; failing to close it does not undo the cancellation.
func (s *orderHistoryService) Cancel(ctx context.Context, orderID uuid.UUID, reason string) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}

	if order == nil {
		return model.ErrOrderNotFound
	}

	if !order.Status.Cancellable() {
		s.logger.Warn().
			Str("order_id", orderID.String()).
			Str("status", string(order.Status)).
			Msg("cancellation refused for non-cancellable order")
		return model.ErrOrderNotCancellable
	}

	if err := s.orders.UpdateStatus(ctx, orderID, model.StatusCancelled, &reason); err != nil {
		return err
	}

	if order.TableSessionID != nil {
		open, err := s.orders.CountOpenForTableSession(ctx, *order.TableSessionID, orderID)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("table_session_id", order.TableSessionID.String()).
				Msg("failed to check table session for remaining orders")
		} else if open == 0 {
			if err := s.orders.CloseTableSession(ctx, *order.TableSessionID); err != nil {
				s.logger.Warn().
					Err(err).
					Str("table_session_id", order.TableSessionID.String()).
					Msg("failed to close table session")
			}
		}
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Msg("order cancelled")

	return nil
}
