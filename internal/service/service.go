package service

import (
	"context"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"

	"github.com/google/uuid"
)

// OrderHistoryService defines the customer-facing order history operations.
type OrderHistoryService interface {
	// Search finds the orders placed with an email or phone, newest first,
	// and remembers the identifier for the session's next visit.
	Search(ctx context.Context, sessionID, emailOrPhone string) ([]model.Order, error)

	// LastIdentifier returns the identifier the session last searched with,
	// or empty when none was stored.
	LastIdentifier(ctx context.Context, sessionID string) (string, error)

	// GetByID retrieves one order with its items. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// Cancel cancels an order that is still cancellable, closing its table
	// session when it was the session's last open order.
	Cancel(ctx context.Context, orderID uuid.UUID, reason string) error
}
