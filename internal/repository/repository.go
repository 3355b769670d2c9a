package repository

import (
	"context"
	"time"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"

	"github.com/google/uuid"
)

// CatalogRepository defines read access to the product catalog.
type CatalogRepository interface {
	// GetActiveStates returns the catalog-active flag for each of the given
	// product IDs within a company. IDs unknown to the catalog are absent
	// from the result.
	GetActiveStates(ctx context.Context, companyID string, productIDs []string) (map[string]bool, error)

	// GetImageRefs returns the stored image reference for each product that
	// has one. References may be absolute URLs or storage object keys.
	GetImageRefs(ctx context.Context, companyID string, productIDs []string) (map[string]string, error)
}

// OptionSchemaRepository defines read access to product customization
// groups and their currently enabled choices.
type OptionSchemaRepository interface {
	// GetOptionSchemas returns the option groups of the given products,
	// each carrying only choices that are currently enabled.
	GetOptionSchemas(ctx context.Context, productIDs []string) ([]model.OptionGroup, error)
}

// OrderRepository defines access to order history.
type OrderRepository interface {
	// SearchByIdentifier returns the orders placed with the given email or
	// phone, newest first, with line items and delivery address attached.
	SearchByIdentifier(ctx context.Context, identifier string) ([]model.Order, error)

	// GetByID retrieves a single order with its line items. Returns nil when
	// the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// UpdateStatus transitions an order to the given status, recording the
	// cancellation reason when provided.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, reason *string) error

	// CountOpenForTableSession counts non-cancelled orders in a table
	// session, excluding the given order.
	CountOpenForTableSession(ctx context.Context, sessionID, excludeOrderID uuid.UUID) (int, error)

	// CloseTableSession marks a table session as closed.
	CloseTableSession(ctx context.Context, sessionID uuid.UUID) error
}

// PromotionRepository defines access to promotions and their tracked events.
type PromotionRepository interface {
	// InsertEvent records one promotion interaction.
	InsertEvent(ctx context.Context, event *model.PromotionEvent) error

	// HasRecentView reports whether the session already recorded a view for
	// the promotion within the given window.
	HasRecentView(ctx context.Context, promotionID, sessionID string, window time.Duration) (bool, error)

	// ListPromotions returns all promotions configured by a company.
	ListPromotions(ctx context.Context, companyID string) ([]model.Promotion, error)

	// ListEvents returns all recorded events for a company's promotions.
	ListEvents(ctx context.Context, companyID string) ([]model.PromotionEvent, error)
}
