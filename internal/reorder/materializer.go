package reorder

import (
	"context"
	"fmt"
	"time"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/media"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/repository"

	"github.com/rs/zerolog"
)

// Materializer converts an already-validated order into a cart draft.
type Materializer struct {
	catalog repository.CatalogRepository
	images  media.ImageResolver
	logger  zerolog.Logger
	now     func() time.Time
}

// NewMaterializer creates a cart materializer.
func NewMaterializer(catalog repository.CatalogRepository, images media.ImageResolver, logger zerolog.Logger) *Materializer {
	return &Materializer{
		catalog: catalog,
		images:  images,
		logger:  logger.With().Str("component", "cart-materializer").Logger(),
		now:     time.Now,
	}
}

// Materialize builds a CartDraft from a validated order. Quantities, unit
// prices, display names, notes and the validated options are copied verbatim
// from the historical record; nothing is repriced against the current
// catalog. Image lookup is best-effort: items without a resolvable image
// simply have none.
func (m *Materializer) Materialize(ctx context.Context, tenant Tenant, order *model.Order) *model.CartDraft {
	imageURLs := m.resolveImages(ctx, tenant, order)

	stamp := m.now().UnixMilli()

	items := make([]model.CartItem, len(order.Items))
	for i, line := range order.Items {
		options := make([]model.CartOption, len(line.Options))
		for j, opt := range line.Options {
			// Only the validated fields survive; the legacy split flavour
			// field never reaches a draft.
			options[j] = model.CartOption{
				Name:          opt.Name,
				GroupName:     opt.GroupName,
				PriceModifier: opt.PriceModifier,
			}
		}

		items[i] = model.CartItem{
			ID:          fmt.Sprintf("reorder-%s-%d-%d", line.ProductID, stamp, i),
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Price:       line.UnitPrice,
			Quantity:    line.Quantity,
			Options:     options,
			Notes:       line.Notes,
			ImageURL:    imageURLs[line.ProductID],
		}
	}

	m.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("company_slug", tenant.Slug).
		Int("item_count", len(items)).
		Msg("cart draft materialized")

	return &model.CartDraft{
		Items:       items,
		CompanySlug: tenant.Slug,
	}
}

// resolveImages fetches and resolves current image URLs for the order's
// products. Historical line items carry no image, so the current catalog
// fills the gap. Failures degrade to a draft without images.
func (m *Materializer) resolveImages(ctx context.Context, tenant Tenant, order *model.Order) map[string]string {
	refs, err := m.catalog.GetImageRefs(ctx, tenant.CompanyID, distinctProductIDs(order.Items))
	if err != nil {
		m.logger.Warn().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("image lookup failed, materializing draft without images")
		return nil
	}

	urls := make(map[string]string, len(refs))
	for productID, ref := range refs {
		if url := m.images.Resolve(ctx, ref); url != "" {
			urls[productID] = url
		}
	}

	return urls
}
