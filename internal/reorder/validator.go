// Package reorder decides whether a historical order can be rebuilt into a
// new cart, and materializes the cart draft when it can.
package reorder

import (
	"context"
	"fmt"
	"strings"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/availability"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/repository"

	"github.com/rs/zerolog"
)

// Tenant identifies the store the reorder happens against. History opened
// outside a store-scoped link has no tenant and cannot reorder.
type Tenant struct {
	CompanyID string
	Slug      string
}

// OptionSchemaSource supplies current option schemas. Both the repository
// and the option cache satisfy it.
type OptionSchemaSource interface {
	GetOptionSchemas(ctx context.Context, productIDs []string) ([]model.OptionGroup, error)
}

// Validator runs the ordered eligibility checks over one historical order.
// All lookups are read-only; validation never writes anything.
type Validator struct {
	catalog repository.CatalogRepository
	stock   availability.Lookup
	options OptionSchemaSource
	logger  zerolog.Logger
}

// NewValidator creates a reorder validator.
func NewValidator(
	catalog repository.CatalogRepository,
	stock availability.Lookup,
	options OptionSchemaSource,
	logger zerolog.Logger,
) *Validator {
	return &Validator{
		catalog: catalog,
		stock:   stock,
		options: options,
		logger:  logger.With().Str("component", "reorder-validator").Logger(),
	}
}

// checkState carries the order through the check pipeline.
type checkState struct {
	tenant     Tenant
	order      *model.Order
	productIDs []string
}

// Validate runs the eligibility checks in order and stops at the first
// failure. Eligibility rejections are *model.DomainError values; any other
// error is a remote lookup failure.
func (v *Validator) Validate(ctx context.Context, tenant Tenant, order *model.Order) error {
	if tenant.CompanyID == "" || tenant.Slug == "" {
		v.logger.Warn().Msg("reorder attempted without a resolvable tenant")
		return model.ErrNoTenant
	}

	if order == nil || len(order.Items) == 0 {
		return model.ErrEmptyOrder
	}

	st := &checkState{
		tenant:     tenant,
		order:      order,
		productIDs: distinctProductIDs(order.Items),
	}

	steps := []func(context.Context, *checkState) error{
		v.checkCatalog,
		v.checkStock,
		v.checkSplitOptions,
		v.checkOptionSchemas,
	}

	for _, step := range steps {
		if err := step(ctx, st); err != nil {
			return err
		}
	}

	v.logger.Debug().
		Str("order_id", order.ID.String()).
		Int("product_count", len(st.productIDs)).
		Msg("order eligible for reorder")

	return nil
}

// checkCatalog fails when any referenced product is missing from the
// catalog or no longer active.
func (v *Validator) checkCatalog(ctx context.Context, st *checkState) error {
	states, err := v.catalog.GetActiveStates(ctx, st.tenant.CompanyID, st.productIDs)
	if err != nil {
		return fmt.Errorf("catalog lookup failed: %w", err)
	}

	for _, id := range st.productIDs {
		active, found := states[id]
		if !found || !active {
			v.logger.Debug().
				Str("order_id", st.order.ID.String()).
				Str("product_id", id).
				Bool("found", found).
				Msg("product inactive or withdrawn from menu")
			return model.ErrItemInactive
		}
	}

	return nil
}

// checkStock fails when any referenced product is currently unavailable.
func (v *Validator) checkStock(ctx context.Context, st *checkState) error {
	unavailable, err := v.stock.UnavailableProducts(ctx, st.tenant.CompanyID)
	if err != nil {
		return fmt.Errorf("availability lookup failed: %w", err)
	}

	for _, id := range st.productIDs {
		if _, out := unavailable[id]; out {
			v.logger.Debug().
				Str("order_id", st.order.ID.String()).
				Str("product_id", id).
				Msg("product out of stock")
			return model.ErrItemOutOfStock
		}
	}

	return nil
}

// checkSplitOptions fails unconditionally when any option carries the
// legacy half-and-half shape. There is no safe way to re-validate it
// against current schemas.
func (v *Validator) checkSplitOptions(_ context.Context, st *checkState) error {
	for _, item := range st.order.Items {
		for _, opt := range item.Options {
			switch opt.Kind() {
			case model.OptionSplit:
				v.logger.Debug().
					Str("order_id", st.order.ID.String()).
					Str("product_id", item.ProductID).
					Msg("legacy split customization present")
				return model.ErrUnsupportedOption
			case model.OptionSimple:
				// validated against current schemas in the next step
			}
		}
	}

	return nil
}

// checkOptionSchemas fails when any selected option no longer resolves to
// an enabled choice under the product's current groups. Matching is by
// normalized group name, then normalized choice name.
func (v *Validator) checkOptionSchemas(ctx context.Context, st *checkState) error {
	withOptions := productIDsWithOptions(st.order.Items)
	if len(withOptions) == 0 {
		return nil
	}

	groups, err := v.options.GetOptionSchemas(ctx, withOptions)
	if err != nil {
		return fmt.Errorf("option schema lookup failed: %w", err)
	}

	// product -> normalized group name -> set of normalized choice names
	choices := make(map[string]map[string]map[string]struct{})
	for _, g := range groups {
		byGroup := choices[g.ProductID]
		if byGroup == nil {
			byGroup = make(map[string]map[string]struct{})
			choices[g.ProductID] = byGroup
		}

		name := normalize(g.Name)
		set := byGroup[name]
		if set == nil {
			set = make(map[string]struct{})
			byGroup[name] = set
		}
		for _, c := range g.Choices {
			set[normalize(c)] = struct{}{}
		}
	}

	for _, item := range st.order.Items {
		byGroup := choices[item.ProductID]

		for _, opt := range item.Options {
			groupName := normalize(opt.GroupName)
			optionName := normalize(opt.Name)

			if groupName == "" || optionName == "" {
				return v.optionMismatch(st, item.ProductID, opt)
			}

			set, ok := byGroup[groupName]
			if !ok {
				return v.optionMismatch(st, item.ProductID, opt)
			}

			if _, ok := set[optionName]; !ok {
				return v.optionMismatch(st, item.ProductID, opt)
			}
		}
	}

	return nil
}

func (v *Validator) optionMismatch(st *checkState, productID string, opt model.ItemOption) error {
	v.logger.Debug().
		Str("order_id", st.order.ID.String()).
		Str("product_id", productID).
		Str("group", opt.GroupName).
		Str("option", opt.Name).
		Msg("option no longer offered")
	return model.ErrOptionMismatch
}

// normalize compares historical display strings against current ones:
// whitespace-trimmed, case-insensitive.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// distinctProductIDs collects the unique, non-empty product IDs of the items
// in first-seen order.
func distinctProductIDs(items []model.OrderLineItem) []string {
	seen := make(map[string]struct{}, len(items))
	var ids []string
	for _, item := range items {
		if item.ProductID == "" {
			continue
		}
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// productIDsWithOptions collects the unique product IDs of items carrying at
// least one option.
func productIDsWithOptions(items []model.OrderLineItem) []string {
	seen := make(map[string]struct{}, len(items))
	var ids []string
	for _, item := range items {
		if len(item.Options) == 0 || item.ProductID == "" {
			continue
		}
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}
