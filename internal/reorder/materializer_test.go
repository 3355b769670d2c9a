package reorder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stubResolver resolves image refs through a fixed map.
type stubResolver struct {
	urls map[string]string
}

func (s *stubResolver) Resolve(_ context.Context, ref string) string {
	return s.urls[ref]
}

func TestMaterializer_Materialize(t *testing.T) {
	notes := "Sem cebola"

	order := &model.Order{
		ID:     uuid.New(),
		Status: model.StatusDelivered,
		Items: []model.OrderLineItem{
			{
				ID:          uuid.New(),
				ProductID:   "P1",
				ProductName: "Pizza Calabresa",
				Quantity:    2,
				UnitPrice:   45.9,
				TotalPrice:  91.8,
				Notes:       &notes,
				Options: []model.ItemOption{
					{Name: "Grande", GroupName: "Tamanho", PriceModifier: 8.0},
				},
			},
			{
				ID:          uuid.New(),
				ProductID:   "P2",
				ProductName: "Guaraná 2L",
				Quantity:    1,
				UnitPrice:   12.0,
				TotalPrice:  12.0,
			},
		},
	}

	catalog := new(MockCatalogRepository)
	catalog.On("GetImageRefs", mock.Anything, testTenant.CompanyID, []string{"P1", "P2"}).
		Return(map[string]string{"P1": "products/p1.jpg"}, nil)

	images := &stubResolver{urls: map[string]string{"products/p1.jpg": "https://cdn.example.com/p1.jpg"}}

	m := NewMaterializer(catalog, images, zerolog.Nop())
	frozen := time.UnixMilli(1700000000000)
	m.now = func() time.Time { return frozen }

	draft := m.Materialize(context.Background(), testTenant, order)

	require.NotNil(t, draft)
	assert.Equal(t, testTenant.Slug, draft.CompanySlug)
	require.Len(t, draft.Items, 2)

	first := draft.Items[0]
	assert.Equal(t, fmt.Sprintf("reorder-P1-%d-0", frozen.UnixMilli()), first.ID)
	assert.Equal(t, "Pizza Calabresa", first.ProductName)
	assert.Equal(t, 45.9, first.Price)
	assert.Equal(t, 2, first.Quantity)
	assert.Equal(t, &notes, first.Notes)
	assert.Equal(t, "https://cdn.example.com/p1.jpg", first.ImageURL)
	require.Len(t, first.Options, 1)
	assert.Equal(t, model.CartOption{Name: "Grande", GroupName: "Tamanho", PriceModifier: 8.0}, first.Options[0])

	second := draft.Items[1]
	assert.Equal(t, fmt.Sprintf("reorder-P2-%d-1", frozen.UnixMilli()), second.ID)
	assert.Empty(t, second.ImageURL)
	assert.Empty(t, second.Options)
}

func TestMaterializer_Materialize_DuplicateProductLines(t *testing.T) {
	order := plainOrder("P1", "P1")

	catalog := new(MockCatalogRepository)
	catalog.On("GetImageRefs", mock.Anything, testTenant.CompanyID, []string{"P1"}).
		Return(map[string]string{}, nil)

	m := NewMaterializer(catalog, &stubResolver{}, zerolog.Nop())

	draft := m.Materialize(context.Background(), testTenant, order)

	require.Len(t, draft.Items, 2)
	// Same product on two lines still yields distinct cart item IDs
	assert.NotEqual(t, draft.Items[0].ID, draft.Items[1].ID)
}

func TestMaterializer_Materialize_ImageLookupFailure(t *testing.T) {
	order := plainOrder("P1")

	catalog := new(MockCatalogRepository)
	catalog.On("GetImageRefs", mock.Anything, testTenant.CompanyID, mock.Anything).
		Return(nil, errors.New("catalog unavailable"))

	m := NewMaterializer(catalog, &stubResolver{}, zerolog.Nop())

	draft := m.Materialize(context.Background(), testTenant, order)

	// A failed image lookup degrades to a draft without images
	require.NotNil(t, draft)
	require.Len(t, draft.Items, 1)
	assert.Empty(t, draft.Items[0].ImageURL)
}
