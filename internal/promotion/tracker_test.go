package promotion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPromotionRepository is a mock implementation of repository.PromotionRepository.
type MockPromotionRepository struct {
	mock.Mock
}

func (m *MockPromotionRepository) InsertEvent(ctx context.Context, event *model.PromotionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPromotionRepository) HasRecentView(ctx context.Context, promotionID, sessionID string, window time.Duration) (bool, error) {
	args := m.Called(ctx, promotionID, sessionID, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockPromotionRepository) ListPromotions(ctx context.Context, companyID string) ([]model.Promotion, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Promotion), args.Error(1)
}

func (m *MockPromotionRepository) ListEvents(ctx context.Context, companyID string) ([]model.PromotionEvent, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PromotionEvent), args.Error(1)
}

func TestTracker_Track(t *testing.T) {
	tests := []struct {
		name        string
		event       Event
		recentView  bool
		expectWrite bool
		expectedErr error
	}{
		{
			name: "First view is recorded",
			event: Event{
				PromotionID: "promo-1",
				CompanyID:   "company-1",
				EventType:   model.EventView,
				SessionID:   "session-1",
			},
			expectWrite: true,
		},
		{
			name: "Repeated view within the window is dropped",
			event: Event{
				PromotionID: "promo-1",
				CompanyID:   "company-1",
				EventType:   model.EventView,
				SessionID:   "session-1",
			},
			recentView: true,
		},
		{
			name: "Click is never deduplicated",
			event: Event{
				PromotionID: "promo-1",
				CompanyID:   "company-1",
				EventType:   model.EventClick,
				SessionID:   "session-1",
			},
			expectWrite: true,
		},
		{
			name: "View without a session is recorded",
			event: Event{
				PromotionID: "promo-1",
				CompanyID:   "company-1",
				EventType:   model.EventView,
			},
			expectWrite: true,
		},
		{
			name: "Unknown event type",
			event: Event{
				PromotionID: "promo-1",
				CompanyID:   "company-1",
				EventType:   "hover",
			},
			expectedErr: model.ErrInvalidEventType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockPromotionRepository)
			if tt.event.EventType == model.EventView && tt.event.SessionID != "" && tt.expectedErr == nil {
				repo.On("HasRecentView", mock.Anything, tt.event.PromotionID, tt.event.SessionID, viewDedupWindow).
					Return(tt.recentView, nil)
			}
			if tt.expectWrite {
				repo.On("InsertEvent", mock.Anything, mock.AnythingOfType("*model.PromotionEvent")).
					Return(nil)
			}

			tracker := NewTracker(repo, zerolog.Nop())

			err := tracker.Track(context.Background(), tt.event)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
			if !tt.expectWrite {
				repo.AssertNotCalled(t, "InsertEvent", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestTracker_Track_MissingFields(t *testing.T) {
	tracker := NewTracker(new(MockPromotionRepository), zerolog.Nop())

	err := tracker.Track(context.Background(), Event{EventType: model.EventClick})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestTracker_Track_ConversionCarriesOrderAndRevenue(t *testing.T) {
	orderID := uuid.New()

	repo := new(MockPromotionRepository)
	repo.On("InsertEvent", mock.Anything, mock.MatchedBy(func(e *model.PromotionEvent) bool {
		return e.EventType == model.EventConversion &&
			e.OrderID != nil && *e.OrderID == orderID &&
			e.Revenue == 89.9 &&
			e.SessionID != nil && *e.SessionID == "session-1" &&
			e.ID != uuid.Nil
	})).Return(nil)

	tracker := NewTracker(repo, zerolog.Nop())

	err := tracker.Track(context.Background(), Event{
		PromotionID: "promo-1",
		CompanyID:   "company-1",
		EventType:   model.EventConversion,
		OrderID:     &orderID,
		Revenue:     89.9,
		SessionID:   "session-1",
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestTracker_Analytics(t *testing.T) {
	promotions := []model.Promotion{
		{ID: "promo-1", CompanyID: "company-1", Name: "Terça da Pizza"},
		{ID: "promo-2", CompanyID: "company-1", Name: "Frete Grátis"},
	}

	events := []model.PromotionEvent{
		{PromotionID: "promo-1", EventType: model.EventView},
		{PromotionID: "promo-1", EventType: model.EventView},
		{PromotionID: "promo-1", EventType: model.EventView},
		{PromotionID: "promo-1", EventType: model.EventView},
		{PromotionID: "promo-1", EventType: model.EventClick},
		{PromotionID: "promo-1", EventType: model.EventClick},
		{PromotionID: "promo-1", EventType: model.EventConversion, Revenue: 50},
		{PromotionID: "promo-2", EventType: model.EventView},
	}

	repo := new(MockPromotionRepository)
	repo.On("ListPromotions", mock.Anything, "company-1").Return(promotions, nil)
	repo.On("ListEvents", mock.Anything, "company-1").Return(events, nil)

	tracker := NewTracker(repo, zerolog.Nop())

	report, err := tracker.Analytics(context.Background(), "company-1")

	require.NoError(t, err)
	require.Len(t, report.Promotions, 2)

	first := report.Promotions[0]
	assert.Equal(t, 4, first.Views)
	assert.Equal(t, 2, first.Clicks)
	assert.Equal(t, 1, first.Conversions)
	assert.Equal(t, 50.0, first.Revenue)
	assert.Equal(t, 0.5, first.ClickRate)
	assert.Equal(t, 0.5, first.ConversionRate)

	second := report.Promotions[1]
	assert.Equal(t, 1, second.Views)
	assert.Zero(t, second.ClickRate)
	assert.Zero(t, second.ConversionRate)

	assert.Equal(t, 5, report.Totals.Views)
	assert.Equal(t, 2, report.Totals.Clicks)
	assert.Equal(t, 1, report.Totals.Conversions)
	assert.Equal(t, 50.0, report.Totals.Revenue)
}

func TestTracker_Analytics_NoPromotions(t *testing.T) {
	repo := new(MockPromotionRepository)
	repo.On("ListPromotions", mock.Anything, "company-1").Return([]model.Promotion{}, nil)
	repo.On("ListEvents", mock.Anything, "company-1").Return([]model.PromotionEvent{}, nil)

	tracker := NewTracker(repo, zerolog.Nop())

	report, err := tracker.Analytics(context.Background(), "company-1")

	require.NoError(t, err)
	assert.Empty(t, report.Promotions)
	assert.Zero(t, report.Totals.Views)
}

func TestTracker_Track_DedupLookupFailure(t *testing.T) {
	repo := new(MockPromotionRepository)
	repo.On("HasRecentView", mock.Anything, "promo-1", "session-1", viewDedupWindow).
		Return(false, errors.New("connection refused"))

	tracker := NewTracker(repo, zerolog.Nop())

	err := tracker.Track(context.Background(), Event{
		PromotionID: "promo-1",
		CompanyID:   "company-1",
		EventType:   model.EventView,
		SessionID:   "session-1",
	})

	require.Error(t, err)
	repo.AssertNotCalled(t, "InsertEvent", mock.Anything, mock.Anything)
}
