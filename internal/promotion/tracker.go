// Package promotion records storefront promotion interactions and
// aggregates them into the back-office analytics view.
package promotion

import (
	"context"
	"fmt"
	"time"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// viewDedupWindow is how long a session's view of a promotion suppresses
// recording further views of the same promotion.
const viewDedupWindow = 5 * time.Minute

// Event is one storefront promotion interaction to record.
type Event struct {
	PromotionID string                   `json:"promotionId"`
	CompanyID   string                   `json:"companyId"`
	EventType   model.PromotionEventType `json:"eventType"`
	OrderID     *uuid.UUID               `json:"orderId,omitempty"`
	Revenue     float64                  `json:"revenue,omitempty"`
	SessionID   string                   `json:"sessionId,omitempty"`
}

// PromotionStats is the aggregated view of one promotion.
type PromotionStats struct {
	Promotion      model.Promotion `json:"promotion"`
	Views          int             `json:"views"`
	Clicks         int             `json:"clicks"`
	Conversions    int             `json:"conversions"`
	Revenue        float64         `json:"revenue"`
	ClickRate      float64         `json:"clickRate"`
	ConversionRate float64         `json:"conversionRate"`
}

// Totals sums the interactions across a company's promotions.
type Totals struct {
	Views       int     `json:"views"`
	Clicks      int     `json:"clicks"`
	Conversions int     `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

// Report is the analytics payload for one company.
type Report struct {
	Promotions []PromotionStats `json:"promotions"`
	Totals     Totals           `json:"totals"`
}

// Tracker records promotion events and serves analytics.
type Tracker interface {
	Track(ctx context.Context, event Event) error
	Analytics(ctx context.Context, companyID string) (*Report, error)
}

// tracker implements Tracker over the promotion repository.
type tracker struct {
	repo   repository.PromotionRepository
	logger zerolog.Logger
}

// NewTracker creates a promotion tracker.
func NewTracker(repo repository.PromotionRepository, logger zerolog.Logger) Tracker {
	return &tracker{
		repo:   repo,
		logger: logger.With().Str("service", "promotion").Logger(),
	}
}

// Track validates and records one event. A view from a session that already
// viewed the same promotion within the dedup window is dropped silently:
// re-renders are not engagement.
func (t *tracker) Track(ctx context.Context, event Event) error {
	if event.PromotionID == "" || event.CompanyID == "" || event.EventType == "" {
		return fmt.Errorf("promotion_id, company_id and event_type are required")
	}

	if !event.EventType.Valid() {
		t.logger.Warn().Str("event_type", string(event.EventType)).Msg("invalid promotion event type")
		return model.ErrInvalidEventType
	}

	if event.EventType == model.EventView && event.SessionID != "" {
		seen, err := t.repo.HasRecentView(ctx, event.PromotionID, event.SessionID, viewDedupWindow)
		if err != nil {
			return fmt.Errorf("failed to deduplicate view: %w", err)
		}
		if seen {
			t.logger.Debug().
				Str("promotion_id", event.PromotionID).
				Str("session_id", event.SessionID).
				Msg("duplicate view within window, skipping")
			return nil
		}
	}

	record := &model.PromotionEvent{
		ID:          uuid.New(),
		PromotionID: event.PromotionID,
		CompanyID:   event.CompanyID,
		EventType:   event.EventType,
		OrderID:     event.OrderID,
		Revenue:     event.Revenue,
		CreatedAt:   time.Now(),
	}
	if event.SessionID != "" {
		sessionID := event.SessionID
		record.SessionID = &sessionID
	}

	if err := t.repo.InsertEvent(ctx, record); err != nil {
		return err
	}

	t.logger.Debug().
		Str("promotion_id", event.PromotionID).
		Str("event_type", string(event.EventType)).
		Msg("promotion event recorded")

	return nil
}

// Analytics aggregates a company's events per promotion and overall.
func (t *tracker) Analytics(ctx context.Context, companyID string) (*Report, error) {
	promotions, err := t.repo.ListPromotions(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}

	events, err := t.repo.ListEvents(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotion events: %w", err)
	}

	type counts struct {
		views, clicks, conversions int
		revenue                    float64
	}

	byPromotion := make(map[string]*counts, len(promotions))
	for _, e := range events {
		c := byPromotion[e.PromotionID]
		if c == nil {
			c = &counts{}
			byPromotion[e.PromotionID] = c
		}
		switch e.EventType {
		case model.EventView:
			c.views++
		case model.EventClick:
			c.clicks++
		case model.EventConversion:
			c.conversions++
			c.revenue += e.Revenue
		}
	}

	report := &Report{Promotions: make([]PromotionStats, 0, len(promotions))}
	for _, p := range promotions {
		stats := PromotionStats{Promotion: p}
		if c := byPromotion[p.ID]; c != nil {
			stats.Views = c.views
			stats.Clicks = c.clicks
			stats.Conversions = c.conversions
			stats.Revenue = c.revenue
			if c.views > 0 {
				stats.ClickRate = float64(c.clicks) / float64(c.views)
			}
			if c.clicks > 0 {
				stats.ConversionRate = float64(c.conversions) / float64(c.clicks)
			}
		}

		report.Totals.Views += stats.Views
		report.Totals.Clicks += stats.Clicks
		report.Totals.Conversions += stats.Conversions
		report.Totals.Revenue += stats.Revenue

		report.Promotions = append(report.Promotions, stats)
	}

	return report, nil
}
