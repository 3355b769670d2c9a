package model

import (
	"time"

	"github.com/google/uuid"
)

// PromotionEventType classifies a tracked promotion interaction.
type PromotionEventType string

const (
	EventView       PromotionEventType = "view"
	EventClick      PromotionEventType = "click"
	EventConversion PromotionEventType = "conversion"
)

// Valid reports whether t is a known event type.
func (t PromotionEventType) Valid() bool {
	return t == EventView || t == EventClick || t == EventConversion
}

// Promotion is a back-office promotion configured by a company.
type Promotion struct {
	ID            string  `json:"id"`
	CompanyID     string  `json:"companyId"`
	Name          string  `json:"name"`
	DiscountType  string  `json:"discountType"`
	DiscountValue float64 `json:"discountValue"`
	IsActive      bool    `json:"isActive"`
}

// PromotionEvent is one recorded interaction with a promotion. SessionID is
// the browser session that produced the event and drives view deduplication.
type PromotionEvent struct {
	ID          uuid.UUID          `json:"id"`
	PromotionID string             `json:"promotionId"`
	CompanyID   string             `json:"companyId"`
	EventType   PromotionEventType `json:"eventType"`
	OrderID     *uuid.UUID         `json:"orderId,omitempty"`
	Revenue     float64            `json:"revenue"`
	SessionID   *string            `json:"sessionId,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
}
