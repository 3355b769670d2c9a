package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order as managed by the store.
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusReady          OrderStatus = "ready"
	StatusAwaitingDriver OrderStatus = "awaiting_driver"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady,
		StatusAwaitingDriver, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Cancellable reports whether the customer may still cancel an order in
// status s. Once the kitchen starts preparing, cancellation goes through
// the store.
func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Order is the immutable record of a past purchase as returned by order
// history lookups. The reorder workflow never mutates it.
type Order struct {
	ID                 uuid.UUID        `json:"id"`
	Status             OrderStatus      `json:"status"`
	CustomerName       string           `json:"customerName"`
	CustomerEmail      *string          `json:"customerEmail,omitempty"`
	CustomerPhone      string           `json:"customerPhone"`
	Total              float64          `json:"total"`
	DeliveryFee        float64          `json:"deliveryFee"`
	PaymentMethod      string           `json:"paymentMethod"`
	CancellationReason *string          `json:"cancellationReason,omitempty"`
	TableSessionID     *uuid.UUID       `json:"tableSessionId,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	Items              []OrderLineItem  `json:"items"`
	DeliveryAddress    *DeliveryAddress `json:"deliveryAddress,omitempty"`
}

// OrderLineItem is one line of a historical order. Product name and prices
// are carried as recorded at purchase time, not re-read from the catalog.
type OrderLineItem struct {
	ID          uuid.UUID    `json:"id"`
	OrderID     uuid.UUID    `json:"-"`
	ProductID   string       `json:"productId"`
	ProductName string       `json:"productName"`
	Quantity    int          `json:"quantity"`
	UnitPrice   float64      `json:"unitPrice"`
	TotalPrice  float64      `json:"totalPrice"`
	Options     []ItemOption `json:"options,omitempty"`
	Notes       *string      `json:"notes,omitempty"`
}

// DeliveryAddress is the address the order was delivered to, when present.
type DeliveryAddress struct {
	Street       string  `json:"street"`
	Number       string  `json:"number"`
	Neighborhood string  `json:"neighborhood"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Complement   *string `json:"complement,omitempty"`
}
