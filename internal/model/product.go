package model

import "time"

// Product is a catalog entry scoped to one company.
type Product struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	ImageRef  *string   `json:"imageRef,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// OptionGroup is a customization axis currently offered on a product,
// together with the display names of its enabled choices.
type OptionGroup struct {
	ID        string   `json:"id"`
	ProductID string   `json:"productId"`
	Name      string   `json:"name"`
	Choices   []string `json:"choices"`
}
