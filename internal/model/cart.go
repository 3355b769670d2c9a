package model

// CartOption is an option carried over into a rebuilt cart. Only the fields
// already validated by the reorder checks survive; the legacy split flavour
// field never does.
type CartOption struct {
	Name          string  `json:"name"`
	GroupName     string  `json:"groupName,omitempty"`
	PriceModifier float64 `json:"priceModifier"`
}

// CartItem is one line of a CartDraft. The ID is synthesized per draft so
// the same product appearing on multiple historical lines never collides.
type CartItem struct {
	ID          string       `json:"id"`
	ProductID   string       `json:"productId"`
	ProductName string       `json:"productName"`
	Price       float64      `json:"price"`
	Quantity    int          `json:"quantity"`
	Options     []CartOption `json:"options"`
	Notes       *string      `json:"notes,omitempty"`
	ImageURL    string       `json:"imageUrl,omitempty"`
}

// CartDraft is the staged cart handed to the checkout flow. A draft is
// created fresh on every successful reorder validation and overwrites any
// prior draft wholesale.
type CartDraft struct {
	Items       []CartItem `json:"items"`
	CompanySlug string     `json:"companySlug"`
}
