package model

// OptionKind distinguishes the shapes a recorded item option can take.
type OptionKind int

const (
	// OptionSimple is a plain group/choice selection (e.g. "Tamanho: Grande").
	OptionSimple OptionKind = iota

	// OptionSplit is the legacy half-and-half shape where one line item is
	// built from two distinct flavour products. It cannot be re-validated
	// against current option schemas and is always rejected by reorder.
	OptionSplit
)

// ItemOption is one customization selected on a historical line item.
// Historical records store display strings, not stable option identifiers,
// so matching against current schemas is done on normalized names.
type ItemOption struct {
	Name                  string   `json:"name"`
	GroupName             string   `json:"groupName,omitempty"`
	PriceModifier         float64  `json:"priceModifier"`
	SplitFlavorProductIDs []string `json:"halfHalfFlavorProductIds,omitempty"`
}

// Kind returns the shape of the option. The presence of the legacy split
// flavour field, even empty, marks the option as split.
func (o ItemOption) Kind() OptionKind {
	if o.SplitFlavorProductIDs != nil {
		return OptionSplit
	}
	return OptionSimple
}
