package models

// CartLine pairs a copy of a material, taken when it was added, with a
// positive quantity.
type CartLine struct {
	Material Material `json:"material"`
	Quantity int      `json:"quantity"`
}

// LineTotal is price times quantity.
func (l CartLine) LineTotal() float64 {
	return l.Material.Price * float64(l.Quantity)
}

// Cart is the serialized view of a cart.
type Cart struct {
	Items      []CartLine `json:"items"`
	TotalItems int        `json:"total_items"`
	TotalPrice float64    `json:"total_price"`
}

type EstimateLine struct {
	MaterialID string  `json:"material_id"`
	Name       string  `json:"name"`
	Unit       string  `json:"unit"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	LineTotal  float64 `json:"line_total"`
}

type SupplierContact struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// Estimate is a printable cost estimate for the cart's contents.
type Estimate struct {
	Lines      []EstimateLine    `json:"lines"`
	Suppliers  []SupplierContact `json:"suppliers"`
	TotalItems int               `json:"total_items"`
	TotalPrice float64           `json:"total_price"`
}
