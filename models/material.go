package models

// Currency identifies the currency a listing price is quoted in.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyINR Currency = "INR"
)

// Symbol returns the display symbol for the currency.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyINR:
		return "₹"
	default:
		return "$"
	}
}

// Material is a purchasable construction item, either from the static
// catalog or sourced from an online listing.
type Material struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Price     float64  `json:"price"`
	Currency  Currency `json:"currency"`
	Unit      string   `json:"unit"`
	Supplier  string   `json:"supplier"`
	Contact   string   `json:"contact"`
	Image     string   `json:"image"`
	Online    bool     `json:"is_online,omitempty"`
	SourceURL string   `json:"source_url,omitempty"`
}

// CompanyInfo is the storefront's own display information.
type CompanyInfo struct {
	Name    string `json:"name"`
	Tagline string `json:"tagline"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}
