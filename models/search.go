package models

// SearchSource says where the online part of a search result came from.
type SearchSource string

const (
	SourceNone SearchSource = ""
	SourceLive SearchSource = "live"
	SourceMock SearchSource = "mock"
)

// SortOption orders a listing.
type SortOption string

const (
	SortNameAsc   SortOption = "name-asc"
	SortNameDesc  SortOption = "name-desc"
	SortPriceAsc  SortOption = "price-asc"
	SortPriceDesc SortOption = "price-desc"

	// The USD variants compare prices after converting INR listings to
	// dollars. The plain price options compare the quoted numbers.
	SortPriceUSDAsc  SortOption = "price-usd-asc"
	SortPriceUSDDesc SortOption = "price-usd-desc"
)

// OnlineListings is what the online-search collaborator returns.
type OnlineListings struct {
	Materials []Material   `json:"materials"`
	Source    SearchSource `json:"source"`
	Warning   string       `json:"warning,omitempty"`
}

// SearchResult is the merged, sorted outcome of one search invocation.
type SearchResult struct {
	Query       string       `json:"query"`
	Category    string       `json:"category"`
	Sort        SortOption   `json:"sort"`
	Materials   []Material   `json:"materials"`
	OnlineCount int          `json:"online_count"`
	Source      SearchSource `json:"source,omitempty"`
	Warning     string       `json:"warning,omitempty"`
}

// ComparisonRow is one row of the price comparison table.
type ComparisonRow struct {
	ID              string  `json:"id"`
	Product         string  `json:"product"`
	Supplier        string  `json:"supplier"`
	Price           float64 `json:"price"`
	CurrencySymbol  string  `json:"currency_symbol"`
	DisplayPrice    string  `json:"display_price"`
	NormalizedPrice float64 `json:"normalized_price_usd"`
	Unit            string  `json:"unit"`
	Source          string  `json:"source"`
	Link            string  `json:"link,omitempty"`
}
