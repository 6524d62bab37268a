package scraper

import (
	"net/url"
	"strings"
)

// Site is an online marketplace listings are scraped from.
type Site struct {
	Name    string
	BaseURL string
	// SearchPath is appended to BaseURL; %s is replaced by the escaped query.
	SearchPath string
	// BlockMarkers are class-name fragments identifying one listing block.
	BlockMarkers []string
}

var (
	AmazonIndia = Site{
		Name:         "Amazon India",
		BaseURL:      "https://www.amazon.in",
		SearchPath:   "/s?k=%s",
		BlockMarkers: []string{"s-result-item", "s-search-result"},
	}
	Flipkart = Site{
		Name:         "Flipkart",
		BaseURL:      "https://www.flipkart.com",
		SearchPath:   "/search?q=%s",
		BlockMarkers: []string{"_1AtVbE", "slAVV4", "tUxRFH", "_75nlfW"},
	}
	IndustryBuying = Site{
		Name:         "Industry Buying",
		BaseURL:      "https://www.industrybuying.com",
		SearchPath:   "/search/?q=%s",
		BlockMarkers: []string{"productCard", "product-card", "prFeatureName"},
	}
)

// DefaultSites is the fixed set of source sites queried by an online search.
var DefaultSites = []Site{AmazonIndia, Flipkart, IndustryBuying}

// SearchURL builds the site's search page URL for query.
func (s Site) SearchURL(query string) string {
	return s.BaseURL + strings.Replace(s.SearchPath, "%s", url.QueryEscape(strings.TrimSpace(query)), 1)
}

// Slug is a lower-case, dash separated form of the site name used in ids.
func (s Site) Slug() string {
	return strings.Join(strings.Fields(strings.ToLower(s.Name)), "-")
}

// Resolve turns a possibly relative link found on the site into an
// absolute URL. Unparseable links resolve to "".
func (s Site) Resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
