package services

import (
	"bytes"
	"cmp"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/yashrajoria/materials-storefront/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const onlineIDPrefix = "online-"

var supplierSites = map[string]string{
	"Amazon India":      "https://www.amazon.in",
	"Flipkart":          "https://www.flipkart.com",
	"Industry Buying":   "https://www.industrybuying.com",
	"Online Supplier A": "https://www.amazon.in",
	"Online Supplier B": "https://www.flipkart.com",
	"Online Supplier C": "https://www.industrybuying.com",
}

const fallbackSearchURL = "https://www.google.com/search"

// SearchService combines the local catalog with online listings.
type SearchService struct {
	catalog   *CatalogService
	online    OnlineSearcher
	inrPerUSD float64
}

func NewSearchService(catalog *CatalogService, online OnlineSearcher, inrPerUSD float64) *SearchService {
	if inrPerUSD <= 0 {
		inrPerUSD = 1
	}
	return &SearchService{catalog: catalog, online: online, inrPerUSD: inrPerUSD}
}

func (s *SearchService) Catalog() *CatalogService { return s.catalog }

// CompareProducts keeps every local item in order and appends the online
// listings whose name matches nothing already in the result, ignoring
// case. Appended listings get an "online-" id prefix and are marked online.
func CompareProducts(local, online []models.Material) []models.Material {
	out := make([]models.Material, 0, len(local)+len(online))
	seen := make(map[string]bool, len(local)+len(online))
	for _, m := range local {
		out = append(out, m)
		seen[strings.ToLower(m.Name)] = true
	}
	for _, m := range online {
		key := strings.ToLower(m.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		m.ID = onlineIDPrefix + m.ID
		m.Online = true
		out = append(out, m)
	}
	return out
}

// SortMaterials returns a sorted copy of items. Names compare with English
// collation. The price options compare the quoted price as is; the USD
// price options compare in US dollars. Ties keep their input order and
// unknown options leave the order unchanged.
func (s *SearchService) SortMaterials(items []models.Material, option models.SortOption) []models.Material {
	out := slices.Clone(items)
	switch option {
	case models.SortNameAsc, models.SortNameDesc:
		col := collate.New(language.English)
		keys := make(map[string][]byte, len(out))
		var buf collate.Buffer
		for _, m := range out {
			if _, ok := keys[m.Name]; !ok {
				keys[m.Name] = slices.Clone(col.KeyFromString(&buf, m.Name))
				buf.Reset()
			}
		}
		slices.SortStableFunc(out, func(a, b models.Material) int {
			c := bytes.Compare(keys[a.Name], keys[b.Name])
			if option == models.SortNameDesc {
				return -c
			}
			return c
		})
	case models.SortPriceAsc, models.SortPriceDesc:
		sortByPrice(out, option == models.SortPriceDesc, func(m models.Material) float64 { return m.Price })
	case models.SortPriceUSDAsc, models.SortPriceUSDDesc:
		sortByPrice(out, option == models.SortPriceUSDDesc, s.NormalizedPrice)
	}
	return out
}

func sortByPrice(items []models.Material, desc bool, price func(models.Material) float64) {
	slices.SortStableFunc(items, func(a, b models.Material) int {
		c := cmp.Compare(price(a), price(b))
		if desc {
			return -c
		}
		return c
	})
}

// NormalizedPrice converts a material's price to US dollars.
func (s *SearchService) NormalizedPrice(m models.Material) float64 {
	if m.Currency == models.CurrencyINR {
		return m.Price / s.inrPerUSD
	}
	return m.Price
}

// CompareRows builds the price comparison table for items.
func (s *SearchService) CompareRows(items []models.Material) []models.ComparisonRow {
	rows := make([]models.ComparisonRow, 0, len(items))
	for _, m := range items {
		currency := m.Currency
		if currency == "" && m.Online {
			currency = models.CurrencyINR
		}
		row := models.ComparisonRow{
			ID:              m.ID,
			Product:         m.Name,
			Supplier:        m.Supplier,
			Price:           m.Price,
			CurrencySymbol:  currency.Symbol(),
			DisplayPrice:    fmt.Sprintf("%s%.2f", currency.Symbol(), m.Price),
			NormalizedPrice: s.NormalizedPrice(models.Material{Price: m.Price, Currency: currency}),
			Unit:            m.Unit,
			Source:          "Local",
		}
		if m.Online {
			row.Source = "Online"
			row.Link = ExternalURL(m)
		}
		rows = append(rows, row)
	}
	return rows
}

// ExternalURL links an online listing to its origin page, a search on the
// supplier's site, or a web search when the supplier is unknown.
func ExternalURL(m models.Material) string {
	if m.SourceURL != "" {
		return m.SourceURL
	}
	base, ok := supplierSites[m.Supplier]
	if !ok {
		return fallbackSearchURL + "?q=" + encodeComponent(m.Name+" construction material")
	}
	return base + "/search?q=" + encodeComponent(m.Name)
}

func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
