package services

import (
	"strings"

	"github.com/yashrajoria/materials-storefront/models"
)

// AllCategories is the category filter value that matches everything.
const AllCategories = "all"

const placeholderImage = "/placeholder.svg"

var catalogSeed = []models.Material{
	{ID: "1", Name: "Portland Cement", Category: "Cement & Concrete", Price: 12.99, Unit: "Bag (94 lb)", Supplier: "BuildWell Supplies", Contact: "+1 (555) 123-4567"},
	{ID: "2", Name: "Oak Hardwood Flooring", Category: "Flooring", Price: 5.99, Unit: "sq ft", Supplier: "Flooring Masters", Contact: "+1 (555) 234-5678"},
	{ID: "3", Name: "Drywall Sheet", Category: "Drywall", Price: 14.50, Unit: "Sheet (4×8 ft)", Supplier: "Drywall Direct", Contact: "+1 (555) 345-6789"},
	{ID: "4", Name: "Quartz Countertop", Category: "Countertops", Price: 65.00, Unit: "sq ft", Supplier: "Stone Creations", Contact: "+1 (555) 456-7890"},
	{ID: "5", Name: "Copper Plumbing Pipe", Category: "Plumbing", Price: 21.75, Unit: "10 ft length", Supplier: "Plumbing Plus", Contact: "+1 (555) 567-8901"},
	{ID: "6", Name: "Fiberglass Insulation", Category: "Insulation", Price: 19.95, Unit: "Roll (100 sq ft)", Supplier: "Insulation Experts", Contact: "+1 (555) 678-9012"},
	{ID: "7", Name: "Vinyl Siding", Category: "Exterior", Price: 7.85, Unit: "sq ft", Supplier: "Exterior Solutions", Contact: "+1 (555) 789-0123"},
	{ID: "8", Name: "Structural Lumber 2×4", Category: "Lumber", Price: 5.25, Unit: "8 ft length", Supplier: "Timber Traders", Contact: "+1 (555) 890-1234"},
	{ID: "9", Name: "Ceramic Floor Tile", Category: "Flooring", Price: 2.49, Unit: "sq ft", Supplier: "Tile Town", Contact: "+1 (555) 901-2345"},
	{ID: "10", Name: "Granite Countertop", Category: "Countertops", Price: 45.00, Unit: "sq ft", Supplier: "Stone Creations", Contact: "+1 (555) 456-7890"},
	{ID: "11", Name: "PVC Plumbing Pipe", Category: "Plumbing", Price: 8.99, Unit: "10 ft length", Supplier: "Plumbing Plus", Contact: "+1 (555) 567-8901"},
	{ID: "12", Name: "Spray Foam Insulation", Category: "Insulation", Price: 89.95, Unit: "Kit (covers 200 sq ft)", Supplier: "Insulation Experts", Contact: "+1 (555) 678-9012"},
}

// CatalogService serves the fixed in-memory material catalog. It is safe
// for concurrent use because nothing mutates it after construction.
type CatalogService struct {
	materials []models.Material
	company   models.CompanyInfo
}

func NewCatalogService(storeName string) *CatalogService {
	materials := make([]models.Material, len(catalogSeed))
	for i, m := range catalogSeed {
		m.Currency = models.CurrencyUSD
		m.Image = placeholderImage
		materials[i] = m
	}
	return &CatalogService{
		materials: materials,
		company: models.CompanyInfo{
			Name:    storeName,
			Tagline: "Compare construction material prices from local and online suppliers",
			Phone:   "(555) 123-4567",
			Email:   "info@buildprice.com",
		},
	}
}

func (s *CatalogService) Company() models.CompanyInfo {
	return s.company
}

// All returns every material in catalog order.
func (s *CatalogService) All() []models.Material {
	return append([]models.Material(nil), s.materials...)
}

func (s *CatalogService) ByID(id string) (models.Material, bool) {
	for _, m := range s.materials {
		if m.ID == id {
			return m, true
		}
	}
	return models.Material{}, false
}

// ByCategory filters by exact, case-sensitive category. "all" and "" match
// every material.
func (s *CatalogService) ByCategory(category string) []models.Material {
	return filterCategory(s.materials, category)
}

// Search matches query case-insensitively against name or category.
func (s *CatalogService) Search(query string) []models.Material {
	return filterQuery(s.materials, query)
}

// Categories lists the distinct categories in first-seen order.
func (s *CatalogService) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range s.materials {
		if !seen[m.Category] {
			seen[m.Category] = true
			out = append(out, m.Category)
		}
	}
	return out
}

// Filter applies the category filter and then the text search.
func (s *CatalogService) Filter(category, query string) []models.Material {
	return filterQuery(filterCategory(s.materials, category), query)
}

func filterCategory(items []models.Material, category string) []models.Material {
	out := make([]models.Material, 0, len(items))
	for _, m := range items {
		if category == "" || category == AllCategories || m.Category == category {
			out = append(out, m)
		}
	}
	return out
}

func filterQuery(items []models.Material, query string) []models.Material {
	q := strings.ToLower(query)
	out := make([]models.Material, 0, len(items))
	for _, m := range items {
		if strings.Contains(strings.ToLower(m.Name), q) || strings.Contains(strings.ToLower(m.Category), q) {
			out = append(out, m)
		}
	}
	return out
}
