package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultCategory = "Building Materials"
	DefaultUnit     = "Unit"
)

type rule struct {
	keywords []string
	category string
	unit     string
}

// First match wins, so more specific keywords come before general ones.
var rules = []rule{
	{[]string{"cement", "concrete", "mortar"}, "Cement & Concrete", "Bag (50 kg)"},
	{[]string{"countertop", "granite", "quartz", "marble"}, "Countertops", "sq ft"},
	{[]string{"lumber", "timber", "plywood", "2x4", "2×4"}, "Lumber", "8 ft length"},
	{[]string{"floor", "tile", "wood", "laminate"}, "Flooring", "sq ft"},
	{[]string{"insulation", "foam", "glass wool", "rock wool"}, "Insulation", "Roll (100 sq ft)"},
	{[]string{"pipe", "plumb", "cpvc", "pvc"}, "Plumbing", "10 ft length"},
	{[]string{"drywall", "gypsum", "plasterboard"}, "Drywall", "Sheet (4×8 ft)"},
	{[]string{"siding", "cladding"}, "Exterior", "sq ft"},
	{[]string{"brick", "block"}, "Bricks & Blocks", "Piece"},
	{[]string{"steel", "tmt", "rebar"}, "Steel", "kg"},
	{[]string{"paint", "primer", "putty"}, "Paint", "Litre"},
}

// Classify infers a category and unit of measure from keywords in a
// listing name.
func Classify(name string) (category, unit string) {
	lower := strings.ToLower(name)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.category, r.unit
			}
		}
	}
	return DefaultCategory, DefaultUnit
}

// Prices split across spans read as "₹ 1,299 . 50" once text nodes are joined.
var priceToken = regexp.MustCompile(`(?:₹|Rs\.?|INR)\s*([0-9][0-9,]*(?:\s*\.\s*[0-9]+)?)`)

// ParsePrice returns the amount of the first rupee price token in text.
func ParsePrice(text string) (float64, bool) {
	m := priceToken.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.NewReplacer(",", "", " ", "").Replace(m[1]), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
