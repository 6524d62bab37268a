package scraper

import (
	"fmt"
	"strings"

	"github.com/yashrajoria/materials-storefront/models"
	"golang.org/x/net/html"
)

const (
	DefaultMaxPerPage = 10
	PlaceholderImage  = "/placeholder.svg"
)

// ListingParser extracts listings from the raw markup of one site page.
// Implementations never fail: unusable markup yields no listings.
type ListingParser interface {
	Parse(site Site, page string) []models.Material
}

// HTMLParser finds listing blocks by the site's class markers and pulls
// a name, a rupee price, an image and a link out of each.
type HTMLParser struct {
	MaxPerPage int
}

func NewHTMLParser() *HTMLParser {
	return &HTMLParser{MaxPerPage: DefaultMaxPerPage}
}

func (p *HTMLParser) Parse(site Site, page string) []models.Material {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil
	}

	limit := p.MaxPerPage
	if limit <= 0 {
		limit = DefaultMaxPerPage
	}

	var out []models.Material
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(out) >= limit {
			return
		}
		if n.Type == html.ElementNode && hasMarker(n, site.BlockMarkers) {
			if m, ok := extractListing(site, n); ok {
				m.ID = fmt.Sprintf("%s-%d", site.Slug(), len(out)+1)
				out = append(out, m)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func extractListing(site Site, block *html.Node) (models.Material, bool) {
	var name, href, img string

	var find func(*html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1", "h2", "h3", "h4":
				if name == "" {
					name = textContent(n)
				}
			case "a":
				if href == "" {
					href = attr(n, "href")
				}
				if name == "" {
					name = attr(n, "title")
				}
			case "img":
				if img == "" {
					img = attr(n, "src")
				}
			}
			if name == "" && strings.Contains(strings.ToLower(attr(n, "class")), "title") {
				name = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(block)

	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return models.Material{}, false
	}
	price, ok := ParsePrice(textContent(block))
	if !ok {
		return models.Material{}, false
	}

	category, unit := Classify(name)
	if img == "" {
		img = PlaceholderImage
	}
	return models.Material{
		Name:      name,
		Category:  category,
		Price:     price,
		Currency:  models.CurrencyINR,
		Unit:      unit,
		Supplier:  site.Name,
		Contact:   site.BaseURL,
		Image:     img,
		Online:    true,
		SourceURL: site.Resolve(href),
	}, true
}

func hasMarker(n *html.Node, markers []string) bool {
	class := attr(n, "class")
	if class == "" {
		return false
	}
	for _, m := range markers {
		if strings.Contains(class, m) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textContent joins the text nodes under n with single spaces.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimSpace(sb.String())
}
