package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yashrajoria/materials-storefront/logger"
	"github.com/yashrajoria/materials-storefront/metrics"
	"github.com/yashrajoria/materials-storefront/models"
	"github.com/yashrajoria/materials-storefront/repository"
	"github.com/yashrajoria/materials-storefront/scraper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// KeyCheckURL is scraped to validate a token before it is stored.
const KeyCheckURL = "https://example.com"

const liveFallbackWarning = "Live search returned no listings, showing sample results instead"

var ErrInvalidAPIKey = errors.New("invalid API key")

// PageScraper fetches the markup of a page through a scraping API.
type PageScraper interface {
	Scrape(ctx context.Context, apiKey, pageURL string) (string, error)
}

// OnlineSearcher is the online-search capability used by search sessions.
type OnlineSearcher interface {
	Search(ctx context.Context, owner, query string) (models.OnlineListings, error)
	SaveKey(ctx context.Context, owner, key string) error
	ClearKey(ctx context.Context, owner string) error
}

type OnlineSearchOptions struct {
	// DefaultAPIKey is used when the owner has not configured a token.
	DefaultAPIKey string
	MockDelay     time.Duration
	Sites         []scraper.Site
	// ScrapeRate and ScrapeBurst throttle calls to the scraping API across
	// all owners.
	ScrapeRate  rate.Limit
	ScrapeBurst int
}

// OnlineSearchService returns listings scraped from the source sites when
// a scrape token is available and deterministic sample listings otherwise.
type OnlineSearchService struct {
	scraper     PageScraper
	parser      scraper.ListingParser
	credentials repository.CredentialStore
	cache       *repository.SearchCache
	metrics     *metrics.Metrics
	limiter     *rate.Limiter
	cacheScope  string
	opts        OnlineSearchOptions
}

func NewOnlineSearchService(ps PageScraper, parser scraper.ListingParser, credentials repository.CredentialStore, cache *repository.SearchCache, m *metrics.Metrics, opts OnlineSearchOptions) *OnlineSearchService {
	if parser == nil {
		parser = scraper.NewHTMLParser()
	}
	if credentials == nil {
		credentials = repository.NewMemoryCredentialStore()
	}
	if opts.Sites == nil {
		opts.Sites = scraper.DefaultSites
	}
	if opts.ScrapeRate == 0 {
		opts.ScrapeRate = rate.Limit(5)
	}
	if opts.ScrapeBurst <= 0 {
		opts.ScrapeBurst = len(opts.Sites)
	}
	return &OnlineSearchService{
		scraper:     ps,
		parser:      parser,
		credentials: credentials,
		cache:       cache,
		metrics:     m,
		limiter:     rate.NewLimiter(opts.ScrapeRate, opts.ScrapeBurst),
		cacheScope:  cacheScope(opts.Sites),
		opts:        opts,
	}
}

// Search never fails because of the scraping chain; the only error is the
// context ending while waiting.
func (s *OnlineSearchService) Search(ctx context.Context, owner, query string) (models.OnlineListings, error) {
	key := s.apiKey(ctx, owner)
	if key == "" || s.scraper == nil {
		return s.mock(ctx, query, "")
	}

	if cached, ok := s.cache.Get(ctx, s.cacheScope, query); ok {
		s.metrics.OnlineSearch("cache")
		return models.OnlineListings{Materials: cached, Source: models.SourceLive}, nil
	}

	listings := s.fetchLive(ctx, key, query)
	if err := ctx.Err(); err != nil {
		return models.OnlineListings{}, err
	}
	if len(listings) == 0 {
		logger.Warn(ctx, "live online search found nothing, using sample listings", zap.String("query", query))
		return s.mock(ctx, query, liveFallbackWarning)
	}

	s.cache.Set(ctx, s.cacheScope, query, listings)
	s.metrics.OnlineSearch("live")
	return models.OnlineListings{Materials: listings, Source: models.SourceLive}, nil
}

// fetchLive scrapes every site concurrently. A site that fails to fetch or
// parse contributes no listings.
func (s *OnlineSearchService) fetchLive(ctx context.Context, key, query string) []models.Material {
	perSite := make([][]models.Material, len(s.opts.Sites))

	g, gctx := errgroup.WithContext(ctx)
	for i, site := range s.opts.Sites {
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return nil
			}
			page, err := s.scraper.Scrape(gctx, key, site.SearchURL(query))
			if err != nil {
				logger.Warn(ctx, "scrape failed", zap.String("site", site.Name), zap.Error(err))
				return nil
			}
			perSite[i] = s.parser.Parse(site, page)
			logger.Debug(ctx, "scraped site", zap.String("site", site.Name), zap.Int("listings", len(perSite[i])))
			return nil
		})
	}
	_ = g.Wait()

	var out []models.Material
	for _, items := range perSite {
		out = append(out, items...)
	}
	return out
}

func (s *OnlineSearchService) mock(ctx context.Context, query, warning string) (models.OnlineListings, error) {
	if s.opts.MockDelay > 0 {
		timer := time.NewTimer(s.opts.MockDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return models.OnlineListings{}, ctx.Err()
		case <-timer.C:
		}
	}
	s.metrics.OnlineSearch("mock")
	return models.OnlineListings{Materials: MockListings(query), Source: models.SourceMock, Warning: warning}, nil
}

func (s *OnlineSearchService) apiKey(ctx context.Context, owner string) string {
	key, err := s.credentials.Get(ctx, owner)
	if err != nil {
		logger.Warn(ctx, "failed to read scrape API key", zap.Error(err))
	}
	if key == "" {
		key = s.opts.DefaultAPIKey
	}
	return key
}

// cacheScope names the site set so results scraped from different sites
// never share a cache entry.
func cacheScope(sites []scraper.Site) string {
	slugs := make([]string, len(sites))
	for i, site := range sites {
		slugs[i] = site.Slug()
	}
	return strings.Join(slugs, ",")
}

// ValidateKey performs a cheap scrape with key to check that it works.
func (s *OnlineSearchService) ValidateKey(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidAPIKey
	}
	if s.scraper == nil {
		return fmt.Errorf("%w: online scraping is not configured", ErrInvalidAPIKey)
	}
	if _, err := s.scraper.Scrape(ctx, key, KeyCheckURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAPIKey, err)
	}
	return nil
}

// SaveKey validates key and stores it for owner.
func (s *OnlineSearchService) SaveKey(ctx context.Context, owner, key string) error {
	if err := s.ValidateKey(ctx, key); err != nil {
		return err
	}
	if err := s.credentials.Save(ctx, owner, key); err != nil {
		return fmt.Errorf("store API key: %w", err)
	}
	return nil
}

func (s *OnlineSearchService) ClearKey(ctx context.Context, owner string) error {
	return s.credentials.Clear(ctx, owner)
}

// MockListings is the deterministic sample result set for query.
func MockListings(query string) []models.Material {
	return []models.Material{
		{
			ID:       "online-1",
			Name:     query + " Premium Cement",
			Category: "Cement & Concrete",
			Price:    425.50,
			Currency: models.CurrencyINR,
			Unit:     "Bag (50 kg)",
			Supplier: "Online Supplier A",
			Contact:  "+91 8800123456",
			Image:    placeholderImage,
			Online:   true,
		},
		{
			ID:       "online-2",
			Name:     query + " Hardwood Flooring",
			Category: "Flooring",
			Price:    2150.75,
			Currency: models.CurrencyINR,
			Unit:     "sq ft",
			Supplier: "Online Supplier B",
			Contact:  "+91 9988776655",
			Image:    placeholderImage,
			Online:   true,
		},
		{
			ID:       "online-3",
			Name:     query + " Insulation",
			Category: "Insulation",
			Price:    1899.99,
			Currency: models.CurrencyINR,
			Unit:     "Roll (100 sq ft)",
			Supplier: "Online Supplier C",
			Contact:  "+91 7712345678",
			Image:    placeholderImage,
			Online:   true,
		},
	}
}
