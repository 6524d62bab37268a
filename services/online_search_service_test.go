package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/materials-storefront/models"
	"github.com/yashrajoria/materials-storefront/repository"
	"github.com/yashrajoria/materials-storefront/scraper"
	"go.uber.org/goleak"
	"golang.org/x/time/rate"
)

type fakeScraper struct {
	mu    sync.Mutex
	pages map[string]string // url prefix -> html
	fail  map[string]bool
	calls []string
	keys  []string
}

func (f *fakeScraper) Scrape(ctx context.Context, apiKey, pageURL string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pageURL)
	f.keys = append(f.keys, apiKey)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if apiKey == "bad-key" {
		return "", errors.New("401 unauthorized")
	}
	for prefix, failed := range f.fail {
		if failed && strings.HasPrefix(pageURL, prefix) {
			return "", errors.New("blocked")
		}
	}
	for prefix, page := range f.pages {
		if strings.HasPrefix(pageURL, prefix) {
			return page, nil
		}
	}
	return "<html></html>", nil
}

const flipkartPage = `<div class="_1AtVbE"><a href="/p/1" title="Birla A1 Cement 50 kg"></a><div>₹399</div></div>`
const industryPage = `<div class="productCard"><h3>CPVC Pipe 1 inch</h3><span>Rs. 210.00</span></div>`

func newOnline(fs PageScraper, store repository.CredentialStore, delay time.Duration) *OnlineSearchService {
	return NewOnlineSearchService(fs, nil, store, nil, nil, OnlineSearchOptions{
		MockDelay:  delay,
		ScrapeRate: rate.Inf,
	})
}

func TestOnlineSearchWithoutKeyUsesMock(t *testing.T) {
	defer goleak.VerifyNone(t)

	fs := &fakeScraper{}
	svc := newOnline(fs, nil, 0)

	got, err := svc.Search(context.Background(), "ws-1", "Portland")
	require.NoError(t, err)
	assert.Equal(t, models.SourceMock, got.Source)
	assert.Empty(t, got.Warning)
	require.Len(t, got.Materials, 3)
	assert.Equal(t, "Portland Premium Cement", got.Materials[0].Name)
	assert.Equal(t, "Portland Hardwood Flooring", got.Materials[1].Name)
	assert.Equal(t, "Portland Insulation", got.Materials[2].Name)
	for _, m := range got.Materials {
		assert.True(t, m.Online)
		assert.Equal(t, models.CurrencyINR, m.Currency)
	}
	assert.Empty(t, fs.calls)
}

func TestOnlineSearchLiveScrape(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := repository.NewMemoryCredentialStore()
	require.NoError(t, store.Save(context.Background(), "ws-1", "fc-key"))
	fs := &fakeScraper{
		pages: map[string]string{
			scraper.Flipkart.BaseURL:       flipkartPage,
			scraper.IndustryBuying.BaseURL: industryPage,
		},
		fail: map[string]bool{scraper.AmazonIndia.BaseURL: true},
	}
	svc := newOnline(fs, store, time.Hour)

	got, err := svc.Search(context.Background(), "ws-1", "cement")
	require.NoError(t, err)
	assert.Equal(t, models.SourceLive, got.Source)
	require.Len(t, got.Materials, 2)

	assert.Equal(t, "Birla A1 Cement 50 kg", got.Materials[0].Name)
	assert.Equal(t, "Flipkart", got.Materials[0].Supplier)
	assert.Equal(t, 399.0, got.Materials[0].Price)
	assert.Equal(t, "https://www.flipkart.com/p/1", got.Materials[0].SourceURL)

	assert.Equal(t, "CPVC Pipe 1 inch", got.Materials[1].Name)
	assert.Equal(t, "Plumbing", got.Materials[1].Category)
	assert.Equal(t, "Industry Buying", got.Materials[1].Supplier)

	assert.Len(t, fs.calls, 3)
	for _, k := range fs.keys {
		assert.Equal(t, "fc-key", k)
	}
}

func TestOnlineSearchFallsBackWhenNothingParses(t *testing.T) {
	defer goleak.VerifyNone(t)

	fs := &fakeScraper{}
	svc := NewOnlineSearchService(fs, nil, nil, nil, nil, OnlineSearchOptions{
		DefaultAPIKey: "fc-default",
		ScrapeRate:    rate.Inf,
	})

	got, err := svc.Search(context.Background(), "ws-1", "tile")
	require.NoError(t, err)
	assert.Equal(t, models.SourceMock, got.Source)
	assert.NotEmpty(t, got.Warning)
	assert.Len(t, got.Materials, 3)
	assert.Len(t, fs.calls, 3)
}

func TestOnlineSearchMockDelayHonoursCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := newOnline(&fakeScraper{}, nil, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := svc.Search(ctx, "ws-1", "cement")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestValidateAndSaveKey(t *testing.T) {
	ctx := context.Background()
	fs := &fakeScraper{}
	store := repository.NewMemoryCredentialStore()
	svc := newOnline(fs, store, 0)

	assert.ErrorIs(t, svc.ValidateKey(ctx, ""), ErrInvalidAPIKey)
	assert.ErrorIs(t, svc.SaveKey(ctx, "ws-1", "bad-key"), ErrInvalidAPIKey)
	key, _ := store.Get(ctx, "ws-1")
	assert.Empty(t, key)

	require.NoError(t, svc.SaveKey(ctx, "ws-1", "fc-good"))
	key, _ = store.Get(ctx, "ws-1")
	assert.Equal(t, "fc-good", key)
	assert.Contains(t, fs.calls, KeyCheckURL)

	require.NoError(t, svc.ClearKey(ctx, "ws-1"))
	key, _ = store.Get(ctx, "ws-1")
	assert.Empty(t, key)
}

func TestOnlineSearchCacheScopeFollowsSites(t *testing.T) {
	assert.Equal(t, "amazon-india,flipkart,industry-buying", cacheScope(scraper.DefaultSites))
	assert.Equal(t, "flipkart", cacheScope([]scraper.Site{scraper.Flipkart}))
	assert.NotEqual(t, cacheScope(scraper.DefaultSites), cacheScope([]scraper.Site{scraper.AmazonIndia}))
}
