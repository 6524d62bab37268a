package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/yashrajoria/materials-storefront/logger"
	"github.com/yashrajoria/materials-storefront/models"
	"github.com/yashrajoria/materials-storefront/notifier"
	"go.uber.org/zap"
)

type SearchState string

const (
	SearchIdle      SearchState = "idle"
	SearchFetching  SearchState = "fetching"
	SearchSucceeded SearchState = "succeeded"
	SearchFailed    SearchState = "failed"
)

// SearchParams drive one listing search.
type SearchParams struct {
	Category string
	Query    string
	Sort     models.SortOption
	Online   bool
}

// SearchSession tracks the searches of one client. Every run takes a new
// generation number and only the newest generation may replace the
// session's last result, so a slow online search that finishes after a
// newer one does not overwrite it.
type SearchSession struct {
	owner    string
	search   *SearchService
	notifier notifier.Notifier

	mu         sync.Mutex
	state      SearchState
	generation uint64
	last       models.SearchResult
	lastErr    error
}

func NewSearchSession(owner string, search *SearchService, n notifier.Notifier) *SearchSession {
	if n == nil {
		n = notifier.Nop
	}
	return &SearchSession{owner: owner, search: search, notifier: n, state: SearchIdle}
}

// Run filters the catalog, optionally merges online listings, and sorts.
// The result is always returned to the caller; whether it becomes the
// session's last result depends on its generation.
func (ss *SearchSession) Run(ctx context.Context, p SearchParams) (models.SearchResult, error) {
	local := ss.search.catalog.Filter(p.Category, p.Query)
	result := models.SearchResult{Query: p.Query, Category: p.Category, Sort: p.Sort}

	query := strings.TrimSpace(p.Query)
	if !p.Online || query == "" || ss.search.online == nil {
		gen := ss.begin(SearchSucceeded)
		result.Materials = ss.search.SortMaterials(local, p.Sort)
		ss.finish(gen, SearchSucceeded, result, nil)
		return result, nil
	}

	gen := ss.begin(SearchFetching)
	ss.notifier.Notify(ctx, notifier.Info("search.started", "Searching online for products..."))

	listings, err := ss.search.online.Search(ctx, ss.owner, query)
	if err != nil {
		logger.Error(ctx, "online search failed", err, zap.String("query", query))
		if ss.finish(gen, SearchFailed, models.SearchResult{}, err) {
			ss.notifier.Notify(ctx, notifier.Error("search.failed", "Error searching online"))
		}
		return models.SearchResult{}, err
	}

	materials := local
	if n := len(listings.Materials); n > 0 {
		materials = CompareProducts(local, listings.Materials)
		result.OnlineCount = len(materials) - len(local)
	}
	result.Materials = ss.search.SortMaterials(materials, p.Sort)
	result.Source = listings.Source
	result.Warning = listings.Warning

	if !ss.finish(gen, SearchSucceeded, result, nil) {
		logger.Debug(ctx, "discarding stale search result", zap.String("query", query), zap.Uint64("generation", gen))
		return result, nil
	}

	if listings.Warning != "" {
		ss.notifier.Notify(ctx, notifier.Warning("search.fallback", "Online search unavailable", listings.Warning))
	}
	if n := len(listings.Materials); n > 0 {
		ss.notifier.Notify(ctx, notifier.Success("search.completed", fmt.Sprintf("Found %d products online", n)))
	} else {
		ss.notifier.Notify(ctx, notifier.Info("search.completed", "No additional products found online"))
	}
	return result, nil
}

// State reports the state of the newest search.
func (ss *SearchSession) State() SearchState {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.state
}

// LastResult returns the result of the newest completed search.
func (ss *SearchSession) LastResult() (models.SearchResult, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	res := ss.last
	res.Materials = append([]models.Material(nil), ss.last.Materials...)
	return res, ss.lastErr
}

// Lookup finds a material from the last result by id, so online listings
// shown to the client can be added to its cart.
func (ss *SearchSession) Lookup(id string) (models.Material, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	for _, m := range ss.last.Materials {
		if m.ID == id {
			return m, true
		}
	}
	return models.Material{}, false
}

// ComparisonRows is the price comparison table for the last result.
func (ss *SearchSession) ComparisonRows() []models.ComparisonRow {
	res, _ := ss.LastResult()
	return ss.search.CompareRows(res.Materials)
}

// SaveAPIKey validates and stores the client's scrape token.
func (ss *SearchSession) SaveAPIKey(ctx context.Context, key string) error {
	if ss.search.online == nil {
		return ErrInvalidAPIKey
	}
	if err := ss.search.online.SaveKey(ctx, ss.owner, strings.TrimSpace(key)); err != nil {
		if errors.Is(err, ErrInvalidAPIKey) {
			ss.notifier.Notify(ctx, notifier.Error("search.api_key_invalid", "Invalid API key"))
		} else {
			ss.notifier.Notify(ctx, notifier.Error("search.api_key_failed", "Failed to validate API key"))
		}
		return err
	}
	ss.notifier.Notify(ctx, notifier.Success("search.api_key_saved", "API key saved successfully"))
	return nil
}

func (ss *SearchSession) ClearAPIKey(ctx context.Context) error {
	if ss.search.online == nil {
		return nil
	}
	return ss.search.online.ClearKey(ctx, ss.owner)
}

func (ss *SearchSession) begin(state SearchState) uint64 {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.generation++
	ss.state = state
	return ss.generation
}

// finish applies the outcome of generation gen if it is still the newest
// and reports whether it was applied.
func (ss *SearchSession) finish(gen uint64, state SearchState, result models.SearchResult, err error) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if gen != ss.generation {
		return false
	}
	ss.state = state
	if err == nil {
		ss.last = result
	}
	ss.lastErr = err
	return true
}
