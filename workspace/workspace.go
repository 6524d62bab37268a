package workspace

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/materials-storefront/metrics"
	"github.com/yashrajoria/materials-storefront/notifier"
	"github.com/yashrajoria/materials-storefront/providers"
	"github.com/yashrajoria/materials-storefront/repository"
	"github.com/yashrajoria/materials-storefront/services"
)

// Workspace is the state of one client: its cart, sign-in, searches and
// pending notifications.
type Workspace struct {
	ID     string
	Cart   *services.CartService
	Auth   *services.AuthService
	Search *services.SearchSession
	Feed   *notifier.Feed

	// Notifier fans out to Feed and the shared notifier.
	Notifier notifier.Notifier
}

// Dependencies are shared by every workspace.
type Dependencies struct {
	Provider providers.IdentityProvider
	Profiles repository.ProfileRepository
	Search   *services.SearchService
	// Notifier receives every workspace's notifications in addition to the
	// workspace feed, e.g. the log or an event topic.
	Notifier notifier.Notifier
	Metrics  *metrics.Metrics
	FeedSize int
}

func newWorkspace(id string, deps Dependencies) *Workspace {
	feed := notifier.NewFeed(deps.FeedSize)
	n := notifier.Multi{feed, deps.Notifier}
	return &Workspace{
		ID:       id,
		Cart:     services.NewCartService(n, deps.Metrics),
		Auth:     services.NewAuthService(deps.Provider, deps.Profiles, n),
		Search:   services.NewSearchSession(id, deps.Search, n),
		Feed:     feed,
		Notifier: n,
	}
}

type entry struct {
	ws       *Workspace
	lastSeen time.Time
}

// Registry hands out workspaces by id and evicts those idle for longer
// than its TTL.
type Registry struct {
	deps Dependencies
	ttl  time.Duration

	mu    sync.Mutex
	items map[string]*entry
	now   func() time.Time

	stop chan struct{}
	done chan struct{}
}

func NewRegistry(deps Dependencies, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	r := &Registry{
		deps:  deps,
		ttl:   ttl,
		items: make(map[string]*entry),
		now:   time.Now,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	// Periodic cleanup of idle workspaces to avoid unbounded map growth
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(cleanupInterval(ttl))
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Sweep()
			case <-r.stop:
				return
			}
		}
	}()

	return r
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if interval := ttl / 4; interval >= time.Second {
		return interval
	}
	return time.Second
}

// Get returns the workspace for id and marks it as recently used.
func (r *Registry) Get(id string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.ws, true
}

// GetOrCreate returns the workspace for id, creating it if needed. Ids
// that are not UUIDs are replaced by a fresh one; created reports whether
// a new workspace was made.
func (r *Registry) GetOrCreate(id string) (ws *Workspace, created bool) {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.items[id]; ok {
		e.lastSeen = r.now()
		return e.ws, false
	}
	ws = newWorkspace(id, r.deps)
	r.items[id] = &entry{ws: ws, lastSeen: r.now()}
	r.deps.Metrics.SetWorkspaces(len(r.items))
	return ws, true
}

// Sweep evicts idle workspaces and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	removed := 0
	for id, e := range r.items {
		if now.Sub(e.lastSeen) > r.ttl {
			delete(r.items, id)
			removed++
		}
	}
	r.deps.Metrics.SetWorkspaces(len(r.items))
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Close stops the cleanup loop.
func (r *Registry) Close() {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
	<-r.done
}
