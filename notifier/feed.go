package notifier

import (
	"context"
	"sync"

	"github.com/yashrajoria/materials-storefront/models"
)

const DefaultFeedSize = 50

// Feed buffers the notifications of one workspace until a client drains
// them. Once full, the oldest entry is dropped.
type Feed struct {
	mu    sync.Mutex
	size  int
	items []models.Notification
}

func NewFeed(size int) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &Feed{size: size}
}

func (f *Feed) Notify(_ context.Context, n models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == f.size {
		f.items = append(f.items[:0], f.items[1:]...)
	}
	f.items = append(f.items, n)
}

// Drain returns the buffered notifications, oldest first, and empties the feed.
func (f *Feed) Drain() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.items
	f.items = nil
	if out == nil {
		out = []models.Notification{}
	}
	return out
}

// Len reports how many notifications are waiting.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
