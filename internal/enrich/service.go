package enrich

import (
	"container/list"
	"context"
	"sync"

	"github.com/cinesense/cinesense/internal/models"
)

// Service routes lookups to the provider for the content type and caches
// results so repeated recommendations of the same title stay cheap.
type Service struct {
	tmdb  Enricher
	jikan Enricher
	cache *detailsCache
}

// NewService builds the routing enricher. Nil providers always miss.
func NewService(tmdb, jikan Enricher, cacheSize int) *Service {
	if tmdb == nil {
		tmdb = Noop{}
	}
	if jikan == nil {
		jikan = Noop{}
	}
	return &Service{tmdb: tmdb, jikan: jikan, cache: newDetailsCache(cacheSize)}
}

// Lookup returns cached details when present, otherwise asks the provider
// for the content type. Misses are cached too, so a dead provider is only
// consulted once per title.
func (s *Service) Lookup(ctx context.Context, title string, ct models.ContentType) Details {
	key := string(ct) + ":" + title
	if d, ok := s.cache.get(key); ok {
		return d
	}
	var d Details
	if ct == models.TypeAnime {
		d = s.jikan.Lookup(ctx, title, ct)
	} else {
		d = s.tmdb.Lookup(ctx, title, ct)
	}
	s.cache.set(key, d)
	return d
}

// detailsCache is a small mutex-guarded LRU.
type detailsCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type detailsEntry struct {
	key   string
	value Details
}

func newDetailsCache(capacity int) *detailsCache {
	if capacity <= 0 {
		capacity = 256
	}
	return &detailsCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

func (c *detailsCache) get(key string) (Details, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return Details{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*detailsEntry).value, true
}

func (c *detailsCache) set(key string, value Details) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*detailsEntry).value = value
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&detailsEntry{key: key, value: value})
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*detailsEntry).key)
	}
}
