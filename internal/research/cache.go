package research

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TobiSchelling/reelforge/internal/store"
)

const cacheDateLayout = "2006-01-02"

// DefaultStaleMaxCycles bounds how many prior daily snapshots the cache will
// fall back to when a live fetch fails.
const DefaultStaleMaxCycles = 7

// snapshot is one cached fetch result for a (source, topic, cycle date) key.
type snapshot struct {
	Source string `json:"source"`
	Topic  string `json:"topic"`
	Date   string `json:"date"`
	Items  []Item `json:"items"`
}

// Cache wraps a Source with daily snapshot caching. A same-day snapshot is
// served verbatim without re-fetching; on a fetch failure the most recent
// snapshot within the staleness bound is served instead.
type Cache struct {
	source         Source
	backend        store.Store
	staleMaxCycles int
	log            *zap.SugaredLogger
	now            func() time.Time
}

// NewCache wraps a source with snapshot caching.
func NewCache(source Source, backend store.Store, staleMaxCycles int, log *zap.SugaredLogger) *Cache {
	if staleMaxCycles <= 0 {
		staleMaxCycles = DefaultStaleMaxCycles
	}
	return &Cache{
		source:         source,
		backend:        backend,
		staleMaxCycles: staleMaxCycles,
		log:            log,
		now:            time.Now,
	}
}

func (c *Cache) Name() string { return c.source.Name() }

func (c *Cache) IsConfigured() bool { return c.source.IsConfigured() }

func (c *Cache) key(topic string, date time.Time) string {
	return fmt.Sprintf("%s_%s_%s", c.source.Name(), NormalizeTopic(topic), date.Format(cacheDateLayout))
}

// Fetch serves the current cycle's snapshot, fetching and caching one when it
// does not exist yet.
func (c *Cache) Fetch(ctx context.Context, topic string, limit int) ([]Item, error) {
	today := c.now()

	var snap snapshot
	err := store.GetJSON(ctx, c.backend, store.CollectionResearch, c.key(topic, today), &snap)
	if err == nil {
		c.log.Debugw("research cache hit", "source", c.source.Name(), "topic", topic)
		return snap.Items, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		c.log.Warnw("research cache read failed", "source", c.source.Name(), "error", err)
	}

	items, fetchErr := c.source.Fetch(ctx, topic, limit)
	if fetchErr == nil {
		c.put(ctx, topic, today, items)
		return items, nil
	}

	if stale := c.staleSnapshot(ctx, topic, today); stale != nil {
		c.log.Warnw("serving stale research snapshot",
			"source", c.source.Name(), "topic", topic, "date", stale.Date, "cause", fetchErr)
		return stale.Items, nil
	}
	return nil, fetchErr
}

func (c *Cache) put(ctx context.Context, topic string, date time.Time, items []Item) {
	snap := snapshot{
		Source: c.source.Name(),
		Topic:  NormalizeTopic(topic),
		Date:   date.Format(cacheDateLayout),
		Items:  items,
	}
	if err := store.PutJSON(ctx, c.backend, store.CollectionResearch, c.key(topic, date), snap); err != nil {
		// A failed cache write costs a re-fetch next cycle, nothing more.
		c.log.Warnw("research cache write failed", "source", c.source.Name(), "error", err)
	}
}

// staleSnapshot returns the most recent prior snapshot within the staleness
// bound, or nil.
func (c *Cache) staleSnapshot(ctx context.Context, topic string, today time.Time) *snapshot {
	for age := 1; age <= c.staleMaxCycles; age++ {
		date := today.AddDate(0, 0, -age)
		var snap snapshot
		err := store.GetJSON(ctx, c.backend, store.CollectionResearch, c.key(topic, date), &snap)
		if err == nil {
			return &snap
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil
		}
	}
	return nil
}
