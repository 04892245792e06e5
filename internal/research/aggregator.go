package research

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Aggregator fans a topic out to every registered source in parallel and
// merges the results into a Bundle. One source failing never affects another:
// the failed source contributes an empty slice and a logged warning.
type Aggregator struct {
	sources []Source
	log     *zap.SugaredLogger
}

// NewAggregator creates an aggregator over the given sources. Sources are
// usually cache-wrapped.
func NewAggregator(sources []Source, log *zap.SugaredLogger) *Aggregator {
	return &Aggregator{sources: sources, log: log}
}

// SourceNames lists the registered source tags.
func (a *Aggregator) SourceNames() []string {
	names := make([]string, 0, len(a.sources))
	for _, s := range a.sources {
		names = append(names, s.Name())
	}
	return names
}

// Fetch gathers up to limit items per source for the topic. Every registered
// source gets a key in the returned bundle, empty on failure.
func (a *Aggregator) Fetch(ctx context.Context, topic string, limit int) Bundle {
	results := make([][]Item, len(a.sources))

	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			items, err := src.Fetch(ctx, topic, limit)
			if err != nil {
				a.log.Warnw("research source failed",
					"source", src.Name(), "topic", topic, "error", err)
				return
			}
			results[i] = items
		}(i, src)
	}
	wg.Wait()

	bundle := make(Bundle, len(a.sources))
	for i, src := range a.sources {
		bundle[src.Name()] = results[i]
	}
	return bundle
}
