// Package research gathers topical source material from social, news, video,
// web-search, and forum providers, with per-source caching and isolation.
package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Source tags used throughout bundles, cache keys, and run artifacts.
const (
	SourceSocial    = "social"
	SourceNews      = "news"
	SourceVideo     = "video"
	SourceWebSearch = "websearch"
	SourceForum     = "forum"
)

// SummaryMaxLen bounds every item summary.
const SummaryMaxLen = 200

// Item is one piece of research material. Immutable once produced.
type Item struct {
	Source    string `json:"source"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	URL       string `json:"url,omitempty"`
	Views     int    `json:"views,omitempty"`
	Likes     int    `json:"likes,omitempty"`
	Comments  int    `json:"comments,omitempty"`
	Shares    int    `json:"shares,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Bundle holds the merged research results keyed by source tag.
type Bundle map[string][]Item

// TotalItems counts items across all sources.
func (b Bundle) TotalItems() int {
	n := 0
	for _, items := range b {
		n += len(items)
	}
	return n
}

// Source is a single research provider. Fetch returns up to limit items for a
// topic; it fails with a TransientError on network or upstream trouble.
// Unconfigured sources serve deterministic sample data instead of failing, so
// the pipeline stays exercisable without credentials.
type Source interface {
	Name() string
	IsConfigured() bool
	Fetch(ctx context.Context, topic string, limit int) ([]Item, error)
}

// ErrSourceUnavailable marks a provider with no usable configuration.
var ErrSourceUnavailable = errors.New("source not configured")

// TransientError marks a recoverable upstream failure (network, quota,
// malformed response). The cache answers it with a stale snapshot when one
// exists.
type TransientError struct {
	Source string
	Err    error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s source: %v", e.Source, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Truncate bounds a summary to SummaryMaxLen characters.
func Truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= SummaryMaxLen {
		return s
	}
	return s[:SummaryMaxLen]
}

// NormalizeTopic folds a topic into a stable cache-key component.
func NormalizeTopic(topic string) string {
	topic = strings.ToLower(strings.TrimSpace(topic))
	return strings.Join(strings.Fields(topic), "-")
}
