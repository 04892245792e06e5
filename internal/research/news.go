package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// NewsSource pulls headlines from NewsAPI and any configured RSS feeds.
type NewsSource struct {
	apiKey   string
	feedURLs []string
	client   *http.Client
	parser   *gofeed.Parser
	log      *zap.SugaredLogger
}

// NewNewsSource creates the news adapter. Either an API key or at least one
// feed URL makes it configured.
func NewNewsSource(apiKey string, feedURLs []string, timeout time.Duration, log *zap.SugaredLogger) *NewsSource {
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &NewsSource{
		apiKey:   apiKey,
		feedURLs: feedURLs,
		client:   &http.Client{Timeout: timeout},
		parser:   gofeed.NewParser(),
		log:      log,
	}
}

func (n *NewsSource) Name() string { return SourceNews }

func (n *NewsSource) IsConfigured() bool {
	return n.apiKey != "" || len(n.feedURLs) > 0
}

// Fetch returns up to limit news items for the topic.
func (n *NewsSource) Fetch(ctx context.Context, topic string, limit int) ([]Item, error) {
	if !n.IsConfigured() {
		return sampleItems(SourceNews, topic, limit), nil
	}

	var items []Item
	var lastErr error

	if n.apiKey != "" {
		apiItems, err := n.fetchNewsAPI(ctx, topic, limit)
		if err != nil {
			lastErr = err
			n.log.Warnw("newsapi fetch failed", "error", err)
		} else {
			items = append(items, apiItems...)
		}
	}

	for _, feedURL := range n.feedURLs {
		if len(items) >= limit {
			break
		}
		feedItems, err := n.fetchFeed(ctx, feedURL, limit-len(items))
		if err != nil {
			lastErr = err
			n.log.Warnw("feed fetch failed", "feed", feedURL, "error", err)
			continue
		}
		items = append(items, feedItems...)
	}

	if len(items) == 0 && lastErr != nil {
		return nil, &TransientError{Source: SourceNews, Err: lastErr}
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (n *NewsSource) fetchNewsAPI(ctx context.Context, topic string, limit int) ([]Item, error) {
	params := url.Values{}
	params.Set("q", topic)
	params.Set("pageSize", fmt.Sprintf("%d", limit))
	params.Set("sortBy", "relevancy")
	params.Set("language", "en")

	req, err := http.NewRequestWithContext(ctx, "GET",
		"https://newsapi.org/v2/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi returned %d", resp.StatusCode)
	}

	var result struct {
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding newsapi response: %w", err)
	}

	items := make([]Item, 0, len(result.Articles))
	for _, a := range result.Articles {
		if a.Title == "" {
			continue
		}
		items = append(items, Item{
			Source:    SourceNews,
			Title:     a.Title,
			Summary:   Truncate(a.Description),
			URL:       a.URL,
			Timestamp: a.PublishedAt,
		})
	}
	return items, nil
}

func (n *NewsSource) fetchFeed(ctx context.Context, feedURL string, limit int) ([]Item, error) {
	feed, err := n.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, entry := range feed.Items {
		if len(items) >= limit {
			break
		}
		if entry.Title == "" {
			continue
		}
		item := Item{
			Source:  SourceNews,
			Title:   entry.Title,
			Summary: Truncate(entry.Description),
			URL:     entry.Link,
		}
		if entry.PublishedParsed != nil {
			item.Timestamp = entry.PublishedParsed.Format(time.RFC3339)
		}
		items = append(items, item)
	}
	return items, nil
}
