package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

// WebSearchSource queries the Serper search API and can optionally enrich the
// top results with readable page text.
type WebSearchSource struct {
	apiKey  string
	enrich  bool
	client  *http.Client
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewWebSearchSource creates the web-search adapter.
func NewWebSearchSource(apiKey string, enrich bool, timeout time.Duration, log *zap.SugaredLogger) *WebSearchSource {
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &WebSearchSource{
		apiKey:  apiKey,
		enrich:  enrich,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		log:     log,
	}
}

func (w *WebSearchSource) Name() string { return SourceWebSearch }

func (w *WebSearchSource) IsConfigured() bool { return w.apiKey != "" }

// Fetch runs a web search for the topic.
func (w *WebSearchSource) Fetch(ctx context.Context, topic string, limit int) ([]Item, error) {
	if !w.IsConfigured() {
		return sampleItems(SourceWebSearch, topic, limit), nil
	}

	body, err := json.Marshal(map[string]any{"q": topic, "num": limit})
	if err != nil {
		return nil, &TransientError{Source: SourceWebSearch, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		"https://google.serper.dev/search", bytes.NewReader(body))
	if err != nil {
		return nil, &TransientError{Source: SourceWebSearch, Err: err}
	}
	req.Header.Set("X-API-KEY", w.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, &TransientError{Source: SourceWebSearch, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransientError{Source: SourceWebSearch, Err: fmt.Errorf("serper returned %d", resp.StatusCode)}
	}

	var result struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &TransientError{Source: SourceWebSearch, Err: fmt.Errorf("decoding search response: %w", err)}
	}

	items := make([]Item, 0, len(result.Organic))
	for _, r := range result.Organic {
		if r.Title == "" {
			continue
		}
		items = append(items, Item{
			Source:  SourceWebSearch,
			Title:   r.Title,
			Summary: Truncate(r.Snippet),
			URL:     r.Link,
		})
	}
	if len(items) > limit {
		items = items[:limit]
	}

	if w.enrich {
		w.enrichItems(items)
	}
	return items, nil
}

// enrichItems replaces thin snippets with readable page text for the top few
// results. Failures leave the snippet in place.
func (w *WebSearchSource) enrichItems(items []Item) {
	const maxEnriched = 3
	for i := range items {
		if i >= maxEnriched {
			break
		}
		if items[i].URL == "" {
			continue
		}
		article, err := readability.FromURL(items[i].URL, w.timeout)
		if err != nil {
			w.log.Debugw("page enrichment failed", "url", items[i].URL, "error", err)
			continue
		}
		if len(article.TextContent) > len(items[i].Summary) {
			items[i].Summary = Truncate(article.TextContent)
		}
	}
}
