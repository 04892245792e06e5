package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const forumUserAgent = "reelforge/1.0 (content research)"

// ForumSource searches configured subreddits through Reddit's public JSON
// endpoints.
type ForumSource struct {
	subreddits []string
	client     *http.Client
}

// NewForumSource creates the forum adapter.
func NewForumSource(subreddits []string, timeout time.Duration) *ForumSource {
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &ForumSource{
		subreddits: subreddits,
		client:     &http.Client{Timeout: timeout},
	}
}

func (f *ForumSource) Name() string { return SourceForum }

func (f *ForumSource) IsConfigured() bool { return len(f.subreddits) > 0 }

// Fetch searches each configured subreddit for the topic, spreading the item
// budget across them.
func (f *ForumSource) Fetch(ctx context.Context, topic string, limit int) ([]Item, error) {
	if !f.IsConfigured() {
		return sampleItems(SourceForum, topic, limit), nil
	}

	perSub := limit/len(f.subreddits) + 1
	var items []Item
	var lastErr error

	for _, sub := range f.subreddits {
		if len(items) >= limit {
			break
		}
		subItems, err := f.searchSubreddit(ctx, sub, topic, perSub)
		if err != nil {
			lastErr = err
			continue
		}
		items = append(items, subItems...)
	}

	if len(items) == 0 && lastErr != nil {
		return nil, &TransientError{Source: SourceForum, Err: lastErr}
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (f *ForumSource) searchSubreddit(ctx context.Context, subreddit, topic string, limit int) ([]Item, error) {
	params := url.Values{}
	params.Set("q", topic)
	params.Set("restrict_sr", "1")
	params.Set("sort", "top")
	params.Set("t", "month")
	params.Set("limit", strconv.Itoa(limit))

	endpoint := fmt.Sprintf("https://www.reddit.com/r/%s/search.json?%s", subreddit, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", forumUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit returned %d for r/%s", resp.StatusCode, subreddit)
	}

	var result struct {
		Data struct {
			Children []struct {
				Data struct {
					Title       string  `json:"title"`
					Selftext    string  `json:"selftext"`
					Permalink   string  `json:"permalink"`
					Score       int     `json:"score"`
					NumComments int     `json:"num_comments"`
					CreatedUTC  float64 `json:"created_utc"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding reddit response: %w", err)
	}

	items := make([]Item, 0, len(result.Data.Children))
	for _, child := range result.Data.Children {
		post := child.Data
		if post.Title == "" {
			continue
		}
		items = append(items, Item{
			Source:    SourceForum,
			Title:     post.Title,
			Summary:   Truncate(post.Selftext),
			URL:       "https://www.reddit.com" + post.Permalink,
			Likes:     post.Score,
			Comments:  post.NumComments,
			Timestamp: time.Unix(int64(post.CreatedUTC), 0).UTC().Format(time.RFC3339),
		})
	}
	return items, nil
}
