package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// VideoSource searches the YouTube Data API for topical videos.
type VideoSource struct {
	apiKey string
	client *http.Client
}

// NewVideoSource creates the video adapter.
func NewVideoSource(apiKey string, timeout time.Duration) *VideoSource {
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &VideoSource{
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

func (v *VideoSource) Name() string { return SourceVideo }

func (v *VideoSource) IsConfigured() bool { return v.apiKey != "" }

// Fetch searches for videos matching the topic, then resolves view and like
// counts for the hits in a second call.
func (v *VideoSource) Fetch(ctx context.Context, topic string, limit int) ([]Item, error) {
	if !v.IsConfigured() {
		return sampleItems(SourceVideo, topic, limit), nil
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", topic)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("order", "relevance")
	params.Set("key", v.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET",
		"https://www.googleapis.com/youtube/v3/search?"+params.Encode(), nil)
	if err != nil {
		return nil, &TransientError{Source: SourceVideo, Err: err}
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, &TransientError{Source: SourceVideo, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransientError{Source: SourceVideo, Err: fmt.Errorf("youtube search returned %d", resp.StatusCode)}
	}

	var result struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				PublishedAt string `json:"publishedAt"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &TransientError{Source: SourceVideo, Err: fmt.Errorf("decoding search response: %w", err)}
	}

	var ids []string
	items := make([]Item, 0, len(result.Items))
	for _, entry := range result.Items {
		if entry.Snippet.Title == "" {
			continue
		}
		ids = append(ids, entry.ID.VideoID)
		items = append(items, Item{
			Source:    SourceVideo,
			Title:     entry.Snippet.Title,
			Summary:   Truncate(entry.Snippet.Description),
			URL:       "https://www.youtube.com/watch?v=" + entry.ID.VideoID,
			Timestamp: entry.Snippet.PublishedAt,
		})
	}

	// Statistics are best-effort; the search results stand on their own.
	if stats, err := v.fetchStats(ctx, ids); err == nil {
		for i, id := range ids {
			if s, ok := stats[id]; ok {
				items[i].Views = s.views
				items[i].Likes = s.likes
				items[i].Comments = s.comments
			}
		}
	}

	return items, nil
}

type videoStats struct {
	views, likes, comments int
}

func (v *VideoSource) fetchStats(ctx context.Context, ids []string) (map[string]videoStats, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("part", "statistics")
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", v.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET",
		"https://www.googleapis.com/youtube/v3/videos?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube videos returned %d", resp.StatusCode)
	}

	var result struct {
		Items []struct {
			ID         string `json:"id"`
			Statistics struct {
				ViewCount    string `json:"viewCount"`
				LikeCount    string `json:"likeCount"`
				CommentCount string `json:"commentCount"`
			} `json:"statistics"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	stats := make(map[string]videoStats, len(result.Items))
	for _, entry := range result.Items {
		views, _ := strconv.Atoi(entry.Statistics.ViewCount)
		likes, _ := strconv.Atoi(entry.Statistics.LikeCount)
		comments, _ := strconv.Atoi(entry.Statistics.CommentCount)
		stats[entry.ID] = videoStats{views: views, likes: likes, comments: comments}
	}
	return stats, nil
}
