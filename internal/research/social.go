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

const graphAPIBase = "https://graph.facebook.com/v19.0"

// SocialSource pulls top hashtag posts from the Instagram Graph API.
type SocialSource struct {
	accessToken string
	accountID   string
	client      *http.Client
}

// NewSocialSource creates the social adapter. Both an access token and a
// business account id are required for live fetching.
func NewSocialSource(accessToken, accountID string, timeout time.Duration) *SocialSource {
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &SocialSource{
		accessToken: accessToken,
		accountID:   accountID,
		client:      &http.Client{Timeout: timeout},
	}
}

func (s *SocialSource) Name() string { return SourceSocial }

func (s *SocialSource) IsConfigured() bool {
	return s.accessToken != "" && s.accountID != ""
}

// Fetch resolves the topic to a hashtag and returns its top media.
func (s *SocialSource) Fetch(ctx context.Context, topic string, limit int) ([]Item, error) {
	if !s.IsConfigured() {
		return sampleItems(SourceSocial, topic, limit), nil
	}

	hashtagID, err := s.lookupHashtag(ctx, topic)
	if err != nil {
		return nil, &TransientError{Source: SourceSocial, Err: err}
	}

	params := url.Values{}
	params.Set("user_id", s.accountID)
	params.Set("fields", "caption,like_count,comments_count,permalink,timestamp")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("access_token", s.accessToken)

	req, err := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/%s/top_media?%s", graphAPIBase, hashtagID, params.Encode()), nil)
	if err != nil {
		return nil, &TransientError{Source: SourceSocial, Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &TransientError{Source: SourceSocial, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransientError{Source: SourceSocial, Err: fmt.Errorf("graph API returned %d", resp.StatusCode)}
	}

	var result struct {
		Data []struct {
			Caption       string `json:"caption"`
			LikeCount     int    `json:"like_count"`
			CommentsCount int    `json:"comments_count"`
			Permalink     string `json:"permalink"`
			Timestamp     string `json:"timestamp"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &TransientError{Source: SourceSocial, Err: fmt.Errorf("decoding media response: %w", err)}
	}

	items := make([]Item, 0, len(result.Data))
	for _, m := range result.Data {
		title := captionTitle(m.Caption)
		if title == "" {
			continue
		}
		items = append(items, Item{
			Source:    SourceSocial,
			Title:     title,
			Summary:   Truncate(m.Caption),
			URL:       m.Permalink,
			Likes:     m.LikeCount,
			Comments:  m.CommentsCount,
			Timestamp: m.Timestamp,
		})
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *SocialSource) lookupHashtag(ctx context.Context, topic string) (string, error) {
	tag := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(topic)), " ", "")

	params := url.Values{}
	params.Set("user_id", s.accountID)
	params.Set("q", tag)
	params.Set("access_token", s.accessToken)

	req, err := http.NewRequestWithContext(ctx, "GET",
		graphAPIBase+"/ig_hashtag_search?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("hashtag search returned %d", resp.StatusCode)
	}

	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding hashtag response: %w", err)
	}
	if len(result.Data) == 0 {
		return "", fmt.Errorf("no hashtag found for %q", tag)
	}
	return result.Data[0].ID, nil
}

// captionTitle reduces a post caption to its first line.
func captionTitle(caption string) string {
	caption = strings.TrimSpace(caption)
	if idx := strings.IndexByte(caption, '\n'); idx >= 0 {
		caption = caption[:idx]
	}
	return strings.TrimSpace(caption)
}
