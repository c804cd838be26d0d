package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kaigaicareerlog/castlog/internal/config"
	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/kaigaicareerlog/castlog/internal/services"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	maxResults     = 50
	handleCacheTTL = 24 * time.Hour
)

// Video is a channel upload
type Video struct {
	ID          string
	Title       string
	Description string
	PublishedAt string
	URL         string
}

type searchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
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

type channelsResponse struct {
	Items []struct {
		ID string `json:"id"`
	} `json:"items"`
}

// Client wraps YouTube Data API v3 calls
type Client struct {
	baseURL    string
	apiKey     string
	channelID  string
	handles    *cache.Cache
	httpClient *http.Client
	logger     *logrus.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the Data API base URL
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new YouTube client
func NewClient(cfg *config.YouTubeConfig, logger *logrus.Logger, opts ...Option) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: YOUTUBE_API_KEY required", config.ErrMissingConfig)
	}

	c := &Client{
		baseURL:   defaultBaseURL,
		apiKey:    cfg.APIKey,
		channelID: cfg.ChannelID,
		handles:   cache.New(handleCacheTTL, time.Hour),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.channelID == "" {
		c.channelID = config.DefaultYouTubeChannelID
	}
	return c, nil
}

// Platform implements the enrichment fetcher
func (c *Client) Platform() models.Platform {
	return models.PlatformYouTube
}

// FetchCandidates returns every channel video as a match candidate
func (c *Client) FetchCandidates(ctx context.Context) ([]models.Candidate, error) {
	videos, err := c.GetChannelVideos(ctx, c.channelID)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(videos))
	for _, v := range videos {
		candidates = append(candidates, models.Candidate{Title: v.Title, URL: v.URL})
	}
	return candidates, nil
}

// ResolveChannelID turns an @handle into a channel id. Plain ids pass through.
func (c *Client) ResolveChannelID(ctx context.Context, channel string) (string, error) {
	if !strings.HasPrefix(channel, "@") {
		return channel, nil
	}
	handle := strings.TrimPrefix(channel, "@")

	if id, ok := c.handles.Get(handle); ok {
		return id.(string), nil
	}

	params := url.Values{}
	params.Set("part", "id")
	params.Set("forHandle", handle)
	params.Set("key", c.apiKey)

	var result channelsResponse
	if err := c.get(ctx, "/channels", params, &result); err != nil {
		return "", err
	}
	if len(result.Items) == 0 {
		return "", fmt.Errorf("%w: channel for handle @%s", services.ErrNotFound, handle)
	}

	id := result.Items[0].ID
	c.handles.Set(handle, id, cache.DefaultExpiration)
	c.logger.WithFields(logrus.Fields{
		"handle":     handle,
		"channel_id": id,
	}).Debug("Resolved YouTube handle")

	return id, nil
}

// GetChannelVideos pages through the channel's videos newest first
func (c *Client) GetChannelVideos(ctx context.Context, channel string) ([]*Video, error) {
	channelID, err := c.ResolveChannelID(ctx, channel)
	if err != nil {
		return nil, err
	}

	var videos []*Video
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("part", "snippet")
		params.Set("channelId", channelID)
		params.Set("type", "video")
		params.Set("order", "date")
		params.Set("maxResults", fmt.Sprint(maxResults))
		params.Set("key", c.apiKey)
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page searchResponse
		if err := c.get(ctx, "/search", params, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			videos = append(videos, &Video{
				ID:          item.ID.VideoID,
				Title:       item.Snippet.Title,
				Description: item.Snippet.Description,
				PublishedAt: item.Snippet.PublishedAt,
				URL:         WatchURL(item.ID.VideoID),
			})
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	c.logger.WithFields(logrus.Fields{
		"channel_id": channelID,
		"count":      len(videos),
	}).Info("Fetched YouTube videos")

	return videos, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("youtube API request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := services.CheckResponse("youtube", resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode youtube response: %w", err)
	}
	return nil
}

// WatchURL returns the watch page for a video id
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
