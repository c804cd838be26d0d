package apple

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kaigaicareerlog/castlog/internal/config"
	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/kaigaicareerlog/castlog/internal/services"
	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://itunes.apple.com"
	// DefaultLimit is the lookup result cap for episodes
	DefaultLimit = 200
)

// Episode is a podcast episode from the iTunes lookup API
type Episode struct {
	TrackID        int64  `json:"trackId"`
	TrackName      string `json:"trackName"`
	Description    string `json:"description"`
	ReleaseDate    string `json:"releaseDate"`
	TrackViewURL   string `json:"trackViewUrl"`
	CollectionID   int64  `json:"collectionId"`
	CollectionName string `json:"collectionName"`
}

// Podcast is a show from the iTunes search API
type Podcast struct {
	CollectionID      int64  `json:"collectionId"`
	CollectionName    string `json:"collectionName"`
	ArtistName        string `json:"artistName"`
	CollectionViewURL string `json:"collectionViewUrl"`
}

// Client wraps the unauthenticated iTunes lookup and search APIs
type Client struct {
	baseURL    string
	podcastID  string
	limit      int
	httpClient *http.Client
	logger     *logrus.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the iTunes base URL
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimit sets the lookup result limit
func WithLimit(n int) Option {
	return func(c *Client) { c.limit = n }
}

// NewClient creates a new Apple Podcasts client
func NewClient(cfg *config.AppleConfig, logger *logrus.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:   defaultBaseURL,
		podcastID: config.DefaultApplePodcastID,
		limit:     DefaultLimit,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
	if cfg != nil && cfg.PodcastID != "" {
		c.podcastID = cfg.PodcastID
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Platform implements the enrichment fetcher
func (c *Client) Platform() models.Platform {
	return models.PlatformApple
}

// FetchCandidates returns every podcast episode as a match candidate
func (c *Client) FetchCandidates(ctx context.Context) ([]models.Candidate, error) {
	episodes, err := c.GetEpisodes(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(episodes))
	for _, ep := range episodes {
		candidates = append(candidates, models.Candidate{Title: ep.TrackName, URL: ep.TrackViewURL})
	}
	return candidates, nil
}

// GetEpisodes looks up the podcast's episodes. The first lookup result is
// the show itself and is dropped.
func (c *Client) GetEpisodes(ctx context.Context) ([]*Episode, error) {
	params := url.Values{}
	params.Set("id", c.podcastID)
	params.Set("entity", "podcastEpisode")
	params.Set("limit", fmt.Sprint(c.limit))

	var result struct {
		ResultCount int        `json:"resultCount"`
		Results     []*Episode `json:"results"`
	}
	if err := c.get(ctx, "/lookup", params, &result); err != nil {
		return nil, err
	}

	if len(result.Results) == 0 {
		return nil, fmt.Errorf("%w: no episodes for podcast ID %s", services.ErrEmptyResult, c.podcastID)
	}

	episodes := result.Results[1:]
	c.logger.WithFields(logrus.Fields{
		"podcast_id": c.podcastID,
		"count":      len(episodes),
	}).Info("Fetched Apple Podcasts episodes")

	return episodes, nil
}

// SearchPodcasts finds shows by name
func (c *Client) SearchPodcasts(ctx context.Context, term string, limit int) ([]*Podcast, error) {
	params := url.Values{}
	params.Set("term", term)
	params.Set("media", "podcast")
	params.Set("entity", "podcast")
	params.Set("limit", fmt.Sprint(limit))

	var result struct {
		Results []*Podcast `json:"results"`
	}
	if err := c.get(ctx, "/search", params, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("itunes API request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := services.CheckResponse("itunes", resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode itunes response: %w", err)
	}
	return nil
}
