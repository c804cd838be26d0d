package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/kaigaicareerlog/castlog/internal/config"
	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/kaigaicareerlog/castlog/internal/services"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultAPIURL   = "https://api.spotify.com/v1"
	defaultTokenURL = "https://accounts.spotify.com/api/token"
	pageSize        = 50
)

// Episode is a show episode as returned by the Web API
type Episode struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

type episodesPage struct {
	Items []*Episode `json:"items"`
	Next  *string    `json:"next"`
	Total int        `json:"total"`
}

// Client fetches show episodes from the Spotify Web API
type Client struct {
	showID     string
	apiURL     string
	auth       *clientcredentials.Config
	httpClient *http.Client
	logger     *logrus.Logger
}

// Option configures a Client
type Option func(*Client)

// WithAPIURL overrides the Web API base URL
func WithAPIURL(u string) Option {
	return func(c *Client) { c.apiURL = u }
}

// WithTokenURL overrides the accounts token endpoint
func WithTokenURL(u string) Option {
	return func(c *Client) { c.auth.TokenURL = u }
}

// WithHTTPClient sets the base HTTP client used for token and API calls
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new Spotify client using the client credentials flow
func NewClient(cfg *config.SpotifyConfig, logger *logrus.Logger, opts ...Option) (*Client, error) {
	if cfg == nil || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET required", config.ErrMissingConfig)
	}

	c := &Client{
		showID: cfg.ShowID,
		apiURL: defaultAPIURL,
		auth: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     defaultTokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.showID == "" {
		c.showID = config.DefaultSpotifyShowID
	}
	return c, nil
}

// Platform implements the enrichment fetcher
func (c *Client) Platform() models.Platform {
	return models.PlatformSpotify
}

// FetchCandidates returns every show episode as a match candidate
func (c *Client) FetchCandidates(ctx context.Context) ([]models.Candidate, error) {
	episodes, err := c.GetShowEpisodes(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(episodes))
	for _, ep := range episodes {
		candidates = append(candidates, models.Candidate{Title: ep.Name, URL: ep.ExternalURLs.Spotify})
	}
	return candidates, nil
}

// GetShowEpisodes follows the next cursor until every episode is fetched
func (c *Client) GetShowEpisodes(ctx context.Context) ([]*Episode, error) {
	// Token requests and API calls share the configured transport
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	client := c.auth.Client(ctx)
	client.Timeout = c.httpClient.Timeout

	params := url.Values{}
	params.Set("limit", fmt.Sprint(pageSize))
	next := fmt.Sprintf("%s/shows/%s/episodes?%s", c.apiURL, url.PathEscape(c.showID), params.Encode())

	var episodes []*Episode
	for page := 1; next != ""; page++ {
		c.logger.WithFields(logrus.Fields{
			"show_id": c.showID,
			"page":    page,
		}).Debug("Fetching Spotify episodes page")

		result, err := c.getPage(ctx, client, next)
		if err != nil {
			return nil, err
		}

		for _, ep := range result.Items {
			if ep != nil {
				episodes = append(episodes, ep)
			}
		}

		next = ""
		if result.Next != nil {
			next = *result.Next
		}
	}

	c.logger.WithFields(logrus.Fields{
		"show_id": c.showID,
		"count":   len(episodes),
	}).Info("Fetched Spotify episodes")

	return episodes, nil
}

func (c *Client) getPage(ctx context.Context, client *http.Client, pageURL string) (*episodesPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			status := 0
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			return nil, fmt.Errorf("%w: spotify token request returned %d: %s",
				services.ErrAuth, status, string(retrieveErr.Body))
		}
		return nil, fmt.Errorf("spotify API request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := services.CheckResponse("spotify", resp); err != nil {
		return nil, err
	}

	var page episodesPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode spotify response: %w", err)
	}
	return &page, nil
}

var episodeURLPattern = regexp.MustCompile(`^https://open\.spotify\.com/episode/[a-zA-Z0-9]+`)

// IsEpisodeURL reports whether u is an open.spotify.com episode URL
func IsEpisodeURL(u string) bool {
	return episodeURLPattern.MatchString(u)
}
