package x

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/kaigaicareerlog/castlog/internal/config"
	"github.com/kaigaicareerlog/castlog/internal/services"
	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://api.twitter.com/2"

// Poster publishes posts and returns the new post id
type Poster interface {
	Post(ctx context.Context, text, replyTo string) (string, error)
}

type tweetReply struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

type tweetRequest struct {
	Text  string      `json:"text"`
	Reply *tweetReply `json:"reply,omitempty"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Client posts to the X API v2 with OAuth 1.0a user context
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API base URL
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the signing HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new X client
func NewClient(cfg *config.XConfig, logger *logrus.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: X credentials required", config.ErrMissingConfig)
	}

	oauthCfg := oauth1.NewConfig(cfg.APIKey, cfg.APISecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessTokenSecret)

	httpClient := oauthCfg.Client(context.Background(), token)
	httpClient.Timeout = 30 * time.Second

	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Post publishes text, optionally as a reply, and returns the post id
func (c *Client) Post(ctx context.Context, text, replyTo string) (string, error) {
	payload := tweetRequest{Text: text}
	if replyTo != "" {
		payload.Reply = &tweetReply{InReplyToTweetID: replyTo}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tweet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tweets", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("x API request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := services.CheckResponse("x", resp); err != nil {
		return "", err
	}

	var result tweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode x response: %w", err)
	}
	if result.Data.ID == "" {
		return "", fmt.Errorf("%w: x returned no post id", services.ErrEmptyResult)
	}

	c.logger.WithFields(logrus.Fields{
		"tweet_id": result.Data.ID,
		"reply_to": replyTo,
	}).Info("Posted to X")

	return result.Data.ID, nil
}
