package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kaigaicareerlog/castlog/internal/config"
	"github.com/kaigaicareerlog/castlog/internal/services"
	"github.com/kaigaicareerlog/castlog/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "llama-3.3-70b-versatile"
	// MaxTranscriptChars keeps the prompt inside the free tier token limit
	MaxTranscriptChars = 15000
	highlightCount     = 3
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Client generates highlights with the Groq chat completions API
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *logrus.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API base URL
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// NewClient creates a new Groq client
func NewClient(apiKey string, logger *logrus.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: GROQ_API_KEY required", config.ErrMissingConfig)
	}

	c := &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		model:   defaultModel,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GenerateHighlights asks for three post-sized highlights of the transcript
func (c *Client) GenerateHighlights(ctx context.Context, fullText string) ([]string, error) {
	text, truncated := utils.Truncate(fullText, MaxTranscriptChars, "...")
	if truncated {
		c.logger.WithFields(logrus.Fields{
			"original_chars": len([]rune(fullText)),
			"max_chars":      MaxTranscriptChars,
		}).Info("Transcript truncated to fit API limits")
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: HighlightsPrompt(text)}},
		Temperature: 0.9,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("groq API request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := services.CheckResponse("groq", resp); err != nil {
		return nil, err
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode groq response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("%w: groq returned no choices", services.ErrEmptyResult)
	}

	highlights := ParseHighlights(result.Choices[0].Message.Content)
	if len(highlights) != highlightCount {
		c.logger.WithField("count", len(highlights)).Warn("Expected 3 highlights")
	}
	if len(highlights) > highlightCount {
		highlights = highlights[:highlightCount]
	}
	return highlights, nil
}

// ParseHighlights splits the completion into non-empty trimmed lines
func ParseHighlights(content string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// HighlightsPrompt builds the highlight generation prompt
func HighlightsPrompt(transcript string) string {
	return `Generate 3 engaging highlights from this podcast episode. Each highlight should be in 140 Japanese characters maximum. These will be posted on X (Twitter) and should naturally encourage readers to listen to the full podcast.

Target audience: Japanese people who want to have a career outside of Japan.

Requirements for each highlight:
- Extract the MOST interesting, valuable, or surprising insights from the actual content
- Be truthful and authentic - DO NOT exaggerate or make false claims
- Include specific numbers, facts, or concrete examples when they exist in the transcript
- Use varied, natural Japanese openings - avoid repetitive clickbait phrases
- Make it conversational and relatable, like sharing insider knowledge with a friend
- Focus on what's genuinely useful, surprising, or thought-provoking
- Each highlight should have a different tone and angle (e.g., one factual, one emotional, one actionable)
- End each highlight with a subtle call-to-action or hint to listen to the podcast (e.g., '詳しくはPodcastで話しています')

Writing style variations to use:
- Direct quotes or paraphrases from speakers
- Questions that spark curiosity
- Contrasts or comparisons ("〜だと思ってたけど、実際は〜")
- Personal stories or experiences
- Actionable insights or lessons
- Unexpected revelations or realizations

Transcript:
` + transcript + `

Please provide exactly 3 distinct highlights with varied styles, one per line, without any numbering or bullet points. Each highlight should naturally encourage readers to check out the full podcast episode.`
}
