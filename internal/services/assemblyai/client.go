package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kaigaicareerlog/castlog/internal/config"
	"github.com/kaigaicareerlog/castlog/internal/services"
	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL      = "https://api.assemblyai.com/v2"
	defaultPollInterval = 5 * time.Second
	defaultMaxPolls     = 120
)

// ErrTranscriptionFailed is returned when the job ends in the error state
var ErrTranscriptionFailed = errors.New("transcription failed")

// ErrTranscriptionTimeout is returned when polling gives up
var ErrTranscriptionTimeout = errors.New("transcription timed out")

var errStillProcessing = errors.New("transcription still processing")

// Word is a single recognized word
type Word struct {
	Text       string  `json:"text"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker,omitempty"`
}

// Utterance is a diarized speaker turn
type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
	Words   []Word `json:"words"`
}

// Result is a completed transcription
type Result struct {
	Text          string      `json:"text"`
	Utterances    []Utterance `json:"utterances"`
	Words         []Word      `json:"words"`
	AudioDuration float64     `json:"audio_duration"`
}

type transcriptRequest struct {
	AudioURL      string `json:"audio_url"`
	SpeakerLabels bool   `json:"speaker_labels"`
	LanguageCode  string `json:"language_code"`
	Punctuate     bool   `json:"punctuate"`
	FormatText    bool   `json:"format_text"`
}

type transcriptResponse struct {
	Result
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Client submits and polls transcription jobs
type Client struct {
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	maxPolls     uint64
	httpClient   *http.Client
	logger       *logrus.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API base URL
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithPolling sets the poll interval and attempt limit
func WithPolling(interval time.Duration, maxPolls uint64) Option {
	return func(c *Client) {
		c.pollInterval = interval
		if maxPolls > 0 {
			c.maxPolls = maxPolls
		}
	}
}

// NewClient creates a new AssemblyAI client
func NewClient(apiKey string, logger *logrus.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: ASSEMBLYAI_API_KEY required", config.ErrMissingConfig)
	}

	c := &Client{
		baseURL:      defaultBaseURL,
		apiKey:       apiKey,
		pollInterval: defaultPollInterval,
		maxPolls:     defaultMaxPolls,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Transcribe submits audioURL with Japanese speaker diarization and waits
// for the job to finish
func (c *Client) Transcribe(ctx context.Context, audioURL string) (*Result, error) {
	id, err := c.Submit(ctx, audioURL)
	if err != nil {
		return nil, err
	}
	return c.Wait(ctx, id)
}

// Submit starts a transcription job and returns its id
func (c *Client) Submit(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(transcriptRequest{
		AudioURL:      audioURL,
		SpeakerLabels: true,
		LanguageCode:  "ja",
		Punctuate:     true,
		FormatText:    true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp transcriptResponse
	if err := c.do(ctx, http.MethodPost, "/transcript", body, &resp); err != nil {
		return "", fmt.Errorf("failed to submit transcription: %w", err)
	}

	c.logger.WithField("transcript_id", resp.ID).Info("Transcription job submitted")
	return resp.ID, nil
}

// Wait polls the job at a constant interval until it completes or errors
func (c *Client) Wait(ctx context.Context, id string) (*Result, error) {
	var result *Result
	attempt := 0

	poll := func() error {
		attempt++
		var resp transcriptResponse
		if err := c.do(ctx, http.MethodGet, "/transcript/"+id, nil, &resp); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to poll transcription: %w", err))
		}

		switch resp.Status {
		case "completed":
			r := resp.Result
			result = &r
			return nil
		case "error":
			return backoff.Permanent(fmt.Errorf("%w: %s", ErrTranscriptionFailed, resp.Error))
		}

		c.logger.WithFields(logrus.Fields{
			"transcript_id": id,
			"status":        resp.Status,
			"attempt":       attempt,
		}).Info("Waiting for transcription")
		return errStillProcessing
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.pollInterval), c.maxPolls-1),
		ctx,
	)

	if err := backoff.Retry(poll, policy); err != nil {
		if errors.Is(err, errStillProcessing) {
			return nil, fmt.Errorf("%w after %d attempts", ErrTranscriptionTimeout, attempt)
		}
		return nil, err
	}

	c.logger.WithField("transcript_id", id).Info("Transcription completed")
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("assemblyai API request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := services.CheckResponse("assemblyai", resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode assemblyai response: %w", err)
	}
	return nil
}
