package amazon

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/kaigaicareerlog/castlog/internal/config"
	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/kaigaicareerlog/castlog/internal/services"
	"github.com/sirupsen/logrus"
)

const (
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	navigateTimeout = 30 * time.Second
	selectorTimeout = 15 * time.Second
	settleDelay     = 2 * time.Second
)

// Renderer returns the fully rendered HTML of a page
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// ChromeRenderer renders pages with a headless Chrome instance
type ChromeRenderer struct {
	logger *logrus.Logger
}

// NewChromeRenderer creates a headless Chrome renderer
func NewChromeRenderer(logger *logrus.Logger) *ChromeRenderer {
	return &ChromeRenderer{logger: logger}
}

// Render navigates to url, waits for episode links and returns the page HTML.
// A missing episode list is not an error here; extraction reports it.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1280, 800),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// Start the browser on the undecorated context so the timeouts below
	// only bound individual steps
	if err := chromedp.Run(browserCtx); err != nil {
		return "", classifyError(err)
	}

	navCtx, cancelNav := context.WithTimeout(browserCtx, navigateTimeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return "", classifyError(err)
	}

	waitCtx, cancelWait := context.WithTimeout(browserCtx, selectorTimeout)
	defer cancelWait()
	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(EpisodeLinkSelector, chromedp.ByQuery)); err != nil {
		r.logger.WithError(err).WithField("url", url).Debug("Episode links did not appear, extracting anyway")
	}

	var html string
	if err := chromedp.Run(browserCtx,
		chromedp.Sleep(settleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", classifyError(err)
	}

	return html, nil
}

func classifyError(err error) error {
	switch {
	case errors.Is(err, exec.ErrNotFound), strings.Contains(err.Error(), "executable file not found"):
		return fmt.Errorf("%w: chrome is not installed: %v", services.ErrAutomationUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded), strings.Contains(strings.ToLower(err.Error()), "timeout"):
		return fmt.Errorf("%w: amazon music might require authentication or be unavailable: %v", services.ErrPageTimeout, err)
	}
	return fmt.Errorf("browser automation failed: %w", err)
}

// Client scrapes episode links from an Amazon Music show page
type Client struct {
	showID   string
	region   string
	renderer Renderer
	logger   *logrus.Logger
}

// Option configures a Client
type Option func(*Client)

// WithRenderer replaces the headless Chrome renderer
func WithRenderer(r Renderer) Option {
	return func(c *Client) { c.renderer = r }
}

// NewClient creates a new Amazon Music client
func NewClient(cfg *config.AmazonConfig, logger *logrus.Logger, opts ...Option) *Client {
	c := &Client{
		showID:   config.DefaultAmazonMusicShowID,
		region:   config.DefaultAmazonMusicRegion,
		renderer: NewChromeRenderer(logger),
		logger:   logger,
	}
	if cfg != nil {
		if cfg.ShowID != "" {
			c.showID = cfg.ShowID
		}
		if cfg.Region != "" {
			c.region = cfg.Region
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Platform implements the enrichment fetcher
func (c *Client) Platform() models.Platform {
	return models.PlatformAmazon
}

// ShowURL returns the show page URL
func (c *Client) ShowURL() string {
	return fmt.Sprintf("https://music.amazon.%s/podcasts/%s", c.region, c.showID)
}

// FetchCandidates returns every scraped episode as a match candidate
func (c *Client) FetchCandidates(ctx context.Context) ([]models.Candidate, error) {
	episodes, err := c.GetEpisodes(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(episodes))
	for _, ep := range episodes {
		candidates = append(candidates, models.Candidate{Title: ep.Title, URL: ep.URL})
	}
	return candidates, nil
}

// GetEpisodes renders the show page and extracts its episode links
func (c *Client) GetEpisodes(ctx context.Context) ([]*Episode, error) {
	showURL := c.ShowURL()
	c.logger.WithField("url", showURL).Info("Rendering Amazon Music show page")

	html, err := c.renderer.Render(ctx, showURL)
	if err != nil {
		return nil, err
	}

	episodes, err := ExtractEpisodes(strings.NewReader(html), c.showID, c.region)
	if err != nil {
		return nil, err
	}
	if len(episodes) == 0 {
		return nil, fmt.Errorf("%w: could not find any episodes, the page might require authentication or have a different structure",
			services.ErrEmptyResult)
	}

	c.logger.WithFields(logrus.Fields{
		"show_id": c.showID,
		"count":   len(episodes),
	}).Info("Fetched Amazon Music episodes")

	return episodes, nil
}
