package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/kaigaicareerlog/castlog/internal/services"
	"github.com/kaigaicareerlog/castlog/internal/utils"
	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"
)

// Feed is a parsed podcast RSS feed
type Feed struct {
	Channel  *models.Channel
	Episodes []*models.Episode
}

// Parser reads podcast feeds from files or URLs
type Parser struct {
	parser     *gofeed.Parser
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewParser creates a new feed parser
func NewParser(logger *logrus.Logger) *Parser {
	return &Parser{
		parser: gofeed.NewParser(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Read returns the raw feed XML from a local path or an http(s) URL
func (p *Parser) Read(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read feed file: %w", err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "castlog/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := services.CheckResponse("feed", resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"url":   source,
		"bytes": len(data),
	}).Debug("Downloaded feed")

	return data, nil
}

// Parse converts RSS XML into episodes in feed order
func (p *Parser) Parse(data []byte) (*Feed, error) {
	parsed, err := p.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	out := &Feed{
		Channel: &models.Channel{
			Title:       parsed.Title,
			Description: utils.StripHTML(parsed.Description),
			Link:        parsed.Link,
			Language:    parsed.Language,
		},
	}
	if parsed.Image != nil {
		out.Channel.Image = parsed.Image.URL
	} else if parsed.ITunesExt != nil {
		out.Channel.Image = parsed.ITunesExt.Image
	}

	for _, item := range parsed.Items {
		ep := &models.Episode{
			GUID:        strings.TrimSpace(item.GUID),
			Title:       strings.TrimSpace(item.Title),
			Description: utils.CleanDescription(item.Description),
			Link:        strings.TrimSpace(item.Link),
			Date:        strings.TrimSpace(item.Published),
		}
		if item.ITunesExt != nil {
			ep.Duration = strings.TrimSpace(item.ITunesExt.Duration)
		}
		if len(item.Enclosures) > 0 {
			ep.AudioURL = item.Enclosures[0].URL
		}
		out.Episodes = append(out.Episodes, ep)
	}

	return out, nil
}
