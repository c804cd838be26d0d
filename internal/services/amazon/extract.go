package amazon

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/kaigaicareerlog/castlog/internal/utils"
)

// EpisodeLinkSelector matches episode anchors on a show page
const EpisodeLinkSelector = `a[href*="/episodes/"]`

const (
	maxAncestorLevels = 3
	minTitleLength    = 5
	maxTitleLength    = 200
)

var episodeIDPattern = regexp.MustCompile(`/episodes/([a-zA-Z0-9-]+)`)

// Episode is an episode link scraped from the show page
type Episode struct {
	ID    string
	Title string
	URL   string
}

// ExtractEpisodes parses rendered show page HTML into episodes, deduplicated
// by episode id in document order
func ExtractEpisodes(r io.Reader, showID, region string) ([]*Episode, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amazon music page: %w", err)
	}

	showPath := "/podcasts/" + showID + "/episodes/"
	seen := make(map[string]bool)
	var episodes []*Episode

	doc.Find(EpisodeLinkSelector).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if !strings.Contains(href, showPath) {
			return
		}
		m := episodeIDPattern.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id := m[1]
		if seen[id] {
			return
		}
		seen[id] = true

		title := utils.NormalizeTitle(linkTitle(link))
		if title == "" {
			title = "Episode " + id
		}

		episodes = append(episodes, &Episode{
			ID:    id,
			Title: title,
			URL:   absoluteURL(href, region),
		})
	})

	return episodes, nil
}

// linkTitle recovers the episode title: aria-label, then the first
// title-like text in up to three ancestors, then the link text
func linkTitle(link *goquery.Selection) string {
	if label, ok := link.Attr("aria-label"); ok && strings.TrimSpace(label) != "" {
		return label
	}

	current := link
	for i := 0; i < maxAncestorLevels; i++ {
		current = current.Parent()
		if current.Length() == 0 {
			break
		}

		title := ""
		current.Find("div, span, p, h1, h2, h3, h4").EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text := strings.TrimSpace(el.Text())
			if looksLikeTitle(text) {
				title = text
				return false
			}
			return true
		})
		if title != "" {
			return title
		}
	}

	return strings.TrimSpace(link.Text())
}

func looksLikeTitle(text string) bool {
	n := utf8.RuneCountInString(text)
	if n <= minTitleLength || n >= maxTitleLength {
		return false
	}
	for _, r := range text {
		if !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			return true
		}
	}
	return false
}

func absoluteURL(href, region string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return "https://music.amazon." + region + href
}
