package models

import (
	"strconv"
	"strings"
)

// Episode is a single podcast episode as stored in the episodes JSON files
type Episode struct {
	GUID        string `json:"guid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Date        string `json:"date"`
	Duration    string `json:"duration"`
	AudioURL    string `json:"audioUrl"`

	SpotifyURL      string `json:"spotifyUrl"`
	YouTubeURL      string `json:"youtubeUrl"`
	ApplePodcastURL string `json:"applePodcastUrl"`
	AmazonMusicURL  string `json:"amazonMusicUrl"`

	NewEpisodeIntroPostedToX bool `json:"newEpisodeIntroPostedToX"`
}

// URL returns the episode URL stored for a platform
func (e *Episode) URL(p Platform) string {
	switch p {
	case PlatformSpotify:
		return e.SpotifyURL
	case PlatformYouTube:
		return e.YouTubeURL
	case PlatformApple:
		return e.ApplePodcastURL
	case PlatformAmazon:
		return e.AmazonMusicURL
	}
	return ""
}

// SetURL stores the episode URL for a platform
func (e *Episode) SetURL(p Platform, url string) {
	switch p {
	case PlatformSpotify:
		e.SpotifyURL = url
	case PlatformYouTube:
		e.YouTubeURL = url
	case PlatformApple:
		e.ApplePodcastURL = url
	case PlatformAmazon:
		e.AmazonMusicURL = url
	}
}

// NeedsURL reports whether the platform URL has not been found yet
func (e *Episode) NeedsURL(p Platform) bool {
	return strings.TrimSpace(e.URL(p)) == ""
}

// DurationSeconds parses the feed duration (HH:MM:SS, MM:SS or plain seconds).
// It returns 0 when the value cannot be parsed.
func (e *Episode) DurationSeconds() int {
	d := strings.TrimSpace(e.Duration)
	if d == "" {
		return 0
	}

	if !strings.Contains(d, ":") {
		secs, err := strconv.Atoi(d)
		if err != nil {
			return 0
		}
		return secs
	}

	parts := strings.Split(d, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}

// Channel holds podcast channel metadata kept by the legacy episodes format
type Channel struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Language    string `json:"language"`
	Image       string `json:"image"`
}
