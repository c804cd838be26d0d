package config

import (
	"regexp"
	"strings"
)

var (
	applePodcastIDPattern = regexp.MustCompile(`id(\d+)`)
	spotifyShowIDPattern  = regexp.MustCompile(`show/([a-zA-Z0-9]+)`)
	amazonShowIDPattern   = regexp.MustCompile(`podcasts/([a-zA-Z0-9-]+)`)

	youtubeHandlePattern  = regexp.MustCompile(`@([^/?]+)`)
	youtubeChannelPattern = regexp.MustCompile(`channel/([^/?]+)`)
	youtubeCustomPattern  = regexp.MustCompile(`/c/([^/?]+)`)
)

// ApplePodcastIDFromURL extracts the numeric id from an Apple Podcasts URL
func ApplePodcastIDFromURL(u string) (string, bool) {
	return firstSubmatch(applePodcastIDPattern, u)
}

// SpotifyShowIDFromURL extracts the show id from an open.spotify.com show URL
func SpotifyShowIDFromURL(u string) (string, bool) {
	return firstSubmatch(spotifyShowIDPattern, u)
}

// AmazonShowIDFromURL extracts the show id from an Amazon Music podcast URL
func AmazonShowIDFromURL(u string) (string, bool) {
	return firstSubmatch(amazonShowIDPattern, u)
}

// YouTubeChannelFromURL extracts an @handle, channel id or custom name from a
// channel URL
func YouTubeChannelFromURL(u string) (string, bool) {
	if m := youtubeHandlePattern.FindStringSubmatch(u); m != nil {
		return "@" + m[1], true
	}
	if id, ok := firstSubmatch(youtubeChannelPattern, u); ok {
		return id, true
	}
	return firstSubmatch(youtubeCustomPattern, u)
}

func firstSubmatch(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// platformID accepts either a bare id or a page URL for it. Values that are
// not URLs are returned trimmed and unchanged.
func platformID(value string, fromURL func(string) (string, bool)) string {
	value = strings.TrimSpace(value)
	if !strings.Contains(value, "://") {
		return value
	}
	if id, ok := fromURL(value); ok {
		return id
	}
	return value
}
