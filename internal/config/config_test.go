package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")
	t.Setenv("YOUTUBE_API_KEY", "")
	t.Setenv("X_API_KEY", "")
	t.Setenv("X_API_SECRET", "")
	t.Setenv("X_ACCESS_TOKEN", "")
	t.Setenv("X_ACCESS_TOKEN_SECRET", "")
	t.Setenv("DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Nil(t, cfg.Spotify)
	assert.Nil(t, cfg.YouTube)
	assert.Nil(t, cfg.X)
	require.NotNil(t, cfg.Apple)
	assert.Equal(t, DefaultApplePodcastID, cfg.Apple.PodcastID)
	require.NotNil(t, cfg.Amazon)
	assert.Equal(t, DefaultAmazonMusicRegion, cfg.Amazon.Region)
	assert.Equal(t, 3, cfg.RetentionDays)
	assert.Equal(t, "info", cfg.LogLevel)

	_, err = cfg.RequireX()
	assert.True(t, errors.Is(err, ErrMissingConfig))
	assert.Contains(t, err.Error(), "X_ACCESS_TOKEN")

	_, err = cfg.RequireSpotify()
	assert.True(t, errors.Is(err, ErrMissingConfig))
}

func TestLoadPlatformSections(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")
	t.Setenv("SPOTIFY_SHOW_ID", "show")
	t.Setenv("YOUTUBE_API_KEY", "key")
	t.Setenv("AMAZON_MUSIC_ENABLED", "false")
	t.Setenv("X_API_KEY", "k")
	t.Setenv("X_API_SECRET", "s")
	t.Setenv("X_ACCESS_TOKEN", "t")
	t.Setenv("X_ACCESS_TOKEN_SECRET", "ts")
	t.Setenv("DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	require.NotNil(t, cfg.Spotify)
	assert.Equal(t, "show", cfg.Spotify.ShowID)
	require.NotNil(t, cfg.YouTube)
	assert.Equal(t, DefaultYouTubeChannelID, cfg.YouTube.ChannelID)
	assert.Nil(t, cfg.Amazon)

	x, err := cfg.RequireX()
	require.NoError(t, err)
	assert.Equal(t, "ts", x.AccessTokenSecret)
}

func TestLoadPartialSpotifyIsAbsent(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")
	t.Setenv("DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.Spotify)
}

func TestLoadAcceptsPlatformURLs(t *testing.T) {
	t.Setenv("APPLE_PODCAST_ID", "https://podcasts.apple.com/ca/podcast/海外キャリアログ/id1818019572")
	t.Setenv("SPOTIFY_CLIENT_ID", "id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")
	t.Setenv("SPOTIFY_SHOW_ID", "https://open.spotify.com/show/5kkRAqjgAvsYyB9ZUM7qFw?si=x")
	t.Setenv("YOUTUBE_API_KEY", "key")
	t.Setenv("YOUTUBE_CHANNEL_ID", "https://www.youtube.com/@kaigaicareerlog/videos")
	t.Setenv("AMAZON_MUSIC_ENABLED", "true")
	t.Setenv("AMAZON_MUSIC_SHOW_ID", "https://music.amazon.co.jp/podcasts/118b5e6b-1f97-4c62-97a5-754714381b40")
	t.Setenv("DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "1818019572", cfg.Apple.PodcastID)
	require.NotNil(t, cfg.Spotify)
	assert.Equal(t, "5kkRAqjgAvsYyB9ZUM7qFw", cfg.Spotify.ShowID)
	require.NotNil(t, cfg.YouTube)
	assert.Equal(t, "@kaigaicareerlog", cfg.YouTube.ChannelID)
	require.NotNil(t, cfg.Amazon)
	assert.Equal(t, "118b5e6b-1f97-4c62-97a5-754714381b40", cfg.Amazon.ShowID)
}

func TestPlatformID(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		fromURL func(string) (string, bool)
		want    string
	}{
		{"bare apple id", "1818019572", ApplePodcastIDFromURL, "1818019572"},
		{"apple url", "https://podcasts.apple.com/jp/podcast/x/id42?i=1", ApplePodcastIDFromURL, "42"},
		{"unrecognized url is kept", "https://example.com/show", ApplePodcastIDFromURL, "https://example.com/show"},
		{"bare handle", " @kaigaicareerlog ", YouTubeChannelFromURL, "@kaigaicareerlog"},
		{"channel url", "https://www.youtube.com/channel/UCxyz?x=1", YouTubeChannelFromURL, "UCxyz"},
		{"custom url", "https://www.youtube.com/c/custom", YouTubeChannelFromURL, "custom"},
		{"bare channel id", "UCxyz", YouTubeChannelFromURL, "UCxyz"},
		{"amazon url", "https://music.amazon.com/podcasts/abc-123/episodes", AmazonShowIDFromURL, "abc-123"},
		{"spotify url", "https://open.spotify.com/show/abc", SpotifyShowIDFromURL, "abc"},
		{"empty", "", SpotifyShowIDFromURL, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, platformID(tt.in, tt.fromURL))
		})
	}
}
