package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kaigaicareerlog/castlog/internal/services/feed"
	"github.com/kaigaicareerlog/castlog/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedV1 = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>海外キャリアログ</title>
    <link>https://example.com</link>
    <language>ja</language>
    <itunes:image href="https://example.com/art.jpg"/>
    <item>
      <title>第1回 はじめに</title>
      <description>intro</description>
      <guid>guid-1</guid>
      <pubDate>Mon, 26 May 2025 10:00:00 GMT</pubDate>
      <itunes:duration>1800</itunes:duration>
      <enclosure url="https://cdn.example.com/1.mp3" length="1" type="audio/mpeg"/>
    </item>
  </channel>
</rss>`

const feedV2 = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>海外キャリアログ</title>
    <item>
      <title>第2回 ベルリン生活</title>
      <description>berlin</description>
      <guid>guid-2</guid>
      <enclosure url="https://cdn.example.com/2.mp3" length="1" type="audio/mpeg"/>
    </item>
    <item>
      <title>第1回 はじめに</title>
      <description>intro</description>
      <guid>guid-1</guid>
      <enclosure url="https://cdn.example.com/1.mp3" length="1" type="audio/mpeg"/>
    </item>
  </channel>
</rss>`

func writeFeed(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "feed.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestGenerateMergesExistingEpisodes(t *testing.T) {
	rssDir := t.TempDir()
	ctrl := NewFeedController(feed.NewParser(testLogger()), rssDir, testLogger())
	ctx := context.Background()

	first := filepath.Join(rssDir, "20251001-0900-episodes.json")
	result, err := ctrl.Generate(ctx, writeFeed(t, t.TempDir(), feedV1), first, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.New, 1)
	assert.Equal(t, "guid-1", result.New[0].GUID)
	assert.Empty(t, result.Snapshot)

	ep := loadEpisode(t, first, "guid-1")
	assert.False(t, ep.NewEpisodeIntroPostedToX)

	require.NoError(t, store.Update(first, func(doc *store.Document) (bool, error) {
		doc.Episodes[0].SpotifyURL = "https://open.spotify.com/episode/1"
		doc.Episodes[0].NewEpisodeIntroPostedToX = true
		return true, nil
	}))

	second := filepath.Join(rssDir, "20251002-0900-episodes.json")
	result, err = ctrl.Generate(ctx, writeFeed(t, t.TempDir(), feedV2), second, false)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	require.Len(t, result.New, 1)
	assert.Equal(t, "guid-2", result.New[0].GUID)

	doc, err := store.NewFileStore(second).Load()
	require.NoError(t, err)
	require.Len(t, doc.Episodes, 2)
	assert.Equal(t, "guid-2", doc.Episodes[0].GUID)
	assert.False(t, doc.Episodes[0].NewEpisodeIntroPostedToX)
	assert.Empty(t, doc.Episodes[0].SpotifyURL)
	assert.Equal(t, "https://open.spotify.com/episode/1", doc.Episodes[1].SpotifyURL)
	assert.True(t, doc.Episodes[1].NewEpisodeIntroPostedToX)
}

func TestGenerateMarkPosted(t *testing.T) {
	rssDir := t.TempDir()
	ctrl := NewFeedController(feed.NewParser(testLogger()), rssDir, testLogger())
	ctx := context.Background()

	first := filepath.Join(rssDir, "20251001-0900-episodes.json")
	result, err := ctrl.Generate(ctx, writeFeed(t, t.TempDir(), feedV1), first, true)
	require.NoError(t, err)
	require.Len(t, result.New, 1)
	assert.True(t, loadEpisode(t, first, "guid-1").NewEpisodeIntroPostedToX)

	second := filepath.Join(rssDir, "20251002-0900-episodes.json")
	result, err = ctrl.Generate(ctx, writeFeed(t, t.TempDir(), feedV2), second, false)
	require.NoError(t, err)
	require.Len(t, result.New, 1)
	assert.Equal(t, "guid-2", result.New[0].GUID)
	assert.False(t, loadEpisode(t, second, "guid-2").NewEpisodeIntroPostedToX)
	assert.True(t, loadEpisode(t, second, "guid-1").NewEpisodeIntroPostedToX)
}

func TestGenerateIgnoresUnreadableLatestFile(t *testing.T) {
	rssDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(rssDir, "20251001-0900-episodes.json"), []byte("{not json"), 0644))
	ctrl := NewFeedController(feed.NewParser(testLogger()), rssDir, testLogger())

	out := filepath.Join(rssDir, "20251002-0900-episodes.json")
	result, err := ctrl.Generate(context.Background(), writeFeed(t, t.TempDir(), feedV1), out, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.New, 1)
	assert.False(t, loadEpisode(t, out, "guid-1").NewEpisodeIntroPostedToX)
}

func TestGenerateFromURLSavesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		io.WriteString(w, feedV1)
	}))
	defer srv.Close()

	rssDir := t.TempDir()
	ctrl := NewFeedController(feed.NewParser(testLogger()), rssDir, testLogger())
	ctrl.now = func() time.Time { return time.Date(2025, 10, 3, 8, 30, 0, 0, time.Local) }

	result, err := ctrl.Generate(context.Background(), srv.URL, "", false)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(rssDir, "20251003-0830-episodes.json"), result.Path)
	assert.Equal(t, filepath.Join(rssDir, "20251003-0830-rss-file.xml"), result.Snapshot)

	data, err := os.ReadFile(result.Snapshot)
	require.NoError(t, err)
	assert.Equal(t, feedV1, string(data))

	latest, err := store.Latest(rssDir)
	require.NoError(t, err)
	assert.Equal(t, result.Path, latest)
}

func TestXMLToJSONWritesLegacyFormat(t *testing.T) {
	out := filepath.Join(t.TempDir(), "podcast.json")
	ctrl := NewFeedController(feed.NewParser(testLogger()), t.TempDir(), testLogger())

	doc, err := ctrl.XMLToJSON(context.Background(), writeFeed(t, t.TempDir(), feedV1), out)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/art.jpg", doc.Channel.Image)

	loaded, err := store.NewFileStore(out).Load()
	require.NoError(t, err)
	assert.Equal(t, store.FormatLegacy, loaded.Format)
	assert.Equal(t, "海外キャリアログ", loaded.Channel.Title)
	assert.NotEmpty(t, loaded.LastUpdated)
	require.Len(t, loaded.Episodes, 1)
	assert.Equal(t, "https://cdn.example.com/1.mp3", loaded.Episodes[0].AudioURL)
}
