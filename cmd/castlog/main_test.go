package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaigaicareerlog/castlog/internal/config"
	"github.com/kaigaicareerlog/castlog/internal/controllers"
	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/kaigaicareerlog/castlog/internal/services/apple"
)

type cliTestEnv struct {
	rssDir         string
	transcriptsDir string
	episodesPath   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		rssDir:         filepath.Join(base, "rss"),
		transcriptsDir: filepath.Join(base, "transcripts"),
	}
	require.NoError(t, os.MkdirAll(env.rssDir, 0755))
	require.NoError(t, os.MkdirAll(env.transcriptsDir, 0755))

	t.Setenv("RSS_DIR", env.rssDir)
	t.Setenv("TRANSCRIPTS_DIR", env.transcriptsDir)
	t.Setenv("DATA_DIR", filepath.Join(base, "data"))
	t.Setenv("LOG_LEVEL", "error")
	for _, key := range []string{"X_API_KEY", "X_API_SECRET", "X_ACCESS_TOKEN", "X_ACCESS_TOKEN_SECRET", "X_HOSTS"} {
		t.Setenv(key, "")
	}

	episodes := []*models.Episode{
		{GUID: "g2", Title: "Second", Date: "2025-10-08", SpotifyURL: "https://open.spotify.com/episode/2"},
		{GUID: "g1", Title: "First", Date: "2025-10-01", NewEpisodeIntroPostedToX: true},
	}
	data, err := json.Marshal(episodes)
	require.NoError(t, err)
	env.episodesPath = filepath.Join(env.rssDir, "20251010-0900-episodes.json")
	require.NoError(t, os.WriteFile(env.episodesPath, data, 0644))

	return env
}

func (e *cliTestEnv) episodes(t *testing.T) []*models.Episode {
	t.Helper()
	data, err := os.ReadFile(e.episodesPath)
	require.NoError(t, err)
	var episodes []*models.Episode
	require.NoError(t, json.Unmarshal(data, &episodes))
	return episodes
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestListJSONWhenNotTerminal(t *testing.T) {
	setupCLITestEnv(t)

	out, err := runCLI(t, "list")
	require.NoError(t, err)

	var episodes []*models.Episode
	require.NoError(t, json.Unmarshal([]byte(out), &episodes))
	require.Len(t, episodes, 2)
	assert.Equal(t, "g2", episodes[0].GUID)
}

func TestRenderEpisodesTable(t *testing.T) {
	out := renderEpisodes([]*models.Episode{{GUID: "g1", Title: "First", Date: "2025-10-01", Duration: "00:45:10", YouTubeURL: "https://youtu.be/1"}})
	assert.Contains(t, out, "First")
	assert.Contains(t, out, "45:10")
	assert.Contains(t, out, "Youtube")
	assert.Contains(t, out, "✓")
}

func TestUpdateEpisodeCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, "update-episode", "g1", "--youtube", "https://youtu.be/1", "--amazon", "https://music.amazon.co.jp/1")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated g1")

	episodes := env.episodes(t)
	assert.Equal(t, "https://youtu.be/1", episodes[1].YouTubeURL)
	assert.Equal(t, "https://music.amazon.co.jp/1", episodes[1].AmazonMusicURL)
	assert.Equal(t, "https://open.spotify.com/episode/2", episodes[0].SpotifyURL)
}

func TestUpdateEpisodeRejectsNonEpisodeSpotifyURL(t *testing.T) {
	env := setupCLITestEnv(t)

	_, err := runCLI(t, "update-episode", "g1", "--spotify", "https://open.spotify.com/show/abc")
	assert.ErrorContains(t, err, "not a Spotify episode URL")
	assert.Empty(t, env.episodes(t)[1].SpotifyURL)

	_, err = runCLI(t, "update-episode", "g1", "--spotify", "https://open.spotify.com/episode/1pCYF2Hh9auRtTCELuPK8e")
	require.NoError(t, err)
	assert.Equal(t, "https://open.spotify.com/episode/1pCYF2Hh9auRtTCELuPK8e", env.episodes(t)[1].SpotifyURL)
}

func TestUpdateEpisodeCommandErrors(t *testing.T) {
	env := setupCLITestEnv(t)

	_, err := runCLI(t, "update-episode", env.episodesPath, "missing", "--apple", "https://podcasts.apple.com/x")
	assert.Error(t, err)

	_, err = runCLI(t, "update-episode", "g1")
	assert.ErrorIs(t, err, controllers.ErrNoURLs)
}

func TestMissingTranscriptsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.transcriptsDir, "g1.json"), []byte(`{"episodeGuid":"g1"}`), 0644))

	out, err := runCLI(t, "missing-transcripts")
	require.NoError(t, err)

	var missing []controllers.MissingTranscript
	require.NoError(t, json.Unmarshal([]byte(out), &missing))
	assert.Equal(t, []controllers.MissingTranscript{{GUID: "g2", Title: "Second"}}, missing)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "-", formatDuration(0))
	assert.Equal(t, "0:59", formatDuration(59))
	assert.Equal(t, "30:00", formatDuration(1800))
	assert.Equal(t, "1:02:03", formatDuration(3723))
}

func TestRenderPodcasts(t *testing.T) {
	out := renderPodcasts([]*apple.Podcast{{
		CollectionID:      1818019572,
		CollectionName:    "海外キャリアログ",
		ArtistName:        "kaigai",
		CollectionViewURL: "https://podcasts.apple.com/ca/podcast/id1818019572",
	}})
	assert.Contains(t, out, "1818019572")
	assert.Contains(t, out, "海外キャリアログ")
}

func TestSearchPodcastsValidatesArgs(t *testing.T) {
	setupCLITestEnv(t)

	_, err := runCLI(t, "search-podcasts", "  ")
	assert.ErrorContains(t, err, "search term is required")

	_, err = runCLI(t, "search-podcasts", "--limit", "0", "海外キャリアログ")
	assert.ErrorContains(t, err, "limit must be between 1 and 200")
}

func TestEnrichRejectsUnknownPlatform(t *testing.T) {
	setupCLITestEnv(t)
	_, err := runCLI(t, "enrich", "--platform", "myspace")
	assert.ErrorContains(t, err, "unknown platform")
}

func TestPostIntroRequiresCredentials(t *testing.T) {
	setupCLITestEnv(t)
	_, err := runCLI(t, "post-intro", "g2", "@a")
	assert.ErrorIs(t, err, config.ErrMissingConfig)
}

func TestPostIntroDryRun(t *testing.T) {
	env := setupCLITestEnv(t)

	_, err := runCLI(t, "--dry-run", "post-intro", "g2", "@a @b")
	require.NoError(t, err)

	// Nothing was posted, so the flag stays unset
	assert.False(t, env.episodes(t)[0].NewEpisodeIntroPostedToX)
}

func TestPostIntroDryRunSkipsLedger(t *testing.T) {
	env := setupCLITestEnv(t)
	dataDir := os.Getenv("DATA_DIR")

	_, err := runCLI(t, "--dry-run", "post-intro", "g2", "@a @b")
	require.NoError(t, err)
	assert.NoDirExists(t, dataDir)

	// A daemon holding the ledger does not block a dry run
	require.NoError(t, os.MkdirAll(dataDir, 0755))
	db, err := models.NewDatabase(filepath.Join(dataDir, "castlog.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = runCLI(t, "--dry-run", "post-form-reminder", "https://forms.example.com/x")
	require.NoError(t, err)
	assert.False(t, env.episodes(t)[0].NewEpisodeIntroPostedToX)
}

func TestAutoPostRequiresHosts(t *testing.T) {
	setupCLITestEnv(t)
	_, err := runCLI(t, "--dry-run", "auto-post")
	assert.ErrorContains(t, err, "hosts required")
}

func TestPostHighlightValidatesNumber(t *testing.T) {
	setupCLITestEnv(t)
	_, err := runCLI(t, "--dry-run", "post-highlight", "g1", "4")
	assert.ErrorContains(t, err, "must be 1, 2 or 3")
}

func TestParsePlatforms(t *testing.T) {
	got, err := parsePlatforms([]string{"spotify", "amazon-music"})
	require.NoError(t, err)
	assert.Equal(t, []models.Platform{models.PlatformSpotify, models.PlatformAmazon}, got)
}
