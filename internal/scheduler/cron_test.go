package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/kaigaicareerlog/castlog/internal/controllers"
	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	candidates []models.Candidate
	calls      int
}

func (s *stubFetcher) Platform() models.Platform { return models.PlatformSpotify }

func (s *stubFetcher) FetchCandidates(ctx context.Context) ([]models.Candidate, error) {
	s.calls++
	return s.candidates, nil
}

type countingPoster struct {
	texts []string
}

func (p *countingPoster) Post(ctx context.Context, text, replyTo string) (string, error) {
	p.texts = append(p.texts, text)
	return fmt.Sprintf("t%d", len(p.texts)), nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeStore(t *testing.T, dir string, episodes []*models.Episode) string {
	t.Helper()
	data, err := json.Marshal(episodes)
	require.NoError(t, err)
	path := filepath.Join(dir, "20251010-0900-episodes.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func readStore(t *testing.T, path string) []*models.Episode {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var episodes []*models.Episode
	require.NoError(t, json.Unmarshal(data, &episodes))
	return episodes
}

func newTestScheduler(dir string, poster *countingPoster, fetchers []controllers.Fetcher) *Scheduler {
	logger := quietLogger()
	var postCtrl *controllers.PostController
	if poster != nil {
		postCtrl = controllers.NewPostController(nil, poster, false, logger)
	}
	return NewScheduler(
		controllers.NewFeedController(nil, dir, logger),
		controllers.NewEnrichController(nil, logger),
		postCtrl,
		controllers.NewCleanupController(nil, dir, 3, logger),
		fetchers,
		Options{
			RSSDir:         dir,
			Hosts:          "@a @b",
			EnrichSchedule: "0 */6 * * *",
			PostSchedule:   "*/30 * * * *",
		},
		logger,
	)
}

func TestRunEnrichUpdatesLatestFile(t *testing.T) {
	dir := t.TempDir()
	path := writeStore(t, dir, []*models.Episode{{GUID: "g1", Title: "Hello World"}})

	f := &stubFetcher{candidates: []models.Candidate{{Title: "Hello World", URL: "https://open.spotify.com/episode/1"}}}
	s := newTestScheduler(dir, nil, []controllers.Fetcher{f})

	result, err := s.RunEnrich(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated[models.PlatformSpotify])
	assert.Equal(t, 1, f.calls)

	episodes := readStore(t, path)
	assert.Equal(t, "https://open.spotify.com/episode/1", episodes[0].SpotifyURL)
}

func TestRunEnrichWithoutFiles(t *testing.T) {
	s := newTestScheduler(t.TempDir(), nil, nil)
	_, err := s.RunEnrich(context.Background())
	assert.Error(t, err)
}

func TestRunAutoPost(t *testing.T) {
	dir := t.TempDir()
	path := writeStore(t, dir, []*models.Episode{
		{GUID: "old", Title: "Old", NewEpisodeIntroPostedToX: true},
		{GUID: "new", Title: "New"},
	})

	poster := &countingPoster{}
	s := newTestScheduler(dir, poster, nil)

	require.NoError(t, s.RunAutoPost(context.Background()))
	require.Len(t, poster.texts, 1)
	assert.Contains(t, poster.texts[0], "New")

	episodes := readStore(t, path)
	assert.True(t, episodes[1].NewEpisodeIntroPostedToX)

	// Nothing left to announce
	require.NoError(t, s.RunAutoPost(context.Background()))
	assert.Len(t, poster.texts, 1)
}

func TestRunAutoPostNotConfigured(t *testing.T) {
	s := newTestScheduler(t.TempDir(), nil, nil)
	assert.Error(t, s.RunAutoPost(context.Background()))
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := newTestScheduler(t.TempDir(), nil, nil)
	s.opts.EnrichSchedule = "not a schedule"
	assert.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	s := newTestScheduler(t.TempDir(), &countingPoster{}, nil)
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 3)
	s.Stop()
}
