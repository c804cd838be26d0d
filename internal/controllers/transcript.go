package controllers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/kaigaicareerlog/castlog/internal/services/assemblyai"
	"github.com/kaigaicareerlog/castlog/internal/store"
	"github.com/sirupsen/logrus"
)

// Transcriber turns an audio URL into a diarized transcript
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) (*assemblyai.Result, error)
}

// HighlightGenerator produces post-sized highlights from a transcript
type HighlightGenerator interface {
	GenerateHighlights(ctx context.Context, fullText string) ([]string, error)
}

// MissingTranscript identifies an episode without a transcript file
type MissingTranscript struct {
	GUID  string `json:"guid"`
	Title string `json:"title"`
}

// TranscriptController manages episode transcripts and their highlights
type TranscriptController struct {
	transcripts *store.TranscriptStore
	logger      *logrus.Logger
	now         func() time.Time
}

// NewTranscriptController creates a new transcript controller
func NewTranscriptController(transcripts *store.TranscriptStore, logger *logrus.Logger) *TranscriptController {
	return &TranscriptController{
		transcripts: transcripts,
		logger:      logger,
		now:         time.Now,
	}
}

// Transcribe transcribes an episode's audio and writes its transcript file.
// An existing transcript is only replaced with force.
func (c *TranscriptController) Transcribe(ctx context.Context, transcriber Transcriber, ep *models.Episode, force bool) (*models.Transcript, error) {
	if ep.AudioURL == "" {
		return nil, fmt.Errorf("episode %s has no audio URL", ep.GUID)
	}
	if c.transcripts.Exists(ep.GUID) && !force {
		return nil, fmt.Errorf("transcript already exists for %s, use --force to replace it", ep.GUID)
	}

	log := c.logger.WithFields(logrus.Fields{
		"guid":  ep.GUID,
		"title": ep.Title,
	})
	log.Info("Starting transcription")

	result, err := transcriber.Transcribe(ctx, ep.AudioURL)
	if err != nil {
		return nil, err
	}

	t := BuildTranscript(result, ep, c.now())
	if err := c.transcripts.Save(t); err != nil {
		return nil, err
	}

	speakers := make(map[string]struct{})
	for _, u := range t.Utterances {
		speakers[u.Speaker] = struct{}{}
	}
	log.WithFields(logrus.Fields{
		"utterances": len(t.Utterances),
		"speakers":   len(speakers),
		"duration":   t.Duration,
	}).Info("Transcript saved")

	return t, nil
}

// BuildTranscript converts a transcription result into the stored format
func BuildTranscript(result *assemblyai.Result, ep *models.Episode, at time.Time) *models.Transcript {
	t := &models.Transcript{
		EpisodeGUID:   ep.GUID,
		EpisodeTitle:  ep.Title,
		TranscribedAt: at.UTC().Format("2006-01-02T15:04:05.000Z"),
		Duration:      result.AudioDuration,
		FullText:      result.Text,
		Utterances:    make([]models.Utterance, 0, len(result.Utterances)),
	}
	for _, u := range result.Utterances {
		t.Utterances = append(t.Utterances, models.Utterance{
			Speaker:   u.Speaker,
			Text:      u.Text,
			Start:     u.Start,
			End:       u.End,
			Timestamp: models.FormatTimestamp(u.Start),
		})
	}
	return t
}

// Cleanup collapses whitespace in every utterance and rebuilds the full text
func (c *TranscriptController) Cleanup(guid string) (*models.Transcript, error) {
	t, err := c.transcripts.Load(guid)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(t.Utterances))
	for i := range t.Utterances {
		t.Utterances[i].Text = strings.Join(strings.Fields(t.Utterances[i].Text), " ")
		texts[i] = t.Utterances[i].Text
	}
	t.FullText = strings.Join(texts, " ")

	if err := c.transcripts.Save(t); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"guid":       guid,
		"utterances": len(t.Utterances),
	}).Info("Transcript cleaned up")
	return t, nil
}

// RenameSpeaker replaces a speaker label and returns the number of
// utterances changed. The file is left untouched when nothing matches.
func (c *TranscriptController) RenameSpeaker(guid, oldSpeaker, newSpeaker string) (int, error) {
	if strings.TrimSpace(newSpeaker) == "" {
		return 0, fmt.Errorf("new speaker name cannot be empty")
	}

	t, err := c.transcripts.Load(guid)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range t.Utterances {
		if t.Utterances[i].Speaker == oldSpeaker {
			t.Utterances[i].Speaker = newSpeaker
			count++
		}
	}

	log := c.logger.WithFields(logrus.Fields{
		"guid": guid,
		"old":  oldSpeaker,
		"new":  newSpeaker,
	})
	if count == 0 {
		log.Warn("No utterances found with speaker")
		return 0, nil
	}

	if err := c.transcripts.Save(t); err != nil {
		return 0, err
	}
	log.WithField("count", count).Info("Updated speakers")
	return count, nil
}

// GenerateHighlights stores three highlights on the transcript. Existing
// highlights are kept unless force is set.
func (c *TranscriptController) GenerateHighlights(ctx context.Context, gen HighlightGenerator, guid string, force bool) (*models.Transcript, error) {
	t, err := c.transcripts.Load(guid)
	if err != nil {
		return nil, err
	}

	log := c.logger.WithField("guid", guid)
	if t.HasHighlights() && !force {
		log.Info("Highlights already exist, use --force to regenerate")
		return t, nil
	}
	if strings.TrimSpace(t.FullText) == "" {
		return nil, fmt.Errorf("transcript %s has no text", guid)
	}

	highlights, err := gen.GenerateHighlights(ctx, t.FullText)
	if err != nil {
		return nil, err
	}

	t.SetHighlights(highlights)
	if err := c.transcripts.Save(t); err != nil {
		return nil, err
	}

	log.WithField("count", len(highlights)).Info("Highlights saved")
	return t, nil
}

// Load returns the transcript for guid
func (c *TranscriptController) Load(guid string) (*models.Transcript, error) {
	return c.transcripts.Load(guid)
}

// Missing lists episodes in feed order that have no transcript file
func (c *TranscriptController) Missing(episodes []*models.Episode) []MissingTranscript {
	missing := []MissingTranscript{}
	for _, ep := range episodes {
		if !c.transcripts.Exists(ep.GUID) {
			missing = append(missing, MissingTranscript{GUID: ep.GUID, Title: ep.Title})
		}
	}
	return missing
}
