package models

import "fmt"

// Utterance is a single speaker turn in a stored transcript
type Utterance struct {
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Start     int64  `json:"start"`
	End       int64  `json:"end"`
	Timestamp string `json:"timestamp"`
}

// Transcript is the per-episode transcript file written to the transcripts directory
type Transcript struct {
	EpisodeGUID   string      `json:"episodeGuid"`
	EpisodeTitle  string      `json:"episodeTitle"`
	TranscribedAt string      `json:"transcribedAt"`
	Duration      float64     `json:"duration"`
	FullText      string      `json:"fullText"`
	Utterances    []Utterance `json:"utterances"`
	Highlight1    string      `json:"highlight1,omitempty"`
	Highlight2    string      `json:"highlight2,omitempty"`
	Highlight3    string      `json:"highlight3,omitempty"`
}

// Highlight returns highlight n (1-3)
func (t *Transcript) Highlight(n int) (string, error) {
	switch n {
	case 1:
		return t.Highlight1, nil
	case 2:
		return t.Highlight2, nil
	case 3:
		return t.Highlight3, nil
	}
	return "", fmt.Errorf("highlight number must be 1, 2 or 3, got %d", n)
}

// HasHighlights reports whether any highlight has been generated
func (t *Transcript) HasHighlights() bool {
	return t.Highlight1 != "" || t.Highlight2 != "" || t.Highlight3 != ""
}

// SetHighlights stores up to three highlights, clearing the rest
func (t *Transcript) SetHighlights(highlights []string) {
	t.Highlight1, t.Highlight2, t.Highlight3 = "", "", ""
	if len(highlights) > 0 {
		t.Highlight1 = highlights[0]
	}
	if len(highlights) > 1 {
		t.Highlight2 = highlights[1]
	}
	if len(highlights) > 2 {
		t.Highlight3 = highlights[2]
	}
}

// FormatTimestamp renders milliseconds as MM:SS
func FormatTimestamp(ms int64) string {
	total := ms / 1000
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
