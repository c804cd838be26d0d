package x

import (
	"fmt"
	"strings"

	"github.com/kaigaicareerlog/castlog/internal/models"
)

// IntroTweet formats the new episode announcement
func IntroTweet(ep *models.Episode, hosts string) string {
	lines := []string{
		"🎧Podcast新エピソード公開",
		"",
		ep.Title,
		"",
		"Host",
		hosts,
		"",
		"#海外 #海外就職 #キャリア",
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// URLsTweet formats the platform links reply. It returns false when the
// episode has no links yet.
func URLsTweet(ep *models.Episode) (string, bool) {
	var lines []string
	for _, p := range []models.Platform{models.PlatformApple, models.PlatformSpotify, models.PlatformYouTube, models.PlatformAmazon} {
		u := strings.TrimSpace(ep.URL(p))
		if u == "" {
			continue
		}
		lines = append(lines, p.DisplayName(), u, "")
	}

	text := strings.TrimSpace(strings.Join(lines, "\n"))
	return text, text != ""
}

// HighlightTweet formats highlight n (1 to 3) of a transcript
func HighlightTweet(ep *models.Episode, t *models.Transcript, n int) (string, error) {
	h, err := t.Highlight(n)
	if err != nil {
		return "", err
	}
	if h == "" {
		return "", fmt.Errorf("highlight %d not found for episode %s", n, ep.GUID)
	}

	lines := []string{
		"💡 " + h,
		"",
		"🎙️ " + ep.Title,
		"",
		"#海外キャリアログ #ポッドキャスト",
	}
	return strings.Join(lines, "\n"), nil
}

// FormReminderTweet formats the listener question form reminder
func FormReminderTweet(formURL string) string {
	lines := []string{
		"📮 お便り募集中！",
		"",
		"海外キャリアログへのお便りを募集しています！",
		"",
		"番組の感想や質問、海外キャリアについて聞いてみたいことなど、お気軽にお送りください🙌",
		"",
		"📝 " + formURL,
		"",
		"#海外キャリアログ #ポッドキャスト #お便り募集",
	}
	return strings.Join(lines, "\n")
}
