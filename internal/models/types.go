package models

// Platform identifies a podcast distribution platform
type Platform string

const (
	PlatformSpotify Platform = "spotify"
	PlatformYouTube Platform = "youtube"
	PlatformApple   Platform = "apple"
	PlatformAmazon  Platform = "amazon"
)

// Platforms lists every platform in enrichment order
var Platforms = []Platform{
	PlatformSpotify,
	PlatformYouTube,
	PlatformApple,
	PlatformAmazon,
}

// ParsePlatform converts a user supplied name into a Platform
func ParsePlatform(name string) (Platform, bool) {
	switch name {
	case "spotify":
		return PlatformSpotify, true
	case "youtube":
		return PlatformYouTube, true
	case "apple", "applepodcast", "apple-podcast":
		return PlatformApple, true
	case "amazon", "amazonmusic", "amazon-music":
		return PlatformAmazon, true
	}
	return "", false
}

// DisplayName returns the label used in posts and tables
func (p Platform) DisplayName() string {
	switch p {
	case PlatformSpotify:
		return "Spotify"
	case PlatformYouTube:
		return "Youtube"
	case PlatformApple:
		return "Apple"
	case PlatformAmazon:
		return "Amazon Music"
	}
	return string(p)
}

// Candidate is an episode (title, url) pair fetched from a platform
type Candidate struct {
	Title string
	URL   string
}

// MatchTitle implements utils.Titled
func (c Candidate) MatchTitle() string { return c.Title }

// MatchURL implements utils.Titled
func (c Candidate) MatchURL() string { return c.URL }

// PostKind represents the kind of social post recorded in the ledger
type PostKind string

const (
	PostKindIntro        PostKind = "intro"
	PostKindHighlight    PostKind = "highlight"
	PostKindFormReminder PostKind = "form_reminder"
)

// PostStatus represents the state of a ledger entry
type PostStatus string

const (
	PostStatusPending   PostStatus = "pending"   // Intent recorded, post not confirmed
	PostStatusCompleted PostStatus = "completed" // Post confirmed by the API
	PostStatusFailed    PostStatus = "failed"    // API rejected the post
)
