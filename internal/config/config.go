package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ErrMissingConfig is returned when a credential required by a command is absent
var ErrMissingConfig = errors.New("missing configuration")

// Default show identifiers
const (
	DefaultSpotifyShowID     = "0bj38cgbe71oCr5Q0emwvA"
	DefaultYouTubeChannelID  = "@kaigaicareerlog"
	DefaultApplePodcastID    = "1818019572"
	DefaultAmazonMusicShowID = "118b5e6b-1f97-4c62-97a5-754714381b40"
	DefaultAmazonMusicRegion = "co.jp"
)

// SpotifyConfig holds Spotify Web API credentials
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	ShowID       string
}

// YouTubeConfig holds YouTube Data API credentials
type YouTubeConfig struct {
	APIKey    string
	ChannelID string // channel id or @handle
}

// AppleConfig holds the iTunes podcast id (no credentials needed)
type AppleConfig struct {
	PodcastID string
}

// AmazonConfig holds the Amazon Music show page settings
type AmazonConfig struct {
	ShowID string
	Region string
}

// XConfig holds OAuth 1.0a user credentials for the X API
type XConfig struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
}

// Config holds all application configuration. Platform sections are nil
// when their credentials are absent.
type Config struct {
	// Platforms
	Spotify *SpotifyConfig
	YouTube *YouTubeConfig
	Apple   *AppleConfig
	Amazon  *AmazonConfig

	// Posting
	X             *XConfig
	Hosts         string // Host handles for intro posts
	GoogleFormURL string

	// Transcription / highlights
	AssemblyAIKey string
	GroqKey       string

	// Feed
	FeedURL string

	// Paths
	RSSDir         string // Episodes JSON + RSS XML snapshots
	TranscriptsDir string
	DataDir        string
	DatabaseFile   string // $DATA_DIR/castlog.db

	// Retention
	RetentionDays int // Episode JSON files kept (default: 3)

	// Daemon
	EnrichSchedule string
	PostSchedule   string
	ServerPort     string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = v.ReadInConfig()

	setDefaults(v)
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SPOTIFY_SHOW_ID", DefaultSpotifyShowID)
	v.SetDefault("YOUTUBE_CHANNEL_ID", DefaultYouTubeChannelID)
	v.SetDefault("APPLE_PODCAST_ID", DefaultApplePodcastID)
	v.SetDefault("AMAZON_MUSIC_SHOW_ID", DefaultAmazonMusicShowID)
	v.SetDefault("AMAZON_MUSIC_REGION", DefaultAmazonMusicRegion)
	v.SetDefault("AMAZON_MUSIC_ENABLED", true)
	v.SetDefault("RSS_DIR", filepath.Join("public", "rss"))
	v.SetDefault("TRANSCRIPTS_DIR", filepath.Join("public", "transcripts"))
	v.SetDefault("DATA_DIR", ".castlog")
	v.SetDefault("RETENTION_DAYS", 3)
	v.SetDefault("ENRICH_SCHEDULE", "0 */6 * * *")
	v.SetDefault("POST_SCHEDULE", "*/30 * * * *")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
}

func fromViper(v *viper.Viper) (*Config, error) {
	dataDir, err := filepath.Abs(v.GetString("DATA_DIR"))
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for DATA_DIR: %w", err)
	}

	cfg := &Config{
		Apple: &AppleConfig{PodcastID: platformID(v.GetString("APPLE_PODCAST_ID"), ApplePodcastIDFromURL)},

		Hosts:         v.GetString("X_HOSTS"),
		GoogleFormURL: v.GetString("GOOGLE_FORM_URL"),

		AssemblyAIKey: v.GetString("ASSEMBLYAI_API_KEY"),
		GroqKey:       v.GetString("GROQ_API_KEY"),

		FeedURL: v.GetString("FEED_URL"),

		RSSDir:         v.GetString("RSS_DIR"),
		TranscriptsDir: v.GetString("TRANSCRIPTS_DIR"),
		DataDir:        dataDir,
		DatabaseFile:   filepath.Join(dataDir, "castlog.db"),

		RetentionDays: v.GetInt("RETENTION_DAYS"),

		EnrichSchedule: v.GetString("ENRICH_SCHEDULE"),
		PostSchedule:   v.GetString("POST_SCHEDULE"),
		ServerPort:     v.GetString("SERVER_PORT"),

		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if id, secret := v.GetString("SPOTIFY_CLIENT_ID"), v.GetString("SPOTIFY_CLIENT_SECRET"); id != "" && secret != "" {
		cfg.Spotify = &SpotifyConfig{
			ClientID:     id,
			ClientSecret: secret,
			ShowID:       platformID(v.GetString("SPOTIFY_SHOW_ID"), SpotifyShowIDFromURL),
		}
	}

	if key := v.GetString("YOUTUBE_API_KEY"); key != "" {
		cfg.YouTube = &YouTubeConfig{
			APIKey:    key,
			ChannelID: platformID(v.GetString("YOUTUBE_CHANNEL_ID"), YouTubeChannelFromURL),
		}
	}

	if v.GetBool("AMAZON_MUSIC_ENABLED") {
		cfg.Amazon = &AmazonConfig{
			ShowID: platformID(v.GetString("AMAZON_MUSIC_SHOW_ID"), AmazonShowIDFromURL),
			Region: v.GetString("AMAZON_MUSIC_REGION"),
		}
	}

	x := &XConfig{
		APIKey:            v.GetString("X_API_KEY"),
		APISecret:         v.GetString("X_API_SECRET"),
		AccessToken:       v.GetString("X_ACCESS_TOKEN"),
		AccessTokenSecret: v.GetString("X_ACCESS_TOKEN_SECRET"),
	}
	if x.APIKey != "" || x.APISecret != "" || x.AccessToken != "" || x.AccessTokenSecret != "" {
		cfg.X = x
	}

	if cfg.RetentionDays < 0 {
		return nil, fmt.Errorf("RETENTION_DAYS must not be negative, got %d", cfg.RetentionDays)
	}

	return cfg, nil
}

// RequireX returns the X credentials or an error naming the missing variables
func (c *Config) RequireX() (*XConfig, error) {
	var missing []string
	if c.X == nil || c.X.AccessToken == "" {
		missing = append(missing, "X_ACCESS_TOKEN")
	}
	if c.X == nil || c.X.AccessTokenSecret == "" {
		missing = append(missing, "X_ACCESS_TOKEN_SECRET")
	}
	if c.X == nil || c.X.APIKey == "" {
		missing = append(missing, "X_API_KEY")
	}
	if c.X == nil || c.X.APISecret == "" {
		missing = append(missing, "X_API_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s required", ErrMissingConfig, strings.Join(missing, ", "))
	}
	return c.X, nil
}

// RequireSpotify returns the Spotify credentials or ErrMissingConfig
func (c *Config) RequireSpotify() (*SpotifyConfig, error) {
	if c.Spotify == nil {
		return nil, fmt.Errorf("%w: SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET required", ErrMissingConfig)
	}
	return c.Spotify, nil
}

// RequireYouTube returns the YouTube credentials or ErrMissingConfig
func (c *Config) RequireYouTube() (*YouTubeConfig, error) {
	if c.YouTube == nil {
		return nil, fmt.Errorf("%w: YOUTUBE_API_KEY required", ErrMissingConfig)
	}
	return c.YouTube, nil
}

// RequireAssemblyAI returns the AssemblyAI key or ErrMissingConfig
func (c *Config) RequireAssemblyAI() (string, error) {
	if c.AssemblyAIKey == "" {
		return "", fmt.Errorf("%w: ASSEMBLYAI_API_KEY required", ErrMissingConfig)
	}
	return c.AssemblyAIKey, nil
}

// RequireGroq returns the Groq key or ErrMissingConfig
func (c *Config) RequireGroq() (string, error) {
	if c.GroqKey == "" {
		return "", fmt.Errorf("%w: GROQ_API_KEY required", ErrMissingConfig)
	}
	return c.GroqKey, nil
}
