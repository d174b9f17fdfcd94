package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Reddit      RedditConfig     `yaml:"reddit"`
	Filters     FilterConfig     `yaml:"filters"`
	Comments    CommentConfig    `yaml:"comments"`
	Video       VideoConfig      `yaml:"video"`
	Audio       AudioConfig      `yaml:"audio"`
	Cards       CardConfig       `yaml:"cards"`
	Speech      SpeechConfig     `yaml:"speech"`
	Transitions TransitionConfig `yaml:"transitions"`
	Output      OutputConfig     `yaml:"output"`
	Ledger      LedgerConfig     `yaml:"ledger"`
	Upload      UploadConfig     `yaml:"upload"`
	AI          AIConfig         `yaml:"ai"`
	Email       EmailConfig      `yaml:"email"`
}

type RedditConfig struct {
	ClientID     string `yaml:"client_id" env:"REDDIT_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"REDDIT_CLIENT_SECRET"`
	Username     string `yaml:"username" env:"REDDIT_USERNAME"`
	Password     string `yaml:"password" env:"REDDIT_PASSWORD"`
	Subreddit    string `yaml:"subreddit"`
	PostURL      string `yaml:"post_url"` // when set, overrides subreddit scanning
	ScanLimit    int    `yaml:"scan_limit"`
	BatchSize    int    `yaml:"batch_size"`
}

type FilterConfig struct {
	Bypass         bool   `yaml:"bypass"`
	MinPostUpvotes int    `yaml:"min_post_upvotes"`
	MinComments    int    `yaml:"min_comments"`
	DateFrom       string `yaml:"date_from"` // inclusive, YYYY-MM-DD, UTC
	DateTo         string `yaml:"date_to"`   // inclusive, YYYY-MM-DD, UTC
}

// DateRange parses the configured date filter. Zero times mean the bound is
// open on that side.
func (f FilterConfig) DateRange() (from, to time.Time, err error) {
	if f.DateFrom != "" {
		from, err = time.ParseInLocation("2006-01-02", f.DateFrom, time.UTC)
		if err != nil {
			return from, to, fmt.Errorf("invalid filters.date_from %q: %w", f.DateFrom, err)
		}
	}
	if f.DateTo != "" {
		to, err = time.ParseInLocation("2006-01-02", f.DateTo, time.UTC)
		if err != nil {
			return from, to, fmt.Errorf("invalid filters.date_to %q: %w", f.DateTo, err)
		}
		// Inclusive day granularity: the bound covers the whole day.
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, fmt.Errorf("filters.date_to %s is before filters.date_from %s", f.DateTo, f.DateFrom)
	}
	return from, to, nil
}

type CommentConfig struct {
	Count           int      `yaml:"count"`
	Sort            string   `yaml:"sort"` // best, top, new, controversial
	MinScore        int      `yaml:"min_score"`
	BypassMinScore  bool     `yaml:"bypass_min_score"`
	IncludeKeywords []string `yaml:"include_keywords"`
}

type VideoConfig struct {
	Width           int    `yaml:"width"`
	Height          int    `yaml:"height"`
	BackgroundVideo string `yaml:"background_video"`
	IntroClip       string `yaml:"intro_clip"`
	OutroClip       string `yaml:"outro_clip"`
	Codec           string `yaml:"codec"`
	Bitrate         string `yaml:"bitrate"`
}

type AudioConfig struct {
	MusicFile   string  `yaml:"music_file"`
	MusicVolume float64 `yaml:"music_volume"` // 0 disables music mixing
}

type CardConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	FontFile    string  `yaml:"font_file"`
	MinFontSize float64 `yaml:"min_font_size"`
	MaxFontSize float64 `yaml:"max_font_size"`
	LineSpacing float64 `yaml:"line_spacing"`
	Background  string  `yaml:"background"` // hex, e.g. "#1a1a1b"
	Foreground  string  `yaml:"foreground"`
	Accent      string  `yaml:"accent"` // author/score header color
}

type SpeechConfig struct {
	Engine      string   `yaml:"engine"` // command or azure
	Command     string   `yaml:"command"`
	CommandArgs []string `yaml:"command_args"` // {text} and {out} placeholders
	AzureRegion string   `yaml:"azure_region" env:"AZURE_SPEECH_REGION"`
	AzureKey    string   `yaml:"azure_key" env:"AZURE_SPEECH_KEY"`
	AzureVoice  string   `yaml:"azure_voice"`
}

type TransitionConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Duration float64 `yaml:"duration"` // target cross-fade seconds
	Style    string  `yaml:"style"`    // xfade transition name
}

type OutputConfig struct {
	Root             string `yaml:"root"`
	CleanupArtifacts bool   `yaml:"cleanup_artifacts"`
	LogFile          string `yaml:"log_file"`
	FFmpegPath       string `yaml:"ffmpeg_path"`
	FFprobePath      string `yaml:"ffprobe_path"`
}

type LedgerConfig struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file"`
}

type UploadConfig struct {
	Enabled      bool     `yaml:"enabled"`
	ClientID     string   `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string   `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile    string   `yaml:"token_file"`
	CategoryID   string   `yaml:"category_id"`
	Privacy      string   `yaml:"privacy"` // private, unlisted, public
	Tags         []string `yaml:"tags"`
}

type AIConfig struct {
	Enabled      bool   `yaml:"enabled"`
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
}

type EmailConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	overlay(&c.Reddit.ClientID, "REDDIT_CLIENT_ID")
	overlay(&c.Reddit.ClientSecret, "REDDIT_CLIENT_SECRET")
	overlay(&c.Reddit.Username, "REDDIT_USERNAME")
	overlay(&c.Reddit.Password, "REDDIT_PASSWORD")
	overlay(&c.Speech.AzureRegion, "AZURE_SPEECH_REGION")
	overlay(&c.Speech.AzureKey, "AZURE_SPEECH_KEY")
	overlay(&c.Upload.ClientID, "GOOGLE_CLIENT_ID")
	overlay(&c.Upload.ClientSecret, "GOOGLE_CLIENT_SECRET")
	overlay(&c.AI.GeminiAPIKey, "GEMINI_API_KEY")
	overlay(&c.Email.Username, "EMAIL_USERNAME")
	overlay(&c.Email.Password, "EMAIL_PASSWORD")
}

func overlay(target *string, envKey string) {
	if *target == "" {
		*target = os.Getenv(envKey)
	}
}

func (c *Config) applyDefaults() {
	if c.Reddit.ScanLimit == 0 {
		c.Reddit.ScanLimit = 50
	}
	if c.Reddit.BatchSize == 0 {
		c.Reddit.BatchSize = 1
	}
	if c.Comments.Count == 0 {
		c.Comments.Count = 5
	}
	if c.Comments.Sort == "" {
		c.Comments.Sort = "top"
	}
	if c.Video.Width == 0 {
		c.Video.Width = 1080
	}
	if c.Video.Height == 0 {
		c.Video.Height = 1920
	}
	if c.Video.Codec == "" {
		c.Video.Codec = "libx264"
	}
	if c.Video.Bitrate == "" {
		c.Video.Bitrate = "4M"
	}
	if c.Cards.Width == 0 {
		c.Cards.Width = 900
	}
	if c.Cards.Height == 0 {
		c.Cards.Height = 1200
	}
	if c.Cards.MinFontSize == 0 {
		c.Cards.MinFontSize = 18
	}
	if c.Cards.MaxFontSize == 0 {
		c.Cards.MaxFontSize = 64
	}
	if c.Cards.LineSpacing == 0 {
		c.Cards.LineSpacing = 1.3
	}
	if c.Cards.Background == "" {
		c.Cards.Background = "#1a1a1b"
	}
	if c.Cards.Foreground == "" {
		c.Cards.Foreground = "#d7dadc"
	}
	if c.Cards.Accent == "" {
		c.Cards.Accent = "#ff4500"
	}
	if c.Speech.Engine == "" {
		c.Speech.Engine = "command"
	}
	if c.Speech.AzureVoice == "" {
		c.Speech.AzureVoice = "en-US-JennyNeural"
	}
	if c.Transitions.Duration == 0 {
		c.Transitions.Duration = 0.5
	}
	if c.Transitions.Style == "" {
		c.Transitions.Style = "fade"
	}
	if c.Output.Root == "" {
		c.Output.Root = "output"
	}
	if c.Output.FFmpegPath == "" {
		c.Output.FFmpegPath = "ffmpeg"
	}
	if c.Output.FFprobePath == "" {
		c.Output.FFprobePath = "ffprobe"
	}
	if c.Ledger.File == "" {
		c.Ledger.File = "data/uploaded_posts.txt"
	}
	if c.Upload.TokenFile == "" {
		c.Upload.TokenFile = "youtube_token.json"
	}
	if c.Upload.CategoryID == "" {
		c.Upload.CategoryID = "24" // Entertainment
	}
	if c.Upload.Privacy == "" {
		c.Upload.Privacy = "private"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
}

func (c *Config) validate() error {
	if c.Reddit.Subreddit == "" && c.Reddit.PostURL == "" {
		return fmt.Errorf("either reddit.subreddit or reddit.post_url is required")
	}
	if c.Video.BackgroundVideo == "" {
		return fmt.Errorf("video.background_video is required")
	}
	if _, err := os.Stat(c.Video.BackgroundVideo); err != nil {
		return fmt.Errorf("video.background_video %s is not readable: %w", c.Video.BackgroundVideo, err)
	}
	if c.Cards.FontFile == "" {
		return fmt.Errorf("cards.font_file is required")
	}
	if _, err := os.Stat(c.Cards.FontFile); err != nil {
		return fmt.Errorf("cards.font_file %s is not readable: %w", c.Cards.FontFile, err)
	}
	if c.Cards.MinFontSize > c.Cards.MaxFontSize {
		return fmt.Errorf("cards.min_font_size %g exceeds cards.max_font_size %g", c.Cards.MinFontSize, c.Cards.MaxFontSize)
	}
	switch c.Speech.Engine {
	case "command":
		if c.Speech.Command == "" {
			return fmt.Errorf("speech.command is required for the command engine")
		}
	case "azure":
		if c.Speech.AzureRegion == "" || c.Speech.AzureKey == "" {
			return fmt.Errorf("speech.azure_region and speech.azure_key are required for the azure engine (set AZURE_SPEECH_REGION/AZURE_SPEECH_KEY)")
		}
	default:
		return fmt.Errorf("unknown speech engine %q (want command or azure)", c.Speech.Engine)
	}
	if c.Upload.Enabled {
		if c.Upload.ClientID == "" || c.Upload.ClientSecret == "" {
			return fmt.Errorf("upload client credentials are required (set GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET)")
		}
	}
	if c.AI.Enabled && c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("ai.gemini_api_key is required when ai.enabled (set GEMINI_API_KEY)")
	}
	if c.Email.Enabled {
		if c.Email.Username == "" || c.Email.Password == "" {
			return fmt.Errorf("email credentials are required when email.enabled (set EMAIL_USERNAME/EMAIL_PASSWORD)")
		}
	}
	if c.Filters.DateFrom != "" || c.Filters.DateTo != "" {
		if _, _, err := c.Filters.DateRange(); err != nil {
			return err
		}
	}
	if c.Audio.MusicVolume < 0 || c.Audio.MusicVolume > 1 {
		return fmt.Errorf("audio.music_volume %g must be within [0, 1]", c.Audio.MusicVolume)
	}
	return nil
}
