package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AI          AIConfig           `yaml:"ai"`
	Storage     StorageConfig      `yaml:"storage"`
	YouTube     YouTubeConfig      `yaml:"youtube"`
	Collections []CollectionConfig `yaml:"collections"`
	Email       EmailConfig        `yaml:"email"`
	Monitoring  MonitoringConfig   `yaml:"monitoring"`
	Schedule    string             `yaml:"schedule"`
}

type AIConfig struct {
	GeminiAPIKey string  `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string  `yaml:"model"`
	Temperature  float32 `yaml:"temperature"`
	// Density is "scene" or "action".
	Density string `yaml:"density"`
}

type StorageConfig struct {
	// Backend is one of file, sqlite, postgres or memory.
	Backend    string `yaml:"backend"`
	DataDir    string `yaml:"data_dir"`
	Path       string `yaml:"path"`
	DSN        string `yaml:"dsn" env:"DATABASE_URL"`
	QuotaBytes int64  `yaml:"quota_bytes"`
}

type YouTubeConfig struct {
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	APIKey       string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	TokenFile    string `yaml:"token_file"`
}

// CollectionConfig describes one set of videos annotated together. Videos
// come from a playlist, from the static list, or both.
type CollectionConfig struct {
	ID          string        `yaml:"id"`
	Description string        `yaml:"description"`
	PlaylistID  string        `yaml:"playlist_id"`
	Videos      []VideoConfig `yaml:"videos"`
	Labels      []string      `yaml:"labels"`
}

type VideoConfig struct {
	Filename        string  `yaml:"filename"`
	URL             string  `yaml:"url"`
	Title           string  `yaml:"title"`
	DurationSeconds float64 `yaml:"duration"`
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

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
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

	return Parse(data)
}

// Parse decodes YAML config data, applies environment overrides and
// defaults, and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.YouTube.ClientID == "" {
		c.YouTube.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if c.YouTube.ClientSecret == "" {
		c.YouTube.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if c.YouTube.APIKey == "" {
		c.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if c.Storage.DSN == "" {
		c.Storage.DSN = os.Getenv("DATABASE_URL")
	}
	if c.Email.Username == "" {
		c.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if c.Email.Password == "" {
		c.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}
}

func (c *Config) applyDefaults() {
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.2
	}
	if c.AI.Density == "" {
		c.AI.Density = "scene"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.Backend == "sqlite" && c.Storage.Path == "" {
		c.Storage.Path = "data/annotations.db"
	}
	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if c.Email.FromEmail == "" {
		c.Email.FromEmail = c.Email.Username
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Schedule == "" {
		c.Schedule = "0 0 3 * * *" // Daily at 3 AM
	}
}

func (c *Config) validate() error {
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.AI.Density != "scene" && c.AI.Density != "action" {
		return fmt.Errorf("ai.density must be scene or action, got %q", c.AI.Density)
	}

	switch c.Storage.Backend {
	case "file", "sqlite", "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("Postgres DSN is required (set DATABASE_URL or storage.dsn)")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.QuotaBytes < 0 {
		return fmt.Errorf("storage.quota_bytes must not be negative")
	}

	if len(c.Collections) == 0 {
		return fmt.Errorf("at least one collection is required")
	}
	seen := make(map[string]bool)
	needsYouTube := false
	for i, col := range c.Collections {
		if strings.TrimSpace(col.ID) == "" {
			return fmt.Errorf("collections[%d].id is required", i)
		}
		if seen[col.ID] {
			return fmt.Errorf("duplicate collection id %q", col.ID)
		}
		seen[col.ID] = true
		if col.PlaylistID == "" && len(col.Videos) == 0 {
			return fmt.Errorf("collection %q needs a playlist_id or videos", col.ID)
		}
		for j, v := range col.Videos {
			if v.URL == "" {
				return fmt.Errorf("collection %q videos[%d].url is required", col.ID, j)
			}
		}
		if col.PlaylistID != "" {
			needsYouTube = true
		}
	}

	if needsYouTube && c.YouTube.APIKey == "" && (c.YouTube.ClientID == "" || c.YouTube.ClientSecret == "") {
		return fmt.Errorf("YouTube credentials are required for playlist collections (set YOUTUBE_API_KEY or GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET)")
	}

	if c.Email.Enabled {
		if c.Email.SMTPServer == "" {
			return fmt.Errorf("email.smtp_server is required when email is enabled")
		}
		if c.Email.Username == "" {
			return fmt.Errorf("Email username is required (set EMAIL_USERNAME or email.username)")
		}
		if c.Email.Password == "" {
			return fmt.Errorf("Email password is required (set EMAIL_PASSWORD or email.password)")
		}
		if c.Email.ToEmail == "" {
			return fmt.Errorf("email.to_email is required when email is enabled")
		}
	}
	return nil
}

// Collection returns the collection with the given id.
func (c *Config) Collection(id string) (CollectionConfig, bool) {
	for _, col := range c.Collections {
		if col.ID == id {
			return col, true
		}
	}
	return CollectionConfig{}, false
}
