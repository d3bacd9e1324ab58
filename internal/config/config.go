package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Activity  ActivityConfig  `yaml:"activity"`
	Generator GeneratorConfig `yaml:"generator"`
	Browser   BrowserConfig   `yaml:"browser"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig contains the forum endpoint and account credentials
type SiteConfig struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	ForumID  int    `yaml:"forum_id"`
}

// ActivityConfig controls the human-like browsing and reply behavior
type ActivityConfig struct {
	ReplyMessages        []string `yaml:"reply_messages"`
	CommentInterval      int      `yaml:"comment_interval"`
	EnableRandomBrowsing bool     `yaml:"enable_random_browsing"`
	BrowsePageCount      int      `yaml:"browse_page_count"`
	EnableReply          bool     `yaml:"enable_reply"`
	ReplyCount           int      `yaml:"reply_count"`
}

// GeneratorConfig controls AI-backed reply generation
type GeneratorConfig struct {
	UseDeepSeek    bool   `yaml:"use_deepseek"`
	DeepSeekAPIKey string `yaml:"deepseek_api_key"`
	Model          string `yaml:"model"`
}

// BrowserConfig contains browser session settings
type BrowserConfig struct {
	Headless           bool `yaml:"headless"`
	WaitTimeoutSeconds int  `yaml:"wait_timeout"`
}

// TelegramConfig contains notification settings
type TelegramConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BotToken    string `yaml:"bot_token"`
	ChatID      string `yaml:"chat_id"`
	SendLogFile bool   `yaml:"send_log_file"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level    string `yaml:"level"`
	ToFile   bool   `yaml:"to_file"`
	FilePath string `yaml:"file_path"`
}

// Load loads configuration from a YAML file and environment variables
func Load(path string) (*Config, error) {
	// Load .env file if it exists (ignore errors if not present)
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "./config/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in YAML
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills in documented defaults for unset fields
func (c *Config) applyDefaults() {
	if c.Site.BaseURL == "" {
		c.Site.BaseURL = "https://www.sehuatang.org"
	}
	if c.Site.ForumID == 0 {
		c.Site.ForumID = 95
	}
	if c.Activity.CommentInterval == 0 {
		c.Activity.CommentInterval = 15
	}
	if c.Activity.BrowsePageCount == 0 {
		c.Activity.BrowsePageCount = 3
	}
	if c.Activity.ReplyCount == 0 {
		c.Activity.ReplyCount = 2
	}
	if c.Generator.Model == "" {
		c.Generator.Model = "deepseek-chat"
	}
	if c.Browser.WaitTimeoutSeconds == 0 {
		c.Browser.WaitTimeoutSeconds = 10
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/autosign.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "./logs/autosign.log"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Site.Username == "" {
		return fmt.Errorf("site username is required")
	}
	if c.Site.Password == "" {
		return fmt.Errorf("site password is required")
	}
	if c.Site.ForumID <= 0 {
		return fmt.Errorf("forum_id must be positive")
	}

	if c.Activity.CommentInterval < 0 {
		return fmt.Errorf("comment_interval must be non-negative")
	}
	if c.Activity.EnableRandomBrowsing && c.Activity.BrowsePageCount <= 0 {
		return fmt.Errorf("browse_page_count must be positive")
	}
	if c.Activity.EnableReply && c.Activity.ReplyCount <= 0 {
		return fmt.Errorf("reply_count must be positive")
	}

	if c.Generator.UseDeepSeek && c.Generator.DeepSeekAPIKey == "" {
		return fmt.Errorf("deepseek_api_key is required when use_deepseek is enabled")
	}

	if c.Browser.WaitTimeoutSeconds <= 0 {
		return fmt.Errorf("wait_timeout must be positive")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram chat_id is required when telegram is enabled")
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(s string) string {
	// Pattern matches ${VAR} or ${VAR:default}
	pattern := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return pattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := pattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}

// WaitTimeout returns the element wait timeout as a duration
func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.Browser.WaitTimeoutSeconds) * time.Second
}

// CommentInterval returns the minimum spacing between replies as a duration
func (c *Config) CommentInterval() time.Duration {
	return time.Duration(c.Activity.CommentInterval) * time.Second
}

// ListingURL returns the forum listing endpoint used for browsing and discovery
func (c *Config) ListingURL() string {
	return fmt.Sprintf("%s/forum.php?mod=forumdisplay&fid=%d", c.Site.BaseURL, c.Site.ForumID)
}

// ListingPageURL returns the listing endpoint for a specific page number
func (c *Config) ListingPageURL(page int) string {
	return fmt.Sprintf("%s&page=%d", c.ListingURL(), page)
}

// LoginURL returns the sign-in form endpoint
func (c *Config) LoginURL() string {
	return fmt.Sprintf("%s/member.php?mod=logging&action=login", c.Site.BaseURL)
}
