// Load envs from .env
// Load YAML config
// Apply CLI-friendly defaults
// Validate config

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-upwork-scraper/internal/scraper"
)

type Config struct {
	// Search
	Query   string          `yaml:"query"` // keyword or raw search URL
	Filters scraper.Filters `yaml:"filters"`

	// Traversal bounds
	MaxItems   int    `yaml:"max_items"`
	MaxPages   int    `yaml:"max_pages"`
	RetryLimit int    `yaml:"retry_limit"`
	RetryDelay string `yaml:"retry_delay"`

	// Transport
	RequestDelay string `yaml:"request_delay"`
	Timeout      string `yaml:"timeout"`
	Proxy        string `yaml:"proxy" env:"PROXY_URL"`
	UserAgent    string `yaml:"user_agent"`

	// Output
	OutputFormat string `yaml:"output_format"`
	OutputDir    string `yaml:"output_dir"`
	FilePrefix   string `yaml:"file_prefix"`

	// Optional Telegram run-summary notifications
	TelegramToken  string `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Warning: Could not read %s: %v", path, err)
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	//Override with env vars
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}
	if proxy := os.Getenv("PROXY_URL"); proxy != "" {
		cfg.Proxy = proxy
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxItems == 0 {
		c.MaxItems = 100
	}
	if c.MaxPages == 0 {
		c.MaxPages = 10
	}
	if c.RetryLimit == 0 {
		c.RetryLimit = 3
	}
	if c.RetryDelay == "" {
		c.RetryDelay = "2s"
	}
	if c.RequestDelay == "" {
		c.RequestDelay = "2s"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.OutputFormat == "" {
		c.OutputFormat = "json"
	}
	if c.OutputDir == "" {
		c.OutputDir = "data"
	}
	if c.FilePrefix == "" {
		c.FilePrefix = "upwork_jobs"
	}
}

func (c *Config) Validate() error {
	if c.Query == "" {
		return fmt.Errorf("query is required (keyword or search URL)")
	}
	if c.MaxItems < 0 {
		return fmt.Errorf("max_items must be positive, got %d", c.MaxItems)
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max_pages must be positive, got %d", c.MaxPages)
	}
	if c.RetryLimit <= 0 {
		return fmt.Errorf("retry_limit must be positive, got %d", c.RetryLimit)
	}
	for name, value := range map[string]string{
		"retry_delay":   c.RetryDelay,
		"request_delay": c.RequestDelay,
		"timeout":       c.Timeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// Duration parses one of the duration fields. Call Validate first.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
