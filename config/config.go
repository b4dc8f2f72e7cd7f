package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/models"

	"gopkg.in/yaml.v3"
)

// Browser engines understood by the scraper package
const (
	EngineRod      = "rod"
	EngineChromedp = "chromedp"
)

// Sort orders for the result table and exports
const (
	SortDefault = "default"
	SortRating  = "rating"
)

// Config represents the full application configuration
type Config struct {
	Search struct {
		Keyword  string `yaml:"keyword"`
		Location string `yaml:"location"`
		Limit    int    `yaml:"limit"`
		Headless bool   `yaml:"headless"`
	} `yaml:"search"`

	Browser struct {
		Engine    string `yaml:"engine"`
		DataDir   string `yaml:"data_dir"`
		Bin       string `yaml:"bin"`
		UserAgent string `yaml:"user_agent"`
	} `yaml:"browser"`

	Navigation struct {
		StartURL       string        `yaml:"start_url"`
		PageTimeout    time.Duration `yaml:"page_timeout"`
		FeedTimeout    time.Duration `yaml:"feed_timeout"`
		ConsentTimeout time.Duration `yaml:"consent_timeout"`
	} `yaml:"navigation"`

	Scroll struct {
		StallThreshold int           `yaml:"stall_threshold"`
		ScrollDelay    time.Duration `yaml:"scroll_delay"`
		PollInterval   time.Duration `yaml:"poll_interval"`
		WheelDelta     float64       `yaml:"wheel_delta"`
		MaxDuration    time.Duration `yaml:"max_duration"`
	} `yaml:"scroll"`

	Extract struct {
		ClickSettle time.Duration `yaml:"click_settle"`
	} `yaml:"extract"`

	Output struct {
		File            string  `yaml:"file"`
		Sort            string  `yaml:"sort"`
		MinRating       float64 `yaml:"min_rating"`
		SpreadsheetURL  string  `yaml:"spreadsheet_url"`
		CredentialsPath string  `yaml:"credentials_path"`
	} `yaml:"output"`

	Telegram struct {
		Token        string        `yaml:"-"`
		AllowedUsers []int64       `yaml:"allowed_users"`
		QueueSize    int           `yaml:"queue_size"`
		EditInterval time.Duration `yaml:"edit_interval"`
	} `yaml:"telegram"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// LoadConfig loads configuration from a YAML file on top of the defaults.
// A missing file is not an error: the defaults are returned.
func LoadConfig(path string) (*Config, error) {
	cfg := GetDefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Search.Keyword = "Coffee Shop"
	cfg.Search.Location = "London, UK"
	cfg.Search.Limit = 20
	cfg.Search.Headless = false

	cfg.Browser.Engine = EngineRod
	cfg.Browser.DataDir = "/tmp/gmaps-leads"

	cfg.Navigation.StartURL = "https://www.google.com/maps"
	cfg.Navigation.PageTimeout = 60 * time.Second
	cfg.Navigation.FeedTimeout = 15 * time.Second
	cfg.Navigation.ConsentTimeout = 3 * time.Second

	cfg.Scroll.StallThreshold = 3
	cfg.Scroll.ScrollDelay = 2 * time.Second
	cfg.Scroll.PollInterval = 250 * time.Millisecond
	cfg.Scroll.WheelDelta = 5000

	cfg.Extract.ClickSettle = 500 * time.Millisecond

	cfg.Output.File = "B2B_Leads.xlsx"
	cfg.Output.Sort = SortDefault

	cfg.Telegram.QueueSize = 10
	cfg.Telegram.EditInterval = 2 * time.Second
	return cfg
}

// ApplyEnv overrides selected values from environment variables
func (c *Config) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")); v != "" {
		c.Telegram.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("BOT_DATA_DIR")); v != "" {
		c.Browser.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("CHROME_BIN")); v != "" {
		c.Browser.Bin = v
	}
	if v := strings.TrimSpace(os.Getenv("HEADLESS")); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid HEADLESS value: %w", err)
		}
		c.Search.Headless = headless
	}
	return nil
}

// Validate rejects values the scraper cannot work with
func (c *Config) Validate() error {
	if c.Search.Limit < models.MinLimit || c.Search.Limit > models.MaxLimit {
		return fmt.Errorf("search.limit must be between %d and %d", models.MinLimit, models.MaxLimit)
	}
	switch c.Browser.Engine {
	case EngineRod, EngineChromedp:
	default:
		return fmt.Errorf("unknown browser.engine %q", c.Browser.Engine)
	}
	switch c.Output.Sort {
	case SortDefault, SortRating:
	default:
		return fmt.Errorf("unknown output.sort %q", c.Output.Sort)
	}
	if c.Scroll.StallThreshold < 1 {
		return fmt.Errorf("scroll.stall_threshold must be at least 1")
	}
	if c.Scroll.ScrollDelay < 0 || c.Scroll.PollInterval < 0 || c.Scroll.MaxDuration < 0 {
		return fmt.Errorf("scroll durations must not be negative")
	}
	if c.Navigation.PageTimeout <= 0 || c.Navigation.FeedTimeout <= 0 {
		return fmt.Errorf("navigation timeouts must be positive")
	}
	if c.Telegram.QueueSize < 1 {
		return fmt.Errorf("telegram.queue_size must be at least 1")
	}
	return nil
}

// SearchRequest returns the configured default search
func (c *Config) SearchRequest() models.SearchRequest {
	return models.SearchRequest{
		Keyword:  c.Search.Keyword,
		Location: c.Search.Location,
		Limit:    c.Search.Limit,
		Headless: c.Search.Headless,
	}
}

// UserAllowed reports whether a Telegram user may use the bot.
// An empty allow-list admits everyone.
func (c *Config) UserAllowed(userID int64) bool {
	if len(c.Telegram.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.Telegram.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
