// Load envs from .env
// Load YAML config
// Validate config
// Provide default values

package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-zhipin-automation/internal/logger"
)

type Config struct {
	// Search sweep parameters
	Cities     []string `yaml:"cities"`
	Queries    []string `yaml:"queries"`
	Salaries   []string `yaml:"salaries"`
	Experience string   `yaml:"experience"`
	Degree     string   `yaml:"degree"`
	Scale      string   `yaml:"scale"`

	// Crawl behaviour
	LoggedInBrowser    bool `yaml:"logged_in_browser"`
	RandomizeSeedStart bool `yaml:"randomize_seed_start"`
	SeedBatchSize      int  `yaml:"seed_batch_size"`
	MaxCrawlRequests   int  `yaml:"max_crawl_requests"`
	ContactLimit       int  `yaml:"contact_limit"`

	// Outreach
	Greeting         string `yaml:"greeting"`
	GreetingPrompt   string `yaml:"greeting_prompt"`
	Bio              string `yaml:"bio"`
	GenerateGreeting bool   `yaml:"generate_greeting"`

	// Paths
	CookiesPath   string `yaml:"cookies_path"`
	CachePath     string `yaml:"cache_path"`
	CityFilePath  string `yaml:"city_file_path"`
	UserDataDir   string `yaml:"user_data_dir"`
	ScreenshotDir string `yaml:"screenshot_dir"`

	// External services (env only, never in YAML)
	DatabaseURL    string `yaml:"-"`
	DocstoreURL    string `yaml:"-"`
	RedisURL       string `yaml:"-"`
	GoogleAPIKey   string `yaml:"-"`
	TelegramToken  string `yaml:"-"`
	TelegramChatID int64  `yaml:"-"`
}

// Load reads configs/config.yaml, applies env overrides and defaults.
// Missing required values are fatal.
func Load() *Config {
	return LoadFile("configs/config.yaml")
}

// LoadFile is Load with an explicit YAML path.
func LoadFile(path string) *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warnf("Could not read %s: %v", path, err)
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			logger.Fatalf("Error parsing %s: %v", path, err)
		}
	}

	// Override with env vars
	cfg.DatabaseURL = os.Getenv("POSTGRES_URL")
	cfg.DocstoreURL = os.Getenv("DOCSTORE_URL")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			logger.Fatalf("Invalid TELEGRAM_CHAT_ID: %v", err)
		}
		cfg.TelegramChatID = id
	}

	// Set default values if not set
	if cfg.CookiesPath == "" {
		cfg.CookiesPath = ".cookies"
	}
	if cfg.CachePath == "" {
		cfg.CachePath = ".cache"
	}
	if cfg.CityFilePath == "" {
		cfg.CityFilePath = ".cache/city.json"
	}
	if cfg.UserDataDir == "" {
		cfg.UserDataDir = ".chromium"
	}
	if cfg.ScreenshotDir == "" {
		cfg.ScreenshotDir = "error"
	}
	if cfg.SeedBatchSize == 0 {
		cfg.SeedBatchSize = 9
	}
	if cfg.MaxCrawlRequests == 0 {
		cfg.MaxCrawlRequests = 100
	}
	if cfg.ContactLimit == 0 {
		cfg.ContactLimit = 40
	}
	if cfg.DocstoreURL == "" {
		cfg.DocstoreURL = cfg.DatabaseURL
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		logger.Fatalf("POSTGRES_URL is required")
	}
	if len(cfg.Cities) == 0 || len(cfg.Queries) == 0 {
		logger.Fatalf("cities and queries must be configured")
	}
	if len(cfg.Salaries) == 0 {
		cfg.Salaries = []string{""}
	}

	return cfg
}
