package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources    Sources    `yaml:"sources"`
	Generation Generation `yaml:"generation"`
	Research   Research   `yaml:"research"`
	Storage    Storage    `yaml:"storage"`
	Scheduler  Scheduler  `yaml:"scheduler"`
	Logging    Logging    `yaml:"logging"`
}

type Sources struct {
	Feeds     []Feed `yaml:"feeds"`
	News      Toggle `yaml:"news"`
	Video     Toggle `yaml:"video"`
	Social    Toggle `yaml:"social"`
	WebSearch Toggle `yaml:"websearch"`
	Forum     Forum  `yaml:"forum"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Toggle struct {
	Enabled bool `yaml:"enabled"`
}

type Forum struct {
	Enabled    bool     `yaml:"enabled"`
	Subreddits []string `yaml:"subreddits"`
}

type Generation struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	MaxRetries  int    `yaml:"max_retries"`
	Concurrency int    `yaml:"concurrency"`
	TimeoutSecs int    `yaml:"timeout_seconds"`
}

type Research struct {
	TimeoutSecs    int  `yaml:"timeout_seconds"`
	ItemsPerSource int  `yaml:"items_per_source"`
	StaleMaxCycles int  `yaml:"stale_max_cycles"`
	EnrichWebPages bool `yaml:"enrich_web_pages"`
}

type Storage struct {
	Backend string `yaml:"backend"` // "file" or "sqlite"
	DataDir string `yaml:"data_dir"`
}

type Scheduler struct {
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// Credentials holds API keys for the external sources and the generative
// model. They are never read from YAML, only from the environment (optionally
// via a .env file loaded at startup).
type Credentials struct {
	NewsAPIKey         string `envconfig:"NEWSAPI_KEY"`
	YouTubeAPIKey      string `envconfig:"YOUTUBE_API_KEY"`
	SerperAPIKey       string `envconfig:"SERPER_API_KEY"`
	RedditClientID     string `envconfig:"REDDIT_CLIENT_ID"`
	RedditClientSecret string `envconfig:"REDDIT_CLIENT_SECRET"`
	InstagramToken     string `envconfig:"INSTAGRAM_ACCESS_TOKEN"`
	InstagramAccountID string `envconfig:"INSTAGRAM_BUSINESS_ACCOUNT_ID"`
	OpenAIAPIKey       string `envconfig:"OPENAI_API_KEY"`
}

// LoadCredentials reads credentials from the environment.
func LoadCredentials() (*Credentials, error) {
	var creds Credentials
	if err := envconfig.Process("", &creds); err != nil {
		return nil, fmt.Errorf("reading credentials from environment: %w", err)
	}
	return &creds, nil
}

// ConfigDir returns the XDG config directory for reelforge.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "reelforge")
}

// DataDir returns the XDG data directory for reelforge.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "reelforge")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/reelforge/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'reelforge init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Sources: Sources{
			News:      Toggle{Enabled: true},
			Video:     Toggle{Enabled: true},
			Social:    Toggle{Enabled: true},
			WebSearch: Toggle{Enabled: true},
			Forum:     Forum{Enabled: true},
		},
		Generation: Generation{
			Provider:    "openai",
			Model:       "qwen2.5:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxRetries:  2,
			Concurrency: 3,
			TimeoutSecs: 120,
		},
		Research: Research{
			TimeoutSecs:    20,
			ItemsPerSource: 10,
			StaleMaxCycles: 7,
		},
		Storage: Storage{
			Backend: "file",
		},
		Scheduler: Scheduler{
			Cron:     "0 8 * * *",
			Timezone: "UTC",
		},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Storage.Backend != "file" && cfg.Storage.Backend != "sqlite" {
		return nil, fmt.Errorf("unknown storage backend %q (want file or sqlite)", cfg.Storage.Backend)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
