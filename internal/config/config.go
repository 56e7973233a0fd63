package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Readwise  ReadwiseConfig  `yaml:"readwise"`
	Notion    NotionConfig    `yaml:"notion"`
	State     StateConfig     `yaml:"state"`
	Publisher PublisherConfig `yaml:"publisher"`
	LogLevel  string          `yaml:"log_level"`

	// Credentials come from the environment, never from the config file.
	ReadwiseToken    string `yaml:"-"`
	NotionToken      string `yaml:"-"`
	NotionDatabaseID string `yaml:"-"`
}

type ReadwiseConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type NotionConfig struct {
	BaseURL string        `yaml:"base_url"`
	Version string        `yaml:"version"`
	Timeout time.Duration `yaml:"timeout"`
}

type StateConfig struct {
	Backend string `yaml:"backend"` // "file" or "sqlite"
	Dir     string `yaml:"dir"`     // file backend: directory holding the JSON documents
	Path    string `yaml:"path"`    // sqlite backend: database file
}

type PublisherConfig struct {
	URL        string `yaml:"url"` // empty disables event publishing
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

// Load reads the optional YAML config file, expanding environment references
// inside it, and pulls credentials from the environment. A missing config
// file is not an error: the tool runs on defaults plus the three required
// environment variables.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg.ReadwiseToken = os.Getenv("READWISE_TOKEN")
	cfg.NotionToken = os.Getenv("NOTION_TOKEN")
	cfg.NotionDatabaseID = os.Getenv("NOTION_DATABASE_ID")

	cfg.setDefaults()

	return &cfg, nil
}

// Validate checks the required credentials. Called before any network I/O so
// a misconfigured run aborts with no side effects.
func (c *Config) Validate() error {
	if c.ReadwiseToken == "" {
		return fmt.Errorf("READWISE_TOKEN is not set")
	}
	if c.NotionToken == "" {
		return fmt.Errorf("NOTION_TOKEN is not set")
	}
	if c.NotionDatabaseID == "" {
		return fmt.Errorf("NOTION_DATABASE_ID is not set")
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Readwise.BaseURL == "" {
		c.Readwise.BaseURL = "https://readwise.io/api/v2"
	}
	if c.Readwise.Timeout == 0 {
		c.Readwise.Timeout = 30 * time.Second
	}
	if c.Notion.BaseURL == "" {
		c.Notion.BaseURL = "https://api.notion.com/v1"
	}
	if c.Notion.Version == "" {
		c.Notion.Version = "2022-06-28"
	}
	if c.Notion.Timeout == 0 {
		c.Notion.Timeout = 30 * time.Second
	}
	if c.State.Backend == "" {
		c.State.Backend = "file"
	}
	if c.State.Dir == "" {
		c.State.Dir = "."
	}
	if c.State.Path == "" {
		c.State.Path = "sync_state.db"
	}
	if c.Publisher.Exchange == "" {
		c.Publisher.Exchange = "readwise_notion_sync"
	}
	if c.Publisher.RoutingKey == "" {
		c.Publisher.RoutingKey = "pages"
	}
	if c.Publisher.QueueName == "" {
		c.Publisher.QueueName = "synced_pages"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
