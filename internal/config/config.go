package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type StoreConfig struct {
	Path string `yaml:"path"` // bolt database file
}

type AccountsConfig struct {
	Count      int `yaml:"count"`       // configured account slots
	DailyLimit int `yaml:"daily_limit"` // videos per account per calendar day
}

type CampaignConfig struct {
	DataDir          string `yaml:"data_dir"`  // campaign asset directories live here
	DailyCap         int    `yaml:"daily_cap"` // max items per campaign per day
	ScheduleDays     int    `yaml:"schedule_days"`
	WordsPerSubtitle int    `yaml:"words_per_subtitle"`
}

type TimeoutsConfig struct {
	ImageGeneration time.Duration `yaml:"image_generation"`
	VideoGeneration time.Duration `yaml:"video_generation"`
	Clean           time.Duration `yaml:"clean"`
	Render          time.Duration `yaml:"render"`
}

type WebConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval"` // daily batch worker tick
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	Accounts  AccountsConfig  `yaml:"accounts"`
	Campaign  CampaignConfig  `yaml:"campaign"`
	Timeouts  TimeoutsConfig  `yaml:"timeouts"`
	Web       WebConfig       `yaml:"web"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	// Minimal validation
	if cfg.Accounts.DailyLimit <= 0 {
		return nil, errors.New("accounts.daily_limit must be positive")
	}
	if cfg.Store.Path == "" {
		return nil, errors.New("store.path is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Accounts.Count <= 0 {
		cfg.Accounts.Count = 3
	}
	if cfg.Accounts.DailyLimit == 0 {
		cfg.Accounts.DailyLimit = 3
	}
	if cfg.Campaign.DataDir == "" {
		cfg.Campaign.DataDir = "data/campaigns"
	}
	if cfg.Campaign.DailyCap <= 0 {
		cfg.Campaign.DailyCap = 9
	}
	if cfg.Campaign.ScheduleDays <= 0 {
		cfg.Campaign.ScheduleDays = 7
	}
	if cfg.Campaign.WordsPerSubtitle <= 0 {
		cfg.Campaign.WordsPerSubtitle = 2
	}
	if cfg.Timeouts.ImageGeneration <= 0 {
		cfg.Timeouts.ImageGeneration = 2 * time.Minute
	}
	if cfg.Timeouts.VideoGeneration <= 0 {
		cfg.Timeouts.VideoGeneration = 3 * time.Minute
	}
	if cfg.Timeouts.Clean <= 0 {
		cfg.Timeouts.Clean = time.Minute
	}
	if cfg.Timeouts.Render <= 0 {
		cfg.Timeouts.Render = 10 * time.Minute
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 5050
	}
	if cfg.Scheduler.Interval <= 0 {
		cfg.Scheduler.Interval = 15 * time.Minute
	}
}
