package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
// It captures the generation backend, message limits, follow-up timing and storage.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Messaging MessagingConfig `yaml:"messaging"`
	FollowUp  FollowUpConfig  `yaml:"followup"`
	Sending   SendingConfig   `yaml:"sending"`
	Gate      GateConfig      `yaml:"gate"`
	Rules     RulesConfig     `yaml:"rules"`
	Market    MarketConfig    `yaml:"market"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai" or "none"
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"baseURL"`
	// If empty, read from env OPENAI_API_KEY
	APIKey      string  `yaml:"apiKey"`
	Temperature float64 `yaml:"temperature"`
	RPS         float64 `yaml:"rps"`
	Burst       int     `yaml:"burst"`
	MaxAttempts int     `yaml:"maxAttempts"`
	// Base backoff between transport retries, milliseconds
	BaseBackoffMS int `yaml:"baseBackoffMs"`
	TimeoutSec    int `yaml:"timeoutSec"`
	// Score candidates with the LLM in the spam guard
	QualityCheck bool `yaml:"qualityCheck"`
	// Classify replies with the LLM before keyword fallback
	ClassifyReplies bool `yaml:"classifyReplies"`
	// Ask the LLM whether an accepted message reads as human-typed
	Safeguard bool `yaml:"safeguard"`
}

type MessagingConfig struct {
	MaxGenerationRetries int     `yaml:"maxGenerationRetries"`
	MinQualityScore      int     `yaml:"minQualityScore"`
	MaxWords             int     `yaml:"maxWords"`
	MaxExclamationMarks  int     `yaml:"maxExclamationMarks"`
	MaxQuestionMarks     int     `yaml:"maxQuestionMarks"`
	TypoProbability      float64 `yaml:"typoProbability"`
}

type FollowUpConfig struct {
	FollowUp1MinDays      int    `yaml:"followup1MinDays"`
	FollowUp1MaxDays      int    `yaml:"followup1MaxDays"`
	FollowUp2MinDays      int    `yaml:"followup2MinDays"`
	FollowUp2MaxDays      int    `yaml:"followup2MaxDays"`
	MaxFollowUpsPerSeller int    `yaml:"maxFollowupsPerSeller"`
	SendWindowStartHour   int    `yaml:"sendWindowStartHour"`
	SendWindowEndHour     int    `yaml:"sendWindowEndHour"`
	Timezone              string `yaml:"timezone"`
	// Dispatch loop tick, seconds
	TickSec int `yaml:"tickSec"`
}

type SendingConfig struct {
	MaxMessagesPerDay int `yaml:"maxMessagesPerDay"`
	MinDelaySeconds   int `yaml:"minDelaySeconds"`
	MaxDelaySeconds   int `yaml:"maxDelaySeconds"`
	// Quiet hours in the follow-up timezone
	QuietHours []int `yaml:"quietHours"`
}

// GateConfig holds the broker's listing criteria. Zero values disable a check.
type GateConfig struct {
	MinPrice       int      `yaml:"minPrice"`
	MaxPrice       int      `yaml:"maxPrice"`
	PropertyTypes  []string `yaml:"propertyTypes"`
	PLZPrefixes    []string `yaml:"plzPrefixes"`
	Cities         []string `yaml:"cities"`
	Bundeslaender  []string `yaml:"bundeslaender"`
	MinWohnflaeche float64  `yaml:"minWohnflaeche"`
	MaxWohnflaeche float64  `yaml:"maxWohnflaeche"`
	MinZimmer      int      `yaml:"minZimmer"`
	// Ask the LLM whether the listing is from a private seller
	LLMCheck bool `yaml:"llmCheck"`
}

type RulesConfig struct {
	// Optional YAML overriding the built-in keyword tables
	Path string `yaml:"path"`
}

type MarketConfig struct {
	// Optional YAML/JSON price table; empty uses the embedded one
	Path string `yaml:"path"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Provider: "none", Model: "gpt-4o-mini", Temperature: 0.8,
			RPS: 1, Burst: 3, MaxAttempts: 4, BaseBackoffMS: 500, TimeoutSec: 60,
			QualityCheck: true, ClassifyReplies: true, Safeguard: true,
		},
		Messaging: MessagingConfig{
			MaxGenerationRetries: 2, MinQualityScore: 6, MaxWords: 100,
			MaxExclamationMarks: 1, MaxQuestionMarks: 1, TypoProbability: 0.08,
		},
		FollowUp: FollowUpConfig{
			FollowUp1MinDays: 3, FollowUp1MaxDays: 5,
			FollowUp2MinDays: 10, FollowUp2MaxDays: 14,
			MaxFollowUpsPerSeller: 2,
			SendWindowStartHour:   8,
			SendWindowEndHour:     21,
			Timezone:              "Europe/Berlin",
			TickSec:               300,
		},
		Sending: SendingConfig{MaxMessagesPerDay: 20, MinDelaySeconds: 180, MaxDelaySeconds: 600, QuietHours: []int{}},
		Gate:    GateConfig{},
		Market:  MarketConfig{},
		Storage: StorageConfig{DBPath: "./outreach.db"},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(err, "load env file %s", p)
		}
	}
	return nil
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.LLM.APIKey == "" && c.LLM.Provider == "openai" {
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if v := os.Getenv("OUTREACH_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = os.Getenv("METRICS_ADDR")
	}
	if v := os.Getenv("OUTREACH_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("OUTREACH_MAX_MESSAGES_PER_DAY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Sending.MaxMessagesPerDay = n
		}
	}
	if v := os.Getenv("SAFEGUARD_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.LLM.Safeguard = b
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Location returns the follow-up timezone, UTC when unknown.
func (c Config) Location() *time.Location {
	if c.FollowUp.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.FollowUp.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads YAML config from path on top of Default().
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create config dir")
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return os.WriteFile(path, b, 0o644)
}
